// Package collision implements collider geometry, narrow phase overlap tests and the
// broad phase manager that pairs registered colliders once per frame
package collision

import (
	"github.com/lixenwraith/parallax/vmath"
)

// Kind is the closed set of collider variants
type Kind uint8

const (
	KindBox Kind = iota
	KindInverseBox
	KindBall
	KindLineField
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "Box"
	case KindInverseBox:
		return "InverseBox"
	case KindBall:
		return "Ball"
	case KindLineField:
		return "LineField"
	}
	return "Unknown"
}

// Layer is a collision layer bitmask
type Layer uint32

const (
	LayerNone Layer = 0
	LayerAll  Layer = ^Layer(0)
)

// DefaultLineFieldDepth is the crossing threshold used when a line field spec leaves it zero
var DefaultLineFieldDepth = vmath.FromInt(8)

// Spec is read-only collider configuration, shared between instances
//
// PixelSize meaning per kind:
//   - Box, InverseBox: full width, height, depth; zero uses the owner size
//   - Ball: X is the diameter; zero uses the owner's largest dimension
//   - LineField: X is the segment length, Y the crossing threshold behind the line
type Spec struct {
	Kind               Kind
	PixelSize          vmath.Size
	Displacement       vmath.Vec3     // Offset from owner position, rotated with the owner
	Rotation           vmath.Rotation // Added to owner rotation
	Scale              vmath.Scale    // Multiplied with owner scale, zero is identity
	CheckForCollisions bool           // Collider actively tests others
	Layers             Layer          // Zero means all layers
	LayersToIgnore     Layer
}
