package engine

import (
	"github.com/lixenwraith/parallax/animation"
	"github.com/lixenwraith/parallax/collision"
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/physics"
	"github.com/lixenwraith/parallax/sprite"
	"github.com/lixenwraith/parallax/vmath"
)

// EntitySpec is read-only entity configuration; every part is optional
type EntitySpec struct {
	Name      string
	Size      vmath.Size // Stands in for zero collider dimensions
	Body      *physics.Spec
	Colliders []*collision.Spec
	Sprites   []*sprite.Spec

	Animation        *animation.Description
	InitialAnimation string
	SharedAnimation  bool // One controller animates every entity of this spec

	LifetimeMS int // Zero lives until destroyed
}

// Entity ties a body, its colliders, sprites and animation to one transformation
type Entity struct {
	handle memory.Handle
	id     uint32
	spec   *EntitySpec
	stage  *Stage

	transformation vmath.Transformation
	body           *physics.Body
	colliders      []*collision.Collider
	sprites        []*sprite.Sprite
	animation      *animation.Controller
}

func (e *Entity) ID() uint32                           { return e.id }
func (e *Entity) Spec() *EntitySpec                    { return e.spec }
func (e *Entity) Name() string                         { return e.spec.Name }
func (e *Entity) Body() *physics.Body                  { return e.body }
func (e *Entity) Colliders() []*collision.Collider     { return e.colliders }
func (e *Entity) Sprites() []*sprite.Sprite            { return e.sprites }
func (e *Entity) Animation() *animation.Controller     { return e.animation }
func (e *Entity) Transformation() vmath.Transformation { return e.transformation }

// Position follows the body when there is one
func (e *Entity) Position() vmath.Vec3 {
	if e.body != nil {
		return e.body.Position()
	}
	return e.transformation.Position
}

// MoveTo places the entity, its body and colliders at position
func (e *Entity) MoveTo(position vmath.Vec3) {
	if e.body != nil {
		e.body.MoveTo(position)
	}
	e.transformation.Position = position
	e.transformColliders()
}

// SetRotation rotates the entity's colliders
func (e *Entity) SetRotation(rotation vmath.Rotation) {
	e.transformation.Rotation = rotation
	e.transformColliders()
}

func (e *Entity) transformColliders() {
	t := &e.transformation
	for _, c := range e.colliders {
		c.Transform(t.Position, t.Rotation, t.Scale, e.spec.Size)
	}
}

func (e *Entity) syncSprites() {
	position := e.Position()
	for _, s := range e.sprites {
		s.SetPosition(position)
	}
}

// setFrame drives every sprite of the entity from one animation controller
func (e *Entity) setFrame(frame int) bool {
	changed := false
	for _, s := range e.sprites {
		if s.SetFrame(frame) {
			changed = true
		}
	}
	return changed
}
