// Package sprite places textures on screen through world layers and object attribute memory
package sprite

import (
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/render"
	"github.com/lixenwraith/parallax/texture"
	"github.com/lixenwraith/parallax/vmath"
	"github.com/lixenwraith/parallax/vram"
)

// Kind selects how a sprite reaches the screen
type Kind uint8

const (
	// KindBgmap takes a whole world layer showing the texture's map region
	KindBgmap Kind = iota
	// KindObject copies the texture's map cells into object attributes of a container
	KindObject
)

func (k Kind) String() string {
	if k == KindObject {
		return "object"
	}
	return "bgmap"
}

// Spec is read-only sprite configuration
type Spec struct {
	Kind         Kind
	Texture      *texture.Spec
	Displacement vmath.Vec3 // Offset from the owner position
	Hidden       bool
}

// Sprite is a positioned texture
type Sprite struct {
	handle   memory.Handle
	owner    uint32
	spec     *Spec
	textures *texture.Manager
	texture  *texture.Texture

	position   vmath.Vec3
	projection render.Projection
	hidden     bool
	visible    bool
	layer      int

	container *ObjectSpriteContainer
	objects   int // Object attributes used, Cols*Rows
}

func (s *Sprite) Owner() uint32                 { return s.owner }
func (s *Sprite) Spec() *Spec                   { return s.spec }
func (s *Sprite) Kind() Kind                    { return s.spec.Kind }
func (s *Sprite) Texture() *texture.Texture     { return s.texture }
func (s *Sprite) Position() vmath.Vec3          { return s.position }
func (s *Sprite) Projection() render.Projection { return s.projection }

// Layer is the world index used in the last render, -1 when none
func (s *Sprite) Layer() int { return s.layer }

// Visible reports whether the last render put the sprite on screen
func (s *Sprite) Visible() bool { return s.visible }

func (s *Sprite) Hidden() bool { return s.hidden }
func (s *Sprite) Show()        { s.hidden = false }
func (s *Sprite) Hide()        { s.hidden = true }

// SetPosition moves the sprite to the owner position; Spec.Displacement is added on render
func (s *Sprite) SetPosition(position vmath.Vec3) { s.position = position }

// Depth is the camera-relative depth from the last render
func (s *Sprite) Depth() vmath.Fixed { return s.projection.Depth }

// SetFrame selects a texture frame, used as an animation frame writer
func (s *Sprite) SetFrame(frame int) bool {
	return s.textures.SetFrame(s.texture, frame)
}

// SetMirror flips the texture
func (s *Sprite) SetMirror(horizontal, vertical bool) {
	s.textures.SetMirror(s.texture, horizontal, vertical)
}

// PixelSize is the on-screen size of the texture
func (s *Sprite) PixelSize() (w, h int) {
	return s.texture.Cols() * vram.TileSize, s.texture.Rows() * vram.TileSize
}

func (s *Sprite) project(ctx *render.Context) {
	s.projection = ctx.Project(s.position.Add(s.spec.Displacement))
	w, h := s.PixelSize()
	s.visible = !s.hidden && ctx.OnScreen(s.projection, w, h)
}
