package render

import (
	"github.com/lixenwraith/parallax/vmath"
)

// Optics describes the viewer: eye distance to the screen plane and eye separation
type Optics struct {
	DistanceEyeScreen         vmath.Fixed // Depth of the zero-parallax plane from the eyes
	BaseDistance              vmath.Fixed // Half the eye separation, the parallax limit at infinity
	HorizontalViewPointCenter vmath.Fixed
	VerticalViewPointCenter   vmath.Fixed
	MaximumViewDistance       vmath.Fixed // Depth beyond which projection is clamped
}

// DefaultOptics centers the view point on a 384x224 screen
func DefaultOptics() Optics {
	return Optics{
		DistanceEyeScreen:         vmath.FromInt(384),
		BaseDistance:              vmath.FromInt(32),
		HorizontalViewPointCenter: vmath.FromInt(192),
		VerticalViewPointCenter:   vmath.FromInt(112),
		MaximumViewDistance:       vmath.FromInt(4096),
	}
}

// Projection is a world point on screen; each eye sees X shifted by Parallax in opposite directions
type Projection struct {
	X, Y     int
	Parallax int
	Depth    vmath.Fixed // Camera-relative depth
}

// LeftX and RightX are the per-eye screen columns
func (p Projection) LeftX() int  { return p.X - p.Parallax }
func (p Projection) RightX() int { return p.X + p.Parallax }

// Context is the explicit camera and optics state passed to every projecting call
type Context struct {
	Optics       Optics
	Camera       vmath.Vec3
	ScreenWidth  int
	ScreenHeight int
}

func NewContext(optics Optics, width, height int) *Context {
	return &Context{Optics: optics, ScreenWidth: width, ScreenHeight: height}
}

// Translate moves the camera
func (c *Context) Translate(delta vmath.Vec3) {
	c.Camera = c.Camera.Add(delta)
}

// Project maps a world point through camera and optics
// Points on the screen plane (depth 0) project unchanged with zero parallax
func (c *Context) Project(world vmath.Vec3) Projection {
	rel := world.Sub(c.Camera)
	o := &c.Optics

	z := rel.Z
	if o.MaximumViewDistance > 0 {
		z = vmath.Clamp(z, -o.MaximumViewDistance, o.MaximumViewDistance)
	}
	// Keep the point in front of the eyes
	if minZ := -o.DistanceEyeScreen + vmath.One; z < minZ {
		z = minZ
	}
	denom := o.DistanceEyeScreen + z

	x := rel.X + vmath.MulDiv(o.HorizontalViewPointCenter-rel.X, z, denom)
	y := rel.Y + vmath.MulDiv(o.VerticalViewPointCenter-rel.Y, z, denom)
	parallax := vmath.MulDiv(o.BaseDistance, z, denom)

	return Projection{X: x.Round(), Y: y.Round(), Parallax: parallax.Round(), Depth: rel.Z}
}

// OnScreen reports whether any part of a w x h box at p is visible in either eye
func (c *Context) OnScreen(p Projection, w, h int) bool {
	left := min(p.LeftX(), p.RightX())
	right := max(p.LeftX(), p.RightX()) + w
	return right > 0 && left < c.ScreenWidth && p.Y+h > 0 && p.Y < c.ScreenHeight
}
