package physics

import (
	"github.com/lixenwraith/parallax/collision"
	"github.com/lixenwraith/parallax/vmath"
)

// ResolveCollision separates the body from a collision and bounces its velocity
// other is the body behind the other collider, nil for static geometry
// Returns the axes on which movement stopped
func (b *Body) ResolveCollision(solution collision.Solution, other *Body) vmath.Axis {
	if !b.IsActive() || solution.Depth <= 0 {
		return vmath.AxisNone
	}

	translation := solution.Translation
	otherBounciness := vmath.Fixed(0)
	if other != nil {
		otherBounciness = other.bounciness
		if other.IsAwake() {
			// Both sides resolve, each takes half
			translation = translation.DivScalar(2 * vmath.One)
			// Being pushed by a body moving into us is an impulse
			if other.velocity.Dot(solution.Direction) > 0 {
				b.Wake()
			}
		}
		b.SetSurfaceFriction(other.friction)
	}
	b.position = b.position.Add(translation)

	return b.Bounce(solution.Direction, otherBounciness)
}

// bounceStopSpeed is the reflected speed below which a bounce settles
var bounceStopSpeed = vmath.One

// Bounce reflects the velocity component moving into the surface with normal n
// Restitution is the mean of both bouncinesses
func (b *Body) Bounce(normal vmath.Vec3, otherBounciness vmath.Fixed) vmath.Axis {
	into := b.velocity.Dot(normal)
	if into >= 0 {
		return vmath.AxisNone
	}
	restitution := vmath.Clamp((b.bounciness+otherBounciness)>>1, 0, vmath.One)
	// v' = v - (1 + e)(v.n)n
	b.velocity = b.velocity.Sub(normal.Scale(vmath.Mul(vmath.One+restitution, into)))

	var stopped vmath.Axis
	for _, axis := range vmath.Axes3D {
		if normal.Component(axis) == 0 {
			continue
		}
		if vmath.Abs(b.velocity.Component(axis)) < bounceStopSpeed {
			b.velocity = b.velocity.SetComponent(axis, 0)
			stopped |= axis
		}
	}
	if restitution > 0 && !b.velocity.IsZero() {
		b.Wake()
	}
	return stopped
}
