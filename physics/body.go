// Package physics integrates body movement in fixed point and tracks sleep state
package physics

import (
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/vmath"
)

// State is the body lifecycle state
type State uint8

const (
	StateInactive State = iota
	StateAsleep
	StateAwake
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateAsleep:
		return "asleep"
	case StateAwake:
		return "awake"
	case StateDisposed:
		return "disposed"
	}
	return "unknown"
}

// Spec is read-only body configuration
type Spec struct {
	Mass         vmath.Fixed // Zero is treated as One
	Friction     vmath.Fixed // Deceleration per second against movement
	Bounciness   vmath.Fixed // Restitution, One is perfectly elastic
	MaximumSpeed vmath.Fixed // Zero is unbounded
	GravityAxes  vmath.Axis
}

// MovementResult reports what changed during one integration step
type MovementResult struct {
	AxesStoppedMovement vmath.Axis
	Woke                bool
	Slept               bool
}

// Body is a point mass owned by an entity
type Body struct {
	handle memory.Handle
	owner  uint32
	spec   *Spec

	position      vmath.Vec3
	velocity      vmath.Vec3
	acceleration  vmath.Vec3
	externalForce vmath.Vec3

	mass            vmath.Fixed
	friction        vmath.Fixed
	surfaceFriction vmath.Fixed
	bounciness      vmath.Fixed
	maximumSpeed    vmath.Fixed
	gravityAxes     vmath.Axis

	state     State
	idleSteps int
}

// NewBody builds a standalone inactive body; World.CreateBody also activates
func NewBody(owner uint32, spec *Spec, position vmath.Vec3) *Body {
	b := &Body{}
	b.init(owner, spec, position)
	return b
}

func (b *Body) init(owner uint32, spec *Spec, position vmath.Vec3) {
	b.owner = owner
	b.spec = spec
	b.position = position
	b.mass = spec.Mass
	if b.mass <= 0 {
		b.mass = vmath.One
	}
	b.friction = spec.Friction
	b.bounciness = vmath.Clamp(spec.Bounciness, 0, vmath.One)
	b.maximumSpeed = spec.MaximumSpeed
	b.gravityAxes = spec.GravityAxes
	b.state = StateInactive
}

func (b *Body) Handle() memory.Handle          { return b.handle }
func (b *Body) Owner() uint32                  { return b.owner }
func (b *Body) Spec() *Spec                    { return b.spec }
func (b *Body) State() State                   { return b.state }
func (b *Body) Position() vmath.Vec3           { return b.position }
func (b *Body) Velocity() vmath.Vec3           { return b.velocity }
func (b *Body) Acceleration() vmath.Vec3       { return b.acceleration }
func (b *Body) ExternalForce() vmath.Vec3      { return b.externalForce }
func (b *Body) Mass() vmath.Fixed              { return b.mass }
func (b *Body) Bounciness() vmath.Fixed        { return b.bounciness }
func (b *Body) Friction() vmath.Fixed          { return b.friction }
func (b *Body) SurfaceFriction() vmath.Fixed   { return b.surfaceFriction }
func (b *Body) GravityAxes() vmath.Axis        { return b.gravityAxes }
func (b *Body) IsAwake() bool                  { return b.state == StateAwake }
func (b *Body) IsActive() bool                 { return b.state == StateAwake || b.state == StateAsleep }
func (b *Body) SetGravityAxes(axes vmath.Axis) { b.gravityAxes = axes }

// Activate moves an inactive body to awake
func (b *Body) Activate() {
	if b.state == StateInactive {
		b.state = StateAwake
		b.idleSteps = 0
	}
}

// Deactivate stops integration and drops pending force and velocity
func (b *Body) Deactivate() {
	if b.state == StateDisposed {
		return
	}
	b.state = StateInactive
	b.velocity = vmath.Vec3{}
	b.acceleration = vmath.Vec3{}
	b.externalForce = vmath.Vec3{}
	b.idleSteps = 0
}

// Wake moves an asleep body to awake immediately, reporting whether the state changed
func (b *Body) Wake() bool {
	if b.state != StateAsleep {
		return false
	}
	b.state = StateAwake
	b.idleSteps = 0
	return true
}

// Destroy is terminal
func (b *Body) Destroy() {
	b.state = StateDisposed
	b.velocity = vmath.Vec3{}
	b.externalForce = vmath.Vec3{}
}

// ApplyForce accumulates force for the next step
// An asleep body wakes at its next UpdateMovement; inactive and disposed bodies refuse
func (b *Body) ApplyForce(force vmath.Vec3) bool {
	if !b.IsActive() || force.IsZero() {
		return false
	}
	b.externalForce = b.externalForce.Add(force)
	return true
}

// ApplyGravity pushes the body with its weight along axes, which wakes an asleep body
// at the next step even when its gravity axes are masked off
func (b *Body) ApplyGravity(ctx *Context, axes vmath.Axis) bool {
	return b.ApplyForce(ctx.Gravity.Mask(axes).Scale(b.mass))
}

// ClearExternalForce resets the accumulator, called once per frame after integration
func (b *Body) ClearExternalForce() {
	b.externalForce = vmath.Vec3{}
}

// SetVelocity overrides velocity, waking an asleep body when non-zero
func (b *Body) SetVelocity(v vmath.Vec3) {
	if !b.IsActive() {
		return
	}
	b.velocity = v.ClampMagnitude(b.maximumSpeed)
	if !v.IsZero() {
		b.Wake()
	}
}

// MoveTo teleports without touching velocity
func (b *Body) MoveTo(position vmath.Vec3) {
	b.position = position
}

// SetSurfaceFriction sets friction contributed by the surface the body rests on
func (b *Body) SetSurfaceFriction(f vmath.Fixed) {
	b.surfaceFriction = vmath.Max(f, 0)
}

// StopMovement zeroes velocity and acceleration on axes, returning the axes that were moving
func (b *Body) StopMovement(axes vmath.Axis) vmath.Axis {
	var stopped vmath.Axis
	for _, axis := range vmath.Axes3D {
		if axes&axis == 0 {
			continue
		}
		if b.velocity.Component(axis) != 0 {
			stopped |= axis
		}
		b.velocity = b.velocity.SetComponent(axis, 0)
		b.acceleration = b.acceleration.SetComponent(axis, 0)
	}
	return stopped
}

// UpdateMovement integrates one step of dt seconds
//
// Sleep is evaluated on the velocity left by the previous frame, after collision resolution:
// SleepSteps consecutive steps below SleepThreshold on the gravity axes with no pending force
func (b *Body) UpdateMovement(ctx *Context, dt vmath.Fixed) MovementResult {
	var result MovementResult

	switch b.state {
	case StateAwake:
	case StateAsleep:
		if b.externalForce.IsZero() {
			return result
		}
		b.Wake()
		result.Woke = true
	default:
		return result
	}

	if b.externalForce.IsZero() && b.below(ctx.SleepThreshold) {
		b.idleSteps++
		if ctx.SleepSteps > 0 && b.idleSteps >= ctx.SleepSteps {
			b.velocity = vmath.Vec3{}
			b.acceleration = vmath.Vec3{}
			b.state = StateAsleep
			result.Slept = true
			return result
		}
	} else {
		b.idleSteps = 0
	}

	previous := b.velocity

	b.acceleration = ctx.Gravity.Mask(b.gravityAxes)
	if !b.externalForce.IsZero() {
		b.acceleration = b.acceleration.Add(b.externalForce.DivScalar(b.mass))
	}
	b.velocity = b.velocity.Add(b.acceleration.Scale(dt))
	b.applyFriction(dt)
	b.velocity = b.velocity.ClampMagnitude(b.maximumSpeed)
	b.position = b.position.Add(b.velocity.Scale(dt))

	for _, axis := range vmath.Axes3D {
		if previous.Component(axis) != 0 && b.velocity.Component(axis) == 0 {
			result.AxesStoppedMovement |= axis
		}
	}
	return result
}

// applyFriction decelerates every axis toward zero without reversing
func (b *Body) applyFriction(dt vmath.Fixed) {
	total := b.friction + b.surfaceFriction
	if total <= 0 {
		return
	}
	decel := vmath.Mul(total, dt)
	for _, axis := range vmath.Axes3D {
		v := b.velocity.Component(axis)
		switch {
		case v > 0:
			v = vmath.Max(0, v-decel)
		case v < 0:
			v = vmath.Min(0, v+decel)
		}
		b.velocity = b.velocity.SetComponent(axis, v)
	}
}

// below checks the gravity axes; a body free of gravity checks every axis
func (b *Body) below(threshold vmath.Fixed) bool {
	axes := b.gravityAxes
	if axes == vmath.AxisNone {
		axes = vmath.AxisAll
	}
	for _, axis := range vmath.Axes3D {
		if axes&axis != 0 && vmath.Abs(b.velocity.Component(axis)) >= threshold {
			return false
		}
	}
	return true
}
