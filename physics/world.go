package physics

import (
	"fmt"

	"github.com/lixenwraith/parallax/event"
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/status"
	"github.com/lixenwraith/parallax/vmath"
)

// World owns every body and steps them once per frame
type World struct {
	arena    *memory.Arena[Body]
	bus      *event.Bus
	registry *status.Registry
	ctx      Context
}

// NewWorld allocates a body arena with fixed capacity from pool
func NewWorld(pool *memory.Pool, capacity int, ctx Context, bus *event.Bus, registry *status.Registry) *World {
	if ctx.TimeScale == 0 {
		ctx.TimeScale = vmath.One
	}
	return &World{
		arena:    memory.NewArena[Body](pool, capacity, memory.TagBody),
		bus:      bus,
		registry: registry,
		ctx:      ctx,
	}
}

// Context returns the live context; changes apply from the next Update
func (w *World) Context() *Context { return &w.ctx }

func (w *World) SetGravity(g vmath.Vec3)    { w.ctx.Gravity = g }
func (w *World) SetTimeScale(s vmath.Fixed) { w.ctx.TimeScale = s }
func (w *World) Count() int                 { return w.arena.Len() }

// CreateBody registers an active, awake body for owner
func (w *World) CreateBody(owner uint32, spec *Spec, position vmath.Vec3) (*Body, error) {
	h, b, err := w.arena.Alloc()
	if err != nil {
		w.registry.Int(status.KeyExhaustions).Add(1)
		w.bus.Fire(event.EventResourceExhausted, owner, "body")
		return nil, fmt.Errorf("create body for entity %d: %w", owner, err)
	}
	b.handle = h
	b.init(owner, spec, position)
	b.Activate()
	return b, nil
}

// DestroyBody disposes and unregisters b
func (w *World) DestroyBody(b *Body) {
	if b == nil || w.arena.Get(b.handle) != b {
		return
	}
	b.Destroy()
	w.arena.Free(b.handle)
}

// Each visits bodies in registration order
func (w *World) Each(fn func(*Body) bool) {
	w.arena.Each(func(_ memory.Handle, b *Body) bool {
		return fn(b)
	})
}

// Update steps every body by elapsed seconds scaled by the time scale, then clears
// external forces on every registered body regardless of state
func (w *World) Update(elapsed vmath.Fixed) {
	dt := vmath.Mul(elapsed, w.ctx.TimeScale)
	awake, asleep := 0, 0

	w.arena.Each(func(_ memory.Handle, b *Body) bool {
		result := b.UpdateMovement(&w.ctx, dt)
		if result.Woke {
			w.bus.Fire(event.EventBodyAwake, b.owner, b)
		}
		if result.Slept {
			w.bus.Fire(event.EventBodySleep, b.owner, b)
		}
		if result.AxesStoppedMovement != vmath.AxisNone {
			w.bus.Fire(event.EventBodyStopped, b.owner, result.AxesStoppedMovement)
		}
		switch b.state {
		case StateAwake:
			awake++
		case StateAsleep:
			asleep++
		}
		return true
	})

	w.arena.Each(func(_ memory.Handle, b *Body) bool {
		b.ClearExternalForce()
		return true
	})

	w.registry.Int(status.KeyBodiesAwake).Store(int64(awake))
	w.registry.Int(status.KeyBodiesAsleep).Store(int64(asleep))
}
