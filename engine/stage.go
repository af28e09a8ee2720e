package engine

import (
	"fmt"

	"github.com/lixenwraith/parallax/animation"
	"github.com/lixenwraith/parallax/collision"
	"github.com/lixenwraith/parallax/event"
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/physics"
	"github.com/lixenwraith/parallax/status"
	"github.com/lixenwraith/parallax/vmath"
)

// Stage owns the entities of one game state with their physics, collision and animation
// Display memory managers are shared through the engine
type Stage struct {
	name       string
	engine     *Engine
	world      *physics.World
	colliders  *collision.Manager
	animations *animation.Manager

	entities *memory.Arena[Entity]
	byID     map[uint32]*Entity
	nextID   uint32

	subscriptions []event.ListenerID
	suspended     bool
}

func newStage(name string, e *Engine) *Stage {
	cfg := e.cfg.Memory
	s := &Stage{
		name:       name,
		engine:     e,
		world:      physics.NewWorld(e.pool, cfg.Bodies, e.physicsContext(), e.bus, e.registry),
		colliders:  collision.NewManager(e.pool, cfg.Colliders, e.bus, e.registry, e.logger),
		animations: animation.NewManager(e.pool, cfg.Animations, e.bus, e.registry),
		entities:   memory.NewArena[Entity](e.pool, cfg.Entities, memory.TagEntity),
		byID:       make(map[uint32]*Entity, cfg.Entities),
	}
	s.subscriptions = append(s.subscriptions,
		e.bus.Subscribe(event.EventCollisionEnded, s.onCollisionEnded),
		e.bus.Subscribe(event.EventEntityExpired, s.onEntityExpired),
	)
	return s
}

func (s *Stage) Name() string                   { return s.name }
func (s *Stage) World() *physics.World          { return s.world }
func (s *Stage) Colliders() *collision.Manager  { return s.colliders }
func (s *Stage) Animations() *animation.Manager { return s.animations }
func (s *Stage) Count() int                     { return s.entities.Len() }
func (s *Stage) Entity(id uint32) *Entity       { return s.byID[id] }

// Each visits entities in spawn order
func (s *Stage) Each(fn func(*Entity) bool) {
	s.entities.Each(func(_ memory.Handle, e *Entity) bool {
		return fn(e)
	})
}

// SpawnEntity builds every part of spec at position
// When any part cannot be allocated the parts built so far are released and the
// error wraps the exhaustion cause
func (s *Stage) SpawnEntity(spec *EntitySpec, position vmath.Vec3) (*Entity, error) {
	h, e, err := s.entities.Alloc()
	if err != nil {
		s.engine.registry.Int(status.KeyExhaustions).Add(1)
		return nil, fmt.Errorf("spawn %q: %w", spec.Name, err)
	}
	s.nextID++
	*e = Entity{
		handle:         h,
		id:             s.nextID,
		spec:           spec,
		stage:          s,
		transformation: vmath.IdentityAt(position),
	}

	if err := s.build(e); err != nil {
		s.release(e)
		s.engine.throttle.Printf("stage %s: spawn %q skipped: %v", s.name, spec.Name, err)
		return nil, fmt.Errorf("spawn %q: %w", spec.Name, err)
	}

	s.byID[e.id] = e
	e.syncSprites()
	if spec.LifetimeMS > 0 {
		s.engine.FireAfter(event.EventEntityExpired, s, e.id, spec.LifetimeMS)
	}
	s.engine.bus.Fire(event.EventEntitySpawned, s, e)
	s.engine.registry.Int(status.KeyEntities).Store(int64(s.entities.Len()))
	return e, nil
}

func (s *Stage) build(e *Entity) error {
	spec := e.spec
	if spec.Body != nil {
		body, err := s.world.CreateBody(e.id, spec.Body, e.transformation.Position)
		if err != nil {
			return err
		}
		e.body = body
	}
	for _, cs := range spec.Colliders {
		c, err := s.colliders.Create(e.id, cs, e.transformation, spec.Size)
		if err != nil {
			return err
		}
		e.colliders = append(e.colliders, c)
	}
	for _, ss := range spec.Sprites {
		sp, err := s.engine.sprites.Create(e.id, ss)
		if err != nil {
			return err
		}
		if s.suspended {
			sp.Hide()
		}
		e.sprites = append(e.sprites, sp)
	}
	if spec.Animation != nil {
		var key any
		if spec.SharedAnimation {
			key = spec
		}
		c, err := s.animations.Create(e.id, spec.Animation, animation.FrameWriterFunc(e.setFrame), key)
		if err != nil {
			return err
		}
		e.animation = c
		if spec.InitialAnimation != "" {
			if err := c.Play(spec.InitialAnimation); err != nil {
				return err
			}
		}
	}
	return nil
}

// DestroyEntity removes e and every part it owns
func (s *Stage) DestroyEntity(e *Entity) {
	if e == nil || s.entities.Get(e.handle) != e {
		return
	}
	s.engine.bus.Fire(event.EventEntityDestroyed, s, e)
	delete(s.byID, e.id)
	supports := len(e.colliders) > 0
	s.release(e)
	if supports {
		// Sleeping bodies may have rested on e
		s.world.Each(func(b *physics.Body) bool {
			b.Wake()
			return true
		})
	}
	s.engine.registry.Int(status.KeyEntities).Store(int64(s.entities.Len()))
}

func (s *Stage) release(e *Entity) {
	s.animations.Destroy(e.animation)
	for _, sp := range e.sprites {
		s.engine.sprites.Destroy(sp)
	}
	for _, c := range e.colliders {
		s.colliders.Destroy(c)
	}
	s.world.DestroyBody(e.body)
	s.entities.Free(e.handle)
}

// Update runs the simulation half of a frame: physics, collider transforms, collision
// detection, collision resolution, animation, then sprite positions
func (s *Stage) Update(elapsedMS int) {
	s.world.Update(vmath.FromMillis(elapsedMS))

	s.entities.Each(func(_ memory.Handle, e *Entity) bool {
		if e.body != nil {
			e.transformation.Position = e.body.Position()
		}
		e.transformColliders()
		return true
	})

	s.resolve(s.colliders.Update())
	s.animations.Update(elapsedMS)

	s.entities.Each(func(_ memory.Handle, e *Entity) bool {
		e.syncSprites()
		return true
	})
}

// resolve pushes bodies out of what they hit
func (s *Stage) resolve(collisions []collision.CollisionInformation) {
	stopped := 0
	for _, info := range collisions {
		e := s.byID[info.Collider.Owner()]
		if e == nil || e.body == nil {
			continue
		}
		var other *physics.Body
		if o := s.byID[info.Other.Owner()]; o != nil {
			other = o.body
		}
		if e.body.ResolveCollision(info.Solution, other) != vmath.AxisNone {
			stopped++
		}
		e.transformation.Position = e.body.Position()
	}
	s.engine.registry.Int(status.KeyBodiesStopped).Store(int64(stopped))
}

// supportTolerance is how far a resting body may sit from its support and still count as touching
var supportTolerance = vmath.One

// onCollisionEnded wakes a sleeping body whose support went away
// Resolution leaves resting bodies exactly touching, which the narrow phase reports as a gap,
// so the test is repeated with the collider inflated by supportTolerance
func (s *Stage) onCollisionEnded(ev event.Event) {
	info, ok := ev.Payload.(collision.CollisionInformation)
	if !ok || !s.colliders.Owns(info.Collider) {
		return
	}
	e := s.byID[info.Collider.Owner()]
	if e == nil || e.body == nil || e.body.IsAwake() {
		return
	}
	if info.Other.Enabled() {
		if _, touching := info.Collider.TestForCollision(info.Other, vmath.Vec3{}, supportTolerance); touching {
			return
		}
	}
	e.body.Wake()
}

func (s *Stage) onEntityExpired(ev event.Event) {
	if ev.Source != s {
		return
	}
	if id, ok := ev.Payload.(uint32); ok {
		s.DestroyEntity(s.byID[id])
	}
}

// DrawColliders draws collider wireframes into d
func (s *Stage) DrawColliders(d collision.Drawer, color uint8) {
	s.colliders.Draw(d, color)
}

// Suspend hides the stage's sprites while another state runs on top
func (s *Stage) Suspend() {
	s.suspended = true
	s.eachSprite(func(e *Entity, i int) { e.sprites[i].Hide() })
}

// Resume shows sprites again unless their spec starts hidden
func (s *Stage) Resume() {
	s.suspended = false
	s.eachSprite(func(e *Entity, i int) {
		if !e.sprites[i].Spec().Hidden {
			e.sprites[i].Show()
		}
	})
}

func (s *Stage) eachSprite(fn func(e *Entity, i int)) {
	s.entities.Each(func(_ memory.Handle, e *Entity) bool {
		for i := range e.sprites {
			fn(e, i)
		}
		return true
	})
}

// Close destroys every entity and detaches from the bus
func (s *Stage) Close() {
	s.entities.Each(func(_ memory.Handle, e *Entity) bool {
		s.DestroyEntity(e)
		return true
	})
	for _, id := range s.subscriptions {
		s.engine.bus.Unsubscribe(id)
	}
	s.subscriptions = nil
	s.engine.queue.Cancel(event.EventEntityExpired, s)
}
