package collision

import (
	"fmt"
	"log"

	"github.com/lixenwraith/parallax/event"
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/status"
	"github.com/lixenwraith/parallax/vmath"
)

// Stats counts broad phase work for the last Update
type Stats struct {
	Colliders      int
	PairsTested    int // Candidate pairs with at least one active tester
	LayerRejected  int
	BoundsRejected int
	NarrowTests    int
	Collisions     int
}

// Manager owns the collider registry and runs the per-frame broad phase
type Manager struct {
	arena    *memory.Arena[Collider]
	bus      *event.Bus
	registry *status.Registry
	logger   *log.Logger

	frame   int64
	stats   Stats
	scratch []*Collider
	results []CollisionInformation
}

// NewManager allocates a collider arena with fixed capacity from pool
func NewManager(pool *memory.Pool, capacity int, bus *event.Bus, registry *status.Registry, logger *log.Logger) *Manager {
	return &Manager{
		arena:    memory.NewArena[Collider](pool, capacity, memory.TagCollider),
		bus:      bus,
		registry: registry,
		logger:   logger,
		scratch:  make([]*Collider, 0, capacity),
		results:  make([]CollisionInformation, 0, capacity),
	}
}

// Create registers a collider for owner, transformed to the owner's current state
func (m *Manager) Create(owner uint32, spec *Spec, transformation vmath.Transformation, ownerSize vmath.Size) (*Collider, error) {
	h, c, err := m.arena.Alloc()
	if err != nil {
		m.registry.Int(status.KeyExhaustions).Add(1)
		m.bus.Fire(event.EventResourceExhausted, owner, "collider")
		return nil, fmt.Errorf("create %s collider for entity %d: %w", spec.Kind, owner, err)
	}
	c.handle = h
	c.init(owner, spec, m.bus)
	c.Transform(transformation.Position, transformation.Rotation, transformation.Scale, ownerSize)
	return c, nil
}

// Destroy unregisters c. Colliders in contact with it get EventCollisionEnded,
// fired while c is still registered but disabled
func (m *Manager) Destroy(c *Collider) {
	if !m.Owns(c) {
		return
	}
	c.enabled = false
	m.arena.Each(func(_ memory.Handle, o *Collider) bool {
		if info, ok := o.dropContact(c); ok {
			m.bus.Fire(event.EventCollisionEnded, o.owner, info)
		}
		return true
	})
	owner := c.owner
	m.arena.Free(c.handle)
	m.bus.Fire(event.EventColliderDeleted, owner, nil)
}

// Owns reports whether c is registered with this manager
func (m *Manager) Owns(c *Collider) bool {
	return c != nil && m.arena.Get(c.handle) == c
}

// DestroyOwned removes every collider of owner
func (m *Manager) DestroyOwned(owner uint32) {
	m.arena.Each(func(_ memory.Handle, c *Collider) bool {
		if c.owner == owner {
			m.Destroy(c)
		}
		return true
	})
}

// Owned appends owner's colliders to dst in registration order
func (m *Manager) Owned(owner uint32, dst []*Collider) []*Collider {
	m.arena.Each(func(_ memory.Handle, c *Collider) bool {
		if c.owner == owner {
			dst = append(dst, c)
		}
		return true
	})
	return dst
}

func (m *Manager) Count() int   { return m.arena.Len() }
func (m *Manager) Stats() Stats { return m.stats }

// Update pairs every registered collider once, runs the narrow phase on survivors and
// fires contact events. The returned slice is reused by the next call
//
// Pairs are enumerated i<j in registration order; a pair is skipped unless one side checks
// for collisions. When both sides check, each gets its own information in the result
func (m *Manager) Update() []CollisionInformation {
	m.frame++
	m.stats = Stats{}
	m.results = m.results[:0]
	colliders := m.arena.Items(m.scratch[:0])
	m.scratch = colliders
	m.stats.Colliders = len(colliders)

	for i, a := range colliders {
		for _, b := range colliders[i+1:] {
			if !a.checkForCollisions && !b.checkForCollisions {
				continue
			}
			m.stats.PairsTested++
			if !a.enabled || !b.enabled {
				continue
			}
			if a.owner != 0 && a.owner == b.owner {
				continue
			}
			if !a.CanCollideWith(b) {
				m.stats.LayerRejected++
				continue
			}
			if a.kind != KindInverseBox && b.kind != KindInverseBox && !a.geometry.Bounds.Overlaps(b.geometry.Bounds) {
				m.stats.BoundsRejected++
				continue
			}

			tester, other := a, b
			if !a.checkForCollisions {
				tester, other = b, a
			}
			m.stats.NarrowTests++
			info, ok := tester.TestForCollision(other, vmath.Vec3{}, 0)
			if !ok {
				continue
			}
			m.stats.Collisions++
			m.record(info)
			if other.checkForCollisions {
				m.record(info.Mirror())
			}
		}
	}

	for _, c := range colliders {
		c.expireContacts(m.frame, func(info CollisionInformation) {
			m.bus.Fire(event.EventCollisionEnded, c.owner, info)
		})
	}

	m.publish()
	return m.results
}

func (m *Manager) record(info CollisionInformation) {
	m.results = append(m.results, info)
	eventType := event.EventCollisionPersisted
	if info.Collider.trackContact(info, m.frame) {
		eventType = event.EventCollisionStarted
	}
	m.bus.Fire(eventType, info.Collider.owner, info)
}

func (m *Manager) publish() {
	m.registry.Int(status.KeyColliders).Store(int64(m.stats.Colliders))
	m.registry.Int(status.KeyPairsConsidered).Store(int64(m.stats.PairsTested))
	m.registry.Int(status.KeyPairsLayerRejected).Store(int64(m.stats.LayerRejected))
	m.registry.Int(status.KeyPairsBoundsRejected).Store(int64(m.stats.BoundsRejected))
	m.registry.Int(status.KeyNarrowTests).Store(int64(m.stats.NarrowTests))
	m.registry.Int(status.KeyCollisions).Store(int64(m.stats.Collisions))
}

// Each visits registered colliders in registration order
func (m *Manager) Each(fn func(*Collider) bool) {
	m.arena.Each(func(_ memory.Handle, c *Collider) bool {
		return fn(c)
	})
}

// Reset drops every collider without firing events
func (m *Manager) Reset() {
	m.arena.Clear()
	m.results = m.results[:0]
}
