package animation

import (
	"fmt"

	"github.com/lixenwraith/parallax/event"
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/status"
)

// Manager owns every controller and advances them once per frame
type Manager struct {
	arena       *memory.Arena[Controller]
	coordinator *Coordinator
	bus         *event.Bus
	registry    *status.Registry
}

func NewManager(pool *memory.Pool, capacity int, bus *event.Bus, registry *status.Registry) *Manager {
	return &Manager{
		arena:       memory.NewArena[Controller](pool, capacity, memory.TagAnimation),
		coordinator: NewCoordinator(),
		bus:         bus,
		registry:    registry,
	}
}

// Create registers a controller; a non-nil shareKey joins the coordinated group for it
func (m *Manager) Create(owner uint32, description *Description, writer FrameWriter, shareKey any) (*Controller, error) {
	h, c, err := m.arena.Alloc()
	if err != nil {
		m.registry.Int(status.KeyExhaustions).Add(1)
		m.bus.Fire(event.EventResourceExhausted, owner, "animation")
		return nil, fmt.Errorf("animation controller for entity %d: %w", owner, err)
	}
	c.handle = h
	c.init(owner, description, writer, m.bus)
	m.coordinator.Register(shareKey, c)
	return c, nil
}

// Destroy unregisters c, handing leadership over when needed
func (m *Manager) Destroy(c *Controller) {
	if c == nil || m.arena.Get(c.handle) != c {
		return
	}
	m.coordinator.Unregister(c)
	m.arena.Free(c.handle)
}

// Update advances every leading controller by elapsedMS
func (m *Manager) Update(elapsedMS int) {
	playing := 0
	m.arena.Each(func(_ memory.Handle, c *Controller) bool {
		c.Update(elapsedMS)
		if c.leader == nil && c.IsPlaying() {
			playing++
		}
		return true
	})
	m.registry.Int(status.KeyAnimationsPlaying).Store(int64(playing))
}

func (m *Manager) Coordinator() *Coordinator { return m.coordinator }
func (m *Manager) Count() int                { return m.arena.Len() }
