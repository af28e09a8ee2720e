package sprite

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lixenwraith/parallax/event"
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/render"
	"github.com/lixenwraith/parallax/status"
	"github.com/lixenwraith/parallax/texture"
	"github.com/lixenwraith/parallax/vmath"
	"github.com/lixenwraith/parallax/vram"
)

var (
	// ErrLayersExhausted means more sprites want a world layer than exist
	ErrLayersExhausted = fmt.Errorf("world layers: %w", vram.ErrResourceExhausted)
	// ErrObjectsExhausted means no container has room for an object sprite
	ErrObjectsExhausted = fmt.Errorf("object attributes: %w", vram.ErrResourceExhausted)
	ErrInvalidSpec      = errors.New("sprite spec has no texture")
)

// Config sizes the sprite manager
type Config struct {
	Capacity   int // Sprites
	Layers     int // World layers available, at most vram.WorldCount
	Containers int // Object sprite containers
	Objects    int // Object attributes per container
}

// DefaultConfig uses every world layer and splits object memory into four containers
func DefaultConfig() Config {
	return Config{
		Capacity:   128,
		Layers:     vram.WorldCount,
		Containers: 4,
		Objects:    vram.ObjectCount / 4,
	}
}

// layerUser is one consumer of a world layer in a frame
type layerUser struct {
	depth     vmath.Fixed
	sprite    *Sprite
	container *ObjectSpriteContainer
}

// Manager assigns world layers by depth and owns the object sprite containers
type Manager struct {
	mem      *vram.Memory
	textures *texture.Manager
	ctx      *render.Context
	arena    *memory.Arena[Sprite]
	bus      *event.Bus
	registry *status.Registry
	throttle *status.Throttle

	layers     int
	containers []*ObjectSpriteContainer
	users      []layerUser
}

func NewManager(cfg Config, mem *vram.Memory, textures *texture.Manager, ctx *render.Context, pool *memory.Pool,
	bus *event.Bus, registry *status.Registry, throttle *status.Throttle) *Manager {
	layers := min(max(cfg.Layers, 1), vram.WorldCount)
	objects := max(cfg.Objects, 0)
	count := max(cfg.Containers, 0)
	if count*objects > vram.ObjectCount {
		objects = vram.ObjectCount / max(count, 1)
	}

	m := &Manager{
		mem:      mem,
		textures: textures,
		ctx:      ctx,
		arena:    memory.NewArena[Sprite](pool, cfg.Capacity, memory.TagSprite),
		bus:      bus,
		registry: registry,
		throttle: throttle,
		layers:   layers,
		users:    make([]layerUser, 0, cfg.Capacity+count),
	}
	for i := 0; i < count; i++ {
		m.containers = append(m.containers, newContainer(i, i*objects, objects))
	}
	return m
}

// Create builds a sprite for owner; the texture is shared when its spec allows
func (m *Manager) Create(owner uint32, spec *Spec) (*Sprite, error) {
	if spec == nil || spec.Texture == nil {
		return nil, ErrInvalidSpec
	}
	t, err := m.textures.GetTexture(spec.Texture)
	if err != nil {
		return nil, fmt.Errorf("sprite for entity %d: %w", owner, err)
	}

	var container *ObjectSpriteContainer
	objects := t.Cols() * t.Rows()
	if spec.Kind == KindObject {
		container = m.roomFor(objects)
		if container == nil {
			m.textures.ReleaseTexture(t.Handle())
			m.exhausted(owner, "object")
			return nil, fmt.Errorf("sprite for entity %d needs %d objects: %w", owner, objects, ErrObjectsExhausted)
		}
	}

	h, s, err := m.arena.Alloc()
	if err != nil {
		m.textures.ReleaseTexture(t.Handle())
		m.exhausted(owner, "sprite")
		return nil, fmt.Errorf("sprite for entity %d: %w", owner, err)
	}
	*s = Sprite{
		handle:   h,
		owner:    owner,
		spec:     spec,
		textures: m.textures,
		texture:  t,
		hidden:   spec.Hidden,
		layer:    -1,
		objects:  objects,
	}
	if container != nil {
		container.add(s)
	}
	return s, nil
}

func (m *Manager) roomFor(objects int) *ObjectSpriteContainer {
	for _, c := range m.containers {
		if c.Free() >= objects {
			return c
		}
	}
	return nil
}

func (m *Manager) exhausted(owner uint32, what string) {
	m.registry.Int(status.KeyExhaustions).Add(1)
	m.bus.Fire(event.EventResourceExhausted, owner, what)
	m.throttle.Printf("sprite: no %s room for entity %d", what, owner)
}

// Destroy removes s and releases its texture
func (m *Manager) Destroy(s *Sprite) {
	if s == nil || m.arena.Get(s.handle) != s {
		return
	}
	if s.container != nil {
		s.container.remove(s)
	}
	if err := m.textures.ReleaseTexture(s.texture.Handle()); err != nil {
		m.throttle.Printf("sprite: release texture for entity %d: %v", s.owner, err)
	}
	m.arena.Free(s.handle)
}

// DestroyOwned removes every sprite of owner
func (m *Manager) DestroyOwned(owner uint32) {
	var owned []*Sprite
	m.arena.Each(func(_ memory.Handle, s *Sprite) bool {
		if s.owner == owner {
			owned = append(owned, s)
		}
		return true
	})
	for _, s := range owned {
		m.Destroy(s)
	}
}

// Render projects every sprite and assigns world layers, farthest at the lowest index
// When more sprites need a layer than are available the farthest are hidden for the
// frame and the returned error wraps ErrLayersExhausted
func (m *Manager) Render() error {
	m.users = m.users[:0]
	visible := 0
	m.arena.Each(func(_ memory.Handle, s *Sprite) bool {
		s.project(m.ctx)
		s.layer = -1
		if !s.visible {
			return true
		}
		visible++
		if s.spec.Kind == KindBgmap {
			m.users = append(m.users, layerUser{depth: s.projection.Depth, sprite: s})
		}
		return true
	})
	for _, c := range m.containers {
		if c.hasVisible() {
			m.users = append(m.users, layerUser{depth: c.depth, container: c})
		}
	}

	slices.SortStableFunc(m.users, func(a, b layerUser) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		}
		return 0
	})

	var err error
	if over := len(m.users) - m.layers; over > 0 {
		for _, u := range m.users[:over] {
			if u.sprite != nil {
				u.sprite.visible = false
				visible--
			} else {
				for _, s := range u.container.sprites {
					if s.visible {
						s.visible = false
						visible--
					}
				}
			}
		}
		m.users = m.users[over:]
		m.registry.Int(status.KeyExhaustions).Add(1)
		err = fmt.Errorf("%d sprites over %d layers: %w", over, m.layers, ErrLayersExhausted)
		m.bus.Fire(event.EventResourceExhausted, m, err)
		m.throttle.Printf("sprite: %v", err)
	}

	for i, u := range m.users {
		if u.sprite != nil {
			u.sprite.layer = i
			m.mem.SetWorld(i, bgmapWorld(u.sprite))
			continue
		}
		for _, s := range u.container.sprites {
			if s.visible {
				s.layer = i
			}
		}
		m.mem.SetWorld(i, vram.WorldAttribute{
			On:       true,
			Mode:     vram.WorldObject,
			Objects:  [2]int{u.container.first, u.container.first + u.container.capacity},
			LeftEye:  true,
			RightEye: true,
		})
	}
	m.mem.DisableWorlds(len(m.users))

	m.registry.Int(status.KeySpritesVisible).Store(int64(visible))
	m.registry.Int(status.KeyLayersUsed).Store(int64(len(m.users)))
	return err
}

func bgmapWorld(s *Sprite) vram.WorldAttribute {
	t := s.texture
	w, h := s.PixelSize()
	return vram.WorldAttribute{
		On:       true,
		Mode:     vram.WorldBgmap,
		Segment:  t.Segment(),
		GX:       int16(s.projection.X),
		GY:       int16(s.projection.Y),
		GP:       int16(s.projection.Parallax),
		MX:       int16(t.X() * vram.TileSize),
		MY:       int16(t.Y() * vram.TileSize),
		W:        int16(w),
		H:        int16(h),
		LeftEye:  true,
		RightEye: true,
	}
}

// WriteObjects is the interrupt side step: each unlocked container sorts its sprites and
// writes object attributes. Returns the number of containers skipped because of the lock
func (m *Manager) WriteObjects() int {
	skipped := 0
	for _, c := range m.containers {
		if !c.write(m.mem) {
			skipped++
		}
	}
	return skipped
}

func (m *Manager) Containers() []*ObjectSpriteContainer { return m.containers }
func (m *Manager) Count() int                           { return m.arena.Len() }

// Each visits sprites in creation order
func (m *Manager) Each(fn func(*Sprite) bool) {
	m.arena.Each(func(_ memory.Handle, s *Sprite) bool {
		return fn(s)
	})
}
