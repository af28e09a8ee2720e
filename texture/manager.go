package texture

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/parallax/charset"
	"github.com/lixenwraith/parallax/event"
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/status"
	"github.com/lixenwraith/parallax/vram"
)

var (
	// ErrBGMapExhausted means no segment has a free rectangle large enough
	ErrBGMapExhausted = fmt.Errorf("bgmap: %w", vram.ErrResourceExhausted)
	ErrDoubleRelease  = errors.New("texture already released")
	ErrInvalidSpec    = errors.New("texture spec is empty")
)

// Manager owns background map allocation and incremental map writes
type Manager struct {
	mem      *vram.Memory
	charsets *charset.Manager
	arena    *memory.Arena[Texture]
	bus      *event.Bus
	registry *status.Registry
	throttle *status.Throttle

	segments int
	occupied [vram.BgmapSegments][vram.BgmapRows * vram.BgmapCols]bool
	queue    []*Texture
	nextID   uint32
	row      [vram.BgmapCols]vram.MapEntry
}

// NewManager uses the first segments background segments for textures
func NewManager(mem *vram.Memory, charsets *charset.Manager, pool *memory.Pool, capacity, segments int,
	bus *event.Bus, registry *status.Registry, throttle *status.Throttle) *Manager {
	m := &Manager{
		mem:      mem,
		charsets: charsets,
		arena:    memory.NewArena[Texture](pool, capacity, memory.TagTexture),
		bus:      bus,
		registry: registry,
		throttle: throttle,
		segments: min(max(segments, 1), vram.BgmapSegments),
		queue:    make([]*Texture, 0, capacity),
	}
	bus.Subscribe(event.EventCharSetMoved, m.onCharSetMoved)
	return m
}

// GetTexture returns a texture for spec; textures over shared char sets are shared per spec
func (m *Manager) GetTexture(spec *Spec) (*Texture, error) {
	if spec == nil || spec.CharSet == nil || spec.Cols <= 0 || spec.Rows <= 0 {
		return nil, ErrInvalidSpec
	}
	if spec.Cols > vram.BgmapCols || spec.Rows > vram.BgmapRows {
		return nil, fmt.Errorf("texture %q is %dx%d: %w", spec.Name, spec.Cols, spec.Rows, ErrBGMapExhausted)
	}
	if spec.CharSet.Shared {
		if t := m.find(spec); t != nil {
			t.usage++
			return t, nil
		}
	}

	cs, err := m.charsets.GetCharSet(spec.CharSet)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", spec.Name, err)
	}
	segment, x, y, ok := m.findRegion(spec.Cols, spec.Rows)
	if !ok {
		m.charsets.Release(cs.Handle())
		m.exhausted(spec, "bgmap")
		return nil, fmt.Errorf("texture %q needs %dx%d: %w", spec.Name, spec.Cols, spec.Rows, ErrBGMapExhausted)
	}
	h, t, err := m.arena.Alloc()
	if err != nil {
		m.charsets.Release(cs.Handle())
		m.exhausted(spec, "texture")
		return nil, fmt.Errorf("texture %q: %w", spec.Name, err)
	}

	m.nextID++
	*t = Texture{
		handle:  h,
		id:      m.nextID,
		spec:    spec,
		charSet: cs,
		segment: segment,
		x:       x,
		y:       y,
		hflip:   spec.HorizontalFlip,
		vflip:   spec.VerticalFlip,
		palette: spec.Palette,
		usage:   1,
	}
	m.mark(t, true)
	t.markDirty(0, spec.Rows)
	m.enqueue(t)
	return t, nil
}

func (m *Manager) exhausted(spec *Spec, what string) {
	m.registry.Int(status.KeyExhaustions).Add(1)
	m.bus.Fire(event.EventResourceExhausted, spec, what)
	m.throttle.Printf("texture: no %s room for %q (%dx%d)", what, spec.Name, spec.Cols, spec.Rows)
}

func (m *Manager) find(spec *Spec) *Texture {
	var found *Texture
	m.arena.Each(func(_ memory.Handle, t *Texture) bool {
		if t.spec == spec {
			found = t
			return false
		}
		return true
	})
	return found
}

// findRegion is first fit, segment by segment, row-major
func (m *Manager) findRegion(cols, rows int) (segment, x, y int, ok bool) {
	for s := 0; s < m.segments; s++ {
		for y := 0; y+rows <= vram.BgmapRows; y++ {
			for x := 0; x+cols <= vram.BgmapCols; x++ {
				if blocked := m.blocked(s, x, y, cols, rows); blocked >= 0 {
					// Skip past the occupied column
					x = blocked
					continue
				}
				return s, x, y, true
			}
		}
	}
	return 0, 0, 0, false
}

// blocked returns the column of the first occupied cell in the rectangle, or -1
func (m *Manager) blocked(segment, x, y, cols, rows int) int {
	occ := &m.occupied[segment]
	for r := y; r < y+rows; r++ {
		for c := x + cols - 1; c >= x; c-- {
			if occ[r*vram.BgmapCols+c] {
				return c
			}
		}
	}
	return -1
}

func (m *Manager) mark(t *Texture, used bool) {
	occ := &m.occupied[t.segment]
	for r := t.y; r < t.y+t.spec.Rows; r++ {
		for c := t.x; c < t.x+t.spec.Cols; c++ {
			occ[r*vram.BgmapCols+c] = used
		}
	}
}

// ReleaseTexture drops one usage of the texture h was handed out with; at zero the
// region and char set are freed. Handles of a freed texture are rejected even after
// its slot holds another texture
func (m *Manager) ReleaseTexture(h memory.Handle) error {
	t := m.arena.Get(h)
	if t == nil || t.usage <= 0 {
		return ErrDoubleRelease
	}
	t.usage--
	if t.usage > 0 {
		return nil
	}
	m.dequeue(t)
	m.mark(t, false)
	if err := m.charsets.Release(t.charSet.Handle()); err != nil {
		m.throttle.Printf("texture: release %q: %v", t.spec.Name, err)
	}
	return m.arena.Free(t.handle)
}

// SetFrame shows frame, rewriting only the map rows that change
// Animated char sets rewrite their differing tiles through the char set manager
func (m *Manager) SetFrame(t *Texture, frame int) bool {
	if frame < 0 || frame >= t.spec.Frames() || frame == t.frame {
		return false
	}
	previous := t.frame
	t.frame = frame
	switch t.spec.CharSet.Allocation {
	case charset.Animated, charset.AnimatedShared:
		m.charsets.SetFrame(t.charSet, frame%max(t.spec.CharSet.Frames, 1))
	}

	lo, hi := -1, -1
	for r := 0; r < t.spec.Rows; r++ {
		for c := 0; c < t.spec.Cols; c++ {
			if t.entryAt(r, c, previous) != t.entryAt(r, c, frame) {
				if lo < 0 {
					lo = r
				}
				hi = r + 1
				break
			}
		}
	}
	if lo >= 0 {
		t.markDirty(lo, hi)
		m.enqueue(t)
	}
	return true
}

// SetMirror flips the texture, rewriting every row on change
func (m *Manager) SetMirror(t *Texture, horizontal, vertical bool) {
	if t.hflip == horizontal && t.vflip == vertical {
		return
	}
	t.hflip, t.vflip = horizontal, vertical
	m.Rewrite(t)
}

// SetPalette changes the palette of every entry
func (m *Manager) SetPalette(t *Texture, palette uint8) {
	if t.palette == palette {
		return
	}
	t.palette = palette
	m.Rewrite(t)
}

// Rewrite queues every row
func (m *Manager) Rewrite(t *Texture) {
	t.markDirty(0, t.spec.Rows)
	m.enqueue(t)
}

func (m *Manager) onCharSetMoved(ev event.Event) {
	moved, ok := ev.Payload.(charset.Moved)
	if !ok {
		return
	}
	m.arena.Each(func(_ memory.Handle, t *Texture) bool {
		if t.charSet == moved.CharSet {
			m.Rewrite(t)
		}
		return true
	})
}

func (m *Manager) enqueue(t *Texture) {
	if t.queued || t.status == StatusWritten {
		return
	}
	t.queued = true
	m.queue = append(m.queue, t)
	m.registry.Int(status.KeyTexturesPending).Store(int64(len(m.queue)))
}

func (m *Manager) dequeue(t *Texture) {
	if !t.queued {
		return
	}
	for i, q := range m.queue {
		if q == t {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
	t.queued = false
	m.registry.Int(status.KeyTexturesPending).Store(int64(len(m.queue)))
}

// WriteTextures writes at most maxRows pending map rows, oldest request first, and returns
// the rows written. Each texture keeps its row cursor between calls
func (m *Manager) WriteTextures(maxRows int) int {
	written, head := 0, 0
	for head < len(m.queue) && written < maxRows {
		t := m.queue[head]
		for t.dirtyFrom < t.dirtyTo && written < maxRows {
			m.writeRow(t, t.dirtyFrom)
			t.dirtyFrom++
			written++
		}
		if t.dirtyFrom >= t.dirtyTo {
			t.status = StatusWritten
			t.queued = false
			head++
			m.bus.Fire(event.EventTextureRewritten, t.spec, t)
		}
	}
	n := copy(m.queue, m.queue[head:])
	clear(m.queue[n:])
	m.queue = m.queue[:n]
	m.registry.Int(status.KeyTextureRowsWritten).Add(int64(written))
	m.registry.Int(status.KeyTexturesPending).Store(int64(len(m.queue)))
	return written
}

func (m *Manager) writeRow(t *Texture, row int) {
	cols := t.spec.Cols
	for c := 0; c < cols; c++ {
		m.row[c] = t.entryAt(row, c, t.frame)
	}
	if err := m.mem.WriteMapRow(t.segment, t.x, t.y+row, m.row[:cols]); err != nil {
		m.throttle.Printf("texture: %q row %d: %v", t.spec.Name, row, err)
	}
}

// PendingRows returns map rows queued for writing
func (m *Manager) PendingRows() int {
	n := 0
	for _, t := range m.queue {
		n += t.PendingRows()
	}
	return n
}

func (m *Manager) Count() int { return m.arena.Len() }

// Each visits live textures in creation order
func (m *Manager) Each(fn func(*Texture) bool) {
	m.arena.Each(func(_ memory.Handle, t *Texture) bool {
		return fn(t)
	})
}
