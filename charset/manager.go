package charset

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/lixenwraith/parallax/event"
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/status"
	"github.com/lixenwraith/parallax/vram"
)

var (
	// ErrTileMemoryExhausted means no contiguous free tile range is large enough
	ErrTileMemoryExhausted = fmt.Errorf("char memory: %w", vram.ErrResourceExhausted)
	ErrDoubleRelease       = errors.New("charset already released")
	ErrInvalidSpec         = errors.New("charset spec has no tiles")
)

// Moved is the payload of EventCharSetMoved
type Moved struct {
	CharSet *CharSet
	From    int
	To      int
}

// Manager owns char memory allocation and tile uploads
type Manager struct {
	mem      *vram.Memory
	arena    *memory.Arena[CharSet]
	bus      *event.Bus
	registry *status.Registry
	throttle *status.Throttle

	first int // Tiles below first are reserved
	queue []*CharSet
	used  int
}

// NewManager reserves the first reserved tiles; tile 0 is conventionally blank
func NewManager(mem *vram.Memory, pool *memory.Pool, capacity, reserved int, bus *event.Bus, registry *status.Registry, throttle *status.Throttle) *Manager {
	return &Manager{
		mem:      mem,
		arena:    memory.NewArena[CharSet](pool, capacity, memory.TagCharSet),
		bus:      bus,
		registry: registry,
		throttle: throttle,
		first:    reserved,
		queue:    make([]*CharSet, 0, capacity),
	}
}

// GetCharSet returns a char set for spec, reusing a shared one when possible
// Tiles are queued for upload through WriteCharSets
func (m *Manager) GetCharSet(spec *Spec) (*CharSet, error) {
	if spec == nil || spec.NumberOfChars <= 0 {
		return nil, ErrInvalidSpec
	}
	if spec.Shared {
		if cs := m.find(spec); cs != nil {
			cs.usage++
			return cs, nil
		}
	}

	size := spec.ResidentChars()
	offset, ok := m.findGap(size)
	if !ok {
		m.exhausted(spec, size)
		return nil, fmt.Errorf("charset %q needs %d tiles, %d free: %w", spec.Name, size, m.Free(), ErrTileMemoryExhausted)
	}

	h, cs, err := m.arena.Alloc()
	if err != nil {
		m.exhausted(spec, size)
		return nil, fmt.Errorf("charset %q: %w", spec.Name, err)
	}
	*cs = CharSet{handle: h, spec: spec, offset: offset, usage: 1}
	cs.markDirty(0, size)
	m.enqueue(cs)
	m.used += size
	m.registry.Int(status.KeyTilesUsed).Store(int64(m.used))
	return cs, nil
}

func (m *Manager) exhausted(spec *Spec, size int) {
	m.registry.Int(status.KeyExhaustions).Add(1)
	m.bus.Fire(event.EventResourceExhausted, spec, "char memory")
	m.throttle.Printf("charset: no room for %q (%d tiles, %d free)", spec.Name, size, m.Free())
}

func (m *Manager) find(spec *Spec) *CharSet {
	var found *CharSet
	m.arena.Each(func(_ memory.Handle, cs *CharSet) bool {
		if cs.spec == spec {
			found = cs
			return false
		}
		return true
	})
	return found
}

// sorted returns live char sets by offset
func (m *Manager) sorted() []*CharSet {
	list := m.arena.Items(nil)
	sort.Slice(list, func(i, j int) bool { return list[i].offset < list[j].offset })
	return list
}

// findGap is first fit over the free ranges
func (m *Manager) findGap(size int) (int, bool) {
	cursor := m.first
	for _, cs := range m.sorted() {
		if cs.offset-cursor >= size {
			return cursor, true
		}
		cursor = max(cursor, cs.offset+cs.Size())
	}
	if vram.CharCount-cursor >= size {
		return cursor, true
	}
	return 0, false
}

// Release drops one usage of the char set h was handed out with; at zero the tiles are freed
// A handle whose char set was already freed is rejected even after its slot is reused
func (m *Manager) Release(h memory.Handle) error {
	cs := m.arena.Get(h)
	if cs == nil || cs.usage <= 0 {
		return ErrDoubleRelease
	}
	cs.usage--
	if cs.usage > 0 {
		return nil
	}
	m.dequeue(cs)
	m.mem.ClearChars(cs.offset, cs.Size())
	m.used -= cs.Size()
	m.registry.Int(status.KeyTilesUsed).Store(int64(m.used))
	m.bus.Fire(event.EventCharSetReleased, cs.spec, cs.offset)
	m.arena.Free(cs.handle)
	return nil
}

// SetFrame switches the frame of an Animated or AnimatedShared char set and queues only
// the tiles that differ. AnimatedMulti and NotAnimated char sets only record the frame
func (m *Manager) SetFrame(cs *CharSet, frame int) bool {
	if frame < 0 || frame >= cs.spec.frameCount() || frame == cs.frame {
		return false
	}
	previous := cs.frame
	cs.frame = frame
	switch cs.spec.Allocation {
	case Animated, AnimatedShared:
	default:
		return true
	}

	lo, hi := -1, -1
	for i := 0; i < cs.spec.NumberOfChars; i++ {
		if !bytes.Equal(cs.spec.tile(previous, i), cs.spec.tile(frame, i)) {
			if lo < 0 {
				lo = i
			}
			hi = i + 1
		}
	}
	if lo >= 0 {
		cs.markDirty(lo, hi)
		m.enqueue(cs)
	}
	return true
}

func (m *Manager) enqueue(cs *CharSet) {
	if cs.queued || cs.Written() {
		return
	}
	cs.queued = true
	m.queue = append(m.queue, cs)
}

func (m *Manager) dequeue(cs *CharSet) {
	if !cs.queued {
		return
	}
	for i, q := range m.queue {
		if q == cs {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
	cs.queued = false
}

// WriteCharSets uploads at most maxTiles pending tiles in request order and returns the count
// Each char set keeps its cursor, so a large upload spreads over several frames
func (m *Manager) WriteCharSets(maxTiles int) int {
	written, head := 0, 0
	for head < len(m.queue) && written < maxTiles {
		cs := m.queue[head]
		for cs.dirtyFrom < cs.dirtyTo && written < maxTiles {
			if err := m.mem.WriteChar(cs.offset+cs.dirtyFrom, cs.source(cs.dirtyFrom)); err != nil {
				m.throttle.Printf("charset: %v", err)
				if errors.Is(err, vram.ErrOutOfRange) {
					cs.dirtyFrom = cs.dirtyTo
					break
				}
			}
			cs.dirtyFrom++
			written++
		}
		if cs.Written() {
			cs.queued = false
			head++
		}
	}
	n := copy(m.queue, m.queue[head:])
	clear(m.queue[n:])
	m.queue = m.queue[:n]
	m.registry.Int(status.KeyTilesWritten).Add(int64(written))
	return written
}

// Pending returns the tiles queued for upload
func (m *Manager) Pending() int {
	n := 0
	for _, cs := range m.queue {
		n += cs.Pending()
	}
	return n
}

// Used and Free count tiles outside the reserved range
func (m *Manager) Used() int  { return m.used }
func (m *Manager) Free() int  { return vram.CharCount - m.first - m.used }
func (m *Manager) Count() int { return m.arena.Len() }

// Fragmented reports whether a gap precedes any char set
func (m *Manager) Fragmented() bool {
	cursor := m.first
	for _, cs := range m.sorted() {
		if cs.offset > cursor {
			return true
		}
		cursor = cs.offset + cs.Size()
	}
	return false
}

// Defragment moves at most one char set down into the first gap and queues its upload
// Listeners of EventCharSetMoved retarget their map entries
func (m *Manager) Defragment() bool {
	cursor := m.first
	for _, cs := range m.sorted() {
		if cs.offset > cursor {
			from := cs.offset
			m.mem.ClearChars(from, cs.Size())
			cs.offset = cursor
			cs.markDirty(0, cs.Size())
			m.enqueue(cs)
			m.bus.Fire(event.EventCharSetMoved, cs.spec, Moved{CharSet: cs, From: from, To: cursor})
			return true
		}
		cursor = cs.offset + cs.Size()
	}
	return false
}
