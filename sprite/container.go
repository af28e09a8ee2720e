package sprite

import (
	"slices"
	"sync/atomic"

	"github.com/lixenwraith/parallax/vmath"
	"github.com/lixenwraith/parallax/vram"
)

// ObjectSpriteContainer groups object sprites on one world layer over a fixed object range
// The main loop locks the sprite list while mutating it; the interrupt side write
// skips the frame while the lock is held
type ObjectSpriteContainer struct {
	index    int
	first    int
	capacity int

	sprites  []*Sprite
	reserved int
	locked   atomic.Bool

	depth   vmath.Fixed
	written int
	skipped int
}

func newContainer(index, first, capacity int) *ObjectSpriteContainer {
	return &ObjectSpriteContainer{
		index:    index,
		first:    first,
		capacity: capacity,
		sprites:  make([]*Sprite, 0, capacity),
	}
}

func (c *ObjectSpriteContainer) Index() int    { return c.index }
func (c *ObjectSpriteContainer) First() int    { return c.first }
func (c *ObjectSpriteContainer) Capacity() int { return c.capacity }
func (c *ObjectSpriteContainer) Free() int     { return c.capacity - c.reserved }
func (c *ObjectSpriteContainer) Len() int      { return len(c.sprites) }

// Locked reports whether the sprite list is being mutated
func (c *ObjectSpriteContainer) Locked() bool { return c.locked.Load() }

// Written is the object count of the last write, Skipped counts writes lost to the lock
func (c *ObjectSpriteContainer) Written() int { return c.written }
func (c *ObjectSpriteContainer) Skipped() int { return c.skipped }

// Lock and Unlock bracket sprite list mutations
func (c *ObjectSpriteContainer) Lock()   { c.locked.Store(true) }
func (c *ObjectSpriteContainer) Unlock() { c.locked.Store(false) }

func (c *ObjectSpriteContainer) add(s *Sprite) {
	c.Lock()
	defer c.Unlock()
	c.sprites = append(c.sprites, s)
	c.reserved += s.objects
	s.container = c
}

func (c *ObjectSpriteContainer) remove(s *Sprite) {
	c.Lock()
	defer c.Unlock()
	if i := slices.Index(c.sprites, s); i >= 0 {
		c.sprites = slices.Delete(c.sprites, i, i+1)
		c.reserved -= s.objects
	}
	s.container = nil
}

// hasVisible refreshes the container depth from its nearest visible sprite
func (c *ObjectSpriteContainer) hasVisible() bool {
	found := false
	for _, s := range c.sprites {
		if !s.visible {
			continue
		}
		if !found || s.projection.Depth < c.depth {
			c.depth = s.projection.Depth
		}
		found = true
	}
	return found
}

// write sorts sprites nearest first and fills the object range; unused entries are hidden
// Returns false when the list is locked
func (c *ObjectSpriteContainer) write(mem *vram.Memory) bool {
	if c.locked.Load() {
		c.skipped++
		return false
	}
	// Lower object indices are drawn in front
	slices.SortStableFunc(c.sprites, func(a, b *Sprite) int {
		switch {
		case a.projection.Depth < b.projection.Depth:
			return -1
		case a.projection.Depth > b.projection.Depth:
			return 1
		}
		return 0
	})

	next := c.first
	end := c.first + c.capacity
	for _, s := range c.sprites {
		if !s.visible || next+s.objects > end {
			continue
		}
		t := s.texture
		p := s.projection
		for row := 0; row < t.Rows(); row++ {
			for col := 0; col < t.Cols(); col++ {
				mem.SetObject(next, vram.ObjectAttribute{
					X:        int16(p.X + col*vram.TileSize),
					Y:        int16(p.Y + row*vram.TileSize),
					Parallax: int16(p.Parallax),
					Entry:    mem.MapEntryAt(t.Segment(), t.X()+col, t.Y()+row),
					Visible:  true,
				})
				next++
			}
		}
	}
	c.written = next - c.first
	for i := next; i < end; i++ {
		if mem.Objects[i].Visible {
			mem.SetObject(i, vram.ObjectAttribute{})
		}
	}
	return true
}
