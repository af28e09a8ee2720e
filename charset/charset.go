// Package charset allocates character tile regions and uploads them incrementally
package charset

import (
	"fmt"

	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/vram"
)

// Allocation is how a char set holds animation frames
type Allocation uint8

const (
	// NotAnimated holds a single frame
	NotAnimated Allocation = iota
	// Animated holds one frame and rewrites tiles on frame change
	Animated
	// AnimatedShared is Animated shared between instances, driven by one coordinator
	AnimatedShared
	// AnimatedMulti holds every frame resident; textures switch frames by remapping
	AnimatedMulti
)

func (a Allocation) String() string {
	switch a {
	case NotAnimated:
		return "not-animated"
	case Animated:
		return "animated"
	case AnimatedShared:
		return "animated-shared"
	case AnimatedMulti:
		return "animated-multi"
	}
	return "unknown"
}

// Spec is read-only tile data; instances with the same Spec pointer and Shared set share tiles
type Spec struct {
	Name          string
	NumberOfChars int // Tiles per frame
	Frames        int // Frames stored in Tiles, zero is one
	Allocation    Allocation
	Shared        bool
	Tiles         []byte // Frames * NumberOfChars * vram.CharBytes
}

func (s *Spec) frameCount() int {
	return max(s.Frames, 1)
}

// ResidentChars is the number of tiles kept in char memory
func (s *Spec) ResidentChars() int {
	if s.Allocation == AnimatedMulti {
		return s.NumberOfChars * s.frameCount()
	}
	return s.NumberOfChars
}

// tile returns the source bytes of tile i of frame
func (s *Spec) tile(frame, i int) []byte {
	off := (frame*s.NumberOfChars + i) * vram.CharBytes
	if off < 0 || off+vram.CharBytes > len(s.Tiles) {
		return nil
	}
	return s.Tiles[off : off+vram.CharBytes]
}

// CharSet is a tile region in char memory
type CharSet struct {
	handle memory.Handle
	spec   *Spec
	offset int
	usage  int
	frame  int

	// Pending upload range [dirtyFrom, dirtyTo) in resident tile indices
	dirtyFrom int
	dirtyTo   int
	queued    bool
}

func (c *CharSet) Handle() memory.Handle { return c.handle }
func (c *CharSet) Spec() *Spec           { return c.spec }
func (c *CharSet) Offset() int           { return c.offset }
func (c *CharSet) Usage() int            { return c.usage }
func (c *CharSet) Frame() int            { return c.frame }
func (c *CharSet) Pending() int          { return c.dirtyTo - c.dirtyFrom }
func (c *CharSet) Written() bool         { return c.dirtyFrom >= c.dirtyTo }

// Size returns the resident tile count
func (c *CharSet) Size() int { return c.spec.ResidentChars() }

func (c *CharSet) markDirty(from, to int) {
	if from >= to {
		return
	}
	if c.Written() {
		c.dirtyFrom, c.dirtyTo = from, to
		return
	}
	c.dirtyFrom = min(c.dirtyFrom, from)
	c.dirtyTo = max(c.dirtyTo, to)
}

// source returns the bytes for resident tile i given the current frame
func (c *CharSet) source(i int) []byte {
	if c.spec.Allocation == AnimatedMulti {
		return c.spec.tile(i/c.spec.NumberOfChars, i%c.spec.NumberOfChars)
	}
	return c.spec.tile(c.frame, i)
}

func (c *CharSet) String() string {
	return fmt.Sprintf("charset %q [%d,%d) %s", c.spec.Name, c.offset, c.offset+c.Size(), c.spec.Allocation)
}
