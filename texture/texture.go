// Package texture places character maps in background memory and writes them row by row
package texture

import (
	"github.com/lixenwraith/parallax/charset"
	"github.com/lixenwraith/parallax/memory"
	"github.com/lixenwraith/parallax/vram"
)

// Spec is a read-only character map over a char set
// Map holds MapFrames frames of Cols*Rows entries whose char indices are relative to the char set
type Spec struct {
	Name           string
	CharSet        *charset.Spec
	Cols, Rows     int
	Map            []vram.MapEntry
	MapFrames      int // Zero is one
	Palette        uint8
	HorizontalFlip bool
	VerticalFlip   bool
}

func (s *Spec) mapFrames() int { return max(s.MapFrames, 1) }

// Frames is the number of distinct animation frames the texture can show
func (s *Spec) Frames() int {
	return max(s.mapFrames(), max(s.CharSet.Frames, 1))
}

// Status tracks whether background memory reflects the texture
type Status uint8

const (
	StatusPending Status = iota
	StatusWritten
)

// Texture is a rectangular background map region
type Texture struct {
	handle memory.Handle
	id     uint32
	spec   *Spec

	charSet *charset.CharSet
	segment int
	x, y    int

	frame   int
	hflip   bool
	vflip   bool
	palette uint8
	usage   int

	status    Status
	dirtyFrom int
	dirtyTo   int
	queued    bool
}

func (t *Texture) Handle() memory.Handle     { return t.handle }
func (t *Texture) ID() uint32                { return t.id }
func (t *Texture) Spec() *Spec               { return t.spec }
func (t *Texture) CharSet() *charset.CharSet { return t.charSet }
func (t *Texture) Segment() int              { return t.segment }
func (t *Texture) X() int                    { return t.x }
func (t *Texture) Y() int                    { return t.y }
func (t *Texture) Cols() int                 { return t.spec.Cols }
func (t *Texture) Rows() int                 { return t.spec.Rows }
func (t *Texture) Frame() int                { return t.frame }
func (t *Texture) Usage() int                { return t.usage }
func (t *Texture) Status() Status            { return t.status }
func (t *Texture) Mirror() (h, v bool)       { return t.hflip, t.vflip }
func (t *Texture) PendingRows() int          { return t.dirtyTo - t.dirtyFrom }

func (t *Texture) markDirty(from, to int) {
	if from >= to {
		return
	}
	if t.status == StatusWritten {
		t.dirtyFrom, t.dirtyTo = from, to
	} else {
		t.dirtyFrom = min(t.dirtyFrom, from)
		t.dirtyTo = max(t.dirtyTo, to)
	}
	t.status = StatusPending
}

// entryAt computes the map entry shown at (row, col) for frame, mirroring applied
func (t *Texture) entryAt(row, col, frame int) vram.MapEntry {
	s := t.spec
	srcRow, srcCol := row, col
	if t.vflip {
		srcRow = s.Rows - 1 - row
	}
	if t.hflip {
		srcCol = s.Cols - 1 - col
	}
	mapFrame := 0
	if s.mapFrames() > 1 {
		mapFrame = frame % s.mapFrames()
	}
	idx := (mapFrame*s.Rows+srcRow)*s.Cols + srcCol
	var src vram.MapEntry
	if idx < len(s.Map) {
		src = s.Map[idx]
	}

	char := t.charSet.Offset() + src.Char()
	if s.CharSet.Allocation == charset.AnimatedMulti && s.mapFrames() == 1 {
		char += frame * s.CharSet.NumberOfChars
	}
	return vram.NewMapEntry(char, t.palette, src.HFlip() != t.hflip, src.VFlip() != t.vflip)
}
