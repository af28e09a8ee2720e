// Package vram models display memory: character tiles, background map segments,
// object attributes and world layers, with a per-frame write budget
package vram

import (
	"errors"
	"fmt"
)

const (
	TileSize      = 8
	CharBytes     = 16 // 8x8 pixels at 2 bits per pixel
	CharCount     = 2048
	BgmapCols     = 64
	BgmapRows     = 64
	BgmapSegments = 14
	ObjectCount   = 1024
	WorldCount    = 32

	ScreenWidth  = 384
	ScreenHeight = 224
)

var (
	// ErrResourceExhausted is the root of every display resource shortage
	ErrResourceExhausted = errors.New("display resource exhausted")
	// ErrWriteBudgetExceeded reports a frame that wrote more than the hardware window allows
	ErrWriteBudgetExceeded = errors.New("per-frame write budget exceeded")
	ErrOutOfRange          = errors.New("display memory address out of range")
)

// MapEntry is one background map cell
// bits 15-14 palette, 13 horizontal flip, 12 vertical flip, 10-0 char index
type MapEntry uint16

const (
	entryCharMask = 0x07FF
	entryVFlip    = 1 << 12
	entryHFlip    = 1 << 13
	entryPalShift = 14
)

func NewMapEntry(char int, palette uint8, hflip, vflip bool) MapEntry {
	e := MapEntry(char&entryCharMask) | MapEntry(palette&3)<<entryPalShift
	if hflip {
		e |= entryHFlip
	}
	if vflip {
		e |= entryVFlip
	}
	return e
}

func (e MapEntry) Char() int      { return int(e & entryCharMask) }
func (e MapEntry) Palette() uint8 { return uint8(e >> entryPalShift) }
func (e MapEntry) HFlip() bool    { return e&entryHFlip != 0 }
func (e MapEntry) VFlip() bool    { return e&entryVFlip != 0 }

// WithChar replaces the char index keeping attributes
func (e MapEntry) WithChar(char int) MapEntry {
	return e&^entryCharMask | MapEntry(char&entryCharMask)
}

// ObjectAttribute is one OAM entry, an 8x8 tile placed on screen
type ObjectAttribute struct {
	X        int16
	Y        int16
	Parallax int16
	Entry    MapEntry
	Visible  bool
}

// WorldMode selects what a world layer displays
type WorldMode uint8

const (
	WorldBgmap WorldMode = iota
	WorldObject
)

// WorldAttribute configures one world layer
// Worlds are drawn in index order, so higher indices appear in front
type WorldAttribute struct {
	On       bool
	Mode     WorldMode
	Segment  int
	GX, GY   int16 // Screen position
	GP       int16 // Parallax
	MX, MY   int16 // Source offset inside the segment, in pixels
	W, H     int16
	Objects  [2]int // OAM range [start, end) for object worlds
	LeftEye  bool
	RightEye bool
}

// Memory is the display memory image
type Memory struct {
	Chars   [CharCount][CharBytes]byte
	Bgmaps  [BgmapSegments][BgmapRows * BgmapCols]MapEntry
	Objects [ObjectCount]ObjectAttribute
	Worlds  [WorldCount]WorldAttribute

	budget Budget
}

// New returns memory with an unlimited budget until BeginFrame sets one
func New() *Memory {
	return &Memory{}
}

// Budget counts bytes written during a frame
type Budget struct {
	Limit      int
	Used       int
	Violations int
	exceeded   bool
}

// BeginFrame resets the write budget; limit zero disables checking
func (m *Memory) BeginFrame(limit int) {
	violations := m.budget.Violations
	m.budget = Budget{Limit: limit, Violations: violations}
}

// Budget returns the current frame's accounting
func (m *Memory) Budget() Budget { return m.budget }

// Remaining returns bytes left in the frame budget, -1 when unlimited
func (m *Memory) Remaining() int {
	if m.budget.Limit <= 0 {
		return -1
	}
	return max(m.budget.Limit-m.budget.Used, 0)
}

// charge accounts n bytes; the write still happens, the first overrun in a frame is reported
func (m *Memory) charge(n int) error {
	m.budget.Used += n
	if m.budget.Limit <= 0 || m.budget.Used <= m.budget.Limit || m.budget.exceeded {
		return nil
	}
	m.budget.exceeded = true
	m.budget.Violations++
	return fmt.Errorf("%w: %d of %d bytes", ErrWriteBudgetExceeded, m.budget.Used, m.budget.Limit)
}

// WriteChar uploads one tile
func (m *Memory) WriteChar(index int, data []byte) error {
	if index < 0 || index >= CharCount || len(data) < CharBytes {
		return fmt.Errorf("%w: char %d", ErrOutOfRange, index)
	}
	copy(m.Chars[index][:], data[:CharBytes])
	return m.charge(CharBytes)
}

// ClearChars zeroes count tiles starting at index without charging the budget
func (m *Memory) ClearChars(index, count int) {
	for i := index; i < index+count && i < CharCount; i++ {
		m.Chars[i] = [CharBytes]byte{}
	}
}

// WriteMapRow writes entries into a segment row starting at column x
func (m *Memory) WriteMapRow(segment, x, y int, entries []MapEntry) error {
	if segment < 0 || segment >= BgmapSegments || y < 0 || y >= BgmapRows || x < 0 || x+len(entries) > BgmapCols {
		return fmt.Errorf("%w: segment %d row %d cols %d+%d", ErrOutOfRange, segment, y, x, len(entries))
	}
	copy(m.Bgmaps[segment][y*BgmapCols+x:], entries)
	return m.charge(2 * len(entries))
}

// MapEntryAt reads a background map cell
func (m *Memory) MapEntryAt(segment, x, y int) MapEntry {
	return m.Bgmaps[segment][y*BgmapCols+x]
}

// SetObject writes one OAM entry
func (m *Memory) SetObject(index int, attr ObjectAttribute) error {
	if index < 0 || index >= ObjectCount {
		return fmt.Errorf("%w: object %d", ErrOutOfRange, index)
	}
	m.Objects[index] = attr
	return m.charge(8)
}

// SetWorld configures one world layer
func (m *Memory) SetWorld(index int, attr WorldAttribute) {
	if index >= 0 && index < WorldCount {
		m.Worlds[index] = attr
	}
}

// DisableWorlds turns off layers [from, WorldCount)
func (m *Memory) DisableWorlds(from int) {
	for i := max(from, 0); i < WorldCount; i++ {
		m.Worlds[i].On = false
	}
}

// TilePixel returns the 2-bit color at (x, y) inside a tile
func (m *Memory) TilePixel(char, x, y int) uint8 {
	row := m.Chars[char&entryCharMask][y*2 : y*2+2]
	// Pixel 0 is the least significant pair of the row's first byte
	b := row[x/4]
	return (b >> ((x % 4) * 2)) & 3
}
