// Package memory provides the fixed block pool every engine component is carved from,
// and the arena registries built on top of it
package memory

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// HeaderSize is the bookkeeping prefix of every block (type tag)
const HeaderSize = 4

var (
	// ErrBlockTooLarge is a configuration error: the request exceeds the largest block class
	ErrBlockTooLarge = errors.New("memory: request exceeds largest block class")
	// ErrPoolExhausted is returned when no class large enough has a free block
	ErrPoolExhausted = errors.New("memory: pool exhausted")
	// ErrInvalidBlock is returned on release of a block that is not allocated
	ErrInvalidBlock = errors.New("memory: block not allocated")
)

// BlockClass configures one size class
type BlockClass struct {
	Size  int `yaml:"size"`
	Count int `yaml:"count"`
}

// Block is a handle to an allocated region
// Data excludes the header bytes
type Block struct {
	Class int
	Slot  int
	Data  []byte
}

// Valid reports whether the block refers to an allocation
func (b Block) Valid() bool { return b.Data != nil }

type class struct {
	size int
	buf  []byte
	used []bool
	free []int // Stack of free slot indices, lowest index on top
}

// Pool is a process-wide fixed size class allocator
// All backing memory is reserved at construction
type Pool struct {
	mu      sync.Mutex
	classes []class
}

// NewPool reserves backing memory for every class
// Classes are sorted by size; a class smaller than the header is rejected
func NewPool(classes []BlockClass) (*Pool, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("memory: no block classes configured")
	}
	sorted := make([]BlockClass, len(classes))
	copy(sorted, classes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Size < sorted[j].Size })

	p := &Pool{classes: make([]class, len(sorted))}
	for i, bc := range sorted {
		if bc.Size <= HeaderSize {
			return nil, fmt.Errorf("memory: block class %d smaller than header", bc.Size)
		}
		if bc.Count <= 0 {
			return nil, fmt.Errorf("memory: block class %d has no blocks", bc.Size)
		}
		c := class{
			size: bc.Size,
			buf:  make([]byte, bc.Size*bc.Count),
			used: make([]bool, bc.Count),
			free: make([]int, bc.Count),
		}
		for s := 0; s < bc.Count; s++ {
			c.free[s] = bc.Count - 1 - s
		}
		p.classes[i] = c
	}
	return p, nil
}

// MaxPayload returns the largest request that can ever be served
func (p *Pool) MaxPayload() int {
	return p.classes[len(p.classes)-1].size - HeaderSize
}

// Allocate returns a block from the smallest class whose payload fits size
// Falls through to larger classes when the best fit is full
func (p *Pool) Allocate(size int, tag uint32) (Block, error) {
	if size > p.MaxPayload() {
		return Block{}, fmt.Errorf("%w: %d bytes, largest payload %d", ErrBlockTooLarge, size, p.MaxPayload())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for ci := range p.classes {
		c := &p.classes[ci]
		if c.size-HeaderSize < size || len(c.free) == 0 {
			continue
		}
		slot := c.free[len(c.free)-1]
		c.free = c.free[:len(c.free)-1]
		c.used[slot] = true

		start := slot * c.size
		region := c.buf[start : start+c.size]
		clear(region)
		region[0] = byte(tag)
		region[1] = byte(tag >> 8)
		region[2] = byte(tag >> 16)
		region[3] = byte(tag >> 24)

		return Block{Class: ci, Slot: slot, Data: region[HeaderSize:]}, nil
	}
	return Block{}, fmt.Errorf("%w: %d bytes", ErrPoolExhausted, size)
}

// MustAllocate panics on failure
// Used where a failed allocation means the build is misconfigured
func (p *Pool) MustAllocate(size int, tag uint32) Block {
	b, err := p.Allocate(size, tag)
	if err != nil {
		panic(err)
	}
	return b
}

// Free returns a block to its class, rejecting double frees
func (p *Pool) Free(b Block) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if b.Class < 0 || b.Class >= len(p.classes) {
		return ErrInvalidBlock
	}
	c := &p.classes[b.Class]
	if b.Slot < 0 || b.Slot >= len(c.used) || !c.used[b.Slot] {
		return ErrInvalidBlock
	}
	c.used[b.Slot] = false
	c.free = append(c.free, b.Slot)
	return nil
}

// Tag returns the bookkeeping tag written at allocation
func (p *Pool) Tag(b Block) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := &p.classes[b.Class]
	h := c.buf[b.Slot*c.size:]
	return uint32(h[0]) | uint32(h[1])<<8 | uint32(h[2])<<16 | uint32(h[3])<<24
}

// ClassUsage reports used and total blocks of one class
type ClassUsage struct {
	Size  int
	Used  int
	Total int
}

// Usage returns per-class occupancy, smallest class first
func (p *Pool) Usage() []ClassUsage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ClassUsage, len(p.classes))
	for i := range p.classes {
		c := &p.classes[i]
		out[i] = ClassUsage{Size: c.size, Used: len(c.used) - len(c.free), Total: len(c.used)}
	}
	return out
}
