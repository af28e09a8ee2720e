package memory

import (
	"fmt"
	"unsafe"
)

// Handle identifies one allocation of an arena slot, zero is the nil handle
// The low half is the slot index plus one, the high half the slot generation;
// freeing a slot bumps its generation so older handles stop resolving
type Handle uint64

func makeHandle(idx int32, gen uint32) Handle {
	return Handle(gen)<<32 | Handle(uint32(idx)+1)
}

func (h Handle) slot() int32 { return int32(uint32(h)) - 1 }
func (h Handle) gen() uint32 { return uint32(h >> 32) }

const nilIndex = -1

type slot[T any] struct {
	value T
	block Block
	live  bool
	gen   uint32
	prev  int32
	next  int32
}

// Arena is a fixed capacity registry of T with stable handles and pointers
// Every live element is charged one pool block of the element footprint
// Live elements form an insertion ordered list so iteration order is deterministic
type Arena[T any] struct {
	pool      *Pool
	tag       uint32
	footprint int

	slots []slot[T]
	free  []int32
	head  int32
	tail  int32
	count int
}

// NewArena creates an arena of capacity elements backed by pool
// Panics when the element footprint exceeds the largest block class, a build configuration error
func NewArena[T any](pool *Pool, capacity int, tag uint32) *Arena[T] {
	var zero T
	footprint := int(unsafe.Sizeof(zero))
	if footprint == 0 {
		footprint = 1
	}
	if footprint > pool.MaxPayload() {
		panic(fmt.Errorf("%w: element %T needs %d bytes, largest payload %d",
			ErrBlockTooLarge, zero, footprint, pool.MaxPayload()))
	}

	a := &Arena[T]{
		pool:      pool,
		tag:       tag,
		footprint: footprint,
		slots:     make([]slot[T], capacity),
		free:      make([]int32, capacity),
		head:      nilIndex,
		tail:      nilIndex,
	}
	for i := 0; i < capacity; i++ {
		a.free[i] = int32(capacity - 1 - i)
	}
	return a
}

// Alloc reserves a zeroed element appended to the iteration order
func (a *Arena[T]) Alloc() (Handle, *T, error) {
	if len(a.free) == 0 {
		var zero T
		return 0, nil, fmt.Errorf("%w: arena %T full (%d)", ErrPoolExhausted, zero, len(a.slots))
	}
	block, err := a.pool.Allocate(a.footprint, a.tag)
	if err != nil {
		return 0, nil, err
	}

	idx := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]

	s := &a.slots[idx]
	var zero T
	s.value = zero
	s.block = block
	s.live = true
	s.prev = a.tail
	s.next = nilIndex
	if a.tail != nilIndex {
		a.slots[a.tail].next = idx
	} else {
		a.head = idx
	}
	a.tail = idx
	a.count++

	return makeHandle(idx, s.gen), &s.value, nil
}

// Free releases the element; nil handles and handles of an earlier generation are rejected
func (a *Arena[T]) Free(h Handle) error {
	idx, ok := a.index(h)
	if !ok {
		return ErrInvalidBlock
	}
	s := &a.slots[idx]

	if s.prev != nilIndex {
		a.slots[s.prev].next = s.next
	} else {
		a.head = s.next
	}
	if s.next != nilIndex {
		a.slots[s.next].prev = s.prev
	} else {
		a.tail = s.prev
	}

	err := a.pool.Free(s.block)
	var zero T
	s.value = zero
	s.block = Block{}
	s.live = false
	s.gen++
	// prev/next are kept so an iteration standing on this slot can still advance
	a.free = append(a.free, idx)
	a.count--
	return err
}

// Get returns the element for h or nil
func (a *Arena[T]) Get(h Handle) *T {
	idx, ok := a.index(h)
	if !ok {
		return nil
	}
	return &a.slots[idx].value
}

// Len returns the number of live elements
func (a *Arena[T]) Len() int { return a.count }

// Cap returns the fixed capacity
func (a *Arena[T]) Cap() int { return len(a.slots) }

// Each visits live elements in insertion order until fn returns false
// Freeing the visited element inside fn is allowed
func (a *Arena[T]) Each(fn func(h Handle, v *T) bool) {
	for idx := a.head; idx != nilIndex; {
		s := &a.slots[idx]
		next := s.next
		if s.live && !fn(makeHandle(idx, s.gen), &s.value) {
			return
		}
		idx = next
	}
}

// Items appends live element pointers in insertion order to dst
func (a *Arena[T]) Items(dst []*T) []*T {
	for idx := a.head; idx != nilIndex; idx = a.slots[idx].next {
		dst = append(dst, &a.slots[idx].value)
	}
	return dst
}

// Clear frees every live element
func (a *Arena[T]) Clear() {
	a.Each(func(h Handle, _ *T) bool {
		_ = a.Free(h)
		return true
	})
}

func (a *Arena[T]) index(h Handle) (int32, bool) {
	idx := h.slot()
	if h == 0 || idx < 0 || int(idx) >= len(a.slots) {
		return 0, false
	}
	if s := &a.slots[idx]; !s.live || s.gen != h.gen() {
		return 0, false
	}
	return idx, true
}
