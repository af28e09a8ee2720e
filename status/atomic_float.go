package status

import (
	"math"
	"sync/atomic"
)

// AtomicFloat is a float64 gauge stored as IEEE bits, the zero value reads 0
type AtomicFloat struct {
	v atomic.Uint64
}

func (f *AtomicFloat) Set(val float64) { f.v.Store(math.Float64bits(val)) }
func (f *AtomicFloat) Get() float64    { return math.Float64frombits(f.v.Load()) }

// StoreMax raises the gauge to val if val is larger and returns the resulting peak
func (f *AtomicFloat) StoreMax(val float64) float64 {
	return f.update(func(cur float64) (float64, bool) { return val, val > cur })
}

// update retries fn until its result lands or fn declines to change the value
func (f *AtomicFloat) update(fn func(cur float64) (float64, bool)) float64 {
	for {
		raw := f.v.Load()
		cur := math.Float64frombits(raw)
		next, ok := fn(cur)
		if !ok {
			return cur
		}
		if f.v.CompareAndSwap(raw, math.Float64bits(next)) {
			return next
		}
	}
}
