package status

import "sync"

type metricEntry[T any] struct {
	key string
	ptr *T
}

// MetricMap hands out one stable pointer per dotted key
// Lookups after the first take a read lock; callers on hot paths cache the pointer
type MetricMap[T any] struct {
	mu      sync.RWMutex
	index   map[string]int
	entries []metricEntry[T]
}

func NewMetricMap[T any]() *MetricMap[T] {
	return &MetricMap[T]{index: make(map[string]int)}
}

// Get returns the metric for key, registering a zero value on first use
func (m *MetricMap[T]) Get(key string) *T {
	m.mu.RLock()
	i, ok := m.index[key]
	var ptr *T
	if ok {
		ptr = m.entries[i].ptr
	}
	m.mu.RUnlock()
	if ok {
		return ptr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.index[key]; ok {
		return m.entries[i].ptr
	}
	ptr = new(T)
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, metricEntry[T]{key: key, ptr: ptr})
	return ptr
}

// Range visits metrics in registration order over a snapshot, fn may register new keys
func (m *MetricMap[T]) Range(fn func(key string, ptr *T)) {
	m.mu.RLock()
	snapshot := append([]metricEntry[T](nil), m.entries...)
	m.mu.RUnlock()

	for _, e := range snapshot {
		fn(e.key, e.ptr)
	}
}

func (m *MetricMap[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
