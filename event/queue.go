package event

// DelayedQueueSize bounds pending delayed events
const DelayedQueueSize = 64

type delayed struct {
	ev  Event
	due int64 // Milliseconds on the engine clock
	seq uint64
}

// DelayedQueue holds events to fire once the engine clock reaches their due time
// Fixed capacity, no allocation after construction
type DelayedQueue struct {
	items [DelayedQueueSize]delayed
	count int
	seq   uint64
}

// NewDelayedQueue creates an empty queue
func NewDelayedQueue() *DelayedQueue {
	return &DelayedQueue{}
}

// Push schedules ev at due milliseconds; returns false when the queue is full
func (q *DelayedQueue) Push(ev Event, due int64) bool {
	if q.count == DelayedQueueSize {
		return false
	}
	q.seq++
	q.items[q.count] = delayed{ev: ev, due: due, seq: q.seq}
	q.count++
	return true
}

// Dispatch fires every event due at or before now through bus
// Events with equal due time fire in push order
func (q *DelayedQueue) Dispatch(bus *Bus, now int64) int {
	fired := 0
	for {
		best := -1
		for i := 0; i < q.count; i++ {
			if q.items[i].due > now {
				continue
			}
			if best < 0 || q.items[i].due < q.items[best].due ||
				(q.items[i].due == q.items[best].due && q.items[i].seq < q.items[best].seq) {
				best = i
			}
		}
		if best < 0 {
			return fired
		}
		ev := q.items[best].ev
		// Preserve push order of the remainder
		copy(q.items[best:q.count], q.items[best+1:q.count])
		q.count--
		q.items[q.count] = delayed{}

		bus.Fire(ev.Type, ev.Source, ev.Payload)
		fired++
	}
}

// Cancel drops pending events of type t from source
func (q *DelayedQueue) Cancel(t EventType, source any) int {
	kept := 0
	for i := 0; i < q.count; i++ {
		it := q.items[i]
		if it.ev.Type == t && it.ev.Source == source {
			continue
		}
		q.items[kept] = it
		kept++
	}
	removed := q.count - kept
	for i := kept; i < q.count; i++ {
		q.items[i] = delayed{}
	}
	q.count = kept
	return removed
}

// Len returns the pending count
func (q *DelayedQueue) Len() int { return q.count }
