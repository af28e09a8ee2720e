package event

// Listener receives events synchronously inside the firing call
type Listener func(ev Event)

// ListenerID identifies a subscription for removal
type ListenerID uint64

type subscription struct {
	id      ListenerID
	fn      Listener
	removed bool
}

// Bus dispatches events to subscribers
//
// Architecture:
//   - Single-threaded, delivery happens inside Fire before it returns
//   - Listeners are invoked in registration order
//   - Subscribing or unsubscribing inside a listener takes effect for the next Fire;
//     a listener removed mid-dispatch is not invoked afterwards
//   - Nested Fire from a listener is allowed
type Bus struct {
	listeners map[EventType][]*subscription
	byID      map[ListenerID]EventType
	nextID    ListenerID
	frame     int64
	fired     [eventTypeCount]uint64
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[EventType][]*subscription),
		byID:      make(map[ListenerID]EventType),
	}
}

// Subscribe registers fn for t and returns its id
func (b *Bus) Subscribe(t EventType, fn Listener) ListenerID {
	b.nextID++
	sub := &subscription{id: b.nextID, fn: fn}

	// Copy on write so an in-flight dispatch keeps its snapshot
	cur := b.listeners[t]
	next := make([]*subscription, len(cur), len(cur)+1)
	copy(next, cur)
	b.listeners[t] = append(next, sub)
	b.byID[sub.id] = t
	return sub.id
}

// Unsubscribe removes a subscription, unknown ids are ignored
func (b *Bus) Unsubscribe(id ListenerID) {
	t, ok := b.byID[id]
	if !ok {
		return
	}
	delete(b.byID, id)

	cur := b.listeners[t]
	next := make([]*subscription, 0, len(cur))
	for _, s := range cur {
		if s.id == id {
			s.removed = true
			continue
		}
		next = append(next, s)
	}
	b.listeners[t] = next
}

// Fire delivers an event to all listeners of t
func (b *Bus) Fire(t EventType, source, payload any) {
	if b == nil {
		return
	}
	if int(t) >= 0 && int(t) < len(b.fired) {
		b.fired[t]++
	}
	subs := b.listeners[t]
	if len(subs) == 0 {
		return
	}
	ev := Event{Type: t, Source: source, Payload: payload, Frame: b.frame}
	for _, s := range subs {
		if s.removed {
			continue
		}
		s.fn(ev)
	}
}

// SetFrame stamps subsequent events with the frame number
func (b *Bus) SetFrame(frame int64) { b.frame = frame }

// Frame returns the current frame stamp
func (b *Bus) Frame() int64 { return b.frame }

// ListenerCount returns the number of listeners for t
func (b *Bus) ListenerCount(t EventType) int { return len(b.listeners[t]) }

// FiredCount returns how many times t was fired, listeners or not
func (b *Bus) FiredCount(t EventType) uint64 {
	if int(t) < 0 || int(t) >= len(b.fired) {
		return 0
	}
	return b.fired[t]
}
