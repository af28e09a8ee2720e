package event

// Event is delivered synchronously to listeners
type Event struct {
	Type    EventType
	Source  any // Firing object, nil for manager-level events
	Payload any
	Frame   int64
}
