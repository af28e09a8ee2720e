package engine

import (
	"github.com/lixenwraith/parallax/event"
)

// State is one entry of a state machine stack, driven with the owner T
type State[T any] interface {
	Name() string
	Enter(owner T)
	Execute(owner T)
	Exit(owner T)
	// Suspend and Resume bracket the time another state sits on top
	Suspend(owner T)
	Resume(owner T)
}

// StateMachine is a stack of states; only the top state executes
type StateMachine[T any] struct {
	owner T
	stack []State[T]
	bus   *event.Bus
}

func NewStateMachine[T any](owner T, bus *event.Bus) *StateMachine[T] {
	return &StateMachine[T]{owner: owner, bus: bus}
}

// Current returns the top state or nil
func (m *StateMachine[T]) Current() State[T] {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

func (m *StateMachine[T]) Depth() int { return len(m.stack) }

// PushState suspends the current state and enters s on top of it
func (m *StateMachine[T]) PushState(s State[T]) {
	if current := m.Current(); current != nil {
		current.Suspend(m.owner)
	}
	m.stack = append(m.stack, s)
	m.enter(s)
}

// PopState exits the top state and resumes the one below; returns the popped state
func (m *StateMachine[T]) PopState() State[T] {
	top := m.Current()
	if top == nil {
		return nil
	}
	m.stack[len(m.stack)-1] = nil
	m.stack = m.stack[:len(m.stack)-1]
	m.exit(top)
	if current := m.Current(); current != nil {
		current.Resume(m.owner)
	}
	return top
}

// SwapState replaces the top state without resuming the one below
func (m *StateMachine[T]) SwapState(s State[T]) {
	if top := m.Current(); top != nil {
		m.stack = m.stack[:len(m.stack)-1]
		m.exit(top)
	}
	m.stack = append(m.stack, s)
	m.enter(s)
}

// Clear exits every state, top first
func (m *StateMachine[T]) Clear() {
	for len(m.stack) > 0 {
		top := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		m.exit(top)
	}
}

// Update executes the top state
func (m *StateMachine[T]) Update() {
	if current := m.Current(); current != nil {
		current.Execute(m.owner)
	}
}

func (m *StateMachine[T]) enter(s State[T]) {
	s.Enter(m.owner)
	m.bus.Fire(event.EventStateEntered, s, s.Name())
}

func (m *StateMachine[T]) exit(s State[T]) {
	s.Exit(m.owner)
	m.bus.Fire(event.EventStateExited, s, s.Name())
}
