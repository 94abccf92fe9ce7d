package turn

import "sync"

// State is the controller's activity state.
type State int

const (
	// StateIdle - waiting for the user to start a turn.
	StateIdle State = iota

	// StateListening - recording user speech.
	StateListening

	// StateProcessing - transcribing, generating, synthesizing.
	StateProcessing

	// StateSpeaking - playing the assistant's reply.
	StateSpeaking
)

// String returns the wire name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// Status returns the user-facing status line for the state.
func (s State) Status() string {
	switch s {
	case StateIdle:
		return "Siap mendengarkan"
	case StateListening:
		return "Mendengarkan..."
	case StateProcessing:
		return "Memikirkan jawaban..."
	case StateSpeaking:
		return "Berbicara"
	default:
		return ""
	}
}

// validTransitions encodes the allowed state graph. Idle is reachable from
// everywhere (cancellation and error recovery); Listening only from Idle;
// Processing from Idle covers proactive turns that skip Listening.
var validTransitions = map[State][]State{
	StateIdle:       {StateListening, StateProcessing},
	StateListening:  {StateProcessing, StateIdle},
	StateProcessing: {StateSpeaking, StateIdle},
	StateSpeaking:   {StateIdle},
}

// Machine guards state transitions. Invalid transitions are refused rather
// than panicking; the caller decides what a refusal means.
type Machine struct {
	mu      sync.RWMutex
	current State
}

func NewMachine() *Machine {
	return &Machine{current: StateIdle}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition moves to next if the transition is allowed, reporting whether
// it happened.
func (m *Machine) Transition(next State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == next {
		return false
	}
	allowed := false
	for _, t := range validTransitions[m.current] {
		if t == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}
	m.current = next
	return true
}
