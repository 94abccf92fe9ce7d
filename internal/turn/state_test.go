package turn

import "testing"

func TestMachineHappyPath(t *testing.T) {
	m := NewMachine()
	steps := []State{StateListening, StateProcessing, StateSpeaking, StateIdle}
	for _, next := range steps {
		if !m.Transition(next) {
			t.Fatalf("transition %s -> %s refused", m.Current(), next)
		}
	}
}

func TestMachineListeningOnlyFromIdle(t *testing.T) {
	m := NewMachine()
	m.Transition(StateListening)
	m.Transition(StateProcessing)

	if m.Transition(StateListening) {
		t.Error("Processing -> Listening must be refused")
	}
	m.Transition(StateSpeaking)
	if m.Transition(StateListening) {
		t.Error("Speaking -> Listening must be refused")
	}
}

func TestMachineIdleReachableFromEverywhere(t *testing.T) {
	for _, from := range []State{StateListening, StateProcessing, StateSpeaking} {
		m := NewMachine()
		m.Transition(StateListening)
		if from != StateListening {
			m.Transition(StateProcessing)
		}
		if from == StateSpeaking {
			m.Transition(StateSpeaking)
		}
		if m.Current() != from {
			t.Fatalf("setup failed, at %s want %s", m.Current(), from)
		}
		if !m.Transition(StateIdle) {
			t.Errorf("%s -> Idle must be allowed", from)
		}
	}
}

func TestMachineProactiveEntersAtProcessing(t *testing.T) {
	m := NewMachine()
	if !m.Transition(StateProcessing) {
		t.Error("Idle -> Processing must be allowed for proactive turns")
	}
}

func TestMachineNoSelfTransition(t *testing.T) {
	m := NewMachine()
	if m.Transition(StateIdle) {
		t.Error("Idle -> Idle must be refused")
	}
}

func TestStateStrings(t *testing.T) {
	names := map[State]string{
		StateIdle:       "idle",
		StateListening:  "listening",
		StateProcessing: "processing",
		StateSpeaking:   "speaking",
	}
	for s, want := range names {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
		if s.Status() == "" {
			t.Errorf("%s has no status line", want)
		}
	}
}
