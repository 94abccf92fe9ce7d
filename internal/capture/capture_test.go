package capture

import (
	"testing"
	"time"
)

func observeAll(e *Endpointer, voiced bool, n int) Decision {
	d := DecisionContinue
	for i := 0; i < n; i++ {
		d = e.Observe(voiced)
		if d == DecisionEnd {
			return d
		}
	}
	return d
}

func TestEndpointerEndsAfterTrailingSilence(t *testing.T) {
	e := NewEndpointer(EndpointConfig{
		MinSpeech:       90 * time.Millisecond,  // 3 frames
		TrailingSilence: 300 * time.Millisecond, // 10 frames
		MaxWait:         30 * time.Second,
	})

	if d := observeAll(e, true, 20); d != DecisionContinue {
		t.Fatal("should keep listening while speech continues")
	}
	if !e.Started() {
		t.Fatal("speech onset not detected")
	}
	if d := observeAll(e, false, 9); d != DecisionContinue {
		t.Fatal("ended before silence threshold")
	}
	if d := e.Observe(false); d != DecisionEnd {
		t.Fatal("should end at silence threshold")
	}
	if !e.HasSpeech() {
		t.Error("captured speech should be valid")
	}
}

func TestEndpointerNoSpeechGivesUpAtMaxWait(t *testing.T) {
	e := NewEndpointer(EndpointConfig{
		MaxWait: 900 * time.Millisecond, // 30 frames
	})

	if d := observeAll(e, false, 29); d != DecisionContinue {
		t.Fatal("gave up too early")
	}
	if d := e.Observe(false); d != DecisionEnd {
		t.Fatal("should give up at max wait")
	}
	if e.HasSpeech() {
		t.Error("silence must not count as speech")
	}
}

func TestEndpointerIgnoresSingleFrameNoise(t *testing.T) {
	e := NewEndpointer(EndpointConfig{})

	e.Observe(true)
	e.Observe(false)
	if e.Started() {
		t.Error("one voiced frame must not start an utterance")
	}

	e.Observe(true)
	e.Observe(true)
	if !e.Started() {
		t.Error("two consecutive voiced frames should start an utterance")
	}
}

func TestEndpointerTooShortSpeechIsInvalid(t *testing.T) {
	e := NewEndpointer(EndpointConfig{
		MinSpeech:       300 * time.Millisecond, // 10 frames
		TrailingSilence: 60 * time.Millisecond,  // 2 frames
	})

	observeAll(e, true, 3)
	if d := observeAll(e, false, 2); d != DecisionEnd {
		t.Fatal("should end after trailing silence")
	}
	if e.HasSpeech() {
		t.Error("3 voiced frames below a 10-frame minimum must not be valid speech")
	}
}

func TestEndpointerReset(t *testing.T) {
	e := NewEndpointer(EndpointConfig{})
	observeAll(e, true, 10)
	e.Reset()
	if e.Started() || e.HasSpeech() {
		t.Error("reset should clear all state")
	}
}

func TestPCMBytesLittleEndian(t *testing.T) {
	b := pcmBytes([]int16{0x1234, -1})
	want := []byte{0x34, 0x12, 0xff, 0xff}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, b[i], want[i])
		}
	}
}
