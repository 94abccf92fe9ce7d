package turn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/curhatin/curhatin/internal/bus"
	"github.com/curhatin/curhatin/internal/capture"
	"github.com/curhatin/curhatin/internal/generate"
	"github.com/curhatin/curhatin/internal/playback"
	"github.com/curhatin/curhatin/internal/synth"
	"github.com/curhatin/curhatin/pkg/protocol"
)

type fakeRecorder struct {
	clip    []byte
	err     error
	block   chan struct{} // when set, Record waits for close or cancellation
	stopped atomic.Bool
}

func (f *fakeRecorder) Record(ctx context.Context) ([]byte, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.clip, f.err
}

func (f *fakeRecorder) Stop() { f.stopped.Store(true) }

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, wavData []byte) (string, error) {
	return f.text, f.err
}

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	gotText string
	gotHist []generate.Turn
}

func (f *fakeGenerator) VoiceReply(ctx context.Context, userText string, tone generate.Tone, history []generate.Turn) (string, error) {
	f.mu.Lock()
	f.gotText = userText
	f.gotHist = history
	f.mu.Unlock()
	return f.reply, f.err
}

func (f *fakeGenerator) lastInput() (string, []generate.Turn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gotText, f.gotHist
}

type fakeSynth struct {
	err error
}

func (f *fakeSynth) Synthesize(ctx context.Context, content string, opts synth.Options) (*synth.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &synth.Result{Audio: []byte("RIFF"), MimeType: "audio/wav"}, nil
}

type fakePlayer struct {
	err     error
	block   chan struct{} // when set, Play waits for close or cancellation
	played  atomic.Int32
	stopped atomic.Bool
}

func (f *fakePlayer) Play(ctx context.Context, clip []byte) error {
	f.played.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakePlayer) Stop() { f.stopped.Store(true) }

type fixture struct {
	ctrl   *Controller
	bus    *bus.Bus
	rec    *fakeRecorder
	trans  *fakeTranscriber
	gen    *fakeGenerator
	syn    *fakeSynth
	player *fakePlayer
	events chan bus.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bus:    bus.New(),
		rec:    &fakeRecorder{clip: []byte("RIFFclip")},
		trans:  &fakeTranscriber{text: "aku capek banget hari ini"},
		gen:    &fakeGenerator{reply: "Pasti melelahkan ya. Mau cerita kenapa?"},
		syn:    &fakeSynth{},
		player: &fakePlayer{},
		events: make(chan bus.Event, 64),
	}
	f.bus.Subscribe("test", func(ev bus.Event) { f.events <- ev })
	f.ctrl = NewController(f.bus, f.rec, f.trans, f.gen, f.syn, f.player)
	return f
}

// waitEvent consumes events until one of the given type arrives.
func (f *fixture) waitEvent(t *testing.T, eventType string) bus.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-f.events:
			if ev.Type == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", eventType)
		}
	}
}

// waitState consumes state.changed events until the given state arrives.
func (f *fixture) waitState(t *testing.T, state State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-f.events:
			if ev.Type != protocol.EventStateChanged {
				continue
			}
			if p, ok := ev.Payload.(protocol.StatePayload); ok && p.State == state.String() {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", state)
		}
	}
}

func TestVoiceTurnHappyPath(t *testing.T) {
	f := newFixture(t)

	if err := f.ctrl.StartCapture(); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}

	user := f.waitEvent(t, protocol.EventTurnUser)
	if p := user.Payload.(protocol.TurnPayload); p.Content != "aku capek banget hari ini" {
		t.Errorf("user turn content = %q", p.Content)
	}
	reply := f.waitEvent(t, protocol.EventTurnReply)
	if p := reply.Payload.(protocol.TurnPayload); p.Role != "assistant" {
		t.Errorf("reply role = %q", p.Role)
	}
	f.waitState(t, StateIdle)

	if f.player.played.Load() != 1 {
		t.Errorf("expected 1 playback, got %d", f.player.played.Load())
	}
	hist := f.ctrl.History()
	if len(hist) != 2 {
		t.Fatalf("history length = %d, want 2", len(hist))
	}
	if hist[0].Role != generate.RoleUser || hist[1].Role != generate.RoleAssistant {
		t.Errorf("history roles = %v, %v", hist[0].Role, hist[1].Role)
	}
}

func TestHistoryBoundedToTwoEntries(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		f.trans.text = fmt.Sprintf("cerita nomor %d", i)
		if err := f.ctrl.StartCapture(); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		f.waitEvent(t, protocol.EventTurnReply)
		f.waitState(t, StateIdle)
	}

	hist := f.ctrl.History()
	if len(hist) != generate.MaxHistoryTurns {
		t.Fatalf("history length = %d, want %d", len(hist), generate.MaxHistoryTurns)
	}
}

func TestStartCaptureRejectedWhileBusy(t *testing.T) {
	f := newFixture(t)
	f.rec.block = make(chan struct{})
	defer close(f.rec.block)

	if err := f.ctrl.StartCapture(); err != nil {
		t.Fatalf("first StartCapture: %v", err)
	}
	if err := f.ctrl.StartCapture(); !errors.Is(err, ErrNotIdle) {
		t.Fatalf("second StartCapture = %v, want ErrNotIdle", err)
	}
}

func TestNoSpeechReturnsToIdleWithNotice(t *testing.T) {
	f := newFixture(t)
	f.rec.clip = nil
	f.rec.err = capture.ErrNoSpeech

	if err := f.ctrl.StartCapture(); err != nil {
		t.Fatal(err)
	}
	ev := f.waitEvent(t, protocol.EventTurnError)
	p := ev.Payload.(protocol.TurnErrorPayload)
	if p.Code != protocol.ErrNoSpeech {
		t.Errorf("code = %q, want %q", p.Code, protocol.ErrNoSpeech)
	}
	f.waitState(t, StateIdle)

	if len(f.ctrl.History()) != 0 {
		t.Error("failed turn must not touch history")
	}
}

func TestGenerationQuotaErrorIsTagged(t *testing.T) {
	f := newFixture(t)
	f.gen.err = &generate.Error{Op: "voice-reply", Cause: generate.CauseQuota, Err: errors.New("429")}

	if err := f.ctrl.StartCapture(); err != nil {
		t.Fatal(err)
	}
	ev := f.waitEvent(t, protocol.EventTurnError)
	p := ev.Payload.(protocol.TurnErrorPayload)
	if p.Code != protocol.ErrQuotaExhausted {
		t.Errorf("code = %q, want %q", p.Code, protocol.ErrQuotaExhausted)
	}
	f.waitState(t, StateIdle)
}

func TestSynthesisFailureKeepsTextReply(t *testing.T) {
	f := newFixture(t)
	f.syn.err = synth.ErrQuotaExhausted

	if err := f.ctrl.StartCapture(); err != nil {
		t.Fatal(err)
	}

	reply := f.waitEvent(t, protocol.EventTurnReply)
	if p := reply.Payload.(protocol.TurnPayload); p.Content == "" {
		t.Error("text reply must be emitted before synthesis")
	}
	ev := f.waitEvent(t, protocol.EventTurnError)
	if p := ev.Payload.(protocol.TurnErrorPayload); p.Code != protocol.ErrQuotaExhausted {
		t.Errorf("code = %q, want %q", p.Code, protocol.ErrQuotaExhausted)
	}
	f.waitState(t, StateIdle)

	hist := f.ctrl.History()
	if len(hist) != 2 {
		t.Fatalf("history length = %d, want 2: text reply survives audio failure", len(hist))
	}
	if f.player.played.Load() != 0 {
		t.Error("nothing should have played")
	}
}

func TestPlaybackFailureKeepsTextReply(t *testing.T) {
	f := newFixture(t)
	f.player.err = fmt.Errorf("%w: open output stream: %v", playback.ErrDevice, errors.New("no output device"))

	if err := f.ctrl.StartCapture(); err != nil {
		t.Fatal(err)
	}
	f.waitEvent(t, protocol.EventTurnReply)

	ev := f.waitEvent(t, protocol.EventTurnError)
	p := ev.Payload.(protocol.TurnErrorPayload)
	if p.Code != protocol.ErrPlayback {
		t.Errorf("code = %q, want %q", p.Code, protocol.ErrPlayback)
	}
	if strings.Contains(p.Message, "no output device") {
		t.Errorf("message leaks internals: %q", p.Message)
	}
	f.waitState(t, StateIdle)

	if len(f.ctrl.History()) != 2 {
		t.Error("playback failure must not discard the text reply")
	}
}

func TestPlaybackErrorClassification(t *testing.T) {
	for _, err := range []error{
		fmt.Errorf("%w: %v", playback.ErrDecode, errors.New("wav: short fmt chunk")),
		fmt.Errorf("%w: write stream: %v", playback.ErrDevice, errors.New("stream closed")),
	} {
		code, msg := classifyTurnError(err)
		if code != protocol.ErrPlayback {
			t.Errorf("classifyTurnError(%v) code = %q, want %q", err, code, protocol.ErrPlayback)
		}
		if strings.Contains(msg, "stream") || strings.Contains(msg, "wav") {
			t.Errorf("classifyTurnError(%v) message leaks internals: %q", err, msg)
		}
	}
}

func TestHistoryBoundFollowsSetting(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetHistoryTurns(4)

	for i := 0; i < 3; i++ {
		f.trans.text = fmt.Sprintf("cerita nomor %d", i)
		if err := f.ctrl.StartCapture(); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		f.waitEvent(t, protocol.EventTurnReply)
		f.waitState(t, StateIdle)
	}

	if got := len(f.ctrl.History()); got != 4 {
		t.Fatalf("history length = %d, want 4", got)
	}

	// Shrinking the bound trims what is already stored.
	f.ctrl.SetHistoryTurns(2)
	if got := len(f.ctrl.History()); got != 2 {
		t.Fatalf("history length after shrink = %d, want 2", got)
	}
}

func TestBargeInStopsPlaybackImmediately(t *testing.T) {
	f := newFixture(t)
	f.player.block = make(chan struct{})
	defer close(f.player.block)

	if err := f.ctrl.StartCapture(); err != nil {
		t.Fatal(err)
	}
	f.waitState(t, StateSpeaking)

	f.ctrl.Stop()
	if got := f.ctrl.State(); got != StateIdle {
		t.Fatalf("state after barge-in = %s, want idle", got)
	}
	if !f.player.stopped.Load() {
		t.Error("player was not stopped")
	}
}

func TestStopWhileListeningAbortsWithoutGeneration(t *testing.T) {
	f := newFixture(t)
	f.rec.block = make(chan struct{})
	defer close(f.rec.block)

	if err := f.ctrl.StartCapture(); err != nil {
		t.Fatal(err)
	}
	f.waitState(t, StateListening)

	f.ctrl.Stop()
	if got := f.ctrl.State(); got != StateIdle {
		t.Fatalf("state after stop = %s, want idle", got)
	}
	if !f.rec.stopped.Load() {
		t.Error("recorder was not stopped")
	}

	// give any stray goroutine a beat; no reply may surface
	time.Sleep(50 * time.Millisecond)
	if text, _ := f.gen.lastInput(); text != "" {
		t.Errorf("generation ran after abort with input %q", text)
	}
}

func TestMoodLoggedTriggersProactiveTurn(t *testing.T) {
	f := newFixture(t)

	f.bus.Publish(protocol.EventMoodLogged, protocol.MoodPayload{
		Level: 2, Label: "Sedih", Streak: 3,
	})

	f.waitEvent(t, protocol.EventTurnReply)
	f.waitState(t, StateIdle)

	text, _ := f.gen.lastInput()
	if !strings.Contains(text, "Sedih") {
		t.Errorf("proactive prompt %q does not embed the mood label", text)
	}
	hist := f.ctrl.History()
	if len(hist) != 1 || hist[0].Role != generate.RoleAssistant {
		t.Errorf("proactive turn should record only the assistant reply, got %v", hist)
	}
}

func TestProactiveTurnSkippedWhileBusy(t *testing.T) {
	f := newFixture(t)
	f.rec.block = make(chan struct{})
	defer close(f.rec.block)

	if err := f.ctrl.StartCapture(); err != nil {
		t.Fatal(err)
	}
	f.waitState(t, StateListening)

	f.ctrl.ProactiveTurn("Senang")
	if got := f.ctrl.State(); got != StateListening {
		t.Errorf("proactive turn interrupted a live turn, state = %s", got)
	}
}
