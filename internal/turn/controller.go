// Package turn orchestrates one conversational turn: capture speech,
// transcribe, generate a reply, synthesize it, play it back. It owns the
// Idle/Listening/Processing/Speaking state machine and the single audio
// input and output handles; every error path returns the machine to Idle so
// the user can simply retry.
package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/curhatin/curhatin/internal/bus"
	"github.com/curhatin/curhatin/internal/capture"
	"github.com/curhatin/curhatin/internal/generate"
	"github.com/curhatin/curhatin/internal/playback"
	"github.com/curhatin/curhatin/internal/synth"
	"github.com/curhatin/curhatin/pkg/protocol"
)

// Recorder captures one utterance and returns it as a WAV clip.
type Recorder interface {
	Record(ctx context.Context) ([]byte, error)
	Stop()
}

// Transcriber converts a recorded clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavData []byte) (string, error)
}

// Generator produces the assistant's text reply.
type Generator interface {
	VoiceReply(ctx context.Context, userText string, tone generate.Tone, history []generate.Turn) (string, error)
}

// Synthesizer converts reply text into a playable WAV clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, content string, opts synth.Options) (*synth.Result, error)
}

// Player plays one clip at a time, blocking until done or stopped.
type Player interface {
	Play(ctx context.Context, clip []byte) error
	Stop()
}

// Sink records a completed exchange, e.g. the transcript store. Optional.
type Sink interface {
	AppendExchange(sessionID, userText, replyText string) error
}

// Controller runs the voice turn loop.
type Controller struct {
	machine *Machine
	events  *bus.Bus

	rec    Recorder
	trans  Transcriber
	gen    Generator
	syn    Synthesizer
	player Player
	sink   Sink // may be nil

	sessionID string

	mu           sync.Mutex
	epoch        int64
	cancel       context.CancelFunc
	tone         generate.Tone
	voice        synth.Voice
	history      []generate.Turn
	historyTurns int
	lastStatus   string
}

// NewController wires the turn loop. It subscribes to mood.logged events so
// journal entries trigger a proactive assistant turn.
func NewController(events *bus.Bus, rec Recorder, trans Transcriber, gen Generator, syn Synthesizer, player Player) *Controller {
	c := &Controller{
		machine:   NewMachine(),
		events:    events,
		rec:       rec,
		trans:     trans,
		gen:       gen,
		syn:       syn,
		player:    player,
		sessionID:    uuid.NewString(),
		tone:         generate.ToneSupportive,
		voice:        synth.VoiceFemale,
		historyTurns: generate.MaxHistoryTurns,
	}
	events.Subscribe("turn-controller", func(ev bus.Event) {
		if ev.Type != protocol.EventMoodLogged {
			return
		}
		mood, ok := ev.Payload.(protocol.MoodPayload)
		if !ok {
			return
		}
		go c.ProactiveTurn(mood.Label)
	})
	return c
}

// SetSink attaches a transcript sink for completed exchanges.
func (c *Controller) SetSink(s Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = s
}

// SetTone changes the response style for subsequent turns.
func (c *Controller) SetTone(t generate.Tone) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tone = t
}

// SetHistoryTurns changes how many history entries are kept as generation
// context. Values below 1 are ignored.
func (c *Controller) SetHistoryTurns(n int) {
	if n < 1 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.historyTurns = n
	if len(c.history) > n {
		c.history = c.history[len(c.history)-n:]
	}
}

// SetVoice changes the synthesis voice for subsequent turns.
func (c *Controller) SetVoice(v synth.Voice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voice = v
}

// State returns the current activity state.
func (c *Controller) State() State { return c.machine.Current() }

// SessionID identifies the conversation for transcript storage.
func (c *Controller) SessionID() string { return c.sessionID }

// LastStatus returns the most recent user-facing status message.
func (c *Controller) LastStatus() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastStatus
}

// History returns a copy of the rolling conversation history.
func (c *Controller) History() []generate.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]generate.Turn, len(c.history))
	copy(out, c.history)
	return out
}

// ErrNotIdle is returned when a capture is requested mid-turn.
var ErrNotIdle = errors.New("a turn is already in progress")

// StartCapture begins a voice turn. Rejected unless the controller is Idle.
func (c *Controller) StartCapture() error {
	if !c.machine.Transition(StateListening) {
		return ErrNotIdle
	}

	ctx, epoch := c.beginTurn()
	c.publishState(StateListening, StateListening.Status())

	go c.runVoiceTurn(ctx, epoch)
	return nil
}

// ProactiveTurn starts a synthetic turn reacting to a logged mood. It enters
// directly at Processing; if a turn is already in flight it does nothing
// rather than interrupting the user.
func (c *Controller) ProactiveTurn(moodLabel string) {
	if c.machine.Current() != StateIdle || !c.machine.Transition(StateProcessing) {
		slog.Debug("skipping proactive turn, controller busy",
			"state", c.machine.Current().String())
		return
	}

	ctx, epoch := c.beginTurn()
	c.publishState(StateProcessing, StateProcessing.Status())

	turnID := uuid.NewString()
	slog.Info("proactive turn started", "turn_id", turnID, "mood", moodLabel)
	go c.runReply(ctx, epoch, turnID, generate.ProactivePrompt(moodLabel), false)
}

// Stop cancels whatever the controller is doing and returns it to Idle
// immediately. While Listening this aborts capture with no generation
// attempted; while Speaking it is barge-in.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.epoch++ // in-flight results become stale
	c.mu.Unlock()

	c.rec.Stop()
	c.player.Stop()

	if c.machine.Transition(StateIdle) {
		c.publishState(StateIdle, StateIdle.Status())
	}
}

// beginTurn allocates a fresh epoch and turn context. Results carrying an
// older epoch are discarded on arrival.
func (c *Controller) beginTurn() (context.Context, int64) {
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()
	return ctx, epoch
}

// stale reports whether this goroutine's turn was superseded.
func (c *Controller) stale(epoch int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch != epoch
}

// advance transitions the machine on behalf of the turn goroutine, dropping
// the result if the turn went stale.
func (c *Controller) advance(epoch int64, next State) bool {
	if c.stale(epoch) {
		return false
	}
	if !c.machine.Transition(next) {
		return false
	}
	c.publishState(next, next.Status())
	return true
}

func (c *Controller) runVoiceTurn(ctx context.Context, epoch int64) {
	turnID := uuid.NewString()

	clip, err := c.rec.Record(ctx)
	if err != nil {
		c.failTurn(epoch, turnID, err)
		return
	}
	if !c.advance(epoch, StateProcessing) {
		return
	}

	userText, err := c.trans.Transcribe(ctx, clip)
	if err != nil {
		c.failTurn(epoch, turnID, err)
		return
	}
	if userText == "" {
		c.failTurn(epoch, turnID, capture.ErrNoSpeech)
		return
	}

	slog.Info("turn.user", "turn_id", turnID, "chars", len(userText))
	c.events.Publish(protocol.EventTurnUser, protocol.TurnPayload{
		TurnID:  turnID,
		Role:    string(generate.RoleUser),
		Content: userText,
	})

	c.runReply(ctx, epoch, turnID, userText, true)
}

// runReply drives Processing → Speaking → Idle. recordUser controls whether
// userText joins the rolling history (proactive prompts do not).
func (c *Controller) runReply(ctx context.Context, epoch int64, turnID, userText string, recordUser bool) {
	c.mu.Lock()
	tone := c.tone
	voice := c.voice
	history := make([]generate.Turn, len(c.history))
	copy(history, c.history)
	c.mu.Unlock()

	reply, err := c.gen.VoiceReply(ctx, userText, tone, history)
	if err != nil {
		c.failTurn(epoch, turnID, err)
		return
	}
	if c.stale(epoch) {
		return
	}

	c.appendHistory(userText, reply, recordUser)
	slog.Info("turn.reply", "turn_id", turnID, "chars", len(reply))
	c.events.Publish(protocol.EventTurnReply, protocol.TurnPayload{
		TurnID:  turnID,
		Role:    string(generate.RoleAssistant),
		Content: reply,
	})
	if recordUser {
		c.storeExchange(userText, reply)
	}

	audio, err := c.syn.Synthesize(ctx, reply, synth.Options{Voice: voice})
	if err != nil {
		// The text reply already went out; a synthesis failure only costs
		// the audio. Surface it as a notice and go back to Idle.
		c.failTurn(epoch, turnID, err)
		return
	}

	if !c.advance(epoch, StateSpeaking) {
		return
	}

	if err := c.player.Play(ctx, audio.Audio); err != nil {
		c.failTurn(epoch, turnID, err)
		return
	}

	c.finishTurn(epoch, turnID)
}

func (c *Controller) appendHistory(userText, reply string, recordUser bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if recordUser {
		c.history = append(c.history, generate.Turn{Role: generate.RoleUser, Content: userText})
	}
	c.history = append(c.history, generate.Turn{Role: generate.RoleAssistant, Content: reply})
	if len(c.history) > c.historyTurns {
		c.history = c.history[len(c.history)-c.historyTurns:]
	}
}

func (c *Controller) storeExchange(userText, reply string) {
	c.mu.Lock()
	sink := c.sink
	c.mu.Unlock()
	if sink == nil {
		return
	}
	if err := sink.AppendExchange(c.sessionID, userText, reply); err != nil {
		slog.Warn("transcript append failed", "error", err)
	}
}

func (c *Controller) finishTurn(epoch int64, turnID string) {
	if c.stale(epoch) {
		return
	}
	c.mu.Lock()
	c.cancel = nil
	c.lastStatus = StateIdle.Status()
	c.mu.Unlock()

	if c.machine.Transition(StateIdle) {
		c.publishState(StateIdle, StateIdle.Status())
	}
	slog.Info("turn.completed", "turn_id", turnID, "state", c.machine.Current().String())
}

// failTurn records the error, notifies subscribers, and returns the machine
// to Idle. A cancelled turn is not an error: Stop already did the cleanup.
func (c *Controller) failTurn(epoch int64, turnID string, err error) {
	if c.stale(epoch) || errors.Is(err, context.Canceled) {
		return
	}

	code, msg := classifyTurnError(err)
	slog.Warn("turn failed", "turn_id", turnID, "code", code, "error", err)

	c.mu.Lock()
	c.cancel = nil
	c.lastStatus = msg
	c.mu.Unlock()

	c.events.Publish(protocol.EventTurnError, protocol.TurnErrorPayload{
		TurnID:  turnID,
		Code:    code,
		Message: msg,
	})
	if c.machine.Transition(StateIdle) {
		c.publishState(StateIdle, msg)
	}
}

func (c *Controller) publishState(s State, status string) {
	c.mu.Lock()
	c.lastStatus = status
	c.mu.Unlock()
	c.events.Publish(protocol.EventStateChanged, protocol.StatePayload{
		State:  s.String(),
		Status: status,
	})
}

// classifyTurnError maps an internal failure to a wire code and a message
// safe to show the user.
func classifyTurnError(err error) (code, msg string) {
	switch {
	case errors.Is(err, capture.ErrNoSpeech):
		return protocol.ErrNoSpeech, "Tidak ada suara yang terdengar. Coba lagi ya."
	case errors.Is(err, capture.ErrPermissionDenied):
		return protocol.ErrPermissionDenied, "Akses mikrofon ditolak. Periksa izin mikrofon perangkatmu."
	case errors.Is(err, capture.ErrUnsupported):
		return protocol.ErrUnsupported, "Perangkat audio tidak tersedia di perangkat ini."
	case errors.Is(err, capture.ErrBusy):
		return protocol.ErrDevice, "Mikrofon sedang dipakai. Coba lagi sebentar."
	case errors.Is(err, playback.ErrDecode), errors.Is(err, playback.ErrDevice):
		return protocol.ErrPlayback, "Suaranya gagal diputar, tapi jawabanku tetap bisa dibaca."
	case synth.IsQuota(err):
		return protocol.ErrQuotaExhausted, synth.ErrQuotaExhausted.Error()
	case generate.IsQuota(err):
		return protocol.ErrQuotaExhausted, "Layanan sedang sibuk. Coba lagi sebentar ya."
	}

	var genErr *generate.Error
	if errors.As(err, &genErr) {
		return protocol.ErrGeneration, "Maaf, aku lagi kesulitan menjawab. Coba lagi sebentar ya."
	}
	var synErr *synth.Error
	if errors.As(err, &synErr) {
		return protocol.ErrSynthesis, "Suaranya lagi bermasalah, tapi jawabanku tetap bisa dibaca."
	}
	return protocol.ErrInternal, fmt.Sprintf("Terjadi kesalahan: %v", err)
}
