package capture

import "time"

// Decision is the endpointer's verdict after each observed frame.
type Decision int

const (
	// DecisionContinue keeps the recording open.
	DecisionContinue Decision = iota
	// DecisionEnd closes the recording; check HasSpeech for whether anything
	// usable was captured.
	DecisionEnd
)

// EndpointConfig tunes utterance segmentation. Zero values pick defaults.
type EndpointConfig struct {
	// MinSpeech is the least voiced audio required for a valid utterance.
	MinSpeech time.Duration
	// TrailingSilence ends the utterance once this much silence follows
	// speech.
	TrailingSilence time.Duration
	// MaxWait caps how long to listen before giving up, speech or not.
	MaxWait time.Duration
}

func (c *EndpointConfig) withDefaults() EndpointConfig {
	out := *c
	if out.MinSpeech <= 0 {
		out.MinSpeech = 300 * time.Millisecond
	}
	if out.TrailingSilence <= 0 {
		out.TrailingSilence = 1200 * time.Millisecond
	}
	if out.MaxWait <= 0 {
		out.MaxWait = 30 * time.Second
	}
	return out
}

// Endpointer decides when an utterance ends. It counts frames rather than
// reading the clock, so behavior is deterministic for a given frame stream.
type Endpointer struct {
	minSpeechFrames int
	silenceFrames   int
	maxFrames       int

	started    bool
	voicedRun  int
	silenceRun int
	voiced     int
	total      int
}

// NewEndpointer builds an endpointer for FrameMillis-sized frames.
func NewEndpointer(cfg EndpointConfig) *Endpointer {
	cfg = cfg.withDefaults()
	frame := FrameMillis * time.Millisecond
	return &Endpointer{
		minSpeechFrames: frames(cfg.MinSpeech, frame),
		silenceFrames:   frames(cfg.TrailingSilence, frame),
		maxFrames:       frames(cfg.MaxWait, frame),
	}
}

func frames(d, frame time.Duration) int {
	n := int(d / frame)
	if n < 1 {
		n = 1
	}
	return n
}

// Observe feeds one frame's VAD verdict and returns whether to keep
// listening.
func (e *Endpointer) Observe(isVoiced bool) Decision {
	e.total++

	if isVoiced {
		e.voiced++
		e.voicedRun++
		e.silenceRun = 0
		if !e.started && e.voicedRun >= 2 {
			// two consecutive voiced frames filters single-frame noise
			e.started = true
		}
	} else {
		e.voicedRun = 0
		if e.started {
			e.silenceRun++
			if e.silenceRun >= e.silenceFrames {
				return DecisionEnd
			}
		}
	}

	if e.total >= e.maxFrames {
		return DecisionEnd
	}
	return DecisionContinue
}

// HasSpeech reports whether enough voiced audio was observed to bother
// transcribing.
func (e *Endpointer) HasSpeech() bool {
	return e.started && e.voiced >= e.minSpeechFrames
}

// Started reports whether speech onset was detected.
func (e *Endpointer) Started() bool { return e.started }

// Reset clears all state for the next utterance.
func (e *Endpointer) Reset() {
	e.started = false
	e.voicedRun = 0
	e.silenceRun = 0
	e.voiced = 0
	e.total = 0
}
