// Package synth is the client for the speech synthesis provider (Gemini TTS).
//
// Providers return raw single-channel 24kHz 16-bit PCM; this package wraps
// it into a WAV container and, for HTTP callers, a base64 data URI. Quota
// failures are retried with exponential backoff (see Retrier); all other
// failures surface immediately.
package synth

import (
	"context"
	"encoding/base64"
)

// Provider synthesizes text into audio.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, content string, opts Options) (*Result, error)
}

// Voice is the user-facing voice setting. Provider-specific voice names are
// resolved at the client boundary.
type Voice string

const (
	VoiceFemale Voice = "female"
	VoiceMale   Voice = "male"
)

// Content formats.
const (
	FormatText   = "text"
	FormatMarkup = "markup" // content carries pacing/emphasis/pause directives
)

// Options controls synthesis parameters.
type Options struct {
	Voice  Voice
	Format string // FormatText (default) or FormatMarkup
}

// SpeakerVoice assigns a provider voice to a named speaker in a dialog
// script.
type SpeakerVoice struct {
	Speaker string
	Voice   Voice
}

// Result is a synthesized audio clip in a WAV container.
type Result struct {
	Audio    []byte // complete WAV file
	MimeType string // "audio/wav"
}

// DataURI returns the clip as a base64 data URI, the format the web client
// feeds straight into an audio element.
func (r *Result) DataURI() string {
	return "data:" + r.MimeType + ";base64," + base64.StdEncoding.EncodeToString(r.Audio)
}
