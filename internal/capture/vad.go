package capture

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// Capture audio format. WebRTC VAD only accepts 8/16/32/48kHz with 10/20/30ms
// frames; 16kHz/30ms keeps the stream cheap and is plenty for transcription.
const (
	SampleRate   = 16000
	FrameMillis  = 30
	FrameSamples = SampleRate / 1000 * FrameMillis
)

// VAD classifies a single audio frame as voiced or not.
type VAD struct {
	vad *webrtcvad.VAD
}

// NewVAD creates a detector with the given aggressiveness (0 = permissive,
// 3 = most aggressive filtering).
func NewVAD(mode int) (*VAD, error) {
	if mode < 0 || mode > 3 {
		return nil, fmt.Errorf("capture: vad mode must be 0-3, got %d", mode)
	}
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("capture: create vad: %w", err)
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("capture: set vad mode: %w", err)
	}
	return &VAD{vad: v}, nil
}

// IsSpeech reports whether the frame contains voiced audio. The frame must
// be exactly FrameSamples long.
func (v *VAD) IsSpeech(frame []int16) (bool, error) {
	if len(frame) != FrameSamples {
		return false, fmt.Errorf("capture: frame must be %d samples, got %d", FrameSamples, len(frame))
	}
	return v.vad.Process(SampleRate, pcmBytes(frame))
}

// pcmBytes converts samples to little-endian 16-bit PCM.
func pcmBytes(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		b[i*2] = byte(s)
		b[i*2+1] = byte(s >> 8)
	}
	return b
}
