package capture

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/curhatin/curhatin/internal/wav"
)

// preRollFrames of audio kept from before speech onset, so the first word
// is not clipped.
const preRollFrames = 8

// Recorder captures one utterance at a time from the microphone. VAD-based
// endpointing closes the recording after trailing silence.
type Recorder struct {
	vad    *VAD
	epCfg  EndpointConfig
	device string // input device name, empty = system default

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// NewRecorder builds a recorder. vadMode is webrtcvad aggressiveness 0-3.
func NewRecorder(vadMode int, device string, epCfg EndpointConfig) (*Recorder, error) {
	v, err := NewVAD(vadMode)
	if err != nil {
		return nil, err
	}
	return &Recorder{vad: v, epCfg: epCfg, device: device}, nil
}

// Record listens until the utterance ends and returns it as a 16kHz mono WAV
// clip. Returns ErrNoSpeech when the listening window closes without voiced
// audio, and ErrBusy when a recording is already running.
func (r *Recorder) Record(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrBusy
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.mu.Unlock()

	defer func() {
		cancel()
		r.mu.Lock()
		r.running = false
		r.cancel = nil
		r.mu.Unlock()
	}()

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	defer portaudio.Terminate()

	frame := make([]int16, FrameSamples)
	stream, err := r.openStream(frame)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("%w: start stream: %v", ErrUnsupported, err)
	}
	defer stream.Stop()

	ep := NewEndpointer(r.epCfg)
	var preRoll [][]int16
	var captured []int16

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			// overflow just means we fell behind; drop and continue
			if err == portaudio.InputOverflowed {
				continue
			}
			return nil, fmt.Errorf("capture: read stream: %w", err)
		}

		voiced, err := r.vad.IsSpeech(frame)
		if err != nil {
			return nil, err
		}

		wasStarted := ep.Started()
		decision := ep.Observe(voiced)

		if ep.Started() {
			if !wasStarted {
				for _, f := range preRoll {
					captured = append(captured, f...)
				}
				preRoll = nil
			}
			captured = append(captured, frame...)
		} else {
			f := make([]int16, len(frame))
			copy(f, frame)
			preRoll = append(preRoll, f)
			if len(preRoll) > preRollFrames {
				preRoll = preRoll[1:]
			}
		}

		if decision == DecisionEnd {
			break
		}
	}

	if !ep.HasSpeech() {
		return nil, ErrNoSpeech
	}

	clip, err := wav.Encode(pcmBytes(captured), wav.Format{
		Channels:   1,
		SampleRate: SampleRate,
		BitDepth:   16,
	})
	if err != nil {
		return nil, fmt.Errorf("capture: encode wav: %w", err)
	}

	slog.Debug("utterance captured",
		"samples", len(captured), "seconds", float64(len(captured))/SampleRate)
	return clip, nil
}

// Stop aborts an in-flight recording, if any.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Recorder) openStream(frame []int16) (*portaudio.Stream, error) {
	if r.device != "" && r.device != "default" {
		dev, err := findInputDevice(r.device)
		if err == nil {
			params := portaudio.StreamParameters{
				Input: portaudio.StreamDeviceParameters{
					Device:   dev,
					Channels: 1,
					Latency:  dev.DefaultLowInputLatency,
				},
				SampleRate:      SampleRate,
				FramesPerBuffer: FrameSamples,
			}
			return portaudio.OpenStream(params, frame)
		}
		slog.Warn("configured input device not found, using default", "device", r.device)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, FrameSamples, frame)
	if err != nil {
		return nil, classifyOpenErr(err)
	}
	return stream, nil
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.Name == name && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("input device %q not found", name)
}

func classifyOpenErr(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission") || strings.Contains(msg, "access denied") {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if _, derr := portaudio.DefaultInputDevice(); derr != nil {
		return fmt.Errorf("%w: no input device", ErrUnsupported)
	}
	return fmt.Errorf("%w: open input stream: %v", ErrUnsupported, err)
}

// InputDevice describes an available capture device.
type InputDevice struct {
	Name       string
	Channels   int
	SampleRate float64
	Default    bool
}

// ListInputDevices enumerates audio capture devices, for the doctor command.
func ListInputDevices() ([]InputDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("capture: list devices: %w", err)
	}

	var defaultName string
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultName = def.Name
	}

	var out []InputDevice
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			out = append(out, InputDevice{
				Name:       dev.Name,
				Channels:   dev.MaxInputChannels,
				SampleRate: dev.DefaultSampleRate,
				Default:    dev.Name == defaultName,
			})
		}
	}
	return out, nil
}
