// Package playback plays synthesized WAV clips on the local output device.
//
// One clip plays at a time; Stop interrupts mid-clip, which is how barge-in
// cuts the assistant off.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/curhatin/curhatin/internal/wav"
)

const framesPerBuffer = 1024

// ErrBusy is returned when a clip is already playing.
var ErrBusy = errors.New("playback already running")

// ErrDecode marks a clip that is not a playable WAV file.
var ErrDecode = errors.New("playback: decode failed")

// ErrDevice marks an output device that cannot be opened or written.
var ErrDevice = errors.New("playback: output device failed")

// Player writes audio to the default (or named) output device.
type Player struct {
	device string

	mu      sync.Mutex
	cancel  context.CancelFunc
	playing bool
}

// NewPlayer builds a player. device is the output device name, empty for the
// system default.
func NewPlayer(device string) *Player {
	return &Player{device: device}
}

// Play decodes clip (a WAV file) and plays it to completion. It returns when
// the clip finishes, ctx is cancelled, or Stop is called; a stopped clip
// returns context.Canceled.
func (p *Player) Play(ctx context.Context, clip []byte) error {
	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return ErrBusy
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.playing = true
	p.mu.Unlock()

	defer func() {
		cancel()
		p.mu.Lock()
		p.playing = false
		p.cancel = nil
		p.mu.Unlock()
	}()

	pcm, format, err := wav.Decode(clip)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	samples := wav.Samples(pcm)

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initialize: %v", ErrDevice, err)
	}
	defer portaudio.Terminate()

	buffer := make([]float32, framesPerBuffer)
	stream, err := p.openStream(format, &buffer)
	if err != nil {
		return fmt.Errorf("%w: open output stream: %v", ErrDevice, err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("%w: start stream: %v", ErrDevice, err)
	}
	defer stream.Stop()

	slog.Debug("playing clip",
		"samples", len(samples), "sample_rate", format.SampleRate)

	for pos := 0; pos < len(samples); pos += framesPerBuffer {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range buffer {
			if pos+i < len(samples) {
				buffer[i] = samples[pos+i]
			} else {
				buffer[i] = 0
			}
		}
		if err := stream.Write(); err != nil {
			if err == portaudio.OutputUnderflowed {
				continue
			}
			return fmt.Errorf("%w: write stream: %v", ErrDevice, err)
		}
	}
	return nil
}

// Stop interrupts the clip currently playing, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

// Playing reports whether a clip is currently being played.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) openStream(format wav.Format, buffer *[]float32) (*portaudio.Stream, error) {
	rate := float64(format.SampleRate)

	if p.device != "" && p.device != "default" {
		dev, err := findOutputDevice(p.device)
		if err == nil {
			params := portaudio.StreamParameters{
				Output: portaudio.StreamDeviceParameters{
					Device:   dev,
					Channels: format.Channels,
					Latency:  dev.DefaultLowOutputLatency,
				},
				SampleRate:      rate,
				FramesPerBuffer: framesPerBuffer,
			}
			return portaudio.OpenStream(params, buffer)
		}
		slog.Warn("configured output device not found, using default", "device", p.device)
	}

	return portaudio.OpenDefaultStream(0, format.Channels, rate, framesPerBuffer, buffer)
}

func findOutputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.Name == name && dev.MaxOutputChannels > 0 {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("output device %q not found", name)
}
