package capture

import "errors"

var (
	// ErrUnsupported means no usable audio input exists on this machine.
	ErrUnsupported = errors.New("audio capture is not supported on this device")

	// ErrPermissionDenied means the OS refused microphone access.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrNoSpeech means the recording ended without enough voiced audio to
	// transcribe.
	ErrNoSpeech = errors.New("no speech detected")

	// ErrBusy means a recording is already in progress.
	ErrBusy = errors.New("capture already running")
)
