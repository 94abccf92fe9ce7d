package protocol

// Error codes surfaced in TurnErrorPayload and HTTP error bodies.
const (
	ErrInvalidRequest   = "INVALID_REQUEST"
	ErrUnauthorized     = "UNAUTHORIZED"
	ErrUnsupported      = "UNSUPPORTED"
	ErrPermissionDenied = "PERMISSION_DENIED"
	ErrNoSpeech         = "NO_SPEECH"
	ErrDevice           = "DEVICE_ERROR"
	ErrQuotaExhausted   = "QUOTA_EXHAUSTED"
	ErrGeneration       = "GENERATION_FAILED"
	ErrSynthesis        = "SYNTHESIS_FAILED"
	ErrPlayback         = "PLAYBACK_FAILED"
	ErrInternal         = "INTERNAL"
)
