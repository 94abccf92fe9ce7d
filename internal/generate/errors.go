package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Cause tags a provider failure so callers can apply differentiated
// messaging and retry policy.
type Cause int

const (
	CauseUnknown Cause = iota
	CauseQuota
	CauseTransient
)

func (c Cause) String() string {
	switch c {
	case CauseQuota:
		return "quota"
	case CauseTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error wraps a provider failure with its classified cause.
type Error struct {
	Op    string // "generate", "urgent-support", ...
	Cause Cause
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Cause, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsQuota reports whether err is a provider quota/rate-limit failure.
func IsQuota(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Cause == CauseQuota
}

// Classify inspects a provider error and tags its cause. The Gemini SDK
// surfaces HTTP status and RPC status names in the error string, so
// classification matches on those markers.
func Classify(err error) Cause {
	if err == nil {
		return CauseUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CauseTransient
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "resource_exhausted"),
		strings.Contains(msg, "rate limit"):
		return CauseQuota
	case strings.Contains(msg, "500"),
		strings.Contains(msg, "502"),
		strings.Contains(msg, "503"),
		strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"):
		return CauseTransient
	}
	return CauseUnknown
}

func wrapErr(op string, err error) error {
	return &Error{Op: op, Cause: Classify(err), Err: err}
}
