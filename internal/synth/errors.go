package synth

import (
	"errors"
	"fmt"

	"github.com/curhatin/curhatin/internal/generate"
)

// Error wraps a synthesis failure with its classified cause. Causes share
// the generation client's taxonomy (quota / transient / unknown).
type Error struct {
	Provider string
	Cause    generate.Cause
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("synthesis via %s failed (%s): %v", e.Provider, e.Cause, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrQuotaExhausted is returned after the retry budget is spent on quota
// failures. Its message is safe to show to the user.
var ErrQuotaExhausted = errors.New("layanan suara sedang sibuk, coba lagi sebentar")

// IsQuota reports whether err is a quota/rate-limit synthesis failure
// (including final exhaustion).
func IsQuota(err error) bool {
	if errors.Is(err, ErrQuotaExhausted) {
		return true
	}
	var se *Error
	return errors.As(err, &se) && se.Cause == generate.CauseQuota
}
