package synth

import (
	"context"
	"log/slog"
	"time"
)

// Retrier wraps a Provider with backoff retry for quota failures only.
// Delays double from BaseDelay (2s, 4s, ...). Non-quota failures are not
// retried: a transient or unknown error surfaces immediately and the caller
// decides what to do with the turn.
type Retrier struct {
	provider    Provider
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewRetrier wraps provider. maxAttempts counts total attempts (default 3),
// baseDelay is the first backoff delay (default 2s).
func NewRetrier(provider Provider, maxAttempts int, baseDelay time.Duration) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	return &Retrier{
		provider:    provider,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		sleep:       sleepCtx,
	}
}

func (r *Retrier) Name() string { return r.provider.Name() }

// Synthesize runs the wrapped provider, retrying quota failures until the
// attempt budget is spent. On exhaustion it returns ErrQuotaExhausted.
func (r *Retrier) Synthesize(ctx context.Context, content string, opts Options) (*Result, error) {
	delay := r.baseDelay

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		result, err := r.provider.Synthesize(ctx, content, opts)
		if err == nil {
			return result, nil
		}
		if !IsQuota(err) {
			return nil, err
		}
		lastErr = err

		if attempt == r.maxAttempts {
			break
		}
		slog.Warn("synthesis rate limited, backing off",
			"provider", r.provider.Name(), "attempt", attempt, "delay", delay)
		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
	}

	slog.Warn("synthesis quota exhausted",
		"provider", r.provider.Name(), "attempts", r.maxAttempts, "error", lastErr)
	return nil, ErrQuotaExhausted
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
