package llm

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds retries around a single fallible call.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy retries up to 3 attempts with exponential backoff
// starting at 4s and capped at 10s per attempt.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   4 * time.Second,
	MaxDelay:    10 * time.Second,
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultRetryPolicy.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultRetryPolicy.MaxDelay
	}
	return p
}

// backoff returns the delay before the given retry (0-based), doubling from
// BaseDelay and capped at MaxDelay.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	if attempt < 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Retry invokes fn until it succeeds or the policy's attempts exhaust. Any
// error is retried; the final error is returned as-is. The backoff sleep is
// context-aware so cancellation is not delayed by a pending retry.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (*Response, error)) (*Response, error) {
	if ctx == nil {
		return nil, errors.New("llm: nil context")
	}
	if fn == nil {
		return nil, errors.New("llm: nil retry func")
	}

	p := policy.normalized()
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		resp, err := fn(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == p.MaxAttempts-1 {
			break
		}
		if err := sleepWithContext(ctx, p.backoff(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
