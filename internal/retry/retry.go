// Package retry provides a bounded retry policy shared by the content
// fetch and gateway send call sites.
package retry

import (
	"context"
	"time"
)

// Policy describes how many times an operation may run and how long to
// wait between tries.
type Policy struct {
	// MaxAttempts is the total attempt ceiling, first try included.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt.
	BaseDelay time.Duration
	// MaxDelay caps the per-try wait when Exponential is set (0 = no cap).
	MaxDelay time.Duration
	// Exponential doubles the delay on every further attempt; otherwise
	// the delay stays fixed at BaseDelay.
	Exponential bool
}

// Delay returns the wait before the given attempt (1-based). The first
// attempt has no delay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := p.BaseDelay
	if p.Exponential {
		d = p.BaseDelay << uint(attempt-2)
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Do runs op until it succeeds, the attempt ceiling is reached, the
// error is not retryable, or ctx expires. It returns the number of
// attempts made and the final error. A nil retryable treats every error
// as retryable.
func (p Policy) Do(ctx context.Context, op func(context.Context) error, retryable func(error) bool) (int, error) {
	max := p.MaxAttempts
	if max < 1 {
		max = 1
	}
	var err error
	for attempt := 1; ; attempt++ {
		err = op(ctx)
		if err == nil {
			return attempt, nil
		}
		if retryable != nil && !retryable(err) {
			return attempt, err
		}
		if attempt >= max {
			return attempt, err
		}
		timer := time.NewTimer(p.Delay(attempt + 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}
}
