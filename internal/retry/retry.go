// Package retry implements the bounded fixed-delay retry policy used when
// opening the database connection. The policy is a plain value with an
// injectable sleep function so callers and tests control time explicitly;
// there is no backoff and no jitter because the only consumer is "wait for
// the database container to come up".
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy is a bounded retry policy: at most MaxAttempts attempts with a fixed
// Delay between them. The zero value is not usable; construct with NewPolicy
// or fill the fields explicitly.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Delay is the fixed pause between consecutive attempts. No pause follows
	// the final attempt, so total sleep time is (MaxAttempts-1) * Delay.
	Delay time.Duration

	// Sleep is a seam for tests. When nil, time.Sleep is used.
	Sleep func(time.Duration)
}

// NewPolicy returns a Policy backed by time.Sleep.
func NewPolicy(maxAttempts int, delay time.Duration) Policy {
	return Policy{MaxAttempts: maxAttempts, Delay: delay}
}

// ExhaustedError reports that every attempt failed. It carries the attempt
// count and wraps the last underlying error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Do runs attempt until it succeeds, the policy is exhausted, or ctx is done.
// attempt receives the 1-based attempt number so callers can log progress.
//
// On exhaustion Do returns an *ExhaustedError wrapping the last attempt error.
// Context cancellation during a pause returns ctx.Err() immediately.
func (p Policy) Do(ctx context.Context, attempt func(n int) error) error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry: MaxAttempts must be >= 1, got %d", p.MaxAttempts)
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var last error
	for n := 1; n <= p.MaxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if last = attempt(n); last == nil {
			return nil
		}
		if n < p.MaxAttempts {
			sleep(p.Delay)
		}
	}
	return &ExhaustedError{Attempts: p.MaxAttempts, Last: last}
}
