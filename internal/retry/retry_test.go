package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestDo_SucceedsFirstAttempt verifies no sleeps happen when the first attempt
// succeeds.
func TestDo_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	p := Policy{MaxAttempts: 5, Delay: time.Second, Sleep: func(d time.Duration) { slept = append(slept, d) }}

	calls := 0
	err := p.Do(context.Background(), func(n int) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if len(slept) != 0 {
		t.Fatalf("slept %d times, want 0", len(slept))
	}
}

// TestDo_SucceedsAfterRetries verifies attempt numbering and that one pause
// precedes each retry.
func TestDo_SucceedsAfterRetries(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	p := Policy{MaxAttempts: 5, Delay: 250 * time.Millisecond, Sleep: func(d time.Duration) { slept = append(slept, d) }}

	var seen []int
	err := p.Do(context.Background(), func(n int) error {
		seen = append(seen, n)
		if n < 3 {
			return errors.New("not ready")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if want := []int{1, 2, 3}; len(seen) != len(want) || seen[0] != 1 || seen[2] != 3 {
		t.Fatalf("attempts = %v, want %v", seen, want)
	}
	if len(slept) != 2 {
		t.Fatalf("slept %d times, want 2", len(slept))
	}
	for _, d := range slept {
		if d != 250*time.Millisecond {
			t.Fatalf("slept %v, want 250ms", d)
		}
	}
}

// TestDo_Exhaustion verifies exactly MaxAttempts attempts are made, that total
// configured wait is (MaxAttempts-1)*Delay, and that the error carries the
// attempt count and wraps the last cause.
func TestDo_Exhaustion(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	var slept []time.Duration
	p := Policy{MaxAttempts: 4, Delay: time.Second, Sleep: func(d time.Duration) { slept = append(slept, d) }}

	calls := 0
	err := p.Do(context.Background(), func(n int) error {
		calls++
		return cause
	})
	if calls != 4 {
		t.Fatalf("calls = %d, want 4", calls)
	}
	if len(slept) != 3 {
		t.Fatalf("slept %d times, want 3 (no pause after final attempt)", len(slept))
	}

	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("error %T, want *ExhaustedError", err)
	}
	if ex.Attempts != 4 {
		t.Fatalf("Attempts = %d, want 4", ex.Attempts)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("error does not wrap cause: %v", err)
	}
}

// TestDo_ContextCancelled verifies a cancelled context stops further attempts.
func TestDo_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 10, Delay: time.Second, Sleep: func(time.Duration) { cancel() }}

	calls := 0
	err := p.Do(ctx, func(n int) error {
		calls++
		return errors.New("not ready")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

// TestDo_InvalidPolicy rejects a non-positive attempt budget.
func TestDo_InvalidPolicy(t *testing.T) {
	t.Parallel()

	p := Policy{MaxAttempts: 0, Delay: time.Second}
	if err := p.Do(context.Background(), func(int) error { return nil }); err == nil {
		t.Fatalf("expected error for MaxAttempts = 0")
	}
}
