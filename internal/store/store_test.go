package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"census/internal/model"
	"census/internal/retry"
)

// fakeStore satisfies Store for factory/connect tests.
type fakeStore struct{ Store }

func TestNew_UnknownKind(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Kind: "no-such-kind", DSN: "x"})
	if err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	t.Parallel()

	f := func(context.Context, Config) (Store, error) { return &fakeStore{}, nil }
	Register("dup-kind-test", f)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate registration")
		}
	}()
	Register("dup-kind-test", f)
}

// TestConnect_RetriesUntilReady drives Connect with a factory that fails twice
// before producing a store.
func TestConnect_RetriesUntilReady(t *testing.T) {
	t.Parallel()

	calls := 0
	Register("flaky-kind-test", func(context.Context, Config) (Store, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("dial error")
		}
		return &fakeStore{}, nil
	})

	var slept int
	pol := retry.Policy{MaxAttempts: 5, Delay: time.Second, Sleep: func(time.Duration) { slept++ }}

	st, err := Connect(context.Background(), Config{Kind: "flaky-kind-test", DSN: "x"}, pol)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if st == nil {
		t.Fatalf("nil store")
	}
	if calls != 3 || slept != 2 {
		t.Fatalf("calls=%d slept=%d, want 3 and 2", calls, slept)
	}
}

// TestConnect_Exhaustion verifies the attempt count surfaces on permanent
// failure.
func TestConnect_Exhaustion(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial error")
	Register("down-kind-test", func(context.Context, Config) (Store, error) {
		return nil, cause
	})

	pol := retry.Policy{MaxAttempts: 3, Delay: time.Second, Sleep: func(time.Duration) {}}
	_, err := Connect(context.Background(), Config{Kind: "down-kind-test", DSN: "x"}, pol)

	var ex *retry.ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("error %T, want *retry.ExhaustedError", err)
	}
	if ex.Attempts != 3 {
		t.Fatalf("Attempts = %d, want 3", ex.Attempts)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not wrapped: %v", err)
	}
}

func TestErrorTypes_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	for _, err := range []error{
		&SchemaError{Table: model.PlacesTable, Err: cause},
		&StoreError{Op: "insert place", Err: cause},
		&QueryError{Op: "population by country", Err: cause},
	} {
		if !errors.Is(err, cause) {
			t.Errorf("%T does not wrap cause", err)
		}
		if err.Error() == "" {
			t.Errorf("%T has empty message", err)
		}
	}
}
