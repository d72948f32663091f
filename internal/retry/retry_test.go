package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Policy{Attempts: 3, BaseDelay: 10 * time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDo_SuccessOnRetry(t *testing.T) {
	var calls int
	err := Policy{Attempts: 3, BaseDelay: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDo_AllAttemptsExhausted(t *testing.T) {
	var calls int
	sentinel := errors.New("always fails")
	err := Policy{Attempts: 3, BaseDelay: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDo_PermanentErrorStopsRetry(t *testing.T) {
	var calls int
	sentinel := errors.New("bad request")
	err := Policy{Attempts: 5, BaseDelay: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(sentinel)
	})
	if err != sentinel {
		t.Fatalf("expected unwrapped sentinel, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := Policy{Attempts: 10, BaseDelay: time.Second}.Do(ctx, func(context.Context) error {
		calls.Add(1)
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls.Load())
	}
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	var calls int
	_ = Policy{}.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("fail")
	})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	calls = 0
	_ = None.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("fail")
	})
	if calls != 1 {
		t.Fatalf("None: expected 1 call, got %d", calls)
	}
}

func TestDo_MaxDelayCapsBackoff(t *testing.T) {
	start := time.Now()
	_ = Policy{Attempts: 4, BaseDelay: 20 * time.Millisecond, MaxDelay: 20 * time.Millisecond}.Do(
		context.Background(), func(context.Context) error { return errors.New("fail") })

	// three waits of at most 25ms each
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("backoff not capped: %v", elapsed)
	}
}

func TestJitter_Bounds(t *testing.T) {
	base := 100 * time.Millisecond
	for range 200 {
		d := jitter(base)
		if d < 75*time.Millisecond || d > 125*time.Millisecond {
			t.Fatalf("jitter %v outside +-25%% of %v", d, base)
		}
	}
	if jitter(0) != 0 {
		t.Fatal("zero delay should stay zero")
	}
}

func TestPermanent_NilAndUnwrap(t *testing.T) {
	if Permanent(nil) != nil {
		t.Fatal("Permanent(nil) should be nil")
	}
	inner := errors.New("inner")
	if !errors.Is(Permanent(inner), inner) {
		t.Fatal("expected Permanent to unwrap to inner")
	}
}
