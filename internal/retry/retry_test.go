package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDoStopsOnDone(t *testing.T) {
	var delays []time.Duration
	p := Policy{Attempts: 3, Delay: 5 * time.Second, Sleep: noSleep(&delays)}

	calls := 0
	err := p.Do(context.Background(), func(attempt int) (Outcome, error) {
		calls++
		if attempt == 2 {
			return Done, nil
		}
		return Again, errors.New("transient")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
	if len(delays) != 1 || delays[0] != 5*time.Second {
		t.Fatalf("expected one 5s delay, got %v", delays)
	}
}

func TestDoExhaustsBudget(t *testing.T) {
	var delays []time.Duration
	p := Policy{Attempts: 3, Delay: time.Second, Sleep: noSleep(&delays)}

	wantErr := errors.New("still failing")
	calls := 0
	err := p.Do(context.Background(), func(int) (Outcome, error) {
		calls++
		return Again, wantErr
	})
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected last attempt error, got %v", err)
	}
	// No sleep after the final attempt.
	if len(delays) != 2 {
		t.Fatalf("expected 2 delays, got %d", len(delays))
	}
}

func TestDoDoneWithErrorIsFinal(t *testing.T) {
	p := Policy{Attempts: 3, Delay: time.Second, Sleep: noSleep(new([]time.Duration))}
	wantErr := errors.New("hard failure")
	calls := 0
	err := p.Do(context.Background(), func(int) (Outcome, error) {
		calls++
		return Done, wantErr
	})
	if calls != 1 {
		t.Fatalf("hard failure must not be retried, got %d attempts", calls)
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected hard failure error, got %v", err)
	}
}

func TestDoHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 3, Delay: time.Millisecond}
	calls := 0
	err := p.Do(ctx, func(int) (Outcome, error) {
		calls++
		cancel()
		return Again, errors.New("transient")
	})
	if calls != 1 {
		t.Fatalf("expected cancellation after first attempt, got %d", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
