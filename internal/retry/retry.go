// Package retry provides the fixed-attempt retry policy shared by the
// listing, link resolution, and upload clients.
package retry

import (
	"context"
	"time"
)

// Policy is a fixed-attempt, fixed-delay retry policy. Attempts counts total
// tries, not re-tries: Attempts = 3 means at most three calls.
type Policy struct {
	Attempts int
	Delay    time.Duration

	// Sleep is swapped out in tests. Nil means time.Sleep honoring ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Outcome tells the policy what to do after one attempt.
type Outcome int

const (
	// Done stops immediately; the attempt's error (possibly nil) is final.
	Done Outcome = iota
	// Again retries after the policy delay if budget remains.
	Again
)

// Do runs op until it reports Done, the attempt budget runs out, or ctx is
// cancelled. When the budget is exhausted the last attempt's error is
// returned as-is.
func (p Policy) Do(ctx context.Context, op func(attempt int) (Outcome, error)) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		outcome, err := op(attempt)
		if outcome == Done {
			return err
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, p.Delay); err != nil {
			return err
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
