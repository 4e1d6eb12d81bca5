package retry

import (
	"context"
	"errors"
	"time"
)

// DefaultDelays is the backoff table used when a Policy has none.
var DefaultDelays = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

const DefaultAttempts = 3

// Policy is a fixed-delay retry policy. Delays[i] is waited after the i-th
// failed attempt; indexes past the end of the table reuse the last entry.
type Policy struct {
	Attempts int
	Delays   []time.Duration

	// Sleep waits between attempts. Nil uses Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// WithDefaults fills zero fields.
func (p Policy) WithDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultAttempts
	}
	if len(p.Delays) == 0 {
		p.Delays = DefaultDelays
	}
	if p.Sleep == nil {
		p.Sleep = Sleep
	}
	return p
}

// Delay returns the wait after the given failed attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	if len(p.Delays) == 0 {
		return 0
	}
	return p.Delays[min(max(attempt, 0), len(p.Delays)-1)]
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
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

// Do calls op until it succeeds or p.Attempts calls have failed, sleeping
// between attempts. Attempts never overlap. A cancelled ctx stops the loop,
// including during a backoff. The returned error joins every attempt's error.
func Do(ctx context.Context, p Policy, op func(ctx context.Context, attempt int) error) error {
	p = p.WithDefaults()

	var errs []error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		if attempt > 0 {
			if err := p.Sleep(ctx, p.Delay(attempt-1)); err != nil {
				return errors.Join(append(errs, err)...)
			}
		}

		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		errs = append(errs, err)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(append(errs, ctxErr)...)
		}
	}
	return errors.Join(errs...)
}
