package ingestion

import (
	"context"
	"log/slog"
	"time"
)

// MaxRetryDelay caps the wait between two attempts.
const MaxRetryDelay = 30 * time.Second

// Backoff retries a failing step with doubling delays: BaseDelay after the
// first failure, twice that after the second, and so on up to MaxRetryDelay.
type Backoff struct {
	Attempts  int
	BaseDelay time.Duration
}

// Delay is the wait after the given failed attempt, counting from 1.
func (b Backoff) Delay(attempt int) time.Duration {
	if b.BaseDelay <= 0 || attempt < 1 {
		return 0
	}
	d := b.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= MaxRetryDelay {
			return MaxRetryDelay
		}
	}
	return min(d, MaxRetryDelay)
}

// Do calls step until it succeeds, Attempts is used up, or ctx ends. The
// error from the final attempt is returned unchanged.
func (b Backoff) Do(ctx context.Context, logger *slog.Logger, step func(context.Context) error) error {
	if b.Attempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := step(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Debug("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt == b.Attempts {
			return err
		}

		wait := b.Delay(attempt)
		logger.Debug("attempt failed", "attempt", attempt, "of", b.Attempts, "wait", wait, "err", err)
		if wait == 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
