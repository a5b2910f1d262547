package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RetryOptions bounds the whole-transaction retry loop.
type RetryOptions struct {
	MaxAttempts int
	Backoff     []time.Duration
}

// DefaultRetryOptions matches the coordinator defaults: three attempts with
// a short growing backoff between them.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts: 3,
		Backoff:     []time.Duration{100 * time.Millisecond, 250 * time.Millisecond, 500 * time.Millisecond},
	}
}

func (o RetryOptions) backoffFor(attempt int) time.Duration {
	if len(o.Backoff) == 0 {
		return 100 * time.Millisecond
	}
	if attempt > len(o.Backoff) {
		return o.Backoff[len(o.Backoff)-1]
	}
	return o.Backoff[attempt-1]
}

// RunInTransaction executes fn inside a transaction and owns the full
// commit/rollback/release lifecycle. On a transient failure (deadlock, lock
// timeout) it rolls back, releases the connection, waits out the next
// backoff interval and re-executes fn on a brand-new transaction; it never
// retries inside an open transaction. Non-transient errors short-circuit.
// After MaxAttempts consecutive transient failures the terminal error
// carries the max_retries_exceeded code and wraps the last failure.
//
// A rollback that itself fails is logged and the connection still released;
// the primary error is always the one reported.
func RunInTransaction(ctx context.Context, logger zerolog.Logger, b Beginner, opts RetryOptions, fn func(ctx context.Context, h Handle) error) error {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultRetryOptions().MaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		h, err := b.Begin(ctx)
		if err != nil {
			// Connection acquisition failures are surfaced before any
			// transaction exists; there is nothing to roll back or retry.
			return err
		}

		err = fn(ctx, h)
		if err == nil {
			err = h.Commit(ctx)
			if err == nil {
				h.Release()
				return nil
			}
		}

		if rbErr := h.Rollback(ctx); rbErr != nil {
			logger.Error().Err(rbErr).Int("attempt", attempt).Msg("transaction rollback failed")
		}
		h.Release()

		if !IsTransient(err) {
			return err
		}
		lastErr = err

		if attempt == opts.MaxAttempts {
			break
		}

		wait := opts.backoffFor(attempt)
		logger.Warn().Err(err).Int("attempt", attempt).Dur("backoff", wait).Msg("transient transaction failure, retrying")
		select {
		case <-ctx.Done():
			return WrapError(KindInternal, "canceled", ctx.Err())
		case <-time.After(wait):
		}
	}

	return WrapError(KindInternal, "max_retries_exceeded",
		fmt.Errorf("maximum retry attempts exceeded after %d attempts: %w", opts.MaxAttempts, lastErr))
}
