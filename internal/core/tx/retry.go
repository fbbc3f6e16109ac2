package tx

import (
	"context"

	"lotkeeper/internal/core/apperror"
)

// DefaultConflictAttempts bounds the optimistic-concurrency retry loop used by
// the movement engine and document posting.
const DefaultConflictAttempts = 5

// RunWithConflictRetry runs fn in a transaction, retrying the full
// read-modify-write cycle on optimistic-concurrency conflicts.
//
// Each attempt opens a fresh transaction; fn must reload its entities and
// recompute its writes from scratch so no stale in-memory state is merged
// into a fresh write. Only CONCURRENT_MODIFICATION errors are retried; all
// other errors surface verbatim. Exhausting the attempt bound surfaces
// CONCURRENCY_EXHAUSTED wrapping the last conflict.
func RunWithConflictRetry(ctx context.Context, m Manager, attempts int, fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		attempts = DefaultConflictAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := m.RunInTransaction(ctx, fn)
		if err == nil {
			return nil
		}
		if !apperror.IsConcurrentModification(err) {
			return err
		}
		lastErr = err
	}

	return apperror.NewConcurrencyExhausted(attempts, lastErr)
}
