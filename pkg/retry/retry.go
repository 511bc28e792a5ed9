// Package retry runs RPC calls against transient failures.
package retry

import (
	"context"
	"time"
)

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retrier retries the provided action.
type Retrier interface {
	Retry(ctx context.Context, action Action) (uint, error)
}

type retrier struct {
	strategies []Strategy
}

// NewRetrier returns a Retrier that applies strategies, in order, after each
// failed attempt. Without strategies the action is only attempted once.
func NewRetrier(strategies ...Strategy) Retrier {
	return &retrier{
		strategies: strategies,
	}
}

func (r *retrier) Retry(ctx context.Context, action Action) (uint, error) {
	return Retry(ctx, action, r.strategies...)
}

// Retry executes action until it succeeds, a strategy rejects another attempt,
// or ctx is done. It returns the number of attempts made and the last error.
//
// Strategies that delay should be specified last, so they only sleep once the
// attempt is known to be retried.
func Retry(ctx context.Context, action Action, strategies ...Strategy) (uint, error) {
	if len(strategies) == 0 {
		return 1, action()
	}

	for i := uint(1); ; i++ {
		err := action()
		if err == nil {
			return i, nil
		}

		for _, s := range strategies {
			if !s(ctx, i, err) {
				return i, err
			}
		}

		if ctx.Err() != nil {
			return i, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
