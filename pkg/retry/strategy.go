package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

// Strategy determines whether an action should be retried after its
// attempts'th failure. Strategies may delay.
type Strategy func(ctx context.Context, attempts uint, err error) bool

// Limit caps the total number of attempts. maxAttempts should be >= 1.
func Limit(maxAttempts uint) Strategy {
	return func(_ context.Context, attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of retriable.
func RetriableErrors(retriable ...error) Strategy {
	return func(_ context.Context, _ uint, err error) bool {
		for _, e := range retriable {
			if errors.Is(err, e) {
				return true
			}
		}
		return false
	}
}

// NonRetriableErrors retries every error except those matching nonRetriable.
func NonRetriableErrors(nonRetriable ...error) Strategy {
	return func(_ context.Context, _ uint, err error) bool {
		for _, e := range nonRetriable {
			if errors.Is(err, e) {
				return false
			}
		}
		return true
	}
}

// ExponentialBackoff sleeps baseDelay * 2^(attempts-1), capped at maxDelay,
// with the capped delay shifted by up to +/- jitter of itself.
func ExponentialBackoff(baseDelay, maxDelay time.Duration, jitter float64) Strategy {
	return func(ctx context.Context, attempts uint, _ error) bool {
		sleep(ctx, backoffDelay(baseDelay, maxDelay, jitter, attempts))
		return ctx.Err() == nil
	}
}

func backoffDelay(baseDelay, maxDelay time.Duration, jitter float64, attempts uint) time.Duration {
	delay := float64(baseDelay) * math.Pow(2, float64(attempts-1))
	capped := math.Min(float64(maxDelay), delay)
	if jitter > 0 {
		capped *= 1 + (rand.Float64()*jitter*2 - jitter)
	}
	return time.Duration(capped)
}
