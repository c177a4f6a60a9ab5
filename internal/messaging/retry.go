package messaging

import (
	"context"
	"time"
)

// RunWithRetry executes op up to maxRetries+1 times. The delay before
// attempt k (k >= 1) is baseDelay * 2^(k-1). The final error is returned
// unchanged after exhaustion. Retries are blind to the failure category;
// skipping non-transient errors is a deliberate non-feature for now.
func RunWithRetry(ctx context.Context, op func(context.Context) (*SendResult, error), maxRetries int, baseDelay time.Duration) (*SendResult, error) {
	var lastErr error
	delay := baseDelay

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
		}

		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		lastErr = err
	}

	return nil, lastErr
}
