package syncer

import (
	"context"
	"time"

	"github.com/pipeboard/pipeboard/internal/sheets"
)

const (
	// Fixed, bounded retry for network-classified failures. Applied
	// uniformly here so callers never layer their own retry loops.
	maxRetries   = 2
	retryBackoff = 2 * time.Second
)

// withRetry runs fn, retrying retryable failures up to maxRetries times
// with a fixed backoff. Classified non-transient errors return
// immediately.
func withRetry(ctx context.Context, backoff time.Duration, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || attempt >= maxRetries || !sheets.IsRetryable(err) {
			return err
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return err
		}
	}
}
