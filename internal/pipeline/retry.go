package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net"
	"time"

	"github.com/dgallion1/vsdgest/internal/pathstore"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var statusErr *pathstore.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

var backoffBase = time.Second

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * backoffBase
	if base > 30*backoffBase {
		base = 30 * backoffBase
	}
	jitter := time.Duration(rand.Int64N(int64(base)/2 + 1))
	return base + jitter
}

const MaxRetries = 3

// withRetry runs fn until it succeeds, fails permanently, or MaxRetries
// attempts are spent.
func withRetry(ctx context.Context, log *slog.Logger, op string, fn func() error) error {
	var err error
	for attempt := range MaxRetries {
		err = fn()
		if err == nil || !IsRetryable(err) || attempt == MaxRetries-1 {
			return err
		}
		log.Warn("retryable error", "op", op, "attempt", attempt, "error", err)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
