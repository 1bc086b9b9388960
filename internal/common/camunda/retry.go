package camunda

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"time"

	"ev-finance-workers/internal/common/errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig bounds a job completion to under two seconds of
// backoff, well inside the default job activation timeout.
var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  250 * time.Millisecond,
	MaxDelay:   2 * time.Second,
}

// Retry runs send until it succeeds, fails with a non-transient gateway
// error, or rc.MaxRetries extra attempts are spent. Final failures come
// back as *errors.StandardError; cancellation wraps ctx.Err().
func Retry(ctx context.Context, rc *RetryConfig, operation string, send func(context.Context) error) error {
	if rc == nil {
		rc = DefaultRetryConfig
	}

	delay := rc.BaseDelay
	for attempt := 1; ; attempt++ {
		err := send(ctx)
		if err == nil {
			return nil
		}
		if !transient(err) || attempt > rc.MaxRetries {
			return classify(err, operation, attempt)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("zeebe %s cancelled after %d attempts: %w", operation, attempt, ctx.Err())
		}
		if delay *= 2; delay > rc.MaxDelay {
			delay = rc.MaxDelay
		}
	}
}

func transient(err error) bool {
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted:
		return true
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr)
}

func classify(err error, operation string, attempts int) error {
	cause := fmt.Errorf("zeebe %s failed after %d attempt(s): %w", operation, attempts, err)

	switch code := status.Code(err); {
	case code == codes.DeadlineExceeded || stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewTimeoutError("zeebe", cause)
	case code == codes.NotFound:
		return errors.NewResourceNotFoundError("zeebe", cause.Error())
	default:
		return errors.NewExternalServiceError("zeebe", cause)
	}
}
