package camunda

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"testing"
	"time"

	"ev-finance-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func fastRetry(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
}

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unavailable", status.Error(codes.Unavailable, "connection refused"), true},
		{"resource exhausted", status.Error(codes.ResourceExhausted, "backpressure"), true},
		{"deadline", status.Error(codes.DeadlineExceeded, "deadline"), true},
		{"wrapped unavailable", fmt.Errorf("send: %w", status.Error(codes.Unavailable, "x")), true},
		{"network", &net.OpError{Op: "dial", Err: stderrors.New("refused")}, true},
		{"context deadline", context.DeadlineExceeded, true},
		{"not found", status.Error(codes.NotFound, "no job with key 1"), false},
		{"invalid argument", status.Error(codes.InvalidArgument, "bad variables"), false},
		{"cancelled", context.Canceled, false},
		{"plain error mentioning timeout", stderrors.New("timeout in payload"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transient(tt.err))
		})
	}
}

func TestRetry_RecoversFromTransientError(t *testing.T) {
	calls := 0

	err := Retry(context.Background(), fastRetry(3), "complete job", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return status.Error(codes.Unavailable, "gateway restarting")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_MapsFinalError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      errors.ErrorCode
		retryable bool
		calls     int
	}{
		{"not found is not retried", status.Error(codes.NotFound, "job not found"), errors.ErrCodeNotFound, false, 1},
		{"deadline exhausts retries", status.Error(codes.DeadlineExceeded, "deadline"), errors.ErrCodeTimeout, true, 3},
		{"unavailable exhausts retries", status.Error(codes.Unavailable, "down"), errors.ErrCodeExternalService, true, 3},
		{"other errors are external", status.Error(codes.InvalidArgument, "bad"), errors.ErrCodeExternalService, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0

			err := Retry(context.Background(), fastRetry(2), "complete job", func(ctx context.Context) error {
				calls++
				return tt.err
			})

			var stdErr *errors.StandardError
			require.True(t, stderrors.As(err, &stdErr))
			assert.Equal(t, tt.code, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
			assert.Equal(t, tt.calls, calls)
			assert.Contains(t, stdErr.Details, "complete job")
		})
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	rc := fastRetry(5)
	rc.BaseDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, rc, "complete job", func(ctx context.Context) error {
		calls++
		return status.Error(codes.Unavailable, "down")
	})

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}

func TestRetry_NilConfigUsesDefault(t *testing.T) {
	calls := 0

	err := Retry(context.Background(), nil, "complete job", func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, DefaultRetryConfig.MaxRetries)
}
