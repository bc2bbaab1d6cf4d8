package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestRetryPolicySucceedsAfterTransientErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}

	text, err := policy.Do(context.Background(), discard, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("503 service unavailable")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicyStopsOnPermanentError(t *testing.T) {
	t.Parallel()

	for _, permanent := range []error{ErrContentBlocked, ErrInvalidResponse, ErrInvalidConfig} {
		calls := 0
		policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}

		_, err := policy.Do(context.Background(), discard, func(context.Context) (string, error) {
			calls++
			return "", permanent
		})
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	}
}

func TestRetryPolicyExhausted(t *testing.T) {
	t.Parallel()

	calls := 0
	policy := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}

	_, err := policy.Do(context.Background(), discard, func(context.Context) (string, error) {
		calls++
		return "", errors.New("connection reset")
	})
	assert.ErrorIs(t, err, ErrTransientFailure)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 3, calls)
}

func TestRetryPolicyHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	policy := RetryPolicy{MaxRetries: 5, BaseDelay: time.Hour}

	_, err := policy.Do(ctx, discard, func(context.Context) (string, error) {
		calls++
		cancel()
		return "", errors.New("timeout")
	})
	assert.ErrorIs(t, err, ErrTransientFailure)
	assert.Equal(t, 1, calls)
}
