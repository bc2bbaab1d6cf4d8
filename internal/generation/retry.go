package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy controls how provider adapters retry transient failures.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is doubled on each retry and scaled by a random jitter
	// factor in [0.5, 1.0).
	BaseDelay time.Duration
}

// IsPermanent reports whether err should not be retried: rejected requests,
// blocked content and malformed output will not improve by asking again.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrGenerationFailed) ||
		errors.Is(err, ErrContentBlocked) ||
		errors.Is(err, ErrInvalidResponse) ||
		errors.Is(err, ErrInvalidConfig)
}

// Do calls fn until it succeeds, returns a permanent error, the retries are
// exhausted or ctx ends. Exhausted retries wrap ErrTransientFailure.
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, fn func(context.Context) (string, error)) (string, error) {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		text, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.InfoContext(ctx, "generation call succeeded after retry",
					slog.Int("attempt", attempt+1))
			}
			return text, nil
		}
		lastErr = err

		if IsPermanent(err) {
			logger.WarnContext(ctx, "permanent generation error, not retrying",
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()))
			return "", err
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrTransientFailure, ctx.Err())
		}
		if attempt == maxRetries {
			break
		}

		// delay = base * 2^attempt * (0.5 + rand(0, 0.5))
		backoff := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5))

		logger.InfoContext(ctx, "retrying generation call after delay",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("%w: cancelled during retry delay: %v", ErrTransientFailure, ctx.Err())
		}
	}

	if errors.Is(lastErr, ErrTransientFailure) {
		return "", lastErr
	}
	return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
		ErrTransientFailure, maxRetries, lastErr)
}
