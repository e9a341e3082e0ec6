package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"go-telemetry-pipeline/internal/model"
)

// DefaultRetryConfig attempts every unit once
var DefaultRetryConfig = model.RetryConfig{
	MaxAttempts:       1,
	InitialDelay:      500 * time.Millisecond,
	MaxDelay:          10 * time.Second,
	BackoffMultiplier: 2.0,
}

// retryUnit runs op until it succeeds, the attempts are used up, the error
// is not retryable or ctx is done. It returns the number of attempts made.
func retryUnit(ctx context.Context, config model.RetryConfig, logger *slog.Logger, op func() error) (int, error) {
	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = op()
		if err == nil {
			return attempt, nil
		}
		if attempt == maxAttempts || !isRetryableError(err) {
			return attempt, err
		}

		delay := calculateRetryDelay(config, attempt)
		logger.Warn("Unit failed, retrying", "attempt", attempt, "max_attempts", maxAttempts, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}
	return maxAttempts, err
}

// calculateRetryDelay returns the backoff before attempt+1
func calculateRetryDelay(config model.RetryConfig, attempt int) time.Duration {
	multiplier := config.BackoffMultiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(multiplier, float64(attempt-1)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

// isRetryableError reports whether a unit error may succeed on another try.
// Cancellation never does.
func isRetryableError(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
