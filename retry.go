package autotranslate

import (
	"context"
	"errors"
	"time"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// RetryFunc is a function that can be retried.
type RetryFunc[T any] func() (T, error)

// WithRetry executes a function with exponential backoff retry.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}

		if attempt < cfg.MaxRetries {
			delay := cfg.BaseDelay * time.Duration(1<<attempt)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return zero, lastErr
}

// IsRetryable reports whether an error is worth another attempt. Only
// transport failures flagged retryable qualify; protocol failures mean the
// model answered and asking again is left to the user.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Retryable
	}

	return false
}

// RetryableTranslator wraps a BatchTranslator with retry logic.
type RetryableTranslator struct {
	next   BatchTranslator
	config RetryConfig
}

// NewRetryableTranslator creates a translator that retries retryable failures.
func NewRetryableTranslator(next BatchTranslator, cfg RetryConfig) *RetryableTranslator {
	return &RetryableTranslator{
		next:   next,
		config: cfg,
	}
}

// TranslateBatch implements BatchTranslator with retry logic.
func (t *RetryableTranslator) TranslateBatch(ctx context.Context, req BatchRequest) (map[string]string, error) {
	return WithRetry(ctx, t.config, func() (map[string]string, error) {
		return t.next.TranslateBatch(ctx, req)
	})
}

var _ BatchTranslator = (*RetryableTranslator)(nil)
