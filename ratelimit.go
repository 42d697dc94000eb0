package autotranslate

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures request throttling.
type RateLimitConfig struct {
	RequestsPerMinute int // Maximum requests per minute
	BurstSize         int // Maximum burst size (default: same as RPM)
}

// NewRateLimiter creates a token bucket limiter from the config.
func NewRateLimiter(cfg RateLimitConfig) *rate.Limiter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	burst := cfg.BurstSize
	if burst <= 0 {
		burst = rpm
	}

	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// RateLimitedTranslator wraps a BatchTranslator with request throttling.
// Concurrent batches queue on the limiter instead of hitting the endpoint at once.
type RateLimitedTranslator struct {
	next    BatchTranslator
	limiter *rate.Limiter
}

// NewRateLimitedTranslator creates a new rate-limited translator.
func NewRateLimitedTranslator(next BatchTranslator, cfg RateLimitConfig) *RateLimitedTranslator {
	return &RateLimitedTranslator{
		next:    next,
		limiter: NewRateLimiter(cfg),
	}
}

// TranslateBatch implements BatchTranslator with rate limiting.
func (t *RateLimitedTranslator) TranslateBatch(ctx context.Context, req BatchRequest) (map[string]string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{
			Message:   "rate limit wait cancelled",
			Cause:     err,
			Retryable: false,
		}
	}

	return t.next.TranslateBatch(ctx, req)
}

// Limiter returns the underlying rate limiter for inspection.
func (t *RateLimitedTranslator) Limiter() *rate.Limiter {
	return t.limiter
}

var _ BatchTranslator = (*RateLimitedTranslator)(nil)
