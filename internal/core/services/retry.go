package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/logger"
)

// RetryPolicy bounds how often and how patiently a transient external
// failure is retried.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is the backoff before the first retry; it doubles per retry.
	BaseDelay time.Duration
	// MaxDelay caps the backoff.
	MaxDelay time.Duration
	// Timeout bounds each attempt. Zero means no per-attempt timeout.
	Timeout time.Duration
}

// DefaultRetryPolicy returns a policy with the given retry count and timeout.
func DefaultRetryPolicy(maxRetries int, timeout time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxRetries: maxRetries,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   8 * time.Second,
		Timeout:    timeout,
	}
}

// backoff returns the delay before retry number attempt (1-based),
// with up to 50% jitter.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		d = p.MaxDelay
	}
	return d + time.Duration(rand.Int64N(int64(d/2)+1))
}

// isPermanent reports errors that retrying cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrDimensionMismatch) ||
		errors.Is(err, domain.ErrInvalidConfiguration)
}

// withRetry runs fn until it succeeds, returns a permanent error, the
// retries are exhausted, or ctx is done. Each attempt gets its own
// timeout-bounded context. The last error is returned.
func withRetry(ctx context.Context, p RetryPolicy, op string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.backoff(attempt)
			logger.Warn("%s failed, retrying (attempt %d/%d) in %s: %v",
				op, attempt+1, p.MaxRetries+1, delay, lastErr)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Join(lastErr, ctx.Err())
			case <-timer.C:
			}
		}

		lastErr = runAttempt(ctx, p.Timeout, fn)
		if lastErr == nil {
			return nil
		}
		if isPermanent(lastErr) || ctx.Err() != nil {
			return lastErr
		}
	}

	return lastErr
}

func runAttempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx)
}
