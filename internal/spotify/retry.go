package spotify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy wraps a single remote call with bounded retry. Three error
// classes get special treatment:
//
//   - 429: sleep the server-provided Retry-After (or RateLimitWait when the
//     header is missing) and replay the same attempt. Rate-limit waits do not
//     consume the attempt budget or grow the backoff.
//   - 401: refresh the access token exactly once; if the refresh itself
//     fails, the original unauthorized error is propagated immediately.
//   - 403: propagated immediately, never retried. Callers switch to
//     synthetic data for the rest of the run.
//
// Everything else is retried up to MaxAttempts with exponential backoff
// (BaseDelay doubling per attempt).
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	RateLimitWait time.Duration

	// sleep is replaceable in tests so retry paths run instantly.
	sleep func(time.Duration)
}

func newRetryPolicy(maxAttempts int, baseDelay, rateLimitWait time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return RetryPolicy{
		MaxAttempts:   maxAttempts,
		BaseDelay:     baseDelay,
		RateLimitWait: rateLimitWait,
		sleep:         time.Sleep,
	}
}

// Do invokes op, applying the policy above. refresh is called at most once,
// on the first 401.
func (p RetryPolicy) Do(ctx context.Context, refresh func(context.Context) error, op func() error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	refreshed := false

	for attempt := 0; attempt < p.MaxAttempts; {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		switch {
		case IsRateLimited(err):
			wait := retryAfterOf(err)
			if wait <= 0 {
				wait = p.RateLimitWait
			}
			logger.Warn("Rate limited by Spotify, waiting before replay",
				zap.Duration("wait", wait))
			sleep(wait)
			// Replay without consuming the attempt budget.
			continue

		case IsUnauthorized(err):
			if refreshed || refresh == nil {
				return err
			}
			refreshed = true
			logger.Info("Access token expired, refreshing")
			if refreshErr := refresh(ctx); refreshErr != nil {
				logger.Error("Token refresh failed", zap.Error(refreshErr))
				return err
			}
			continue

		case IsForbidden(err):
			return err

		default:
			wait := p.BaseDelay * (1 << attempt)
			attempt++
			if attempt >= p.MaxAttempts {
				logger.Error("All attempts failed",
					zap.Int("attempts", p.MaxAttempts),
					zap.Error(lastErr))
				return lastErr
			}
			logger.Warn("Retrying request",
				zap.Int("attempt", attempt+1),
				zap.Duration("wait", wait),
				zap.Error(err))
			sleep(wait)
		}
	}

	return lastErr
}
