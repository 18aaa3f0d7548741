package spotify

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testPolicy(slept *[]time.Duration) RetryPolicy {
	p := newRetryPolicy(3, 2*time.Second, 60*time.Second)
	p.sleep = func(d time.Duration) {
		*slept = append(*slept, d)
	}
	return p
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	calls := 0
	err := p.Do(context.Background(), nil, func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Empty(t, slept)
}

func TestRetryRateLimitReplaysWithoutConsumingBudget(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	// Five consecutive 429s followed by success: more rate-limit replays
	// than MaxAttempts must still end in success.
	calls := 0
	err := p.Do(context.Background(), nil, func() error {
		calls++
		if calls <= 5 {
			return &StatusError{Code: http.StatusTooManyRequests, RetryAfter: 3 * time.Second}
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 6, calls)
	require.Equal(t, []time.Duration{
		3 * time.Second, 3 * time.Second, 3 * time.Second, 3 * time.Second, 3 * time.Second,
	}, slept)
}

func TestRetryRateLimitUsesDefaultWaitWithoutHeader(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	calls := 0
	err := p.Do(context.Background(), nil, func() error {
		calls++
		if calls == 1 {
			return &StatusError{Code: http.StatusTooManyRequests}
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, []time.Duration{60 * time.Second}, slept)
}

func TestRetryUnauthorizedRefreshesExactlyOnce(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	refreshes := 0
	refresh := func(context.Context) error {
		refreshes++
		return nil
	}

	calls := 0
	err := p.Do(context.Background(), refresh, func() error {
		calls++
		if calls == 1 {
			return &StatusError{Code: http.StatusUnauthorized}
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 1, refreshes)
	require.Equal(t, 2, calls)
}

func TestRetrySecondUnauthorizedPropagates(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	refreshes := 0
	refresh := func(context.Context) error {
		refreshes++
		return nil
	}

	err := p.Do(context.Background(), refresh, func() error {
		return &StatusError{Code: http.StatusUnauthorized}
	})

	require.Error(t, err)
	require.True(t, IsUnauthorized(err))
	require.Equal(t, 1, refreshes)
}

func TestRetryFailedRefreshReturnsOriginalError(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	refresh := func(context.Context) error {
		return errors.New("refresh broken")
	}

	err := p.Do(context.Background(), refresh, func() error {
		return &StatusError{Code: http.StatusUnauthorized, URL: "u"}
	})

	require.Error(t, err)
	require.True(t, IsUnauthorized(err))
}

func TestRetryForbiddenNeverRetried(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	calls := 0
	err := p.Do(context.Background(), nil, func() error {
		calls++
		return &StatusError{Code: http.StatusForbidden}
	})

	require.Error(t, err)
	require.True(t, IsForbidden(err))
	require.Equal(t, 1, calls)
	require.Empty(t, slept)
}

func TestRetryExponentialBackoffExhaustsBudget(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	calls := 0
	err := p.Do(context.Background(), nil, func() error {
		calls++
		return &StatusError{Code: http.StatusInternalServerError}
	})

	require.Error(t, err)
	require.True(t, errors.As(err, new(*StatusError)))
	require.Equal(t, 3, calls)
	// The final failed attempt returns without sleeping.
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, slept)
}

func TestRetryCancelledContext(t *testing.T) {
	var slept []time.Duration
	p := testPolicy(&slept)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Do(ctx, nil, func() error {
		t.Fatal("op must not run after cancellation")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
