package spotify

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// StatusError is returned for any non-2xx response from the Spotify API.
// RetryAfter is populated from the Retry-After header on 429 responses.
type StatusError struct {
	Code       int
	URL        string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("spotify: server returned status code %d for %s", e.Code, e.URL)
}

// IsRateLimited reports whether err is a 429 response.
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusTooManyRequests
}

// IsUnauthorized reports whether err is a 401 response (expired token).
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusUnauthorized
}

// IsForbidden reports whether err is a 403 response (insufficient scope).
// Forbidden endpoints are never retried; callers fall back to synthetic data.
func IsForbidden(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusForbidden
}

// retryAfterOf extracts the server-provided wait from a rate-limit error.
func retryAfterOf(err error) time.Duration {
	var se *StatusError
	if errors.As(err, &se) {
		return se.RetryAfter
	}
	return 0
}
