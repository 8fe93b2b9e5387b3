package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// APIError is a non-success response from the GitHub API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "authentication failed: " + e.Message
	case http.StatusNotFound:
		return "not found: " + e.Message
	case http.StatusUnprocessableEntity:
		return "GitHub rejected request (422): " + e.Message
	default:
		return fmt.Sprintf("GitHub API error (status %d): %s", e.StatusCode, e.Message)
	}
}

// rateLimitError marks an APIError as retryable.
type rateLimitError struct {
	*APIError
	retryAfter time.Duration
}

func (e *rateLimitError) Unwrap() error { return e.APIError }

// IsAuthError reports whether err is an authentication or permission failure.
func IsAuthError(err error) bool {
	var rl *rateLimitError
	if errors.As(err, &rl) {
		return false
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func retryWithBackoff(ctx context.Context, maxRetries int, base time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		// Only retry rate limit errors
		var rl *rateLimitError
		if !errors.As(lastErr, &rl) {
			return lastErr
		}

		if attempt < maxRetries {
			backoff := base * time.Duration(1<<uint(attempt))
			if rl.retryAfter > backoff {
				backoff = rl.retryAfter
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
