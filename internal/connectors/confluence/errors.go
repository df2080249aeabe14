package confluence

import (
	"errors"
	"fmt"
	"time"
)

// Connector-specific errors.
var (
	// ErrRetriesExhausted indicates a request kept failing transiently
	// until the retry budget ran out.
	ErrRetriesExhausted = errors.New("confluence: retries exhausted")

	// ErrInvalidNextLink indicates the API returned a pagination link
	// that could not be normalised.
	ErrInvalidNextLink = errors.New("confluence: invalid pagination link")
)

// APIError represents a non-retryable API error response (4xx other than 429).
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("confluence: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// RateLimitError represents a 429 response with its server wait hint.
// The client handles these internally; it only surfaces when the context
// is cancelled mid-wait.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("confluence: rate limited, retry after %s", e.RetryAfter)
}

// IsNotFound checks if the error indicates a missing resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// IsRateLimited checks if the error carries rate-limit information.
func IsRateLimited(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}
