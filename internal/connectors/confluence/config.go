package confluence

import "time"

// Default configuration values.
const (
	// DefaultPageLimit is the number of results requested per page.
	DefaultPageLimit = 50

	// DefaultMaxRetries is the retry budget for transient errors.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the initial backoff delay; it doubles per attempt.
	DefaultRetryDelay = time.Second

	// DefaultTimeout is the total HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimitWait is the wait applied to a 429 response that
	// carries no Retry-After header.
	DefaultRateLimitWait = 5 * time.Second
)

// Config holds connection settings for a Confluence-style API.
type Config struct {
	// BaseURL is the site root, e.g. https://example.atlassian.net/wiki.
	// The REST prefix is appended internally.
	BaseURL string

	// Username enables basic auth together with APIToken.
	// Leave empty to send APIToken as a bearer token instead.
	Username string

	// APIToken authenticates requests.
	APIToken string

	// PageLimit is the page size for search requests.
	PageLimit int

	// MaxRetries bounds retries for transient (5xx, connection) errors.
	// Rate-limit waits do not count against this budget.
	MaxRetries int

	// RetryDelay is the initial backoff delay.
	RetryDelay time.Duration

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration
}

// withDefaults returns a copy with zero values filled in.
func (c Config) withDefaults() Config {
	if c.PageLimit <= 0 {
		c.PageLimit = DefaultPageLimit
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
