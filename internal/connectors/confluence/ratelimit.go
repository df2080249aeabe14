package confluence

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// ProactiveRate is the proactive throttle rate in requests per second.
// Atlassian Cloud starts shedding load well below its documented ceiling,
// so the client keeps a conservative steady pace.
const ProactiveRate = 2.0

// HeaderRetryAfter is the rate-limit wait hint header (seconds).
const HeaderRetryAfter = "Retry-After"

// RateLimiter paces requests proactively with a token bucket and reads
// the server's Retry-After hint reactively on 429 responses.
type RateLimiter struct {
	bucket      *rate.Limiter
	defaultWait time.Duration
}

// NewRateLimiter creates a rate limiter with proactive throttling.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		bucket:      rate.NewLimiter(rate.Limit(ProactiveRate), 1),
		defaultWait: DefaultRateLimitWait,
	}
}

// Wait blocks until it's safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.bucket.Wait(ctx)
}

// RetryAfter extracts the server wait hint from a 429 response.
// Falls back to the default wait when the header is absent or malformed.
func (r *RateLimiter) RetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return r.defaultWait
	}
	if v := resp.Header.Get(HeaderRetryAfter); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return r.defaultWait
}

// Pause sleeps for the given duration, honouring context cancellation.
func (r *RateLimiter) Pause(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
