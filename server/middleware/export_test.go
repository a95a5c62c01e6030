package middleware

import "time"

// NewRateLimiterForTest exposes a single-key limiter to external tests.
func NewRateLimiterForTest(limit int) func(time.Time) bool {
	rl := newRateLimiter(limit)
	return func(now time.Time) bool { return rl.allow("k", now) }
}
