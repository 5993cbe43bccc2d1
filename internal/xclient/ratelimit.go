package xclient

import "golang.org/x/time/rate"

// NewLimiter builds the request limiter shared by X API clients.
// Non-positive values default to 1 rps with a burst of 1, which stays inside
// the basic-tier search quota.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
