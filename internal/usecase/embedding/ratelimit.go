package embedding

import (
	"math"

	"golang.org/x/time/rate"
)

// NewRateLimiter returns a token bucket allowing rps requests per second with the given burst.
// rps <= 0 disables limiting and returns nil.
func NewRateLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(math.Max(1, math.Ceil(rps)))
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
