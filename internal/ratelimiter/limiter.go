package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket shared by every popup, whether it comes from
// POST /notify or from a due reminder. Burst equals the rate so no saved-up
// burst above the configured per-second maximum is allowed.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter with ratePerSec tokens per second.
// A ratePerSec of zero or less disables limiting.
func New(ratePerSec int) *Limiter {
	if ratePerSec <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)}
}

// Wait blocks until the limiter grants a token.
// Returns a non-nil error if ctx is cancelled while waiting or its deadline
// would pass before a token is available.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
