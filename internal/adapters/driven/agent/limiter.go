package agent

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum spacing between inference calls.
// One Limiter is shared by every agent talking to the same service.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter creates a limiter that allows one call per minDelay.
// A zero or negative delay disables spacing.
func NewLimiter(minDelay time.Duration) *Limiter {
	return &Limiter{lim: rate.NewLimiter(limitFor(minDelay), 1)}
}

// Wait blocks until the next call may start or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.lim.Wait(ctx)
}

// SetMinDelay changes the spacing, e.g. after a settings reload.
func (l *Limiter) SetMinDelay(minDelay time.Duration) {
	l.lim.SetLimit(limitFor(minDelay))
}

func limitFor(minDelay time.Duration) rate.Limit {
	if minDelay <= 0 {
		return rate.Inf
	}
	return rate.Every(minDelay)
}
