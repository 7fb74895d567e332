package httpclient

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateGuard bounds outgoing request rate using a token-bucket limiter. A
// nil *RateGuard disables limiting entirely.
type RateGuard struct {
	limiter *rate.Limiter
}

// NewRateGuard creates a guard allowing up to limitPerWindow requests per
// window, with a burst of the same size.
func NewRateGuard(limitPerWindow int, window time.Duration) *RateGuard {
	if limitPerWindow <= 0 || window <= 0 {
		return nil
	}
	rps := float64(limitPerWindow) / window.Seconds()
	return &RateGuard{limiter: rate.NewLimiter(rate.Limit(rps), limitPerWindow)}
}

// Wait blocks until a request may proceed, or returns ctx.Err() if ctx is
// done first. A nil receiver always allows the request through.
func (g *RateGuard) Wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}
