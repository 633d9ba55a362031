package upstream

import (
	"context"

	"golang.org/x/time/rate"
)

// NewThrottle returns a process-wide outbound limiter shared by the provider
// clients, or nil when rps is not positive.
func NewThrottle(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// wait blocks until the throttle admits a call. A wait that cannot finish
// before the call deadline counts as a timeout.
func wait(ctx context.Context, lim *rate.Limiter, provider string) *Error {
	if lim == nil {
		return nil
	}
	if err := lim.Wait(ctx); err != nil {
		return &Error{Provider: provider, Kind: KindTimeout, Message: "outbound request budget exhausted", Cause: err}
	}
	return nil
}
