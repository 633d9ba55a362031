// Package ratelimit implements a fixed-window request counter keyed by client.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Clock returns the current time. Tests substitute a fake one.
type Clock func() time.Time

// Config holds the limiter capacity and window length.
type Config struct {
	Points   int
	Duration time.Duration
}

// Decision describes the outcome of a single admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type window struct {
	count int
	start time.Time
}

// Limiter admits at most Points requests per key within each Duration window.
// Counts reset when the window elapses rather than sliding.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	points  int
	period  time.Duration
	now     Clock
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(l *Limiter) { l.now = c }
}

// New creates a limiter. Non-positive values fall back to 10 points per second.
func New(cfg Config, opts ...Option) *Limiter {
	if cfg.Points <= 0 {
		cfg.Points = 10
	}
	if cfg.Duration <= 0 {
		cfg.Duration = time.Second
	}

	l := &Limiter{
		windows: make(map[string]*window),
		points:  cfg.Points,
		period:  cfg.Duration,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether a request for key is admitted.
func (l *Limiter) Allow(key string) bool {
	return l.Decide(key).Allowed
}

// Decide performs the admission check and returns the full decision.
func (l *Limiter) Decide(key string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		w = &window{start: now}
		l.windows[key] = w
	}

	resetAt := w.start.Add(l.period)
	if w.count >= l.points {
		return Decision{
			Allowed:    false,
			Limit:      l.points,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}

	w.count++
	return Decision{
		Allowed:   true,
		Limit:     l.points,
		Remaining: l.points - w.count,
		ResetAt:   resetAt,
	}
}

// Points returns the configured capacity.
func (l *Limiter) Points() int { return l.points }

// Duration returns the configured window length.
func (l *Limiter) Duration() time.Duration { return l.period }

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Cleanup drops keys whose window has already elapsed.
func (l *Limiter) Cleanup() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.period {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// StartJanitor runs Cleanup every interval until ctx is cancelled.
func (l *Limiter) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
			}
		}
	}()
}
