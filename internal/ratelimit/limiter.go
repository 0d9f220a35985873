package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a weight-aware token bucket. The quota is expressed as a
// number of request units per period; each endpoint consumes its own
// weight in units.
type Limiter struct {
	bucket  *rate.Limiter
	burst   int
	metrics *Metrics
}

// Metrics tracks statistics about limiter usage.
type Metrics struct {
	totalWaits   atomic.Int64
	allowedWaits atomic.Int64
	deniedWaits  atomic.Int64
}

// New creates a Limiter allowing the given number of request units per
// period. The burst equals the full quota, matching exchanges that
// meter on a rolling window.
func New(units int, period time.Duration) *Limiter {
	ups := float64(units) / period.Seconds()
	return &Limiter{
		bucket:  rate.NewLimiter(rate.Limit(ups), units),
		burst:   units,
		metrics: &Metrics{},
	}
}

// Wait blocks until one request unit is available or the context is
// cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.WaitN(ctx, 1)
}

// WaitN blocks until weight request units are available or the context
// is cancelled. Weights above the burst are clamped so an expensive
// endpoint degrades to a full-bucket wait instead of failing.
func (l *Limiter) WaitN(ctx context.Context, weight int) error {
	if weight < 1 {
		weight = 1
	}
	if weight > l.burst {
		weight = l.burst
	}
	l.metrics.totalWaits.Add(1)
	if err := l.bucket.WaitN(ctx, weight); err != nil {
		l.metrics.deniedWaits.Add(1)
		return err
	}
	l.metrics.allowedWaits.Add(1)
	return nil
}

// Allow reports whether weight request units are available right now,
// consuming them when they are.
func (l *Limiter) Allow(weight int) bool {
	if weight < 1 {
		weight = 1
	}
	l.metrics.totalWaits.Add(1)
	allowed := l.bucket.AllowN(time.Now(), weight)
	if allowed {
		l.metrics.allowedWaits.Add(1)
	} else {
		l.metrics.deniedWaits.Add(1)
	}
	return allowed
}

// SetLimit replaces the quota with a new units-per-period rate.
func (l *Limiter) SetLimit(units int, period time.Duration) {
	ups := float64(units) / period.Seconds()
	l.bucket.SetLimit(rate.Limit(ups))
	l.bucket.SetBurst(units)
	l.burst = units
}

// Snapshot returns a point-in-time capture of limiter statistics.
func (l *Limiter) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalWaits:   l.metrics.totalWaits.Load(),
		AllowedWaits: l.metrics.allowedWaits.Load(),
		DeniedWaits:  l.metrics.deniedWaits.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of limiter statistics.
type MetricsSnapshot struct {
	TotalWaits   int64
	AllowedWaits int64
	DeniedWaits  int64
}
