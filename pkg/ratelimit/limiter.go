// Package ratelimit implements sliding-window admission control for Torn
// API requests. Torn allows 100 requests per minute per API key and 1000
// requests per minute per calling IP across all keys; the limiter tracks
// both windows and either waits, rejects, or ignores when a budget is
// exhausted, depending on the configured mode.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/tornsdk/torn-api-client/pkg/keypool"
)

// Prometheus metrics for rate limit admission.
var (
	rateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "torn_rate_limit_waits_total",
		Help: "Total number of times a request waited for rate limit capacity",
	})

	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "torn_rate_limit_wait_seconds",
		Help:    "Duration of rate limit waits in seconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60},
	})

	rateLimitRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "torn_rate_limit_rejections_total",
		Help: "Total number of requests rejected because no key had capacity",
	})
)

// ErrRateLimited is returned by Acquire in ThrowOnLimit mode when no key
// has capacity within the current window.
var ErrRateLimited = errors.New("rate limit exceeded")

// Mode controls the limiter's behavior when a budget is exhausted.
type Mode string

const (
	// ModeAutoDelay waits until a key becomes available.
	ModeAutoDelay Mode = "auto_delay"

	// ModeThrowOnLimit fails fast with ErrRateLimited.
	ModeThrowOnLimit Mode = "throw_on_limit"

	// ModeIgnore bypasses rate limiting entirely.
	ModeIgnore Mode = "ignore"
)

// Request budgets enforced by Torn.
const (
	// PerKeyLimit is the maximum requests per window for one API key.
	PerKeyLimit = 100

	// AggregateLimit is the maximum requests per window across all keys
	// (Torn enforces this per calling IP).
	AggregateLimit = 1000

	// Window is the trailing duration over which requests are counted.
	Window = 60 * time.Second

	// waitBuffer is added to computed waits so the oldest timestamp has
	// definitely aged out when we re-check.
	waitBuffer = 100 * time.Millisecond

	// fallbackWait bounds the retry loop when no window is at capacity
	// but no key was found either.
	fallbackWait = Window + time.Second
)

// Usage is a point-in-time view of one key's window.
type Usage struct {
	// Used is the number of requests recorded in the current window.
	Used int `json:"used"`

	// Remaining is the number of requests left before the key is at limit.
	Remaining int `json:"remaining"`

	// ResetInMillis is the time until the oldest recorded request ages
	// out of the window. Zero when the window is empty.
	ResetInMillis int64 `json:"reset_in_ms"`
}

// Limiter tracks per-key and aggregate request timestamps in trailing
// 60-second windows. Timestamps older than the window are pruned lazily
// before every check. Safe for concurrent use: the prune-check-record
// sequence for an admission is serialized by a single mutex so that two
// callers cannot both take the last slot.
type Limiter struct {
	mu        sync.Mutex
	perKey    map[keypool.Credential][]time.Time
	aggregate []time.Time

	mode   Mode
	logger zerolog.Logger

	// Injection points for deterministic tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter with the given mode.
func New(mode Mode, logger zerolog.Logger) *Limiter {
	return &Limiter{
		perKey: make(map[keypool.Credential][]time.Time),
		mode:   mode,
		logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Mode returns the configured admission mode.
func (l *Limiter) Mode() Mode {
	return l.mode
}

// IsKeyAvailable reports whether the given key is under its per-key
// budget. Always true in Ignore mode.
func (l *Limiter) IsKeyAvailable(key keypool.Credential) bool {
	if l.mode == ModeIgnore {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.keyAvailableLocked(key)
}

// IsAggregateAvailable reports whether the shared aggregate budget has
// capacity. Always true in Ignore mode.
func (l *Limiter) IsAggregateAvailable() bool {
	if l.mode == ModeIgnore {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.aggregateAvailableLocked()
}

// RecordUsage appends the current timestamp to the key's window and to
// the aggregate window. No-op in Ignore mode.
func (l *Limiter) RecordUsage(key keypool.Credential) {
	if l.mode == ModeIgnore {
		return
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.perKey[key] = append(l.perKey[key], now)
	l.aggregate = append(l.aggregate, now)
}

// FindAvailableKey scans pool positions in insertion order and returns
// the first key with capacity. The scan is a linear probe; it does not
// advance the pool's rotation cursor. Returns false when the aggregate
// budget is exhausted or every key is at its limit. In Ignore mode the
// pool's next rotation key is returned unconditionally.
func (l *Limiter) FindAvailableKey(pool *keypool.Pool) (keypool.Credential, bool) {
	if l.mode == ModeIgnore {
		return pool.Next(), true
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.findAvailableKeyLocked(pool)
}

// Acquire returns a key that may be used for one request, honoring the
// configured mode:
//
//   - Ignore: the pool's next rotation key, immediately.
//   - ThrowOnLimit: the first available key, or ErrRateLimited.
//   - AutoDelay: blocks until a key has capacity, sleeping for the
//     minimum time until an at-capacity window frees a slot. The wait
//     honors ctx cancellation.
func (l *Limiter) Acquire(ctx context.Context, pool *keypool.Pool) (keypool.Credential, error) {
	switch l.mode {
	case ModeIgnore:
		return pool.Next(), nil

	case ModeThrowOnLimit:
		key, ok := l.FindAvailableKey(pool)
		if !ok {
			rateLimitRejectionsTotal.Inc()
			l.logger.Warn().
				Int("pool_size", pool.Len()).
				Msg("No key available, rejecting request")
			return "", ErrRateLimited
		}
		return key, nil

	default: // ModeAutoDelay
		for {
			l.mu.Lock()
			key, ok := l.findAvailableKeyLocked(pool)
			var wait time.Duration
			if !ok {
				wait = l.minWaitLocked()
			}
			l.mu.Unlock()

			if ok {
				return key, nil
			}

			rateLimitWaitsTotal.Inc()
			rateLimitWaitSeconds.Observe(wait.Seconds())
			l.logger.Debug().
				Dur("wait_duration", wait).
				Msg("All keys at capacity, waiting")

			if err := l.sleep(ctx, wait); err != nil {
				return "", err
			}
		}
	}
}

// Snapshot returns per-key usage keyed by masked credential. Empty in
// Ignore mode.
func (l *Limiter) Snapshot() map[string]Usage {
	result := make(map[string]Usage)
	if l.mode == ModeIgnore {
		return result
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key := range l.perKey {
		l.pruneLocked(key)
		times := l.perKey[key]

		var resetIn int64
		if len(times) > 0 {
			resetIn = (Window - now.Sub(times[0])).Milliseconds()
			if resetIn < 0 {
				resetIn = 0
			}
		}

		result[key.Mask()] = Usage{
			Used:          len(times),
			Remaining:     PerKeyLimit - len(times),
			ResetInMillis: resetIn,
		}
	}

	return result
}

// keyAvailableLocked prunes the key's window and checks its budget.
// Caller must hold l.mu.
func (l *Limiter) keyAvailableLocked(key keypool.Credential) bool {
	l.pruneLocked(key)
	return len(l.perKey[key]) < PerKeyLimit
}

// aggregateAvailableLocked prunes the aggregate window and checks the
// shared budget. Caller must hold l.mu.
func (l *Limiter) aggregateAvailableLocked() bool {
	l.aggregate = pruneWindow(l.aggregate, l.now())
	return len(l.aggregate) < AggregateLimit
}

// findAvailableKeyLocked is FindAvailableKey without locking. Caller must
// hold l.mu.
func (l *Limiter) findAvailableKeyLocked(pool *keypool.Pool) (keypool.Credential, bool) {
	if !l.aggregateAvailableLocked() {
		return "", false
	}

	for i := 0; i < pool.Len(); i++ {
		key, _ := pool.At(i)
		if l.keyAvailableLocked(key) {
			return key, true
		}
	}
	return "", false
}

// minWaitLocked computes the smallest duration until any at-capacity
// window frees a slot, plus a safety buffer. Caller must hold l.mu.
func (l *Limiter) minWaitLocked() time.Duration {
	now := l.now()
	minWait := fallbackWait

	for _, times := range l.perKey {
		if len(times) < PerKeyLimit {
			continue
		}
		if w := Window - now.Sub(times[0]) + waitBuffer; w < minWait {
			minWait = w
		}
	}

	if len(l.aggregate) >= AggregateLimit {
		if w := Window - now.Sub(l.aggregate[0]) + waitBuffer; w < minWait {
			minWait = w
		}
	}

	if minWait < waitBuffer {
		minWait = waitBuffer
	}
	return minWait
}

// pruneLocked discards timestamps older than the window for one key.
// Caller must hold l.mu.
func (l *Limiter) pruneLocked(key keypool.Credential) {
	pruned := pruneWindow(l.perKey[key], l.now())
	if len(pruned) == 0 {
		delete(l.perKey, key)
		return
	}
	l.perKey[key] = pruned
}

// pruneWindow returns the suffix of times still inside the window.
// Timestamps are appended in order, so the retained entries form a
// contiguous tail.
func pruneWindow(times []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-Window)
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}

// sleepContext sleeps for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
