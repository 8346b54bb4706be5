// Package ratelimit guards the external AI provider against per-minute
// and per-day quotas, and computes retry backoff.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults match the provider's free-tier quotas.
const (
	DefaultMinuteLimit = 15
	DefaultDayLimit    = 1500
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxDelay    = 60 * time.Second

	minuteWindow = time.Minute
	// Timestamps older than twice the window are pruned to bound memory.
	pruneHorizon = 2 * time.Minute
	jitterSpread = 0.2
)

// CounterStore persists the daily counter so restarts do not reset the
// quota. Implementations must be idempotent.
type CounterStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Usage is a point-in-time snapshot of quota consumption.
type Usage struct {
	MinuteUsed  int
	MinuteLimit int
	DayUsed     int
	DayLimit    int
	Wait        time.Duration
}

// Limiter tracks request timestamps in a rolling one-minute window and
// a calendar-day counter (UTC date comparison, not a rolling 24h
// window). All mutation happens under one mutex; it is the only
// cross-request shared mutable state in the ranking path.
type Limiter struct {
	mu          sync.Mutex
	minuteLimit int
	dayLimit    int
	timestamps  []time.Time
	dayCount    int
	day         time.Time

	baseDelay time.Duration
	maxDelay  time.Duration
	rng       *rand.Rand
	now       func() time.Time

	store  CounterStore
	keyFor func(day time.Time) string
	logger *zap.Logger
}

// New creates a Limiter with the given ceilings. Zero values fall back
// to the defaults.
func New(minuteLimit, dayLimit int, logger *zap.Logger) *Limiter {
	if minuteLimit <= 0 {
		minuteLimit = DefaultMinuteLimit
	}
	if dayLimit <= 0 {
		dayLimit = DefaultDayLimit
	}
	now := time.Now
	return &Limiter{
		minuteLimit: minuteLimit,
		dayLimit:    dayLimit,
		day:         truncateToDay(now().UTC()),
		baseDelay:   DefaultBaseDelay,
		maxDelay:    DefaultMaxDelay,
		rng:         rand.New(rand.NewSource(now().UnixNano())), //nolint:gosec // jitter only
		now:         now,
		keyFor: func(day time.Time) string {
			return "rankdex:quota:ai:daily:" + day.Format("2006-01-02")
		},
		logger: logger,
	}
}

// WithClock replaces the time source. Test hook.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	l.day = truncateToDay(now().UTC())
	return l
}

// WithBackoff overrides the backoff bounds.
func (l *Limiter) WithBackoff(base, max time.Duration) *Limiter {
	l.baseDelay = base
	l.maxDelay = max
	return l
}

// WithStore attaches daily-counter persistence and loads today's value.
func (l *Limiter) WithStore(ctx context.Context, store CounterStore) *Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.store = store
	data, err := store.Get(ctx, l.keyFor(l.day))
	if err != nil {
		l.logger.Warn("Failed to load daily quota counter", zap.Error(err))
		return l
	}
	var n int
	if _, err := fmt.Sscanf(string(data), "%d", &n); err == nil {
		l.dayCount = n
		l.logger.Info("Daily quota counter loaded", zap.Int("used", n))
	}
	return l
}

// Allow reports whether a request may be made right now. False when
// either counter is at or above its ceiling.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roll()
	return len(l.inWindow()) < l.minuteLimit && l.dayCount < l.dayLimit
}

// Record registers one outgoing request: appends a timestamp and
// increments the day counter. Call after Allow, never instead of it.
func (l *Limiter) Record() {
	l.mu.Lock()
	l.roll()
	l.timestamps = append(l.timestamps, l.now())
	l.dayCount++
	store := l.store
	key := l.keyFor(l.day)
	l.mu.Unlock()

	if store == nil {
		return
	}

	// Write-behind so the store never blocks the request path, and no
	// lock is held across the network call.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.IncrBy(ctx, key, 1); err != nil {
		l.logger.Warn("Failed to persist quota counter", zap.String("key", key), zap.Error(err))
		return
	}
	if err := store.Expire(ctx, key, 48*time.Hour, true); err != nil {
		l.logger.Warn("Failed to expire quota counter", zap.String("key", key), zap.Error(err))
	}
}

// WaitTime returns how long until the oldest in-window timestamp exits
// the one-minute window, or zero when under the limit.
func (l *Limiter) WaitTime() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roll()
	window := l.inWindow()
	if len(window) < l.minuteLimit {
		return 0
	}
	oldest := window[len(window)-l.minuteLimit]
	wait := minuteWindow - l.now().Sub(oldest)
	if wait < 0 {
		return 0
	}
	return wait
}

// Backoff returns min(base*2^attempt, max) with ±20% multiplicative
// jitter, so concurrent callers do not retry in lockstep.
func (l *Limiter) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(l.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(l.maxDelay) {
		delay = float64(l.maxDelay)
	}

	l.mu.Lock()
	jitter := 1 + jitterSpread*(2*l.rng.Float64()-1)
	l.mu.Unlock()

	return time.Duration(delay * jitter)
}

// Snapshot returns current quota usage for reporting.
func (l *Limiter) Snapshot() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roll()
	used := len(l.inWindow())
	u := Usage{
		MinuteUsed:  used,
		MinuteLimit: l.minuteLimit,
		DayUsed:     l.dayCount,
		DayLimit:    l.dayLimit,
	}
	if used >= l.minuteLimit {
		oldest := l.inWindow()[used-l.minuteLimit]
		if wait := minuteWindow - l.now().Sub(oldest); wait > 0 {
			u.Wait = wait
		}
	}
	return u
}

// roll prunes old timestamps and resets the day counter on UTC date
// change. Callers hold the mutex.
func (l *Limiter) roll() {
	now := l.now()

	cutoff := now.Add(-pruneHorizon)
	keep := l.timestamps[:0]
	for _, ts := range l.timestamps {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}
	l.timestamps = keep

	today := truncateToDay(now.UTC())
	if today.After(l.day) {
		l.dayCount = 0
		l.day = today
	}
}

// inWindow returns the timestamps inside the rolling minute. Callers
// hold the mutex; the slice shares backing storage with l.timestamps.
func (l *Limiter) inWindow() []time.Time {
	cutoff := l.now().Add(-minuteWindow)
	for i, ts := range l.timestamps {
		if ts.After(cutoff) {
			return l.timestamps[i:]
		}
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
