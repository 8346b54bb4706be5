// Package cache provides the two-tier cache used for whole-result and
// per-item analysis caching: a bounded in-process LRU in front of a
// shared key-value store. Shared-tier outages degrade to recomputation,
// never to failure.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/db"
)

// store is the consumer interface for the shared tier (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Layer is the multi-tier cache. Local hits cost nothing; shared hits
// backfill the local tier; shared errors are logged and swallowed.
type Layer struct {
	local      *LRU
	shared     store
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a Layer. shared may be nil (local-only mode).
// cacheTotal is a counter vec with labels "tier" and "result", passed
// explicitly (no package-level metric state).
func New(local *LRU, shared store, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Layer {
	return &Layer{local: local, shared: shared, cacheTotal: cacheTotal, logger: logger}
}

// Get looks the key up local-first.
func (l *Layer) Get(ctx context.Context, key string) ([]byte, bool) {
	if data, ok := l.local.Get(key); ok {
		l.inc("local", "hit")
		return data, true
	}
	l.inc("local", "miss")

	if l.shared == nil {
		return nil, false
	}

	data, err := l.shared.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			l.logger.Warn("Shared cache get failed", zap.String("key", key), zap.Error(err))
		}
		l.inc("shared", "miss")
		return nil, false
	}
	l.inc("shared", "hit")

	// Backfill with a short local TTL so the tiers converge.
	l.local.Set(key, data, time.Minute)
	return data, true
}

// Set writes both tiers. The shared write is best-effort.
func (l *Layer) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	l.local.Set(key, value, ttl)

	if l.shared == nil {
		return
	}
	if err := l.shared.SetWithTTL(ctx, key, value, ttl); err != nil {
		l.logger.Warn("Shared cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// GetJSON unmarshals a cached value into out.
func (l *Layer) GetJSON(ctx context.Context, key string, out any) bool {
	data, ok := l.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		l.logger.Warn("Corrupt cache entry", zap.String("key", key), zap.Error(err))
		l.local.Delete(key)
		return false
	}
	return true
}

// SetJSON marshals v and writes both tiers. Marshal failures are
// logged, not raised; caching is never load-bearing.
func (l *Layer) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		l.logger.Warn("Failed to marshal cache value", zap.String("key", key), zap.Error(err))
		return
	}
	l.Set(ctx, key, data, ttl)
}

func (l *Layer) inc(tier, result string) {
	if l.cacheTotal != nil {
		l.cacheTotal.WithLabelValues(tier, result).Inc()
	}
}
