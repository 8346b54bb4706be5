// Package enhance refines the top ranked candidates with an external AI
// call when quota allows, degrading through semantic and heuristic
// fallbacks. Enhancement is additive and optional: it never blocks a
// result from being returned and never raises.
package enhance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/cache"
	"github.com/kailas-cloud/rankdex/internal/domain"
)

const (
	// DefaultTopK bounds how many candidates are ever sent externally.
	DefaultTopK = 4

	insightTTL       = 24 * time.Hour
	insightKeyPrefix = "rankdex:insight:"
	// relevanceBonus scales the AI relevance field into score points.
	relevanceBonus = 10.0
)

// Enhancer runs the provider chain over the top-K candidates.
type Enhancer struct {
	cache     *cache.Layer
	providers []InsightProvider
	topK      int
	logger    *zap.Logger
}

// New creates an Enhancer. The provider order is the fallback order.
func New(c *cache.Layer, providers []InsightProvider, topK int, logger *zap.Logger) *Enhancer {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Enhancer{cache: c, providers: providers, topK: topK, logger: logger}
}

// cachedInsight is the persisted form of one candidate's insight.
type cachedInsight struct {
	Insight domain.ParsedInsight `json:"insight"`
	Source  domain.InsightSource `json:"source"`
}

// Enhance refines up to topK results in place and returns the full
// slice. signals maps item ID to its analysis for the fallback
// providers. When every top-K candidate's insight is cached there are
// zero external calls.
func (e *Enhancer) Enhance(
	ctx context.Context,
	results []domain.EnsembleResult,
	c domain.Context,
	signals map[string]domain.ItemSignals,
) []domain.EnsembleResult {
	k := e.topK
	if k > len(results) {
		k = len(results)
	}
	if k == 0 {
		return results
	}

	batch := make([]Candidate, 0, k)
	uncached := make([]int, 0, k) // indexes into batch
	for i := 0; i < k; i++ {
		cand := Candidate{Result: results[i], Signals: signals[results[i].ID]}
		batch = append(batch, cand)

		var hit cachedInsight
		if e.cache.GetJSON(ctx, e.insightKey(results[i].ID, c.Fingerprint), &hit) {
			apply(&results[i], hit.Insight, hit.Source)
			continue
		}
		uncached = append(uncached, i)
	}
	if len(uncached) == 0 {
		return results
	}

	sub := make([]Candidate, len(uncached))
	for i, idx := range uncached {
		sub[i] = batch[idx]
	}

	insights, source := e.runChain(ctx, sub, c)
	for _, in := range insights {
		idx := uncached[in.Index]
		apply(&results[idx], in, source)
		if source == domain.InsightAI {
			e.cache.SetJSON(ctx, e.insightKey(results[idx].ID, c.Fingerprint),
				cachedInsight{Insight: in, Source: source}, insightTTL)
		}
	}
	return results
}

// runChain tries each provider in order and returns the first success.
// The heuristic terminal provider makes total failure impossible, but a
// misconfigured chain still degrades to "no insights" rather than an
// error.
func (e *Enhancer) runChain(ctx context.Context, batch []Candidate, c domain.Context) ([]domain.ParsedInsight, domain.InsightSource) {
	for _, p := range e.providers {
		insights, err := p.Insights(ctx, batch, c)
		if err != nil {
			e.logger.Info("Insight provider failed, trying next",
				zap.String("provider", string(p.Source())), zap.Error(err))
			continue
		}
		return insights, p.Source()
	}
	return nil, domain.InsightHeuristic
}

func (e *Enhancer) insightKey(itemID, fingerprint string) string {
	h := sha256.Sum256([]byte(itemID + "|" + fingerprint))
	return insightKeyPrefix + hex.EncodeToString(h[:])
}

// apply folds one insight into a result. Strictly additive: the bonus
// never lowers a score, and a missing field keeps the existing value.
func apply(r *domain.EnsembleResult, in domain.ParsedInsight, source domain.InsightSource) {
	if in.Relevance != nil {
		r.EnsembleScore += *in.Relevance * relevanceBonus
	}
	if in.KeyBenefit != nil && *in.KeyBenefit != "" {
		r.Reason = *in.KeyBenefit
	}
	if len(in.Technologies) > 0 {
		r.Technologies = mergeTechnologies(r.Technologies, in.Technologies)
	}
	if source == domain.InsightAI {
		r.Enhanced = true
	}
}

func mergeTechnologies(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t] = true
	}
	for _, t := range extra {
		if !seen[t] {
			existing = append(existing, t)
			seen[t] = true
		}
	}
	return existing
}
