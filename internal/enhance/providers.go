package enhance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// Candidate pairs one ensemble row with its cached signals for the
// providers that need embeddings or technology sets.
type Candidate struct {
	Result  domain.EnsembleResult
	Signals domain.ItemSignals
}

// InsightProvider is one step of the fallback chain. Failure is a
// returned error, never a panic or a hang; the chain moves on.
type InsightProvider interface {
	Source() domain.InsightSource
	Insights(ctx context.Context, batch []Candidate, c domain.Context) ([]domain.ParsedInsight, error)
}

// quotaChecker is the consumer interface onto the rate limiter.
type quotaChecker interface {
	Allow() bool
	Record()
	Backoff(attempt int) time.Duration
}

// aiProvider issues a single batched generation call for the whole
// uncached batch.
type aiProvider struct {
	generator domain.Generator
	limiter   quotaChecker
	genCfg    domain.GenerationConfig
	// maxAttempts bounds retries on rate-limit-shaped provider errors.
	maxAttempts int
	logger      *zap.Logger
}

// NewAIProvider creates the external-AI step of the chain.
func NewAIProvider(g domain.Generator, limiter quotaChecker, cfg domain.GenerationConfig, logger *zap.Logger) InsightProvider {
	return &aiProvider{generator: g, limiter: limiter, genCfg: cfg, maxAttempts: 2, logger: logger}
}

func (p *aiProvider) Source() domain.InsightSource { return domain.InsightAI }

func (p *aiProvider) Insights(ctx context.Context, batch []Candidate, c domain.Context) ([]domain.ParsedInsight, error) {
	if p.generator == nil {
		return nil, fmt.Errorf("no generator configured: %w", domain.ErrProviderError)
	}

	prompt := buildPrompt(batch, c)

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		// Local quota denial and a provider 429 are treated identically.
		if !p.limiter.Allow() {
			return nil, domain.ErrQuotaExceeded
		}
		p.limiter.Record()

		text, err := p.generator.Generate(ctx, prompt, p.genCfg)
		if err == nil {
			// Malformed responses fall through immediately, no retry.
			return parseInsights(text, len(batch))
		}

		if !errors.Is(err, domain.ErrRateLimited) || attempt == p.maxAttempts-1 {
			return nil, err
		}

		delay := p.limiter.Backoff(attempt)
		p.logger.Warn("AI call rate limited, backing off",
			zap.Duration("delay", delay), zap.Int("attempt", attempt))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, domain.ErrQuotaExceeded
}

// buildPrompt describes the whole batch in one prompt and pins the
// response contract to a JSON array keyed by candidate index.
func buildPrompt(batch []Candidate, c domain.Context) string {
	var b strings.Builder
	b.WriteString("You rank saved content for relevance to a project context.\n")
	b.WriteString("Context: ")
	if len(c.KeyConcepts) > 0 {
		b.WriteString(strings.Join(c.KeyConcepts, ", "))
	}
	if len(c.Technologies) > 0 {
		b.WriteString(" | technologies: ")
		for i, t := range c.Technologies {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(t.Category)
		}
	}
	fmt.Fprintf(&b, " | intent: %s | difficulty: %s\n\nCandidates:\n", c.Intent, c.Difficulty)

	for i, cand := range batch {
		fmt.Fprintf(&b, "%d. %s", i, cand.Result.Title)
		if len(cand.Result.Technologies) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(cand.Result.Technologies, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nRespond with only a JSON array, one element per candidate:\n")
	b.WriteString(`[{"index":0,"relevance":0.0,"key_benefit":"one short sentence","technologies":["..."]}]`)
	return b.String()
}

// semanticProvider scores relevance from embedding similarity. No
// network, no quota.
type semanticProvider struct{}

// NewSemanticProvider creates the embedding-similarity fallback.
func NewSemanticProvider() InsightProvider { return semanticProvider{} }

func (semanticProvider) Source() domain.InsightSource { return domain.InsightSemantic }

func (semanticProvider) Insights(_ context.Context, batch []Candidate, c domain.Context) ([]domain.ParsedInsight, error) {
	if len(c.Embedding) == 0 {
		return nil, fmt.Errorf("no context embedding: %w", domain.ErrProviderError)
	}

	out := make([]domain.ParsedInsight, 0, len(batch))
	for i, cand := range batch {
		if len(cand.Signals.Embedding) == 0 {
			continue
		}
		sim := domain.CosineSimilarity(c.Embedding, cand.Signals.Embedding)
		if sim < 0 {
			sim = 0
		}
		r := sim
		out = append(out, domain.ParsedInsight{Index: i, Relevance: &r})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no item embeddings: %w", domain.ErrProviderError)
	}
	return out, nil
}

// heuristicProvider is the terminal fallback: technology overlap only.
// It cannot fail.
type heuristicProvider struct{}

// NewHeuristicProvider creates the always-available last step.
func NewHeuristicProvider() InsightProvider { return heuristicProvider{} }

func (heuristicProvider) Source() domain.InsightSource { return domain.InsightHeuristic }

func (heuristicProvider) Insights(_ context.Context, batch []Candidate, c domain.Context) ([]domain.ParsedInsight, error) {
	out := make([]domain.ParsedInsight, len(batch))
	for i, cand := range batch {
		matched := 0
		for _, t := range cand.Signals.Technologies {
			if c.HasTechnology(t.Category) {
				matched++
			}
		}
		r := 0.3
		if len(c.Technologies) > 0 {
			r = float64(matched) / float64(len(c.Technologies))
		}
		out[i] = domain.ParsedInsight{Index: i, Relevance: &r}
	}
	return out, nil
}
