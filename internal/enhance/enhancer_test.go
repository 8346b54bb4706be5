package enhance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/cache"
	"github.com/kailas-cloud/rankdex/internal/domain"
)

// fakeGenerator returns scripted responses and counts calls.
type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (g *fakeGenerator) Generate(_ context.Context, _ string, _ domain.GenerationConfig) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// openLimiter always allows; closedLimiter never does.
type openLimiter struct{}

func (openLimiter) Allow() bool               { return true }
func (openLimiter) Record()                   {}
func (openLimiter) Backoff(int) time.Duration { return time.Millisecond }

type closedLimiter struct{}

func (closedLimiter) Allow() bool               { return false }
func (closedLimiter) Record()                   {}
func (closedLimiter) Backoff(int) time.Duration { return time.Millisecond }

func testResults() []domain.EnsembleResult {
	return []domain.EnsembleResult{
		{ID: "a", Title: "React Native Guide", EnsembleScore: 3.0, Reason: "matches react-native"},
		{ID: "b", Title: "Go Patterns", EnsembleScore: 2.0, Reason: "general match"},
	}
}

func testSignals() map[string]domain.ItemSignals {
	return map[string]domain.ItemSignals{
		"a": {ItemID: "a", Embedding: []float32{1, 0}},
		"b": {ItemID: "b", Embedding: []float32{0, 1}},
	}
}

func testContext() domain.Context {
	return domain.Context{
		Technologies: []domain.Technology{{Category: "react-native", Weight: 1.0}},
		Embedding:    []float32{1, 0},
		Fingerprint:  "fp-1",
	}
}

func newTestEnhancer(providers []InsightProvider) *Enhancer {
	layer := cache.New(cache.NewLRU(64), nil, nil, zap.NewNop())
	return New(layer, providers, 4, zap.NewNop())
}

func TestEnhance_AIPath(t *testing.T) {
	gen := &fakeGenerator{text: `[
		{"index":0,"relevance":0.9,"key_benefit":"exact stack match"},
		{"index":1,"relevance":0.2}
	]`}
	e := newTestEnhancer([]InsightProvider{
		NewAIProvider(gen, openLimiter{}, domain.GenerationConfig{}, zap.NewNop()),
		NewHeuristicProvider(),
	})

	results := testResults()
	got := e.Enhance(context.Background(), results, testContext(), testSignals())

	if !got[0].Enhanced {
		t.Error("top result should be flagged enhanced")
	}
	if got[0].EnsembleScore != 3.0+0.9*relevanceBonus {
		t.Errorf("score = %v, want %v", got[0].EnsembleScore, 3.0+0.9*relevanceBonus)
	}
	if got[0].Reason != "exact stack match" {
		t.Errorf("reason = %q, want the AI key benefit", got[0].Reason)
	}
	if gen.callCount() != 1 {
		t.Errorf("generator calls = %d, want 1 batched call", gen.callCount())
	}
}

func TestEnhance_CachedInsightsSkipGenerator(t *testing.T) {
	gen := &fakeGenerator{text: `[{"index":0,"relevance":0.9},{"index":1,"relevance":0.2}]`}
	e := newTestEnhancer([]InsightProvider{
		NewAIProvider(gen, openLimiter{}, domain.GenerationConfig{}, zap.NewNop()),
		NewHeuristicProvider(),
	})

	ctx := context.Background()
	e.Enhance(ctx, testResults(), testContext(), testSignals())
	if gen.callCount() != 1 {
		t.Fatalf("generator calls = %d, want 1", gen.callCount())
	}

	// Same context fingerprint: everything served from the insight cache.
	e.Enhance(ctx, testResults(), testContext(), testSignals())
	if gen.callCount() != 1 {
		t.Errorf("generator calls = %d, want 1 (insights cached)", gen.callCount())
	}

	// A different fingerprint is a different cache entry.
	other := testContext()
	other.Fingerprint = "fp-2"
	e.Enhance(ctx, testResults(), other, testSignals())
	if gen.callCount() != 2 {
		t.Errorf("generator calls = %d, want 2 (new fingerprint)", gen.callCount())
	}
}

func TestEnhance_QuotaExhaustedFallsBack(t *testing.T) {
	gen := &fakeGenerator{text: `[{"index":0,"relevance":0.9}]`}
	e := newTestEnhancer([]InsightProvider{
		NewAIProvider(gen, closedLimiter{}, domain.GenerationConfig{}, zap.NewNop()),
		NewSemanticProvider(),
		NewHeuristicProvider(),
	})

	got := e.Enhance(context.Background(), testResults(), testContext(), testSignals())

	if gen.callCount() != 0 {
		t.Errorf("generator calls = %d, want 0 when quota is exhausted", gen.callCount())
	}
	// Fallback providers still contribute, but never set the AI flag.
	for _, r := range got {
		if r.Enhanced {
			t.Errorf("result %s flagged enhanced without an AI insight", r.ID)
		}
	}
	// Semantic relevance for "a" (identical embedding) adds the full bonus.
	if got[0].EnsembleScore != 3.0+1.0*relevanceBonus {
		t.Errorf("score = %v, want semantic bonus applied", got[0].EnsembleScore)
	}
}

func TestEnhance_MalformedResponseFallsBack(t *testing.T) {
	gen := &fakeGenerator{text: "I cannot rank these items, sorry."}
	e := newTestEnhancer([]InsightProvider{
		NewAIProvider(gen, openLimiter{}, domain.GenerationConfig{}, zap.NewNop()),
		NewHeuristicProvider(),
	})

	got := e.Enhance(context.Background(), testResults(), testContext(), testSignals())
	if gen.callCount() != 1 {
		t.Errorf("generator calls = %d, want 1 (no retry on malformed)", gen.callCount())
	}
	for _, r := range got {
		if r.Enhanced {
			t.Error("heuristic fallback must not set the enhanced flag")
		}
	}
}

func TestEnhance_RateLimitRetriesOnce(t *testing.T) {
	gen := &fakeGenerator{err: domain.ErrRateLimited}
	e := newTestEnhancer([]InsightProvider{
		NewAIProvider(gen, openLimiter{}, domain.GenerationConfig{}, zap.NewNop()),
		NewHeuristicProvider(),
	})

	e.Enhance(context.Background(), testResults(), testContext(), testSignals())
	if gen.callCount() != 2 {
		t.Errorf("generator calls = %d, want 2 (one retry)", gen.callCount())
	}
}

func TestEnhance_EmptyResults(t *testing.T) {
	e := newTestEnhancer([]InsightProvider{NewHeuristicProvider()})
	got := e.Enhance(context.Background(), nil, testContext(), nil)
	if len(got) != 0 {
		t.Errorf("expected empty output, got %v", got)
	}
}

func TestAIProvider_ContextCancelledDuringBackoff(t *testing.T) {
	gen := &fakeGenerator{err: domain.ErrRateLimited}
	p := NewAIProvider(gen, openLimiter{}, domain.GenerationConfig{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Insights(ctx, []Candidate{{Result: domain.EnsembleResult{ID: "a"}}}, testContext())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestSemanticProvider_NoEmbeddings(t *testing.T) {
	p := NewSemanticProvider()

	_, err := p.Insights(context.Background(), []Candidate{{Result: domain.EnsembleResult{ID: "a"}}}, domain.Context{})
	if !errors.Is(err, domain.ErrProviderError) {
		t.Errorf("error = %v, want ErrProviderError without a context embedding", err)
	}
}

func TestHeuristicProvider_NeverFails(t *testing.T) {
	p := NewHeuristicProvider()
	batch := []Candidate{
		{Result: domain.EnsembleResult{ID: "a"}, Signals: domain.ItemSignals{
			Technologies: []domain.Technology{{Category: "react-native", Weight: 1.0}},
		}},
		{Result: domain.EnsembleResult{ID: "b"}},
	}

	got, err := p.Insights(context.Background(), batch, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Full overlap scores 1, no overlap 0.
	if *got[0].Relevance != 1.0 || *got[1].Relevance != 0.0 {
		t.Errorf("relevances = %v, %v, want 1 and 0", *got[0].Relevance, *got[1].Relevance)
	}
}
