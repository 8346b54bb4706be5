package rankdex

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

func TestNew_NoAddress(t *testing.T) {
	_, err := New()
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestNoopEmbedder(t *testing.T) {
	noop := &noopEmbedder{}
	_, err := noop.Embed(context.Background(), "test")
	if err == nil {
		t.Fatal("expected error from noopEmbedder")
	}
}

func TestEmbedderAdapter(t *testing.T) {
	called := false
	mock := &mockEmbedder{
		fn: func(_ context.Context, text string) (EmbeddingResult, error) {
			called = true
			return EmbeddingResult{
				Embedding:    []float32{1, 2, 3},
				PromptTokens: 5,
				TotalTokens:  10,
			}, nil
		},
	}

	adapter := &embedderAdapter{inner: mock}
	result, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner embedder was not called")
	}
	if len(result.Embedding) != 3 {
		t.Errorf("embedding len = %d, want 3", len(result.Embedding))
	}
	if result.TotalTokens != 10 {
		t.Errorf("total tokens = %d, want 10", result.TotalTokens)
	}
}

func TestEmbedderAdapter_Error(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("provider down")
		},
	}

	adapter := &embedderAdapter{inner: mock}
	_, err := adapter.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error from adapter")
	}
}

func TestGeneratorAdapter(t *testing.T) {
	mock := &mockGenerator{
		fn: func(_ context.Context, prompt string) (string, error) {
			return `[{"index":0,"relevance":0.8}]`, nil
		},
	}

	adapter := &generatorAdapter{inner: mock}
	out, err := adapter.Generate(context.Background(), "rank these", domain.GenerationConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == "" {
		t.Error("expected non-empty generation output")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithRedis("localhost:6379", "secret")(cfg)
	if cfg.addrs[0] != "localhost:6379" {
		t.Errorf("addr = %q, want localhost:6379", cfg.addrs[0])
	}
	if cfg.password != "secret" {
		t.Errorf("password = %q, want secret", cfg.password)
	}

	cfg2 := &clientConfig{}
	WithVectorDimensions(768)(cfg2)
	if cfg2.dimensions != 768 {
		t.Errorf("dimensions = %d, want 768", cfg2.dimensions)
	}

	WithEngines(map[string]float64{"keyword": 2.0})(cfg2)
	if cfg2.engines["keyword"] != 2.0 {
		t.Errorf("engines = %v, want keyword=2.0", cfg2.engines)
	}

	WithLimits(5, 100)(cfg2)
	if cfg2.minuteLimit != 5 || cfg2.dayLimit != 100 {
		t.Errorf("limits = (%d, %d), want (5, 100)", cfg2.minuteLimit, cfg2.dayLimit)
	}

	WithTopK(2)(cfg2)
	if cfg2.topK != 2 {
		t.Errorf("topK = %d, want 2", cfg2.topK)
	}

	WithLocalCacheCapacity(512)(cfg2)
	if cfg2.localCapacity != 512 {
		t.Errorf("localCapacity = %d, want 512", cfg2.localCapacity)
	}
}

func TestClient_Close_NilStore(t *testing.T) {
	c := &Client{store: nil}
	c.Close() // must not panic
}

func TestWithEmbedder(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{}, nil
		},
	}
	cfg := &clientConfig{}
	WithEmbedder(mock)(cfg)
	if cfg.embedder == nil {
		t.Error("expected non-nil embedder")
	}
}

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockGenerator struct {
	fn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return m.fn(ctx, prompt)
}
