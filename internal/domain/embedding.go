package domain

import (
	"context"
	"math"
)

// DefaultVectorDim is the embedding dimensionality, fixed for the
// lifetime of a deployment.
const DefaultVectorDim = 384

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage through
// the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// GenerationConfig holds sampling parameters for one generation call.
type GenerationConfig struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// Generator produces free text from a prompt via the external AI
// provider. Responses are expected to contain JSON somewhere inside.
type Generator interface {
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CosineSimilarity computes cosine similarity between two vectors.
// Returns 0 for nil, empty, or mismatched-dimension inputs.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
