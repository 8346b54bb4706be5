package rankdex

import (
	"context"

	"go.uber.org/zap"
)

// EmbeddingResult is the public mirror of an embedding call result.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder produces embedding vectors for candidate analysis. When no
// embedder is configured the client falls back to local term vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Generator produces AI insights for the top-ranked candidates. When no
// generator is configured enhancement degrades to local providers.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs    []string
	password string

	embedder  Embedder
	generator Generator

	engines       map[string]float64
	topK          int
	minQuality    float64
	minuteLimit   int
	dayLimit      int
	localCapacity int
	dimensions    int

	logger *zap.Logger
}

// WithRedis sets the Redis connection parameters.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithEmbedder sets the embedding provider.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithGenerator sets the AI insight provider.
func WithGenerator(g Generator) Option {
	return func(c *clientConfig) {
		c.generator = g
	}
}

// WithEngines overrides the scoring strategies and their ensemble
// weights. Valid names: hybrid, keyword, semantic.
func WithEngines(engines map[string]float64) Option {
	return func(c *clientConfig) {
		c.engines = engines
	}
}

// WithTopK sets how many top candidates receive AI enhancement.
func WithTopK(k int) Option {
	return func(c *clientConfig) {
		c.topK = k
	}
}

// WithMinQuality sets the candidate quality floor.
func WithMinQuality(q float64) Option {
	return func(c *clientConfig) {
		c.minQuality = q
	}
}

// WithLimits sets the AI provider quota (requests per minute / per day).
func WithLimits(perMinute, perDay int) Option {
	return func(c *clientConfig) {
		c.minuteLimit = perMinute
		c.dayLimit = perDay
	}
}

// WithLocalCacheCapacity sets the in-process cache entry cap.
func WithLocalCacheCapacity(n int) Option {
	return func(c *clientConfig) {
		c.localCapacity = n
	}
}

// WithVectorDimensions sets the embedding vector size.
func WithVectorDimensions(dim int) Option {
	return func(c *clientConfig) {
		c.dimensions = dim
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
