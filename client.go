package rankdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/analyze"
	"github.com/kailas-cloud/rankdex/internal/cache"
	"github.com/kailas-cloud/rankdex/internal/db"
	dbRedis "github.com/kailas-cloud/rankdex/internal/db/redis"
	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/engine"
	"github.com/kailas-cloud/rankdex/internal/enhance"
	"github.com/kailas-cloud/rankdex/internal/ensemble"
	"github.com/kailas-cloud/rankdex/internal/metrics"
	"github.com/kailas-cloud/rankdex/internal/ratelimit"
	itemsrepo "github.com/kailas-cloud/rankdex/internal/repository/items"
	recommenduc "github.com/kailas-cloud/rankdex/internal/usecase/recommend"
	usageuc "github.com/kailas-cloud/rankdex/internal/usecase/usage"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the rankdex SDK entry point. It wires the ranking pipeline
// directly over Redis, without the HTTP layer.
type Client struct {
	store        db.Store
	recommendSvc *recommenduc.Service
	usageSvc     *usageuc.Service
}

// New creates a rankdex Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		dimensions: domain.DefaultVectorDim,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("rankdex: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("rankdex: create redis store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("rankdex: database not ready: %w", err)
	}

	return wireClient(ctx, store, cfg)
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig) (*Client, error) {
	logger := cfg.logger

	layer := cache.New(cache.NewLRU(cfg.localCapacity), store, metrics.CacheTotal, logger)
	repo := itemsrepo.New(store)

	// Embedder: noop if not configured; the analyzer falls back to
	// local term vectors on embedder errors.
	var domEmb domain.Embedder = &noopEmbedder{}
	if cfg.embedder != nil {
		domEmb = &embedderAdapter{inner: cfg.embedder}
	}
	analyzer := analyze.New(layer, repo, domEmb, cfg.dimensions, logger)

	engineWeights := cfg.engines
	if len(engineWeights) == 0 {
		engineWeights = map[string]float64{"hybrid": 1.2, "keyword": 1.0, "semantic": 1.1}
	}
	engines := make([]recommenduc.WeightedEngine, 0, len(engineWeights))
	for name, weight := range engineWeights {
		var scorer *engine.Scorer
		switch name {
		case "hybrid":
			scorer = engine.NewHybrid()
		case "keyword":
			scorer = engine.NewKeyword()
		case "semantic":
			scorer = engine.NewSemantic()
		default:
			store.Close()
			return nil, fmt.Errorf("rankdex: unknown engine %q", name)
		}
		engines = append(engines, recommenduc.WeightedEngine{Engine: scorer, Weight: weight})
	}

	limiter := ratelimit.New(cfg.minuteLimit, cfg.dayLimit, logger).WithStore(ctx, store)

	// Provider chain: AI only when a generator is configured; the local
	// providers always close the chain.
	providers := make([]enhance.InsightProvider, 0, 3)
	if cfg.generator != nil {
		providers = append(providers, enhance.NewAIProvider(
			&generatorAdapter{inner: cfg.generator}, limiter, domain.GenerationConfig{}, logger,
		))
	}
	providers = append(providers, enhance.NewSemanticProvider(), enhance.NewHeuristicProvider())
	enhancer := enhance.New(layer, providers, cfg.topK, logger)

	recommendSvc := recommenduc.New(repo, analyzer, engines, ensemble.New(), enhancer, layer, logger).
		WithMinQuality(cfg.minQuality)

	var quota usageuc.QuotaReader
	if cfg.generator != nil {
		quota = limiter
	}

	return &Client{
		store:        store,
		recommendSvc: recommendSvc,
		usageSvc:     usageuc.New(quota),
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Recommend ranks the user's saved candidates against the given context.
func (c *Client) Recommend(ctx context.Context, req Request) (Response, error) {
	resp, err := c.recommendSvc.Recommend(ctx, recommenduc.Request{
		UserID:       req.UserID,
		Title:        req.Title,
		Description:  req.Description,
		Technologies: req.Technologies,
		Interests:    req.Interests,
		MaxResults:   req.MaxResults,
		Engines:      req.Engines,
	})
	if err != nil {
		return Response{}, fmt.Errorf("recommend: %w", err)
	}
	return toResponse(resp), nil
}

// Usage reports AI quota consumption.
func (c *Client) Usage(ctx context.Context) UsageReport {
	r := c.usageSvc.GetReport(ctx)
	return UsageReport{
		MinuteUsed:  r.MinuteUsed,
		MinuteLimit: r.MinuteLimit,
		DayUsed:     r.DayUsed,
		DayLimit:    r.DayLimit,
		WaitSeconds: r.WaitSeconds,
		Exhausted:   r.Exhausted,
	}
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder returns an error on Embed call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"rankdex: embedder not configured (use WithEmbedder for semantic scoring)",
	)
}

// generatorAdapter wraps the public Generator to satisfy internal domain.Generator.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, prompt string, _ domain.GenerationConfig) (string, error) {
	out, err := a.inner.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return out, nil
}
