// Package analyze derives cacheable ItemSignals for candidate items:
// cached analysis first, stored records second, local heuristics last,
// with embeddings cached independently of the rest of the signals.
package analyze

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/cache"
	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/extract"
)

const (
	analysisTTL = 24 * time.Hour
	// Only the head of the text feeds the embedding; the tail is
	// truncated for throughput.
	embedPrefixLen = 500

	analysisKeyPrefix  = "rankdex:analysis:"
	embeddingKeyPrefix = "rankdex:emb:"
)

// SignalsReader reads a previously stored analysis record, if any.
type SignalsReader interface {
	StoredSignals(ctx context.Context, itemID string) (domain.ItemSignals, bool, error)
}

// Analyzer converts candidate items into ItemSignals.
type Analyzer struct {
	cache     *cache.Layer
	stored    SignalsReader
	embedder  domain.Embedder
	extractor *extract.Extractor
	dim       int
	logger    *zap.Logger
}

// New creates an Analyzer. stored and embedder may be nil; both paths
// have local fallbacks.
func New(c *cache.Layer, stored SignalsReader, embedder domain.Embedder, dim int, logger *zap.Logger) *Analyzer {
	if dim <= 0 {
		dim = domain.DefaultVectorDim
	}
	return &Analyzer{
		cache:     c,
		stored:    stored,
		embedder:  embedder,
		extractor: extract.New(),
		dim:       dim,
		logger:    logger,
	}
}

// Analyze returns the signals for one item, computing and caching them
// on miss. Within the cache TTL a repeat call makes no embedding call.
func (a *Analyzer) Analyze(ctx context.Context, item domain.CandidateItem) domain.ItemSignals {
	key := analysisKeyPrefix + item.ID

	var sig domain.ItemSignals
	if a.cache.GetJSON(ctx, key, &sig) {
		sig.Embedding = a.embedding(ctx, item)
		return sig
	}

	sig, fromStore := a.storedOrDerived(ctx, item)
	a.cache.SetJSON(ctx, key, sig, analysisTTL)
	if fromStore {
		a.logger.Debug("Analysis loaded from store", zap.String("item_id", item.ID))
	}

	sig.Embedding = a.embedding(ctx, item)
	return sig
}

// AnalyzeBatch analyzes items sequentially with per-item isolation.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, items []domain.CandidateItem) []domain.ItemSignals {
	out := make([]domain.ItemSignals, len(items))
	for i, item := range items {
		out[i] = a.Analyze(ctx, item)
	}
	return out
}

// EmbedText embeds arbitrary text (the query side) through the same
// cache and fallback path as item embeddings.
func (a *Analyzer) EmbedText(ctx context.Context, text string) []float32 {
	return a.cachedEmbedding(ctx, text)
}

func (a *Analyzer) storedOrDerived(ctx context.Context, item domain.CandidateItem) (domain.ItemSignals, bool) {
	if a.stored != nil {
		sig, ok, err := a.stored.StoredSignals(ctx, item.ID)
		if err != nil {
			a.logger.Warn("Failed to read stored analysis", zap.String("item_id", item.ID), zap.Error(err))
		} else if ok {
			return sig, true
		}
	}
	return a.extractor.ExtractSignals(item.ID, item.Title, item.BodyExcerpt), false
}

func (a *Analyzer) embedding(ctx context.Context, item domain.CandidateItem) []float32 {
	return a.cachedEmbedding(ctx, item.Title+" "+item.BodyExcerpt)
}

// cachedEmbedding returns the embedding for text, keyed by a hash of
// its first embedPrefixLen characters. Provider failure falls back to a
// local hashed term-frequency vector of the same dimensionality, so
// downstream cosine code stays dimension-agnostic.
func (a *Analyzer) cachedEmbedding(ctx context.Context, text string) []float32 {
	prefix := text
	if len(prefix) > embedPrefixLen {
		prefix = prefix[:embedPrefixLen]
	}
	h := sha256.Sum256([]byte(prefix))
	key := embeddingKeyPrefix + hex.EncodeToString(h[:])

	if data, ok := a.cache.Get(ctx, key); ok {
		if vec, err := bytesToVector(data); err == nil {
			return vec
		}
		a.logger.Warn("Corrupt cached embedding", zap.String("key", key))
	}

	if a.embedder != nil {
		res, err := a.embedder.Embed(ctx, prefix)
		if err != nil {
			a.logger.Warn("Embedding failed, using term-frequency fallback", zap.Error(err))
		} else {
			a.cache.Set(ctx, key, vectorToBytes(res.Embedding), analysisTTL)
			return res.Embedding
		}
	}

	vec := fallbackVector(prefix, a.dim)
	a.cache.Set(ctx, key, vectorToBytes(vec), analysisTTL)
	return vec
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
