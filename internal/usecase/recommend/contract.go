package recommend

import (
	"context"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/enhance"
)

// ItemLister is the read-only candidate store contract.
type ItemLister interface {
	List(ctx context.Context, userID string, minQuality float64) ([]domain.CandidateItem, error)
}

// Analyzer derives signals and embeddings for candidates and queries.
type Analyzer interface {
	AnalyzeBatch(ctx context.Context, items []domain.CandidateItem) []domain.ItemSignals
	EmbedText(ctx context.Context, text string) []float32
}

// Engine is one scoring strategy.
type Engine interface {
	Name() string
	Rank(c domain.Context, items []domain.CandidateItem, signals []domain.ItemSignals) []domain.RankedItem
}

// Combiner merges per-engine ranked lists into the final rows.
type Combiner interface {
	Combine(lists []domain.RankedList, maxResults int) []domain.EnsembleResult
}

// Enhancer refines the top candidates. Optional.
type Enhancer interface {
	Enhance(ctx context.Context, results []domain.EnsembleResult, c domain.Context,
		signals map[string]domain.ItemSignals) []domain.EnsembleResult
}

var _ Enhancer = (*enhance.Enhancer)(nil)
