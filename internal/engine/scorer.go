// Package engine implements the relevance scoring strategies. One
// Scorer parameterized by a Weights set replaces what would otherwise
// be several near-identical engines; hybrid, keyword, and semantic are
// just named weight configurations.
package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// Weights is a strategy's point budget per component. Must sum to
// domain.MaxScore.
type Weights struct {
	Tech       float64
	Content    float64
	Difficulty float64
	Intent     float64
	Semantic   float64
}

func (w Weights) total() float64 {
	return w.Tech + w.Content + w.Difficulty + w.Intent + w.Semantic
}

// FloorFraction is the relevance floor: candidates scoring below this
// fraction of MaxScore are hard-excluded from a strategy's output.
const FloorFraction = 0.3

// Scorer scores candidates against a context with a fixed weight set.
// Deterministic: identical inputs produce identical breakdowns.
type Scorer struct {
	name    string
	weights Weights
}

// NewHybrid returns the reference strategy: technology-weighted with a
// semantic component.
func NewHybrid() *Scorer {
	return &Scorer{name: "hybrid", weights: Weights{Tech: 30, Content: 20, Difficulty: 15, Intent: 15, Semantic: 20}}
}

// NewKeyword returns the pure-heuristic strategy: no embedding input,
// the semantic budget redistributed across the others.
func NewKeyword() *Scorer {
	return &Scorer{name: "keyword", weights: Weights{Tech: 35, Content: 25, Difficulty: 20, Intent: 20, Semantic: 0}}
}

// NewSemantic returns the embedding-heavy strategy.
func NewSemantic() *Scorer {
	return &Scorer{name: "semantic", weights: Weights{Tech: 15, Content: 10, Difficulty: 5, Intent: 10, Semantic: 60}}
}

// NewScorer builds a strategy from an arbitrary weight set.
func NewScorer(name string, w Weights) (*Scorer, error) {
	if math.Abs(w.total()-domain.MaxScore) > 1e-9 {
		return nil, fmt.Errorf("engine %s: weights sum to %.1f, want %.0f", name, w.total(), domain.MaxScore)
	}
	return &Scorer{name: name, weights: w}, nil
}

// Name returns the strategy identifier used in ensemble votes.
func (s *Scorer) Name() string { return s.name }

// Score computes the breakdown for one candidate. The second return is
// false when the candidate falls below the relevance floor and must be
// excluded from the strategy's output entirely.
func (s *Scorer) Score(c domain.Context, sig domain.ItemSignals, item domain.CandidateItem) (domain.ScoreBreakdown, bool) {
	w := s.weights

	b := domain.ScoreBreakdown{
		TechMatch:          techMatch(c, sig, w.Tech),
		ContentRelevance:   contentRelevance(c.ContentType, sig.ContentType, c.Intent, w.Content),
		DifficultyAlign:    alignment(string(c.Difficulty), string(sig.Difficulty), string(domain.DifficultyUnknown), w.Difficulty),
		IntentAlign:        alignment(string(c.Intent), string(sig.Intent), string(domain.IntentGeneral), w.Intent),
		SemanticSimilarity: semanticSimilarity(c.Embedding, sig.Embedding, w.Semantic),
	}
	b.Total = clamp(b.TechMatch+b.ContentRelevance+b.DifficultyAlign+b.IntentAlign+b.SemanticSimilarity, 0, domain.MaxScore)
	b.Confidence = confidence(b, w)
	b.Reason = reason(c, sig, b)

	return b, b.Total >= FloorFraction*domain.MaxScore
}

// Rank scores and orders a candidate set, dropping floor-excluded
// candidates. Ties break by quality descending, then id ascending.
func (s *Scorer) Rank(c domain.Context, items []domain.CandidateItem, signals []domain.ItemSignals) []domain.RankedItem {
	ranked := make([]domain.RankedItem, 0, len(items))
	for i, item := range items {
		if i >= len(signals) {
			break
		}
		b, ok := s.Score(c, signals[i], item)
		if !ok {
			continue
		}
		ranked = append(ranked, domain.RankedItem{Item: item, Signals: signals[i], Breakdown: b})
	}
	sort.Slice(ranked, func(i, j int) bool {
		return Less(ranked[i], ranked[j])
	})
	return ranked
}

// Less is the canonical ordering for ranked items: total score
// descending, quality descending, id ascending.
func Less(a, b domain.RankedItem) bool {
	if a.Breakdown.Total != b.Breakdown.Total {
		return a.Breakdown.Total > b.Breakdown.Total
	}
	if a.Item.Quality != b.Item.Quality {
		return a.Item.Quality > b.Item.Quality
	}
	return a.Item.ID < b.Item.ID
}

// techMatch is a weighted Jaccard-style overlap between the context and
// item technology sets. An empty context set scores neutral (half
// budget) rather than zero; a non-empty set with no overlap scores low
// but non-zero.
func techMatch(c domain.Context, sig domain.ItemSignals, budget float64) float64 {
	if budget == 0 {
		return 0
	}
	if len(c.Technologies) == 0 {
		return budget * 0.5
	}
	if len(sig.Technologies) == 0 {
		return budget * (5.0 / 30.0)
	}

	itemWeights := make(map[string]float64, len(sig.Technologies))
	for _, t := range sig.Technologies {
		itemWeights[t.Category] = t.Weight
	}

	var overlap, union float64
	for _, t := range c.Technologies {
		union += t.Weight
		if _, ok := itemWeights[t.Category]; ok {
			overlap += t.Weight
		}
	}
	for _, t := range sig.Technologies {
		if !c.HasTechnology(t.Category) {
			union += t.Weight
		}
	}
	if union == 0 {
		return budget * (5.0 / 30.0)
	}

	score := budget * (overlap / union)
	floor := budget * (5.0 / 30.0)
	if score < floor {
		return floor
	}
	return score
}

// typeCompat is the secondary tier of the content-type table: pairs that
// are not an exact match but serve the same intent.
var typeCompat = map[domain.ContentType]map[domain.Intent]bool{
	domain.ContentTutorial:      {domain.IntentLearning: true},
	domain.ContentProject:       {domain.IntentImplementation: true},
	domain.ContentPractice:      {domain.IntentLearning: true},
	domain.ContentDocumentation: {domain.IntentImplementation: true, domain.IntentTroubleshooting: true},
	domain.ContentArticle:       {domain.IntentOptimization: true},
}

func contentRelevance(want, got domain.ContentType, intent domain.Intent, budget float64) float64 {
	if budget == 0 {
		return 0
	}
	switch {
	case want != domain.ContentGeneral && want == got:
		return budget
	case typeCompat[got][intent]:
		return budget * 0.7
	case want == domain.ContentGeneral:
		return budget * 0.5
	default:
		return budget * 0.25
	}
}

// alignment implements the shared tiering for difficulty and intent:
// exact match full, either side unknown mid, mismatch low.
func alignment(want, got, unknown string, budget float64) float64 {
	if budget == 0 {
		return 0
	}
	switch {
	case want == got:
		return budget
	case want == unknown || got == unknown:
		return budget * 0.5
	default:
		return budget * 0.2
	}
}

// semanticSimilarity rescales cosine similarity into the point budget.
// A missing embedding on either side substitutes the neutral mid value
// rather than failing the score.
func semanticSimilarity(a, b []float32, budget float64) float64 {
	if budget == 0 {
		return 0
	}
	if len(a) == 0 || len(b) == 0 {
		return budget * 0.5
	}
	sim := domain.CosineSimilarity(a, b)
	if sim < 0 {
		sim = 0
	}
	return budget * sim
}

// confidence compares each component against its budget: balanced
// high-scoring breakdowns yield higher confidence than spiky ones.
func confidence(b domain.ScoreBreakdown, w Weights) float64 {
	type comp struct{ score, budget float64 }
	comps := []comp{
		{b.TechMatch, w.Tech},
		{b.ContentRelevance, w.Content},
		{b.DifficultyAlign, w.Difficulty},
		{b.IntentAlign, w.Intent},
		{b.SemanticSimilarity, w.Semantic},
	}

	var ratios []float64
	for _, c := range comps {
		if c.budget > 0 {
			ratios = append(ratios, c.score/c.budget)
		}
	}
	if len(ratios) == 0 {
		return 0
	}

	var mean float64
	for _, r := range ratios {
		mean += r
	}
	mean /= float64(len(ratios))

	var variance float64
	for _, r := range ratios {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(ratios))

	// High mean and low spread both push confidence up.
	conf := mean * (1 - math.Sqrt(variance))
	return clamp(conf, 0, 1)
}

func reason(c domain.Context, sig domain.ItemSignals, b domain.ScoreBreakdown) string {
	var shared []string
	for _, t := range sig.Technologies {
		if c.HasTechnology(t.Category) {
			shared = append(shared, t.Category)
		}
	}
	switch {
	case len(shared) > 0:
		return fmt.Sprintf("matches %s with %.0f%% relevance", joinMax(shared, 3), b.Total)
	case b.SemanticSimilarity > 0 && len(c.Embedding) > 0:
		return fmt.Sprintf("semantically related content (%.0f%% relevance)", b.Total)
	default:
		return fmt.Sprintf("general match (%.0f%% relevance)", b.Total)
	}
}

func joinMax(parts []string, n int) string {
	if len(parts) > n {
		parts = parts[:n]
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
