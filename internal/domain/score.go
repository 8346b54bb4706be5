package domain

// Component point budgets shared by all scoring strategies. The five
// budgets of a strategy's weight set must sum to MaxScore.
const (
	MaxScore = 100.0
)

// ScoreBreakdown is the multi-component relevance score between one
// Context and one candidate. Ephemeral, recomputed per request.
type ScoreBreakdown struct {
	TechMatch          float64
	ContentRelevance   float64
	DifficultyAlign    float64
	IntentAlign        float64
	SemanticSimilarity float64
	// Total is the sum of the components, always in [0, MaxScore].
	Total float64
	// Confidence in [0,1], derived from the variance across components:
	// balanced high-scoring breakdowns beat spiky ones.
	Confidence float64
	Reason     string
}

// RankedItem pairs a candidate with one strategy's breakdown.
type RankedItem struct {
	Item      CandidateItem
	Signals   ItemSignals
	Breakdown ScoreBreakdown
}

// RankedList is one engine's ordered output with its ensemble weight.
type RankedList struct {
	Engine string
	// Weight is relative across engines; weights need not sum to 1.
	Weight float64
	Items  []RankedItem
}

// EngineVote records one engine's contribution for a candidate while
// votes are aggregated inside the combiner.
type EngineVote struct {
	Engine string
	Rank   int
	// Normalized score in [0,1] (Total / MaxScore).
	Score  float64
	Weight float64
}

// EnsembleResult is one final output row. Not persisted.
type EnsembleResult struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	URL           string             `json:"url"`
	Score         float64            `json:"score"`
	EnsembleScore float64            `json:"ensemble_score"`
	EngineVotes   map[string]float64 `json:"engine_votes"`
	Reason        string             `json:"reason"`
	Category      ContentType        `json:"category"`
	Technologies  []string           `json:"technologies,omitempty"`
	ContentType   ContentType        `json:"content_type"`
	Difficulty    Difficulty         `json:"difficulty"`
	Enhanced      bool               `json:"enhanced"`
}
