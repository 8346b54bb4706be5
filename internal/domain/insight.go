package domain

// ParsedInsight is one candidate's refinement parsed from an AI
// response. Every field is optional: absence means "keep the fallback
// for this field", never an error.
type ParsedInsight struct {
	Index        int      `json:"index"`
	Relevance    *float64 `json:"relevance,omitempty"`
	KeyBenefit   *string  `json:"key_benefit,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// Source tells which provider produced the insight: "ai", "semantic",
// or "heuristic".
type InsightSource string

// Insight provider identifiers, in fallback order.
const (
	InsightAI        InsightSource = "ai"
	InsightSemantic  InsightSource = "semantic"
	InsightHeuristic InsightSource = "heuristic"
)
