package domain

// ContentType classifies what kind of content a text describes or is.
type ContentType string

// Content type values. General is the below-confidence fallback.
const (
	ContentTutorial      ContentType = "tutorial"
	ContentDocumentation ContentType = "documentation"
	ContentProject       ContentType = "project"
	ContentPractice      ContentType = "practice"
	ContentArticle       ContentType = "article"
	ContentGeneral       ContentType = "general"
)

// Difficulty is the skill level a text targets.
type Difficulty string

// Difficulty values. Unknown is the below-confidence fallback.
const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyUnknown      Difficulty = "unknown"
)

// Intent is what the author of a query wants to accomplish.
type Intent string

// Intent values. General is the below-confidence fallback.
const (
	IntentLearning        Intent = "learning"
	IntentImplementation  Intent = "implementation"
	IntentTroubleshooting Intent = "troubleshooting"
	IntentOptimization    Intent = "optimization"
	IntentGeneral         Intent = "general"
)

// Technology is a detected technology category with its specificity weight.
// Weight reflects how discriminating the category is: "react-native" says
// more about a query than "web".
type Technology struct {
	Category string
	Weight   float64
}

// Context holds the structured signals extracted from a free-text query.
// Immutable once built; rebuilt per request.
type Context struct {
	Technologies []Technology
	ContentType  ContentType
	Difficulty   Difficulty
	Intent       Intent
	KeyConcepts  []string
	Requirements []string
	// Complexity blends technical-term density, text length, and advanced
	// vocabulary, clamped to [0,1].
	Complexity float64
	// Embedding of the source text. Nil when no embedder produced one.
	Embedding []float32
	// Fingerprint identifies the originating request for cache keys.
	Fingerprint string
}

// HasTechnology reports whether the context detected the given category.
func (c Context) HasTechnology(category string) bool {
	for _, t := range c.Technologies {
		if t.Category == category {
			return true
		}
	}
	return false
}

// NeutralContext returns the maximally-neutral context used for empty or
// garbage input. Never an error condition.
func NeutralContext() Context {
	return Context{
		ContentType: ContentGeneral,
		Difficulty:  DifficultyUnknown,
		Intent:      IntentGeneral,
	}
}
