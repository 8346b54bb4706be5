package domain

import "time"

// CandidateItem is one stored content record, read-only to the ranking
// core. Ownership stays with the candidate store.
type CandidateItem struct {
	ID          string
	Title       string
	URL         string
	BodyExcerpt string
	// Quality is the store's own editorial score in [0,100].
	Quality   float64
	CreatedAt time.Time
}

// ItemSignals holds the structured signals derived from one candidate
// item. Same shape as the technology/type/difficulty side of Context so
// scoring can compare them directly. Cacheable for 24h per item.
type ItemSignals struct {
	ItemID       string       `json:"item_id"`
	Technologies []Technology `json:"technologies,omitempty"`
	ContentType  ContentType  `json:"content_type"`
	Difficulty   Difficulty   `json:"difficulty"`
	Intent       Intent       `json:"intent"`
	KeyConcepts  []string     `json:"key_concepts,omitempty"`
	Embedding    []float32    `json:"-"`
}
