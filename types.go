package rankdex

import (
	"github.com/kailas-cloud/rankdex/internal/domain"
	recommenduc "github.com/kailas-cloud/rankdex/internal/usecase/recommend"
)

// Request describes the context to rank candidates against.
type Request struct {
	UserID       string
	Title        string
	Description  string
	Technologies string // comma-separated
	Interests    string
	MaxResults   int
	// Engines selects strategies by name; empty means all configured.
	Engines []string
}

// Recommendation is one ranked candidate.
type Recommendation struct {
	ID            string
	Title         string
	URL           string
	Score         float64
	EnsembleScore float64
	EngineVotes   map[string]float64
	Reason        string
	Category      string
	Technologies  []string
	ContentType   string
	Difficulty    string
	Enhanced      bool
}

// Response is the result of one ranking request.
type Response struct {
	Recommendations []Recommendation
	TotalCandidates int
	Cached          bool
	Enhanced        bool
}

// UsageReport is a snapshot of AI quota consumption.
type UsageReport struct {
	MinuteUsed  int
	MinuteLimit int
	DayUsed     int
	DayLimit    int
	WaitSeconds float64
	Exhausted   bool
}

func toResponse(r recommenduc.Response) Response {
	recs := make([]Recommendation, len(r.Recommendations))
	for i, res := range r.Recommendations {
		recs[i] = toRecommendation(res)
	}
	return Response{
		Recommendations: recs,
		TotalCandidates: r.TotalCandidates,
		Cached:          r.Cached,
		Enhanced:        r.Enhanced,
	}
}

func toRecommendation(r domain.EnsembleResult) Recommendation {
	return Recommendation{
		ID:            r.ID,
		Title:         r.Title,
		URL:           r.URL,
		Score:         r.Score,
		EnsembleScore: r.EnsembleScore,
		EngineVotes:   r.EngineVotes,
		Reason:        r.Reason,
		Category:      string(r.Category),
		Technologies:  r.Technologies,
		ContentType:   string(r.ContentType),
		Difficulty:    string(r.Difficulty),
		Enhanced:      r.Enhanced,
	}
}
