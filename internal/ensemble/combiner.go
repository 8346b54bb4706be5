// Package ensemble merges the ranked outputs of several scoring
// strategies into one result list via weighted voting, then spreads the
// survivors across content categories before truncation.
package ensemble

import (
	"sort"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// Vote formula coefficients: rank reciprocal vs normalized score.
const (
	alphaRank = 0.4
	betaScore = 0.6
)

// Hard-filter thresholds: a candidate survives when its mean
// cross-engine score clears the floor or enough engines agree on it.
const (
	qualityFloor     = 35.0
	minAgreeingVotes = 2
)

// Quality bonus tiers reward agreement on already-strong candidates
// over aggregation of many weak votes.
const (
	bonusStrong     = 1.15
	bonusVeryStrong = 1.3
	strongScore     = 70.0
	veryStrongScore = 85.0
)

// Combiner merges per-engine ranked lists.
type Combiner struct{}

// New creates a Combiner.
func New() *Combiner {
	return &Combiner{}
}

// tally accumulates one candidate's votes across engines.
type tally struct {
	item     domain.CandidateItem
	signals  domain.ItemSignals
	best     domain.ScoreBreakdown
	votes    []domain.EngineVote
	ensemble float64
}

// Combine merges the engines' outputs and returns at most maxResults
// diversified rows. Every returned row traces to at least one engine
// vote; the globally top-voted candidate is never dropped.
func (cb *Combiner) Combine(lists []domain.RankedList, maxResults int) []domain.EnsembleResult {
	if maxResults <= 0 {
		return nil
	}

	tallies := make(map[string]*tally)
	for _, list := range lists {
		for rank, ri := range list.Items {
			t, ok := tallies[ri.Item.ID]
			if !ok {
				t = &tally{item: ri.Item, signals: ri.Signals, best: ri.Breakdown}
				tallies[ri.Item.ID] = t
			}
			if ri.Breakdown.Total > t.best.Total {
				t.best = ri.Breakdown
				t.signals = ri.Signals
			}
			t.votes = append(t.votes, domain.EngineVote{
				Engine: list.Engine,
				Rank:   rank,
				Score:  ri.Breakdown.Total / domain.MaxScore,
				Weight: list.Weight,
			})
		}
	}
	if len(tallies) == 0 {
		return nil
	}

	for _, t := range tallies {
		t.ensemble = ensembleScore(t.votes, t.best.Total)
	}

	ordered := make([]*tally, 0, len(tallies))
	for _, t := range tallies {
		ordered = append(ordered, t)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].ensemble != ordered[j].ensemble {
			return ordered[i].ensemble > ordered[j].ensemble
		}
		return ordered[i].item.ID < ordered[j].item.ID
	})

	// The top-voted candidate bypasses the agreement filter.
	top := ordered[0]
	kept := ordered[:0]
	for _, t := range ordered {
		if t == top || survives(t) {
			kept = append(kept, t)
		}
	}

	results := make([]domain.EnsembleResult, len(kept))
	for i, t := range kept {
		results[i] = toResult(t)
	}
	return diversify(results, maxResults)
}

// ensembleScore sums each engine's vote:
// (alpha/(rank+1) + beta*normScore) * engineWeight * qualityBonus.
// Adding a vote never decreases the score: every term is non-negative.
func ensembleScore(votes []domain.EngineVote, bestTotal float64) float64 {
	bonus := 1.0
	switch {
	case bestTotal >= veryStrongScore:
		bonus = bonusVeryStrong
	case bestTotal >= strongScore:
		bonus = bonusStrong
	}

	var sum float64
	for _, v := range votes {
		sum += (alphaRank/float64(v.Rank+1) + betaScore*v.Score) * v.Weight * bonus
	}
	return sum
}

// survives applies the hard filter: drop only when the candidate is
// both weak on average and lacks cross-engine agreement.
func survives(t *tally) bool {
	var mean float64
	for _, v := range t.votes {
		mean += v.Score * domain.MaxScore
	}
	mean /= float64(len(t.votes))

	return mean >= qualityFloor || len(t.votes) >= minAgreeingVotes
}

func toResult(t *tally) domain.EnsembleResult {
	votes := make(map[string]float64, len(t.votes))
	for _, v := range t.votes {
		votes[v.Engine] = (alphaRank/float64(v.Rank+1) + betaScore*v.Score) * v.Weight
	}

	techs := make([]string, 0, len(t.signals.Technologies))
	for _, tech := range t.signals.Technologies {
		techs = append(techs, tech.Category)
	}

	return domain.EnsembleResult{
		ID:            t.item.ID,
		Title:         t.item.Title,
		URL:           t.item.URL,
		Score:         t.best.Total,
		EnsembleScore: t.ensemble,
		EngineVotes:   votes,
		Reason:        t.best.Reason,
		Category:      inferCategory(t.signals, t.item.Title),
		Technologies:  techs,
		ContentType:   t.signals.ContentType,
		Difficulty:    t.signals.Difficulty,
	}
}
