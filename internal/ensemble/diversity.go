package ensemble

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// categoryKeywords is the title fallback for candidates whose cached
// analysis carries no content type.
var categoryKeywords = []struct {
	category domain.ContentType
	words    []string
}{
	{domain.ContentTutorial, []string{"tutorial", "guide", "course", "how to"}},
	{domain.ContentDocumentation, []string{"docs", "documentation", "reference", "api"}},
	{domain.ContentProject, []string{"project", "build", "app"}},
	{domain.ContentPractice, []string{"exercise", "challenge", "practice"}},
	{domain.ContentArticle, []string{"article", "blog", "post"}},
}

// inferCategory prefers the cached analysis, then keyword fallback on
// the title, then general.
func inferCategory(sig domain.ItemSignals, title string) domain.ContentType {
	if sig.ContentType != "" && sig.ContentType != domain.ContentGeneral {
		return sig.ContentType
	}
	lower := strings.ToLower(title)
	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(lower, w) {
				return ck.category
			}
		}
	}
	return domain.ContentGeneral
}

// diversify spreads results across categories: first pass takes up to
// maxResults/numCategories from each populated category, second pass
// fills the remaining slots with the next-best rows regardless of
// category. Input must already be sorted by ensemble score. The first
// row (globally top-voted) is always kept.
func diversify(results []domain.EnsembleResult, maxResults int) []domain.EnsembleResult {
	if len(results) <= maxResults {
		return results
	}

	byCategory := make(map[domain.ContentType][]domain.EnsembleResult)
	var categories []domain.ContentType
	for _, r := range results {
		if _, seen := byCategory[r.Category]; !seen {
			categories = append(categories, r.Category)
		}
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}

	quota := maxResults / len(categories)
	if quota < 1 {
		quota = 1
	}

	picked := make(map[string]bool, maxResults)
	out := make([]domain.EnsembleResult, 0, maxResults)

	// The top row first, unconditionally.
	out = append(out, results[0])
	picked[results[0].ID] = true

	for _, cat := range categories {
		taken := 0
		for _, r := range byCategory[cat] {
			if taken >= quota || len(out) >= maxResults {
				break
			}
			if picked[r.ID] {
				taken++ // the top row counts against its category quota
				continue
			}
			out = append(out, r)
			picked[r.ID] = true
			taken++
		}
	}

	for _, r := range results {
		if len(out) >= maxResults {
			break
		}
		if !picked[r.ID] {
			out = append(out, r)
			picked[r.ID] = true
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EnsembleScore != out[j].EnsembleScore {
			return out[i].EnsembleScore > out[j].EnsembleScore
		}
		return out[i].ID < out[j].ID
	})
	return out
}
