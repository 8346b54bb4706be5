// Package extract turns free text into the structured signals the
// scoring engines compare: technologies, content type, difficulty,
// intent, key concepts, and a complexity estimate. Pure functions, no
// I/O, no errors; absent input yields a neutral result.
package extract

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

const (
	// minClassConfidence is the overlap ratio below which a
	// classification falls back to unknown/general.
	minClassConfidence = 0.2
	maxKeyConcepts     = 8
	minConceptLen      = 4
)

// Extractor derives a domain.Context from query text.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract builds a Context from the request's free-text fields.
// technologiesCSV is the user-supplied comma-separated technology list;
// its entries are matched against the category tables like any other
// text but count toward requirements verbatim.
func (e *Extractor) Extract(title, description, technologiesCSV, interests string) domain.Context {
	combined := normalize(strings.Join([]string{title, description, technologiesCSV, interests}, " "))
	if strings.TrimSpace(combined) == "" {
		return domain.NeutralContext()
	}

	c := domain.Context{
		Technologies: detectTechnologies(combined),
		ContentType:  classify(combined, contentTypeClasses, domain.ContentGeneral),
		Difficulty:   classify(combined, difficultyClasses, domain.DifficultyUnknown),
		Intent:       classify(combined, intentClasses, domain.IntentGeneral),
		KeyConcepts:  keyConcepts(combined),
		Requirements: requirements(technologiesCSV),
		Complexity:   complexity(combined),
	}
	return c
}

// ExtractSignals derives ItemSignals from a candidate item's own text
// with the same heuristics Extract applies to queries. The embedding is
// left for the analyzer to fill in.
func (e *Extractor) ExtractSignals(itemID, title, excerpt string) domain.ItemSignals {
	combined := normalize(title + " " + excerpt)
	return domain.ItemSignals{
		ItemID:       itemID,
		Technologies: detectTechnologies(combined),
		ContentType:  classify(combined, contentTypeClasses, domain.ContentGeneral),
		Difficulty:   classify(combined, difficultyClasses, domain.DifficultyUnknown),
		Intent:       classify(combined, intentClasses, domain.IntentGeneral),
		KeyConcepts:  keyConcepts(combined),
	}
}

// detectTechnologies runs every category's keyword set against the text.
// Within a category the longest matching keyword wins; a category
// contributes at most one entry.
func detectTechnologies(text string) []domain.Technology {
	var out []domain.Technology
	for _, cat := range techCategories {
		for _, kw := range cat.keywords {
			if containsWholeWord(text, kw) {
				out = append(out, domain.Technology{Category: cat.name, Weight: cat.weight})
				break
			}
		}
	}
	return out
}

// classify picks the label whose keyword-overlap ratio is highest,
// falling back when no label clears the confidence floor. Ties go to
// the earlier table entry for determinism.
func classify[T ~string](text string, classes []classKeywords[T], fallback T) T {
	best := fallback
	bestRatio := 0.0
	for _, cl := range classes {
		matched := 0
		for _, kw := range cl.keywords {
			if containsWholeWord(text, kw) {
				matched++
			}
		}
		ratio := float64(matched) / float64(len(cl.keywords))
		if ratio > bestRatio {
			bestRatio = ratio
			best = cl.label
		}
	}
	if bestRatio < minClassConfidence {
		return fallback
	}
	return best
}

// complexity blends technical-term density, text length, and advanced
// vocabulary into [0,1].
func complexity(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	technical := 0
	for _, cat := range techCategories {
		for _, kw := range cat.keywords {
			if containsWholeWord(text, kw) {
				technical++
			}
		}
	}
	// Short queries saturate quickly, hence the 3x on raw density.
	density := 3 * float64(technical) / float64(len(tokens))
	if density > 1 {
		density = 1
	}

	length := float64(len(tokens)) / 200.0
	if length > 1 {
		length = 1
	}

	advanced := 0.0
	for _, term := range advancedVocabulary {
		if containsWholeWord(text, term) {
			advanced += 0.25
		}
	}
	if advanced > 1 {
		advanced = 1
	}

	score := 0.4*density + 0.3*length + 0.3*advanced
	if score > 1 {
		score = 1
	}
	return score
}

// keyConcepts returns the most frequent non-stopword tokens longer than
// three characters. Frequency ties break alphabetically so repeated
// extraction is deterministic.
func keyConcepts(text string) []string {
	freq := make(map[string]int)
	for _, tok := range tokenize(text) {
		if len(tok) < minConceptLen {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		freq[tok]++
	}

	concepts := make([]string, 0, len(freq))
	for tok := range freq {
		concepts = append(concepts, tok)
	}
	sort.Slice(concepts, func(i, j int) bool {
		if freq[concepts[i]] != freq[concepts[j]] {
			return freq[concepts[i]] > freq[concepts[j]]
		}
		return concepts[i] < concepts[j]
	})

	if len(concepts) > maxKeyConcepts {
		concepts = concepts[:maxKeyConcepts]
	}
	return concepts
}

func requirements(technologiesCSV string) []string {
	if strings.TrimSpace(technologiesCSV) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(technologiesCSV, ",") {
		if p := strings.TrimSpace(strings.ToLower(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(s)
}

// containsWholeWord reports whether kw occurs in text bounded by
// non-alphanumeric runes on both sides, so "java" never fires inside
// "javascript". kw may contain spaces or punctuation of its own.
func containsWholeWord(text, kw string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], kw)
		if idx < 0 {
			return false
		}
		idx += start

		leftOK := idx == 0 || !isWordRune(rune(text[idx-1]))
		end := idx + len(kw)
		rightOK := end == len(text) || !isWordRune(rune(text[end]))
		if leftOK && rightOK {
			return true
		}
		start = idx + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})
}
