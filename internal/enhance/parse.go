package enhance

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// extractJSON locates the first balanced JSON object or array inside a
// provider response that may wrap it in prose or code fences. Returns
// domain.ErrMalformedResponse when nothing parseable is found.
func extractJSON(text string) ([]byte, error) {
	text = stripFences(text)

	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return nil, fmt.Errorf("no JSON in response: %w", domain.ErrMalformedResponse)
	}

	open := text[start]
	closing := byte(']')
	if open == '{' {
		closing = '}'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == closing:
			depth--
			if depth == 0 {
				return []byte(text[start : i+1]), nil
			}
		}
	}
	return nil, fmt.Errorf("unbalanced JSON in response: %w", domain.ErrMalformedResponse)
}

func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	return strings.ReplaceAll(text, "```", "")
}

// parseInsights decodes the response into per-candidate insights. A
// bare object is treated as a single-element batch. Out-of-range
// indexes are dropped, not errors.
func parseInsights(text string, batchSize int) ([]domain.ParsedInsight, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var insights []domain.ParsedInsight
	if err := json.Unmarshal(raw, &insights); err != nil {
		var single domain.ParsedInsight
		if err2 := json.Unmarshal(raw, &single); err2 != nil {
			return nil, fmt.Errorf("decode insights: %w", domain.ErrMalformedResponse)
		}
		insights = []domain.ParsedInsight{single}
	}

	kept := insights[:0]
	for _, in := range insights {
		if in.Index < 0 || in.Index >= batchSize {
			continue
		}
		if in.Relevance != nil {
			r := clamp01(*in.Relevance)
			in.Relevance = &r
		}
		kept = append(kept, in)
	}
	return kept, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
