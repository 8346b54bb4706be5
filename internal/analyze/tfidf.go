package analyze

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// fallbackVector builds a fixed-length sparse vector from hashed term
// frequencies, L2-normalized. It stands in for the embedding provider
// when it is unavailable: useless across languages, but stable and
// cheap, and cosine similarity between two fallback vectors still
// tracks lexical overlap.
func fallbackVector(text string, dim int) []float32 {
	vec := make([]float32, dim)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) == 0 {
		return vec
	}

	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		if len(tok) < 2 {
			continue
		}
		counts[tok]++
	}

	for tok, n := range counts {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		idx := int(h.Sum32()) % dim
		if idx < 0 {
			idx += dim
		}
		// Log-damped term frequency; hashing collisions just add up.
		vec[idx] += float32(1 + math.Log(float64(n)))
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
