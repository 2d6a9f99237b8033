package ingest

import (
	"strings"
	"unicode"

	"github.com/qpaperai/qpaper-api/internal/app/models"
)

// Stopwords dropped during normalization. Question phrasing varies in these
// words without changing what is being asked.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "with": {}, "and": {}, "or": {}, "is": {}, "are": {},
	"be": {}, "by": {}, "its": {}, "it": {}, "this": {}, "that": {},
	"any": {}, "each": {}, "between": {}, "using": {}, "given": {},
	"following": {}, "briefly": {}, "detail": {}, "suitable": {},
	"example": {}, "examples": {}, "marks": {},
}

// NormalizeTokens lowercases the text, strips punctuation and digits, and
// drops stopwords. Numbers go too: "solve for x = 5" and "solve for x = 7"
// are the same question template.
func NormalizeTokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) < 2 {
			continue
		}
		if _, skip := stopwords[field]; skip {
			continue
		}
		tokens = append(tokens, field)
	}

	return tokens
}

// Jaccard computes set similarity between two token slices: the size of the
// intersection over the size of the union. Two empty inputs score 0.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, token := range a {
		setA[token] = struct{}{}
	}

	setB := make(map[string]struct{}, len(b))
	for _, token := range b {
		setB[token] = struct{}{}
	}

	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// BestMatch finds the candidate most similar to text, provided its score
// reaches the threshold. Returns nil when nothing qualifies.
func BestMatch(text string, candidates []models.VariantCandidate, threshold float64) (*models.VariantCandidate, float64) {
	tokens := NormalizeTokens(text)

	var best *models.VariantCandidate
	bestScore := 0.0

	for i := range candidates {
		score := Jaccard(tokens, NormalizeTokens(candidates[i].Text))
		if score > bestScore {
			best = &candidates[i]
			bestScore = score
		}
	}

	if best == nil || bestScore < threshold {
		return nil, bestScore
	}

	return best, bestScore
}
