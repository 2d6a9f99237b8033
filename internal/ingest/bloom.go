package ingest

import (
	"strings"
	"unicode"
)

// BloomClassification is the heuristic taxonomy result for one question.
type BloomClassification struct {
	Level      int
	Confidence float64
	Verb       string // matched keyword, empty when the default applied
}

// Default level when no verb matches. Most catalog questions sit at
// "understand", so the fallback lands there with low confidence.
const (
	defaultBloomLevel      = 2
	defaultBloomConfidence = 0.5
)

// bloomVerbs maps instruction verbs to Bloom levels 1..6.
var bloomVerbs = map[string]int{
	// 1 — remember
	"define": 1, "list": 1, "state": 1, "name": 1, "recall": 1,
	"identify": 1, "label": 1, "mention": 1, "what": 1,

	// 2 — understand
	"explain": 2, "describe": 2, "summarize": 2, "summarise": 2,
	"discuss": 2, "classify": 2, "illustrate": 2, "interpret": 2,
	"outline": 2, "why": 2,

	// 3 — apply
	"apply": 3, "solve": 3, "compute": 3, "calculate": 3, "demonstrate": 3,
	"implement": 3, "use": 3, "execute": 3, "determine": 3, "find": 3,

	// 4 — analyze
	"analyze": 4, "analyse": 4, "differentiate": 4, "compare": 4,
	"contrast": 4, "distinguish": 4, "examine": 4, "derive": 4,

	// 5 — evaluate
	"evaluate": 5, "justify": 5, "assess": 5, "critique": 5,
	"argue": 5, "validate": 5, "recommend": 5, "prove": 5,

	// 6 — create
	"design": 6, "construct": 6, "develop": 6, "create": 6,
	"formulate": 6, "propose": 6, "devise": 6, "build": 6,
}

// ClassifyBloom assigns a Bloom level from the first instruction verb in
// the question text. Verbs near the front of the question carry more weight
// than verbs buried mid-sentence.
func ClassifyBloom(text string) BloomClassification {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	for i, word := range words {
		level, ok := bloomVerbs[word]
		if !ok {
			continue
		}

		confidence := 0.9
		if i > 2 {
			confidence = 0.7
		}

		return BloomClassification{Level: level, Confidence: confidence, Verb: word}
	}

	return BloomClassification{Level: defaultBloomLevel, Confidence: defaultBloomConfidence}
}
