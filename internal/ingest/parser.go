package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedQuestion is one question recovered from extracted page text.
type ParsedQuestion struct {
	Number     int    // ordinal as printed on the paper
	Text       string
	Marks      int    // 0 when the paper printed no marks marker
	UnitNumber int    // 0 when no unit heading preceded the question
	Confidence float64
}

var (
	// "1.", "2)", "Q3.", "Q 4:" start a new top-level question.
	questionStartPattern = regexp.MustCompile(`^(?:Q\.?\s*)?(\d{1,2})\s*[\.\):]\s*`)

	// "(ii)", "(b)" start a sub-part, which the catalog treats as its own
	// question since papers reuse sub-parts across years independently.
	subPartPattern = regexp.MustCompile(`^\(([ivx]+|[a-z])\)\s*`)

	// "UNIT-III", "Unit 4:" headings scope the questions that follow.
	unitHeadingPattern = regexp.MustCompile(`(?i)^\s*UNIT\s*[-: ]\s*([IVXivx]+|\d{1,2})\b`)

	// "[10 marks]", "(5 M)", "[2m]" trailing markers carry the marks.
	marksPattern = regexp.MustCompile(`(?i)[\[\(]\s*(\d{1,2})\s*(?:marks?|m)\s*[\]\)]\s*$`)
)

// Minimum characters for a parsed question to count as real content rather
// than a stray header fragment.
const minQuestionLength = 12

// SplitQuestions walks extracted pages in order and recovers the individual
// questions. Unit headings update the unit applied to subsequent questions,
// including across page boundaries.
func SplitQuestions(pages []PageExtraction) []ParsedQuestion {
	questions := make([]ParsedQuestion, 0)

	currentUnit := 0
	var current *builderState

	flush := func() {
		if current == nil {
			return
		}
		if question, ok := current.finish(); ok {
			questions = append(questions, question)
		}
		current = nil
	}

	for _, page := range pages {
		for _, block := range page.Blocks {
			line := strings.TrimSpace(block.Text)
			if line == "" {
				continue
			}

			if match := unitHeadingPattern.FindStringSubmatch(line); match != nil {
				flush()
				currentUnit = parseOrdinal(match[1])
				continue
			}

			if match := questionStartPattern.FindStringSubmatch(line); match != nil {
				flush()
				number, _ := strconv.Atoi(match[1])
				current = newBuilderState(number, currentUnit)
				current.add(strings.TrimSpace(line[len(match[0]):]), block.Confidence)
				continue
			}

			if match := subPartPattern.FindStringSubmatch(line); match != nil {
				flush()
				current = newBuilderState(parseOrdinal(match[1]), currentUnit)
				current.add(strings.TrimSpace(line[len(match[0]):]), block.Confidence)
				continue
			}

			// Continuation line. Text before the first question start is
			// boilerplate (instructions, max marks) and is dropped.
			if current != nil {
				current.add(line, block.Confidence)
			}
		}
	}
	flush()

	return questions
}

type builderState struct {
	number      int
	unitNumber  int
	parts       []string
	confidences []float64
}

func newBuilderState(number, unitNumber int) *builderState {
	return &builderState{number: number, unitNumber: unitNumber}
}

func (b *builderState) add(text string, confidence float64) {
	if text == "" {
		return
	}
	b.parts = append(b.parts, text)
	b.confidences = append(b.confidences, confidence)
}

func (b *builderState) finish() (ParsedQuestion, bool) {
	text := strings.Join(b.parts, " ")

	marks := 0
	if match := marksPattern.FindStringSubmatch(text); match != nil {
		marks, _ = strconv.Atoi(match[1])
		text = strings.TrimSpace(marksPattern.ReplaceAllString(text, ""))
	}

	if len(text) < minQuestionLength {
		return ParsedQuestion{}, false
	}

	confidence := 0.0
	for _, c := range b.confidences {
		confidence += c
	}
	if len(b.confidences) > 0 {
		confidence /= float64(len(b.confidences))
	}

	return ParsedQuestion{
		Number:     b.number,
		Text:       text,
		Marks:      marks,
		UnitNumber: b.unitNumber,
		Confidence: confidence,
	}, true
}

// parseOrdinal reads a decimal ordinal ("3"), a roman numeral ("III", "iv"),
// or a single sub-part letter ("a" is 1, "b" is 2).
func parseOrdinal(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}

	s = strings.ToLower(s)

	values := map[byte]int{'i': 1, 'v': 5, 'x': 10}
	total := 0
	roman := len(s) > 0
	for i := 0; i < len(s); i++ {
		value, ok := values[s[i]]
		if !ok {
			roman = false
			break
		}
		if i+1 < len(s) && values[s[i+1]] > value {
			total -= value
		} else {
			total += value
		}
	}
	if roman {
		return total
	}

	if len(s) == 1 && s[0] >= 'a' && s[0] <= 'z' {
		return int(s[0]-'a') + 1
	}

	return 0
}
