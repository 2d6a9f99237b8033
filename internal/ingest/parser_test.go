package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageOf(lines ...string) PageExtraction {
	blocks := make([]Block, 0, len(lines))
	for _, line := range lines {
		blocks = append(blocks, Block{Text: line, Confidence: 0.95})
	}
	return PageExtraction{PageNumber: 1, Blocks: blocks}
}

func TestSplitQuestions_NumberedList(t *testing.T) {
	page := pageOf(
		"Answer any five of the following questions.",
		"1. Define normalization and explain its purpose. [5 marks]",
		"2) Explain the two phase locking protocol",
		"with a suitable example. [10 marks]",
		"Q3. Construct a B+ tree for the given key sequence. (8 M)",
	)

	questions := SplitQuestions([]PageExtraction{page})
	require.Len(t, questions, 3)

	assert.Equal(t, 1, questions[0].Number)
	assert.Equal(t, 5, questions[0].Marks)
	assert.Equal(t, "Define normalization and explain its purpose.", questions[0].Text)

	// Continuation line joined with a space, marks stripped from the tail.
	assert.Equal(t, "Explain the two phase locking protocol with a suitable example.", questions[1].Text)
	assert.Equal(t, 10, questions[1].Marks)

	assert.Equal(t, 3, questions[2].Number)
	assert.Equal(t, 8, questions[2].Marks)
}

func TestSplitQuestions_UnitHeadingsScopeQuestions(t *testing.T) {
	pages := []PageExtraction{
		pageOf(
			"UNIT-I",
			"1. Define a process control block and list its fields.",
			"UNIT - III",
			"2. Explain demand paging with a neat diagram.",
		),
		pageOf(
			// Unit scope carries across the page boundary.
			"3. Compare FIFO and LRU page replacement policies.",
			"Unit 4:",
			"4. Describe the structure of an inode.",
		),
	}

	questions := SplitQuestions(pages)
	require.Len(t, questions, 4)

	wantUnits := []int{1, 3, 3, 4}
	for i, want := range wantUnits {
		assert.Equal(t, want, questions[i].UnitNumber, "question %d unit", i+1)
	}
}

func TestSplitQuestions_SubPartsAreSeparateQuestions(t *testing.T) {
	page := pageOf(
		"5. Answer both parts of this question carefully.",
		"(a) Explain the difference between a hard link and a soft link.",
		"(ii) Describe how journaling protects file system metadata.",
	)

	questions := SplitQuestions([]PageExtraction{page})
	require.Len(t, questions, 3)
	assert.Equal(t, 1, questions[1].Number, "sub-part (a)")
	assert.Equal(t, 2, questions[2].Number, "sub-part (ii)")
}

func TestSplitQuestions_ShortFragmentsDropped(t *testing.T) {
	page := pageOf(
		"1. See below.",
		"2. Explain the readers writers problem using semaphores.",
	)

	questions := SplitQuestions([]PageExtraction{page})
	require.Len(t, questions, 1, "fragment under minimum length must be dropped")
	assert.Equal(t, 2, questions[0].Number)
}

func TestSplitQuestions_PreambleIgnored(t *testing.T) {
	page := pageOf(
		"Maximum marks: 100",
		"Time: three hours",
		"1. State and prove the halting problem is undecidable. [10 marks]",
	)

	questions := SplitQuestions([]PageExtraction{page})
	require.Len(t, questions, 1)
	assert.Equal(t, "State and prove the halting problem is undecidable.", questions[0].Text)
}

func TestSplitQuestions_ConfidenceAveraged(t *testing.T) {
	page := PageExtraction{PageNumber: 1, Blocks: []Block{
		{Text: "1. Explain the working of a translation lookaside buffer", Confidence: 1.0},
		{Text: "in a paged memory system.", Confidence: 0.5},
	}}

	questions := SplitQuestions([]PageExtraction{page})
	require.Len(t, questions, 1)
	assert.Equal(t, 0.75, questions[0].Confidence)
}

func TestParseOrdinal(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{"12", 12},
		{"I", 1},
		{"iv", 4},
		{"IX", 9},
		{"iii", 3},
		{"x", 10},
		{"a", 1},
		{"b", 2},
		{"ab", 0},
		{"", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseOrdinal(tt.in), "parseOrdinal(%q)", tt.in)
	}
}
