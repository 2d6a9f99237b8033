package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyBloom_VerbMapping(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantLevel int
		wantVerb  string
	}{
		{"define is remember", "Define normalization with respect to 2NF.", 1, "define"},
		{"list is remember", "List the ACID properties of a transaction.", 1, "list"},
		{"explain is understand", "Explain the two phase locking protocol.", 2, "explain"},
		{"describe is understand", "Describe the working of a B+ tree index.", 2, "describe"},
		{"solve is apply", "Solve the following relational algebra expression.", 3, "solve"},
		{"calculate is apply", "Calculate the number of page faults for FIFO.", 3, "calculate"},
		{"compare is analyze", "Compare optimistic and pessimistic concurrency control.", 4, "compare"},
		{"differentiate is analyze", "Differentiate between process and thread.", 4, "differentiate"},
		{"justify is evaluate", "Justify the use of indexing for range queries.", 5, "justify"},
		{"evaluate is evaluate", "Evaluate the trade-offs of denormalization.", 5, "evaluate"},
		{"design is create", "Design an ER diagram for a hospital system.", 6, "design"},
		{"construct is create", "Construct a DFA accepting strings ending in 01.", 6, "construct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyBloom(tt.text)
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantVerb, got.Verb)
		})
	}
}

func TestClassifyBloom_NoVerbFallsBack(t *testing.T) {
	got := ClassifyBloom("Short notes on two phase commit.")
	assert.Equal(t, defaultBloomLevel, got.Level)
	assert.Equal(t, defaultBloomConfidence, got.Confidence)
	assert.Empty(t, got.Verb)
}

func TestClassifyBloom_LeadingVerbScoresHigher(t *testing.T) {
	front := ClassifyBloom("Explain the difference between paging and segmentation.")
	assert.Equal(t, 0.9, front.Confidence)

	buried := ClassifyBloom("With the help of a neat diagram explain virtual memory.")
	assert.Equal(t, 2, buried.Level)
	assert.Equal(t, 0.7, buried.Confidence)
}

func TestClassifyBloom_CaseAndPunctuation(t *testing.T) {
	got := ClassifyBloom("DEFINE: deadlock, with an example.")
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, "define", got.Verb)
}
