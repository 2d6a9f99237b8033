package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qpaperai/qpaper-api/internal/app/models"
)

func TestNormalizeTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			"stopwords and digits dropped",
			"Explain the working of a B+ tree with an example. [10 marks]",
			[]string{"explain", "working", "tree"},
		},
		{
			"numbers do not distinguish templates",
			"Solve for x = 5 using the quadratic formula",
			[]string{"solve", "quadratic", "formula"},
		},
		{
			"single letters dropped",
			"a b c explain",
			[]string{"explain"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTokens(tt.text))
		})
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want float64
	}{
		{"identical", []string{"x", "y"}, []string{"x", "y"}, 1},
		{"disjoint", []string{"x"}, []string{"y"}, 0},
		{"half overlap", []string{"x", "y"}, []string{"y", "z"}, 1.0 / 3.0},
		{"both empty", nil, nil, 0},
		{"one empty", []string{"x"}, nil, 0},
		{"duplicates collapse", []string{"x", "x", "y"}, []string{"x", "y"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Jaccard(tt.a, tt.b))
		})
	}
}

func TestBestMatch_ThresholdGate(t *testing.T) {
	candidates := []models.VariantCandidate{
		{ID: 1, Text: "Explain the two phase locking protocol with an example"},
		{ID: 2, Text: "Describe the architecture of a compiler"},
	}

	// Same template, one word swapped: comfortably above 0.82.
	match, score := BestMatch("Explain the two phase locking protocol with one example", candidates, 0.82)
	require.NotNil(t, match, "expected a match (score %v)", score)
	assert.Equal(t, int64(1), match.ID)
	assert.GreaterOrEqual(t, score, 0.82)

	// Related topic but different question: must not join the group.
	match, score = BestMatch("Explain deadlock detection in distributed systems", candidates, 0.82)
	assert.Nil(t, match, "no match expected below threshold (score %v)", score)
}

func TestBestMatch_ExactThresholdJoins(t *testing.T) {
	// Identical templates score 1.0, which is >= any threshold <= 1.
	candidates := []models.VariantCandidate{{ID: 7, Text: "Define normalization"}}
	match, score := BestMatch("Define normalization", candidates, 1.0)
	require.NotNil(t, match, "exact text must meet threshold 1.0 (score %v)", score)
	assert.Equal(t, int64(7), match.ID)
}

func TestBestMatch_PicksHighestScore(t *testing.T) {
	candidates := []models.VariantCandidate{
		{ID: 1, Text: "Explain paging"},
		{ID: 2, Text: "Explain paging and segmentation in memory management"},
	}

	match, _ := BestMatch("Explain paging and segmentation in memory management schemes", candidates, 0.5)
	require.NotNil(t, match)
	assert.Equal(t, int64(2), match.ID, "closest template wins")
}

func TestBestMatch_NoCandidates(t *testing.T) {
	match, score := BestMatch("anything at all", nil, 0.82)
	assert.Nil(t, match)
	assert.Zero(t, score)
}
