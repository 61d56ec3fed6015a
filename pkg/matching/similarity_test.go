package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorer_Score(t *testing.T) {
	s := NewScorer(DefaultTables())

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "empty", a: "", b: "what is your price", want: 0},
		{name: "length ratio too small", a: "price", b: "what is your price for the premium package", want: 0},
		{name: "no shared tokens", a: "refund policy details", b: "install the agent today", want: 0},
		{name: "containment without shared tokens", a: "price", b: "priceless", want: 0.3},
		{name: "unified surface forms", a: "competitors pricing", b: "competitor price", want: 1},
		{name: "order bonus only", a: "premium package cost", b: "what is the premium package price", want: 0.7},
		{name: "no bonus", a: "premium package cost", b: "what is the price of the premium package", want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Score(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScorer_Identity(t *testing.T) {
	s := NewScorer(DefaultTables())
	for _, q := range []string{
		"what is your price",
		"can you integrate with salesforce",
		"what happens if i do not renew",
	} {
		assert.Equal(t, 1.0, s.Score(q, q), q)
	}
}

func TestScorer_Symmetric(t *testing.T) {
	s := NewScorer(DefaultTables())
	pairs := [][2]string{
		{"what is your pricing", "what is your pricing for the premium package"},
		{"premium package cost", "what is the premium package price"},
		{"annual billing discount options", "do you offer discounts for annual billing"},
		{"price", "priceless"},
	}
	for _, p := range pairs {
		assert.Equal(t, s.Score(p[0], p[1]), s.Score(p[1], p[0]), p[0])
	}
}

func TestScorer_BoundedAndDeterministic(t *testing.T) {
	s := NewScorer(DefaultTables())
	a, b := "what is your pricing", "what is your pricing for the premium package"
	first := s.Score(a, b)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Score(a, b))
	}
	assert.GreaterOrEqual(t, first, 0.0)
	assert.LessOrEqual(t, first, 1.0)
}

// Contraction query against a longer corpus phrasing: one shared token out of
// three (1/3), first-position order bonus (0.1) and containment (0.2).
func TestScorer_ContractionAgainstLongerPhrasing(t *testing.T) {
	s := NewScorer(DefaultTables())
	query := Normalize("what's your pricing")
	candidate := Normalize("What is your pricing for the premium package?")

	score := s.Score(query, candidate)

	assert.InDelta(t, 1.0/3.0+0.1+0.2, score, 1e-9)
	assert.Greater(t, score, 0.3)
	assert.GreaterOrEqual(t, score, DefaultConfig().Thresholds.Partial)
}

func TestScorer_SignificantWords(t *testing.T) {
	s := NewScorer(DefaultTables())
	assert.Equal(t, []string{"pricing", "premium", "package"},
		s.SignificantWords("what is your pricing for the premium package pricing"))
	assert.Empty(t, s.SignificantWords("what is it"))
	assert.Equal(t, TablesVersion, s.TablesVersion())
}
