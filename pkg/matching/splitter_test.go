package matching

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "short input is returned trimmed",
			in:   "  What is the price?  ",
			want: []string{"What is the price?"},
		},
		{
			name: "comma and question word",
			in:   "What happens if I don't renew, and how much does the premium plan cost?",
			want: []string{"What happens if I don't renew", "how much does the premium plan cost?"},
		},
		{
			name: "sentence punctuation then capital",
			in:   "What is the price? How long is the contract term?",
			want: []string{"What is the price?", "How long is the contract term?"},
		},
		{
			name: "semicolon",
			in:   "Tell me about onboarding support; what integrations do you offer",
			want: []string{"Tell me about onboarding support", "what integrations do you offer"},
		},
		{
			name: "question word extraction",
			in:   "I was wondering what is the monthly cost. also why is setup so slow",
			want: []string{"what is the monthly cost.", "why is setup so slow"},
		},
		{
			name: "single long question is kept whole",
			in:   "Could you walk me through the onboarding timeline for enterprise accounts?",
			want: []string{"Could you walk me through the onboarding timeline for enterprise accounts?"},
		},
		{
			name: "fragments too short to be questions",
			in:   "Yes. No. Maybe. Perhaps later then ok",
			want: []string{"Yes. No. Maybe. Perhaps later then ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.in))
		})
	}
}

func TestSplit_NeverEmpty(t *testing.T) {
	inputs := []string{
		"",
		"hi",
		"What happens if I don't renew, and how much does the premium plan cost?",
		strings.Repeat("word ", 40),
	}
	for _, in := range inputs {
		out := Split(in)
		require.NotEmpty(t, out, in)
		if utf8.RuneCountInString(strings.TrimSpace(in)) < minSplitLength {
			assert.Equal(t, []string{strings.TrimSpace(in)}, out)
		}
	}
}

func TestSplit_PreservesOrder(t *testing.T) {
	out := Split("How do refunds work? What is the cancellation window? Who handles billing disputes?")
	require.Len(t, out, 3)
	assert.True(t, strings.HasPrefix(out[0], "How"))
	assert.True(t, strings.HasPrefix(out[1], "What"))
	assert.True(t, strings.HasPrefix(out[2], "Who"))
}
