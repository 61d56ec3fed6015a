package reply

import (
	"strings"
	"testing"

	"sales-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []LabeledOption
	}{
		{
			name: "three options on separate lines",
			in:   "Response A: First.\nResponse B: Second.\nResponse C: Third.",
			want: []LabeledOption{{"A", "First."}, {"B", "Second."}, {"C", "Third."}},
		},
		{
			name: "case and spacing",
			in:   "intro text response a :  one\n\n two RESPONSE B:three",
			want: []LabeledOption{{"A", "one two"}, {"B", "three"}},
		},
		{
			name: "repeated label keeps first",
			in:   "Response A: one Response A: again",
			want: []LabeledOption{{"A", "one"}},
		},
		{
			name: "no markers",
			in:   "just text",
			want: []LabeledOption{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	options := QuotaFallback()
	text := Format(options)

	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Response A:"))
	assert.True(t, strings.HasPrefix(lines[1], "Response B:"))
	assert.True(t, strings.HasPrefix(lines[2], "Response C:"))
	assert.Equal(t, options, Parse(text))
}

func TestFromMatches(t *testing.T) {
	renew := &store.MatchResult{Answers: []store.AnswerOption{
		{Label: "A", Text: "Your data stays for 30 days."},
		{Label: "B", Text: "You can renew any time."},
		{Label: "C", Text: "We will remind you."},
	}}
	price := &store.MatchResult{Answers: []store.AnswerOption{
		{Label: "A", Text: "Premium is $49 a month."},
		{Label: "C", Text: "Annual billing saves 20%."},
	}}

	got := FromMatches([]*store.MatchResult{renew, nil, price})
	assert.Equal(t, []LabeledOption{
		{"A", "Your data stays for 30 days. Premium is $49 a month."},
		{"B", "You can renew any time."},
		{"C", "We will remind you. Annual billing saves 20%."},
	}, got)

	assert.Empty(t, FromMatches(nil))
}

func TestFirst(t *testing.T) {
	assert.Equal(t, "", First(nil))
	assert.Equal(t, "x", First([]LabeledOption{{"A", "x"}, {"B", "y"}}))
}
