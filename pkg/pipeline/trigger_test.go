package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 29 words
const optionA = "Our premium plan gives your whole team unlimited seats, priority support, and advanced analytics, so you can scale without worrying about hidden costs or surprise overage fees this year."

type fireRecorder struct {
	texts []string
}

func (r *fireRecorder) fire(text string) {
	r.texts = append(r.texts, text)
}

func feedAll(tr *EarlySynthesisTrigger, deltas ...string) {
	for _, d := range deltas {
		tr.Feed(d)
	}
}

// words splits s into single-word deltas, keeping the spaces
func words(s string) []string {
	return strings.SplitAfter(s, " ")
}

func TestTrigger_CutsAtNextMarker(t *testing.T) {
	rec := &fireRecorder{}
	tr := NewEarlySynthesisTrigger(25, rec.fire)

	feedAll(tr, `{"responseText": "Response A: `+optionA+` Response B: Could you tell me more? Response C: Fair point.", "budget": ""}`)

	require.Len(t, rec.texts, 1)
	assert.Equal(t, optionA, rec.texts[0])
	assert.True(t, tr.Fired())
}

func TestTrigger_CutsAtClosingQuote(t *testing.T) {
	rec := &fireRecorder{}
	tr := NewEarlySynthesisTrigger(25, rec.fire)

	feedAll(tr, `{"responseText": "Response A: `+optionA+`", "budget": "a lot of money over the next few years"}`)

	require.Len(t, rec.texts, 1)
	assert.Equal(t, optionA, rec.texts[0])
}

func TestTrigger_StreamedWordByWord(t *testing.T) {
	rec := &fireRecorder{}
	tr := NewEarlySynthesisTrigger(25, rec.fire)

	payload := `{"responseText": "Resp` + `onse A:\n` + optionA + ` It only takes a day to set up. Response B: What matters most? Response C: I hear you."}`
	feedAll(tr, words(payload)...)

	require.Len(t, rec.texts, 1)
	// fired before Response B arrived, trimmed to the last full sentence
	assert.Equal(t, optionA, rec.texts[0])
	assert.Equal(t, payload, tr.Text())
}

func TestTrigger_FiresOnce(t *testing.T) {
	rec := &fireRecorder{}
	tr := NewEarlySynthesisTrigger(25, rec.fire)

	assert.True(t, tr.Feed("Response A: "+optionA+" Response B: x"))
	assert.False(t, tr.Feed(" Response A: "+optionA+" Response B: y"))
	assert.False(t, tr.Feed(" Response A: "+optionA))

	assert.Len(t, rec.texts, 1)
}

func TestTrigger_DoesNotFire(t *testing.T) {
	tests := []struct {
		name   string
		deltas []string
	}{
		{name: "no marker", deltas: []string{optionA, " ", optionA}},
		{name: "too few words", deltas: []string{"Response A: Happy to help. Response B: Sure."}},
		{name: "no sentence end yet", deltas: []string{"Response A: " + strings.TrimSuffix(optionA, ".")}},
		{name: "references a later option", deltas: []string{"Response A: " + optionA + " As mentioned in Response B we also offer onboarding."}},
		{name: "starts at a later option", deltas: []string{"Response B: " + optionA}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fireRecorder{}
			tr := NewEarlySynthesisTrigger(25, rec.fire)
			feedAll(tr, tt.deltas...)
			assert.Empty(t, rec.texts)
			assert.False(t, tr.Fired())
		})
	}
}

func TestTrigger_LatchesFirstMarker(t *testing.T) {
	rec := &fireRecorder{}
	tr := NewEarlySynthesisTrigger(5, rec.fire)

	tr.Feed("response a: one two three. ")
	tr.Feed("Response A: four five six seven eight.")

	require.Len(t, rec.texts, 1)
	assert.Equal(t, "one two three.", rec.texts[0])
}

func TestTrigger_UnescapesJSON(t *testing.T) {
	rec := &fireRecorder{}
	tr := NewEarlySynthesisTrigger(3, rec.fire)

	tr.Feed(`"Response A: We call it \"Pro\".\nIt is fast.", `)

	require.Len(t, rec.texts, 1)
	assert.Equal(t, `We call it "Pro". It is fast.`, rec.texts[0])
}
