package enrichment

import (
	"context"
	"errors"
	"testing"

	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/pkg/llm"
	"sales-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	reply   string
	err     error
	calls   int
	history []llm.Message
}

func (s *stubProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	s.calls++
	s.history = history
	return s.reply, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (s *stubProvider) ChatStream(context.Context, []llm.Message, ...llm.Option) (<-chan llm.StreamEvent, error) {
	return nil, errors.New("not streaming")
}

func TestSentimentAnalyzer(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		err     error
		want    *store.Sentiment
		wantErr error
	}{
		{name: "plain json", reply: `{"label":"positive","score":0.92}`, want: &store.Sentiment{Label: "positive", Score: 0.92}},
		{name: "fenced upper case", reply: "```json\n{\"label\":\"NEGATIVE\",\"score\":0.6}\n```", want: &store.Sentiment{Label: "negative", Score: 0.6}},
		{name: "unknown label", reply: `{"label":"angry"}`, wantErr: llm.ErrMalformedOutput},
		{name: "prose only", reply: "The customer seems happy.", wantErr: llm.ErrMalformedOutput},
		{name: "quota", err: llm.ErrQuotaExceeded, wantErr: llm.ErrQuotaExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProvider{reply: tt.reply, err: tt.err}
			got, err := NewSentimentAnalyzer(p, logger.NewNopLogger()).Analyze(context.Background(), "this looks great")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSentimentAnalyzer_EmptyText(t *testing.T) {
	p := &stubProvider{}
	_, err := NewSentimentAnalyzer(p, logger.NewNopLogger()).Analyze(context.Background(), "  ")
	assert.Error(t, err)
	assert.Zero(t, p.calls)
}

func TestHighlightExtractor(t *testing.T) {
	p := &stubProvider{reply: `Sure! {"budget":" $5k per month ","timeline":"Q3","objections":"","importantInfo":"uses Salesforce"}`}
	got, err := NewHighlightExtractor(p, logger.NewNopLogger()).Extract(context.Background(), "we have about 5k a month, want to start in Q3")
	require.NoError(t, err)
	assert.Equal(t, store.KeyHighlights{Budget: "$5k per month", Timeline: "Q3", ImportantInfo: "uses Salesforce"}, got)

	require.Len(t, p.history, 2)
	assert.Equal(t, llm.RoleSystem, p.history[0].Role)
}

func TestHighlightExtractor_Failures(t *testing.T) {
	_, err := NewHighlightExtractor(&stubProvider{reply: `{"budget": 5000}`}, logger.NewNopLogger()).Extract(context.Background(), "5000")
	assert.ErrorIs(t, err, llm.ErrMalformedOutput)

	got, err := NewHighlightExtractor(&stubProvider{}, logger.NewNopLogger()).Extract(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestTranslator(t *testing.T) {
	p := &stubProvider{reply: "Response A: Namaste"}
	tr := NewTranslator(p, logger.NewNopLogger())

	out, err := tr.Translate(context.Background(), "Response A: Hello", "en-US")
	require.NoError(t, err)
	assert.Equal(t, "Response A: Hello", out)
	assert.Zero(t, p.calls)

	out, err = tr.Translate(context.Background(), "Response A: Hello", "hi-IN")
	require.NoError(t, err)
	assert.Equal(t, "Response A: Namaste", out)
	assert.Equal(t, 1, p.calls)

	_, err = NewTranslator(&stubProvider{}, logger.NewNopLogger()).Translate(context.Background(), "x", "hi")
	assert.Error(t, err)
}
