package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sales-assistant-be/internal/entity"
	"sales-assistant-be/pkg/llm"
	"sales-assistant-be/pkg/matching"
	"sales-assistant-be/pkg/reply"
	"sales-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMatcher struct {
	results map[string]*store.MatchResult
	delay   time.Duration
	calls   atomic.Int32
}

func (m *fakeMatcher) Match(ctx context.Context, q string) (*store.MatchResult, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.results[q].Clone(), nil
}

type fakeLLM struct {
	deltas      []string
	streamErr   error
	setupErr    error
	streamCalls atomic.Int32
	chatCalls   atomic.Int32
	history     []llm.Message
}

func (f *fakeLLM) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	f.chatCalls.Add(1)
	return "", errors.New("unexpected single-shot call")
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, nil, opts...)
}

func (f *fakeLLM) ChatStream(_ context.Context, history []llm.Message, _ ...llm.Option) (<-chan llm.StreamEvent, error) {
	f.streamCalls.Add(1)
	f.history = history
	if f.setupErr != nil {
		return nil, f.setupErr
	}
	ch := make(chan llm.StreamEvent)
	go func() {
		defer close(ch)
		for _, d := range f.deltas {
			ch <- llm.StreamEvent{Delta: d}
		}
		if f.streamErr != nil {
			ch <- llm.StreamEvent{Err: f.streamErr}
		}
	}()
	return ch, nil
}

type fakeTTS struct {
	mu      sync.Mutex
	texts   []string
	delay   time.Duration
	err     error
	explode bool
}

func (f *fakeTTS) Synthesize(_ context.Context, text, _, _ string) ([]byte, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.explode {
		panic("synthesizer exploded")
	}
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("audio:" + text), nil
}

func (f *fakeTTS) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type fakeSentiment struct {
	delay time.Duration
}

func (f *fakeSentiment) Analyze(context.Context, string) (*store.Sentiment, error) {
	time.Sleep(f.delay)
	return &store.Sentiment{Label: "positive", Score: 0.9}, nil
}

type fakeHighlights struct {
	h     store.KeyHighlights
	err   error
	delay time.Duration
}

func (f *fakeHighlights) Extract(context.Context, string) (store.KeyHighlights, error) {
	time.Sleep(f.delay)
	return f.h, f.err
}

type fakeTranslator struct {
	out string
	err error
}

func (f *fakeTranslator) Translate(context.Context, string, string) (string, error) {
	return f.out, f.err
}

type chanSink struct {
	ch chan store.CallInsight
}

func (s *chanSink) Enqueue(insight store.CallInsight) {
	s.ch <- insight
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DBGrace = 200 * time.Millisecond
	cfg.EarlyAudioGrace = 500 * time.Millisecond
	cfg.SentimentWait = 100 * time.Millisecond
	cfg.HighlightGrace = 100 * time.Millisecond
	cfg.InsightWait = time.Second
	return cfg
}

func corpusHit(prefix string) *store.MatchResult {
	return &store.MatchResult{
		MatchedQuestion: prefix + "?",
		Category:        "Pricing",
		Similarity:      1,
		Tier:            store.TierExact,
		Answers: []store.AnswerOption{
			{Label: "A", Text: prefix + " A."},
			{Label: "B", Text: prefix + " B."},
			{Label: "C", Text: prefix + " C."},
		},
	}
}

const (
	optionB = "What matters most to your team right now?"
	optionC = "I understand the concern about cost."
)

func generativePayload() string {
	return `{"responseText": "Response A: ` + optionA + ` Response B: ` + optionB + ` Response C: ` + optionC + `", "budget": "$5k a month", "timeline": "", "objections": "", "importantInfo": ""}`
}

func TestProcess_DatabaseHitSkipsModel(t *testing.T) {
	model := &fakeLLM{deltas: words(generativePayload())}
	synth := &fakeTTS{}
	o := NewOrchestrator(Dependencies{
		Matcher:     &fakeMatcher{results: map[string]*store.MatchResult{"What is your pricing?": corpusHit("pricing")}},
		LLM:         model,
		Synthesizer: synth,
		Sentiment:   &fakeSentiment{},
	}, testConfig(), nil)

	res, err := o.Process(context.Background(), &Request{Transcript: "  What is your pricing?  "})
	require.NoError(t, err)

	assert.Zero(t, model.streamCalls.Load())
	assert.Zero(t, model.chatCalls.Load())
	assert.Equal(t, "Response A: pricing A.\nResponse B: pricing B.\nResponse C: pricing C.", res.ResponseText)
	assert.Equal(t, store.SourceDatabase, res.Metadata.Source)
	assert.Equal(t, store.ModeSales, res.Metadata.Mode)
	assert.NotEmpty(t, res.Metadata.RequestID)
	require.Len(t, res.Metadata.Matches, 1)
	assert.Equal(t, store.TierExact, res.Metadata.Matches[0].Tier)

	require.NotNil(t, res.Audio)
	assert.Equal(t, []byte("audio:pricing A."), res.Audio.Data)
	assert.False(t, res.Audio.Early)
	assert.Equal(t, []string{"pricing A."}, synth.calls())

	require.NotNil(t, res.Sentiment)
	assert.Equal(t, "positive", res.Sentiment.Label)
}

func TestProcess_MultipleQuestions(t *testing.T) {
	o := NewOrchestrator(Dependencies{
		Matcher: &fakeMatcher{results: map[string]*store.MatchResult{
			"What happens if I don't renew":        corpusHit("renew"),
			"how much does the premium plan cost?": corpusHit("cost"),
		}},
		LLM: &fakeLLM{},
	}, testConfig(), nil)

	res, err := o.Process(context.Background(), &Request{
		Transcript: "What happens if I don't renew, and how much does the premium plan cost?",
	})
	require.NoError(t, err)

	assert.Len(t, res.Metadata.Questions, 2)
	assert.Len(t, res.Metadata.Matches, 2)
	assert.Equal(t, []reply.LabeledOption{
		{Label: "A", Text: "renew A. cost A."},
		{Label: "B", Text: "renew B. cost B."},
		{Label: "C", Text: "renew C. cost C."},
	}, res.Options)
	assert.Nil(t, res.Audio)
}

func TestProcess_QuotaFallback(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeLLM
	}{
		{name: "rejected at setup", model: &fakeLLM{setupErr: &llm.HTTPStatusError{Provider: "openai", StatusCode: 429, Message: "Rate limit reached"}}},
		{name: "failed mid stream", model: &fakeLLM{deltas: []string{`{"responseText": "Resp`}, streamErr: llm.ErrQuotaExceeded}},
		{name: "failed after early synthesis fired", model: &fakeLLM{
			deltas:    words(`{"responseText": "Response A: ` + optionA + ` Response B: more`),
			streamErr: llm.ErrQuotaExceeded,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth := &fakeTTS{}
			o := NewOrchestrator(Dependencies{Matcher: &fakeMatcher{}, LLM: tt.model, Synthesizer: synth}, testConfig(), nil)

			res, err := o.Process(context.Background(), &Request{Transcript: "Can you beat your competitor's price?"})
			require.NoError(t, err)

			lines := strings.Split(res.ResponseText, "\n")
			require.Len(t, lines, 3)
			assert.True(t, strings.HasPrefix(lines[0], "Response A:"))
			assert.True(t, strings.HasPrefix(lines[1], "Response B:"))
			assert.True(t, strings.HasPrefix(lines[2], "Response C:"))
			assert.Len(t, reply.Parse(res.ResponseText), 3)
			assert.Equal(t, store.SourceFallback, res.Metadata.Source)

			require.NotNil(t, res.Audio)
			assert.False(t, res.Audio.Early)
			assert.False(t, res.Metadata.EarlyAudio)
			assert.Equal(t, []byte("audio:"+reply.First(reply.QuotaFallback())), res.Audio.Data)
		})
	}
}

func TestProcess_GenerativeFailures(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeLLM
	}{
		{name: "setup error", model: &fakeLLM{setupErr: errors.New("connection refused")}},
		{name: "server error", model: &fakeLLM{setupErr: &llm.HTTPStatusError{Provider: "openai", StatusCode: 500, Message: "internal"}}},
		{name: "stream error", model: &fakeLLM{deltas: []string{"{"}, streamErr: errors.New("reset by peer")}},
		{name: "no structured payload", model: &fakeLLM{deltas: words("Response A: " + optionA + " Response B: ok")}},
		{name: "empty stream", model: &fakeLLM{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth := &fakeTTS{}
			o := NewOrchestrator(Dependencies{Matcher: &fakeMatcher{}, LLM: tt.model, Synthesizer: synth}, testConfig(), nil)

			res, err := o.Process(context.Background(), &Request{Transcript: "Tell me about onboarding"})
			require.NoError(t, err)
			assert.Equal(t, reply.FailureText, res.ResponseText)
			assert.Equal(t, store.SourceFailure, res.Metadata.Source)
			assert.Nil(t, res.Options)
			assert.Nil(t, res.Audio)
		})
	}
}

func TestProcess_GenerativeWithEarlyAudio(t *testing.T) {
	model := &fakeLLM{deltas: words(generativePayload())}
	synth := &fakeTTS{}
	o := NewOrchestrator(Dependencies{Matcher: &fakeMatcher{}, LLM: model, Synthesizer: synth}, testConfig(), nil)

	res, err := o.Process(context.Background(), &Request{
		Transcript: "We are comparing a few vendors",
		History:    []store.Exchange{{UserInput: "Hello", PriorResponse: "Hi, thanks for joining"}, {}},
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), model.streamCalls.Load())
	assert.Equal(t, store.SourceGenerative, res.Metadata.Source)
	assert.Equal(t, []reply.LabeledOption{
		{Label: "A", Text: optionA},
		{Label: "B", Text: optionB},
		{Label: "C", Text: optionC},
	}, res.Options)
	assert.Equal(t, "$5k a month", res.KeyHighlights.Budget)

	require.NotNil(t, res.Audio)
	assert.True(t, res.Audio.Early)
	assert.True(t, res.Metadata.EarlyAudio)
	assert.Equal(t, []string{optionA}, synth.calls())

	require.Len(t, model.history, 2)
	assert.Equal(t, llm.RoleSystem, model.history[0].Role)
	assert.Contains(t, model.history[1].Content, "Customer: Hello")
	assert.Contains(t, model.history[1].Content, "We are comparing a few vendors")
}

func TestProcess_SlowEarlyAudioFallsBackToFullSynthesis(t *testing.T) {
	cfg := testConfig()
	cfg.EarlyAudioGrace = 10 * time.Millisecond
	synth := &fakeTTS{delay: 150 * time.Millisecond}
	o := NewOrchestrator(Dependencies{
		Matcher:     &fakeMatcher{},
		LLM:         &fakeLLM{deltas: words(generativePayload())},
		Synthesizer: synth,
	}, cfg, nil)

	res, err := o.Process(context.Background(), &Request{Transcript: "We are comparing a few vendors"})
	require.NoError(t, err)

	require.NotNil(t, res.Audio)
	assert.False(t, res.Audio.Early)
	assert.Equal(t, []byte("audio:"+optionA), res.Audio.Data)
	assert.Len(t, synth.calls(), 2)
}

func TestProcess_SynthesisFailureMeansNoAudio(t *testing.T) {
	o := NewOrchestrator(Dependencies{
		Matcher:     &fakeMatcher{results: map[string]*store.MatchResult{"What is your pricing?": corpusHit("pricing")}},
		LLM:         &fakeLLM{},
		Synthesizer: &fakeTTS{err: errors.New("throttled")},
	}, testConfig(), nil)

	res, err := o.Process(context.Background(), &Request{Transcript: "What is your pricing?"})
	require.NoError(t, err)
	assert.Nil(t, res.Audio)
	assert.NotEmpty(t, res.ResponseText)
}

func TestProcess_SlowDatabaseIsDiscarded(t *testing.T) {
	cfg := testConfig()
	cfg.DBGrace = 20 * time.Millisecond
	model := &fakeLLM{deltas: words(generativePayload())}
	o := NewOrchestrator(Dependencies{
		Matcher: &fakeMatcher{
			delay:   300 * time.Millisecond,
			results: map[string]*store.MatchResult{"What is your pricing?": corpusHit("pricing")},
		},
		LLM: model,
	}, cfg, nil)

	res, err := o.Process(context.Background(), &Request{Transcript: "What is your pricing?"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), model.streamCalls.Load())
	assert.Equal(t, store.SourceGenerative, res.Metadata.Source)
	assert.Empty(t, res.Metadata.Matches)
}

func TestProcess_Enrichments(t *testing.T) {
	cfg := testConfig()
	cfg.SentimentWait = 10 * time.Millisecond
	hit := map[string]*store.MatchResult{"What is your pricing?": corpusHit("pricing")}

	t.Run("slow sentiment is omitted", func(t *testing.T) {
		o := NewOrchestrator(Dependencies{
			Matcher:   &fakeMatcher{results: hit},
			LLM:       &fakeLLM{},
			Sentiment: &fakeSentiment{delay: 300 * time.Millisecond},
		}, cfg, nil)
		res, err := o.Process(context.Background(), &Request{Transcript: "What is your pricing?"})
		require.NoError(t, err)
		assert.Nil(t, res.Sentiment)
	})

	t.Run("highlight failure leaves an empty object", func(t *testing.T) {
		o := NewOrchestrator(Dependencies{
			Matcher:    &fakeMatcher{results: hit},
			LLM:        &fakeLLM{},
			Highlights: &fakeHighlights{err: errors.New("model down")},
		}, cfg, nil)
		res, err := o.Process(context.Background(), &Request{Transcript: "What is your pricing?"})
		require.NoError(t, err)

		raw, err := json.Marshal(res.KeyHighlights)
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(raw))
	})

	t.Run("ready highlights are merged", func(t *testing.T) {
		o := NewOrchestrator(Dependencies{
			Matcher:    &fakeMatcher{results: hit},
			LLM:        &fakeLLM{},
			Highlights: &fakeHighlights{h: store.KeyHighlights{Timeline: "next quarter"}},
		}, cfg, nil)
		res, err := o.Process(context.Background(), &Request{Transcript: "What is your pricing?"})
		require.NoError(t, err)
		assert.Equal(t, "next quarter", res.KeyHighlights.Timeline)
	})
}

func TestProcess_Translation(t *testing.T) {
	hit := map[string]*store.MatchResult{"What is your pricing?": corpusHit("pricing")}

	o := NewOrchestrator(Dependencies{
		Matcher:    &fakeMatcher{results: hit},
		LLM:        &fakeLLM{},
		Translator: &fakeTranslator{out: "Response A: ek\nResponse B: do\nResponse C: teen"},
	}, testConfig(), nil)
	res, err := o.Process(context.Background(), &Request{Transcript: "What is your pricing?", Language: "hi-IN"})
	require.NoError(t, err)
	assert.True(t, res.Metadata.Translated)
	assert.Equal(t, "ek", res.Options[0].Text)

	o = NewOrchestrator(Dependencies{
		Matcher:    &fakeMatcher{results: hit},
		LLM:        &fakeLLM{},
		Translator: &fakeTranslator{err: errors.New("timeout")},
	}, testConfig(), nil)
	res, err = o.Process(context.Background(), &Request{Transcript: "What is your pricing?", Language: "hi-IN"})
	require.NoError(t, err)
	assert.False(t, res.Metadata.Translated)
	assert.Equal(t, "pricing A.", res.Options[0].Text)
}

func TestProcess_InsightPublishedAfterResponse(t *testing.T) {
	cfg := testConfig()
	cfg.HighlightGrace = 0
	sink := &chanSink{ch: make(chan store.CallInsight, 1)}
	o := NewOrchestrator(Dependencies{
		Matcher:    &fakeMatcher{results: map[string]*store.MatchResult{"What is your pricing?": corpusHit("pricing")}},
		LLM:        &fakeLLM{},
		Highlights: &fakeHighlights{h: store.KeyHighlights{Budget: "10k"}, delay: 50 * time.Millisecond},
		Sink:       sink,
	}, cfg, nil)

	res, err := o.Process(context.Background(), &Request{RequestID: "req-1", Transcript: "What is your pricing?"})
	require.NoError(t, err)
	assert.True(t, res.KeyHighlights.IsEmpty())

	select {
	case insight := <-sink.ch:
		assert.Equal(t, "req-1", insight.RequestID)
		assert.Equal(t, "10k", insight.KeyHighlights.Budget)
	case <-time.After(2 * time.Second):
		t.Fatal("insight was never published")
	}
}

func TestProcess_PanicBecomesPipelineFailure(t *testing.T) {
	o := NewOrchestrator(Dependencies{
		Matcher:     &fakeMatcher{results: map[string]*store.MatchResult{"What is your pricing?": corpusHit("pricing")}},
		LLM:         &fakeLLM{},
		Synthesizer: &fakeTTS{explode: true},
	}, testConfig(), nil)

	res, err := o.Process(context.Background(), &Request{Transcript: "What is your pricing?"})
	assert.ErrorIs(t, err, ErrPipelineFailure)
	assert.Nil(t, res)
}

func TestProcess_InvalidRequest(t *testing.T) {
	o := NewOrchestrator(Dependencies{Matcher: &fakeMatcher{}, LLM: &fakeLLM{}}, testConfig(), nil)

	_, err := o.Process(context.Background(), &Request{Transcript: "   "})
	assert.ErrorIs(t, err, ErrEmptyTranscript)

	_, err = o.Process(context.Background(), &Request{Transcript: "hello there", Mode: "retail"})
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestProcess_WithCorpusMatcher(t *testing.T) {
	records := []*entity.QuestionRecord{{
		Category: "Pricing",
		Questions: []entity.QuestionEntry{{
			Text: "What is your pricing for the premium package?",
			Answers: []store.AnswerOption{
				{Label: "A", Text: "Premium is 49 dollars."},
				{Label: "B", Text: "Which features matter most?"},
				{Label: "C", Text: "Annual billing saves more."},
			},
		}},
	}}
	matcher := matching.NewMatcher(matching.NewMemoryCorpus(records), nil, nil, matching.DefaultConfig(), nil)

	t.Run("corpus question answered from the corpus", func(t *testing.T) {
		model := &fakeLLM{}
		o := NewOrchestrator(Dependencies{Matcher: matcher, LLM: model}, testConfig(), nil)
		res, err := o.Process(context.Background(), &Request{Transcript: "What is your pricing for the premium package?"})
		require.NoError(t, err)
		assert.Zero(t, model.streamCalls.Load())
		assert.Equal(t, "Premium is 49 dollars.", res.Options[0].Text)
	})

	t.Run("greeting never uses a corpus answer", func(t *testing.T) {
		model := &fakeLLM{deltas: words(generativePayload())}
		o := NewOrchestrator(Dependencies{Matcher: matcher, LLM: model}, testConfig(), nil)
		res, err := o.Process(context.Background(), &Request{Transcript: "Hi, how are you?", Mode: "support"})
		require.NoError(t, err)
		assert.Empty(t, res.Metadata.Matches)
		assert.Equal(t, int32(1), model.streamCalls.Load())
		assert.Equal(t, store.ModeSupport, res.Metadata.Mode)
	})
}

func TestRequestNormalize(t *testing.T) {
	req := &Request{
		Transcript: "  hi  ",
		Mode:       "SUPPORT",
		History: []store.Exchange{
			{UserInput: "one"},
			{UserInput: " ", PriorResponse: ""},
			{UserInput: "two", PriorResponse: "r2"},
			{UserInput: "three"},
		},
	}
	require.NoError(t, req.Normalize(2))
	assert.Equal(t, "hi", req.Transcript)
	assert.Equal(t, store.ModeSupport, req.Mode)
	assert.Equal(t, []store.Exchange{{UserInput: "two", PriorResponse: "r2"}, {UserInput: "three"}}, req.History)
}
