package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["response"],
  "properties": {
    "response": {"type": "string", "minLength": 1},
    "keyHighlights": {"type": "object"}
  }
}`

type payload struct {
	Response      string            `json:"response"`
	KeyHighlights map[string]string `json:"keyHighlights"`
}

func TestStructuredDecoder_Decode(t *testing.T) {
	d := MustStructuredDecoder("reply.json", testSchema)

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain object", raw: `{"response":"Response A: hi"}`, want: "Response A: hi"},
		{name: "code fence", raw: "```json\n{\"response\":\"fenced\"}\n```", want: "fenced"},
		{name: "surrounding prose", raw: "Sure! Here you go: {\"response\":\"prose\"} Hope that helps.", want: "prose"},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "no object", raw: "Response A: no json at all", wantErr: true},
		{name: "broken json", raw: `{"response": "unterminated}`, wantErr: true},
		{name: "schema violation", raw: `{"keyHighlights":{}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := d.Decode(tt.raw, &p)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedOutput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Response)
		})
	}
}

func TestNewStructuredDecoder_BadSchema(t *testing.T) {
	_, err := NewStructuredDecoder("bad.json", `{"type": 12}`)
	assert.Error(t, err)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`  {"a":1} `))
}

func TestQuotaClassification(t *testing.T) {
	assert.True(t, IsQuotaMessage(429, ""))
	assert.True(t, IsQuotaMessage(400, "insufficient_quota: You exceeded your current quota"))
	assert.True(t, IsQuotaMessage(0, "RESOURCE_EXHAUSTED"))
	assert.False(t, IsQuotaMessage(500, "internal error"))

	err := error(&HTTPStatusError{Provider: "openai", StatusCode: 429, Message: "slow down"})
	assert.True(t, IsQuota(err))
	assert.False(t, IsQuota(&HTTPStatusError{Provider: "openai", StatusCode: 500, Message: "boom"}))
}

type recordingProvider struct {
	history []Message
	opts    *Options
}

func (r *recordingProvider) Chat(_ context.Context, history []Message, opts ...Option) (string, error) {
	r.history = history
	r.opts = ApplyOptions(opts...)
	return "ok", nil
}

func (r *recordingProvider) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	return r.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, opts...)
}

func (r *recordingProvider) ChatStream(context.Context, []Message, ...Option) (<-chan StreamEvent, error) {
	return nil, errors.New("not streaming")
}

func TestComplete(t *testing.T) {
	p := &recordingProvider{}
	out, err := Complete(context.Background(), p, "be terse", "what is the price", 120, 0.2)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	require.Len(t, p.history, 2)
	assert.Equal(t, RoleSystem, p.history[0].Role)
	assert.Equal(t, RoleUser, p.history[1].Role)
	assert.Equal(t, 120, p.opts.MaxTokens)
	assert.Equal(t, 0.2, p.opts.Temperature)
}

func TestCollect(t *testing.T) {
	ch := make(chan StreamEvent, 3)
	ch <- StreamEvent{Delta: "Resp"}
	ch <- StreamEvent{Delta: "onse A"}
	close(ch)
	text, err := Collect(ch)
	require.NoError(t, err)
	assert.Equal(t, "Response A", text)

	failing := make(chan StreamEvent, 2)
	failing <- StreamEvent{Delta: "partial"}
	failing <- StreamEvent{Err: ErrQuotaExceeded}
	close(failing)
	text, err = Collect(failing)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, "partial", text)
}
