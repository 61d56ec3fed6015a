package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"sales-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		require.Len(t, req.Messages, 2)
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"done"}}]}`)
	}))
	defer srv.Close()

	p := NewProvider("sk-test", srv.URL, "gpt-test")
	out, err := llm.Complete(context.Background(), p, "system", "user", 100, 0.3)
	require.NoError(t, err)
	assert.Equal(t, "done", out)
}

func TestProvider_ChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{`{"response":`, `"Response A: hi"}`} {
			b, _ := json.Marshal(map[string]any{
				"choices": []any{map[string]any{"delta": map[string]any{"content": part}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", b)
		}
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewProvider("", srv.URL, "gpt-test")
	events, err := p.ChatStream(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	require.NoError(t, err)

	text, err := llm.Collect(events)
	require.NoError(t, err)
	assert.Equal(t, `{"response":"Response A: hi"}`, text)
}

func TestProvider_Quota(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":{"message":"Rate limit reached","type":"requests"}}`},
		{name: "insufficient quota", status: http.StatusForbidden, body: `{"error":{"message":"You exceeded your current quota","code":"insufficient_quota"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			p := NewProvider("sk", srv.URL, "gpt-test")
			_, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
			assert.ErrorIs(t, err, llm.ErrQuotaExceeded)
		})
	}
}

func TestProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))
	defer srv.Close()

	p := NewProvider("sk", srv.URL, "gpt-test")
	_, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, llm.ErrQuotaExceeded)

	var statusErr *llm.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}
