package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sales-assistant-be/pkg/llm"
	"sales-assistant-be/pkg/llm/sse"
)

const defaultBaseURL = "https://api.openai.com/v1"

const maxResponseBodyBytes = 8 * 1024 * 1024

// Provider talks to any OpenAI-compatible /chat/completions endpoint
// (OpenAI, HuggingFace router, vLLM, ...)
type Provider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ llm.LLMProvider = &Provider{}

func NewProvider(apiKey, baseURL, model string) *Provider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

func (p *Provider) newRequest(ctx context.Context, history []llm.Message, stream bool, opts []llm.Option) (*http.Request, error) {
	options := llm.ApplyOptions(opts...)
	model := p.model
	if options.Model != "" {
		model = options.Model
	}

	messages := make([]chatMessage, len(history))
	for i, m := range history {
		messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	payload, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   options.MaxTokens,
		Temperature: options.Temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	return req, nil
}

func (p *Provider) do(req *http.Request) (*http.Response, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &llm.HTTPStatusError{Provider: "openai", StatusCode: resp.StatusCode, Message: decodeAPIError(body)}
	}
	return resp, nil
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	req, err := p.newRequest(ctx, history, false, opts)
	if err != nil {
		return "", err
	}
	resp, err := p.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", apiErrorToError(decoded.Error)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("openai: no choices returned")
	}
	return decoded.Choices[0].Message.Content, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

var errStreamDone = errors.New("stream done")

func (p *Provider) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan llm.StreamEvent, error) {
	req, err := p.newRequest(ctx, history, true, opts)
	if err != nil {
		return nil, err
	}
	resp, err := p.do(req)
	if err != nil {
		return nil, err
	}

	events := make(chan llm.StreamEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		err := sse.Parse(resp.Body, func(ev sse.Event) error {
			if ev.Data == "[DONE]" {
				return errStreamDone
			}
			var chunk streamChunk
			if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
				return fmt.Errorf("decode stream chunk: %w", err)
			}
			if chunk.Error != nil {
				return apiErrorToError(chunk.Error)
			}
			for _, c := range chunk.Choices {
				if c.Delta.Content == "" {
					continue
				}
				select {
				case events <- llm.StreamEvent{Delta: c.Delta.Content}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStreamDone) {
			select {
			case events <- llm.StreamEvent{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return events, nil
}

func decodeAPIError(body []byte) string {
	var wrapped struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error != nil {
		msg := strings.TrimSpace(wrapped.Error.Message)
		if wrapped.Error.Code != "" {
			msg = wrapped.Error.Code + ": " + msg
		}
		if msg != "" {
			return msg
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "empty error response"
	}
	return text
}

func apiErrorToError(e *apiError) error {
	msg := strings.TrimSpace(e.Code + " " + e.Type + ": " + e.Message)
	if llm.IsQuotaMessage(0, msg) {
		return fmt.Errorf("openai: %s: %w", msg, llm.ErrQuotaExceeded)
	}
	return fmt.Errorf("openai: %s", msg)
}
