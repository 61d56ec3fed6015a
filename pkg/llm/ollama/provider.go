package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sales-assistant-be/pkg/llm"
)

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

func (o *OllamaProvider) buildRequest(ctx context.Context, history []llm.Message, stream bool, opts []llm.Option) (*http.Request, error) {
	options := llm.ApplyOptions(opts...)

	messages := make([]ollamaMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = llm.RoleAssistant
		}
		messages[i] = ollamaMessage{Role: role, Content: msg.Content}
	}

	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	payload := ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
		Options:  &ollamaOptions{Temperature: options.Temperature, NumPredict: options.MaxTokens},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (o *OllamaProvider) do(req *http.Request) (*http.Response, error) {
	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &llm.HTTPStatusError{Provider: "ollama", StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(bodyBytes))}
	}
	return resp, nil
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	req, err := o.buildRequest(ctx, history, false, opts)
	if err != nil {
		return "", err
	}
	resp, err := o.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var ollamaResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if ollamaResp.Error != "" {
		return "", fmt.Errorf("ollama error: %s", ollamaResp.Error)
	}
	return ollamaResp.Message.Content, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return o.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

// ChatStream reads the NDJSON stream of /api/chat
func (o *OllamaProvider) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan llm.StreamEvent, error) {
	req, err := o.buildRequest(ctx, history, true, opts)
	if err != nil {
		return nil, err
	}
	resp, err := o.do(req)
	if err != nil {
		return nil, err
	}

	events := make(chan llm.StreamEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		send := func(ev llm.StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk ollamaChatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				send(llm.StreamEvent{Err: fmt.Errorf("decode stream chunk: %w", err)})
				return
			}
			if chunk.Error != "" {
				send(llm.StreamEvent{Err: fmt.Errorf("ollama error: %s", chunk.Error)})
				return
			}
			if chunk.Message.Content != "" && !send(llm.StreamEvent{Delta: chunk.Message.Content}) {
				return
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			send(llm.StreamEvent{Err: fmt.Errorf("read stream: %w", err)})
		}
	}()
	return events, nil
}
