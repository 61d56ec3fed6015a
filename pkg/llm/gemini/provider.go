package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"sales-assistant-be/pkg/llm"

	"google.golang.org/genai"
)

// generator is the subset of *genai.Models the provider uses
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

type Provider struct {
	models generator
	model  string
}

var _ llm.LLMProvider = &Provider{}

// NewProvider uses the API key when set, Application Default Credentials otherwise
func NewProvider(ctx context.Context, apiKey, model string) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Provider{models: client.Models, model: model}, nil
}

func (p *Provider) request(history []llm.Message, opts []llm.Option) (string, []*genai.Content, *genai.GenerateContentConfig) {
	options := llm.ApplyOptions(opts...)
	model := p.model
	if options.Model != "" {
		model = options.Model
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(options.Temperature)),
	}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}

	var system []string
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant, "model":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return model, contents, config
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	model, contents, config := p.request(history, opts)
	resp, err := p.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", classify(err)
	}
	text := responseText(resp)
	if text == "" {
		return "", errors.New("gemini: no response candidates")
	}
	return text, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (p *Provider) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan llm.StreamEvent, error) {
	model, contents, config := p.request(history, opts)

	events := make(chan llm.StreamEvent)
	go func() {
		defer close(events)
		for resp, err := range p.models.GenerateContentStream(ctx, model, contents, config) {
			ev := llm.StreamEvent{}
			if err != nil {
				ev.Err = classify(err)
			} else {
				ev.Delta = responseText(resp)
				if ev.Delta == "" {
					continue
				}
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
			if ev.Err != nil {
				return
			}
		}
	}()
	return events, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if llm.IsQuotaMessage(apiErr.Code, apiErr.Status+" "+apiErr.Message) {
			return fmt.Errorf("gemini: %w: %v", llm.ErrQuotaExceeded, err)
		}
		return fmt.Errorf("gemini: %w", err)
	}
	if llm.IsQuotaMessage(0, err.Error()) {
		return fmt.Errorf("gemini: %w: %v", llm.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("gemini: %w", err)
}
