package factory

import (
	"context"
	"fmt"

	"sales-assistant-be/pkg/llm"
	"sales-assistant-be/pkg/llm/gemini"
	"sales-assistant-be/pkg/llm/ollama"
	"sales-assistant-be/pkg/llm/openai"
)

type Config struct {
	Provider string // "ollama", "openai", "gemini"
	Model    string
	BaseURL  string
	APIKey   string
}

func NewLLMProvider(ctx context.Context, cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case "openai":
		return openai.NewProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "gemini":
		p, err := gemini.NewProvider(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
