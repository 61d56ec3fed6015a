package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// ApplyOptions resolves opts over the shared defaults
func ApplyOptions(opts ...Option) *Options {
	options := &Options{Temperature: 0.7}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// StreamEvent is one increment of a streamed completion. A non-nil Err is
// always the last event on the channel.
type StreamEvent struct {
	Delta string
	Err   error
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// ChatStream streams the response. The channel is closed when the
	// completion ends; setup failures are returned directly.
	ChatStream(ctx context.Context, history []Message, options ...Option) (<-chan StreamEvent, error)
}

// Complete issues a single-shot system+user completion
func Complete(ctx context.Context, p LLMProvider, system, user string, maxTokens int, temperature float64) (string, error) {
	history := make([]Message, 0, 2)
	if system != "" {
		history = append(history, Message{Role: RoleSystem, Content: system})
	}
	history = append(history, Message{Role: RoleUser, Content: user})
	return p.Chat(ctx, history, WithMaxTokens(maxTokens), WithTemperature(temperature))
}

// Collect drains a stream into the full text
func Collect(events <-chan StreamEvent) (string, error) {
	var text []byte
	for ev := range events {
		if ev.Err != nil {
			return string(text), ev.Err
		}
		text = append(text, ev.Delta...)
	}
	return string(text), nil
}
