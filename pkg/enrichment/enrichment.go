package enrichment

import (
	"context"
	"fmt"
	"strings"

	"sales-assistant-be/internal/constant"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/pkg/llm"
	"sales-assistant-be/pkg/store"
)

const module = "ENRICHMENT"

// SentimentAnalyzer classifies the customer's words
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (*store.Sentiment, error)
}

// HighlightExtractor pulls CRM facts out of customer speech
type HighlightExtractor interface {
	Extract(ctx context.Context, transcript string) (store.KeyHighlights, error)
}

// Translator rewrites a reply into the caller's language
type Translator interface {
	Translate(ctx context.Context, text, languageCode string) (string, error)
}

const sentimentSchema = `{
  "type": "object",
  "required": ["label"],
  "properties": {
    "label": {"type": "string", "enum": ["positive", "neutral", "negative", "POSITIVE", "NEUTRAL", "NEGATIVE"]},
    "score": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

const highlightSchema = `{
  "type": "object",
  "properties": {
    "budget": {"type": "string"},
    "timeline": {"type": "string"},
    "objections": {"type": "string"},
    "importantInfo": {"type": "string"}
  }
}`

var (
	sentimentDecoder = llm.MustStructuredDecoder("sentiment.json", sentimentSchema)
	highlightDecoder = llm.MustStructuredDecoder("highlights.json", highlightSchema)
)

// LLMSentimentAnalyzer asks the completion service for a sentiment label
type LLMSentimentAnalyzer struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewSentimentAnalyzer(llmProvider llm.LLMProvider, log logger.ILogger) *LLMSentimentAnalyzer {
	return &LLMSentimentAnalyzer{llmProvider: llmProvider, logger: log}
}

func (a *LLMSentimentAnalyzer) Analyze(ctx context.Context, text string) (*store.Sentiment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("sentiment: empty text")
	}
	raw, err := llm.Complete(ctx, a.llmProvider, constant.SentimentPromptV1, text, 60, 0)
	if err != nil {
		return nil, fmt.Errorf("sentiment: %w", err)
	}

	var out store.Sentiment
	if err := sentimentDecoder.Decode(raw, &out); err != nil {
		a.logger.Warn(module, "Sentiment payload rejected", map[string]interface{}{"raw": raw, "error": err.Error()})
		return nil, fmt.Errorf("sentiment: %w", err)
	}
	out.Label = strings.ToLower(out.Label)
	return &out, nil
}

// LLMHighlightExtractor asks the completion service for budget, timeline,
// objections and other important facts
type LLMHighlightExtractor struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewHighlightExtractor(llmProvider llm.LLMProvider, log logger.ILogger) *LLMHighlightExtractor {
	return &LLMHighlightExtractor{llmProvider: llmProvider, logger: log}
}

func (e *LLMHighlightExtractor) Extract(ctx context.Context, transcript string) (store.KeyHighlights, error) {
	if strings.TrimSpace(transcript) == "" {
		return store.KeyHighlights{}, nil
	}
	raw, err := llm.Complete(ctx, e.llmProvider, constant.HighlightPromptV1, transcript, 200, 0)
	if err != nil {
		return store.KeyHighlights{}, fmt.Errorf("highlights: %w", err)
	}

	var out store.KeyHighlights
	if err := highlightDecoder.Decode(raw, &out); err != nil {
		e.logger.Warn(module, "Highlight payload rejected", map[string]interface{}{"raw": raw, "error": err.Error()})
		return store.KeyHighlights{}, fmt.Errorf("highlights: %w", err)
	}
	return out.Trimmed(), nil
}

// LLMTranslator translates with the completion service. English targets
// are returned untouched.
type LLMTranslator struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewTranslator(llmProvider llm.LLMProvider, log logger.ILogger) *LLMTranslator {
	return &LLMTranslator{llmProvider: llmProvider, logger: log}
}

func (t *LLMTranslator) Translate(ctx context.Context, text, languageCode string) (string, error) {
	if text == "" || IsEnglish(languageCode) {
		return text, nil
	}
	system := fmt.Sprintf(constant.TranslatePromptV1, languageCode)
	out, err := llm.Complete(ctx, t.llmProvider, system, text, 600, 0.2)
	if err != nil {
		return "", fmt.Errorf("translate to %s: %w", languageCode, err)
	}
	out = llm.StripCodeFence(out)
	if out == "" {
		return "", fmt.Errorf("translate to %s: empty output", languageCode)
	}
	return out, nil
}

// IsEnglish treats an empty code as English
func IsEnglish(languageCode string) bool {
	code := strings.ToLower(strings.TrimSpace(languageCode))
	return code == "" || code == "en" || strings.HasPrefix(code, "en-")
}
