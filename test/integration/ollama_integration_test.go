package integration

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"sales-assistant-be/internal/entity"
	"sales-assistant-be/pkg/llm/ollama"
	"sales-assistant-be/pkg/matching"
	"sales-assistant-be/pkg/pipeline"
	"sales-assistant-be/pkg/store"
	"sales-assistant-be/pkg/tts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ollamaBaseURL(t *testing.T) string {
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/tags")
	if err != nil {
		t.Skipf("Skipping Ollama integration test: %v", err)
	}
	resp.Body.Close()
	return baseURL
}

func TestPipelineWithOllama(t *testing.T) {
	baseURL := ollamaBaseURL(t)
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "llama3"
	}

	corpus := matching.NewMemoryCorpus([]*entity.QuestionRecord{{
		Category: "Pricing",
		Questions: []entity.QuestionEntry{{
			Text: "What is the price of the premium package?",
			Answers: []store.AnswerOption{
				{Label: "A", Text: "Premium is 49 dollars per seat."},
				{Label: "B", Text: "Premium costs 49 per seat monthly."},
				{Label: "C", Text: "It is 49 per seat, billed monthly."},
			},
		}},
	}})

	cfg := pipeline.DefaultConfig()
	cfg.DBGrace = 2 * time.Second
	orchestrator := pipeline.NewOrchestrator(pipeline.Dependencies{
		Matcher:     matching.NewMatcher(corpus, matching.NoCache(), nil, matching.DefaultConfig(), nil),
		LLM:         ollama.NewOllamaProvider(baseURL, model),
		Synthesizer: tts.None(),
	}, cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	t.Run("Corpus Hit", func(t *testing.T) {
		res, err := orchestrator.Process(ctx, &pipeline.Request{Transcript: "What is the price of the premium package?"})
		require.NoError(t, err)
		assert.Equal(t, store.SourceDatabase, res.Metadata.Source)
		assert.Len(t, res.Options, 3)
	})

	t.Run("Generative Reply", func(t *testing.T) {
		res, err := orchestrator.Process(ctx, &pipeline.Request{
			Transcript: "We are worried the rollout will take our team too long",
			Mode:       store.ModeSales,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, res.ResponseText)
		t.Logf("source=%s reply=%s", res.Metadata.Source, res.ResponseText)
	})
}
