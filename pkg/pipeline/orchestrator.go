package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sales-assistant-be/internal/constant"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/pkg/enrichment"
	"sales-assistant-be/pkg/llm"
	"sales-assistant-be/pkg/matching"
	"sales-assistant-be/pkg/reply"
	"sales-assistant-be/pkg/store"
	"sales-assistant-be/pkg/tts"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const module = "PIPELINE"

// ErrPipelineFailure is the only error a caller sees for an unexpected
// failure; no partial result accompanies it.
var ErrPipelineFailure = errors.New("pipeline failure")

// QuestionMatcher is satisfied by *matching.Matcher
type QuestionMatcher interface {
	Match(ctx context.Context, query string) (*store.MatchResult, error)
}

// InsightSink receives CRM insights. Enqueue must not block.
type InsightSink interface {
	Enqueue(insight store.CallInsight)
}

type Config struct {
	DBGrace          time.Duration
	EarlyAudioGrace  time.Duration
	SentimentWait    time.Duration
	HighlightGrace   time.Duration
	TranslateTimeout time.Duration
	SynthesisTimeout time.Duration
	InsightWait      time.Duration // how long the CRM publisher waits for enrichments
	EarlyMinWords    int
	MaxTokens        int
	Temperature      float64
	HistoryTurns     int
}

func DefaultConfig() Config {
	return Config{
		DBGrace:          time.Second,
		EarlyAudioGrace:  1500 * time.Millisecond,
		SentimentWait:    100 * time.Millisecond,
		HighlightGrace:   50 * time.Millisecond,
		TranslateTimeout: 2 * time.Second,
		SynthesisTimeout: 10 * time.Second,
		InsightWait:      15 * time.Second,
		EarlyMinWords:    25,
		MaxTokens:        400,
		Temperature:      0.7,
		HistoryTurns:     3,
	}
}

// Dependencies of the orchestrator. Enrichments, the synthesizer and the
// sink are optional.
type Dependencies struct {
	Matcher     QuestionMatcher
	LLM         llm.LLMProvider
	Synthesizer tts.Synthesizer
	Sentiment   enrichment.SentimentAnalyzer
	Highlights  enrichment.HighlightExtractor
	Translator  enrichment.Translator
	Sink        InsightSink
}

type Orchestrator struct {
	deps   Dependencies
	cfg    Config
	logger logger.ILogger
	tracer trace.Tracer
}

func NewOrchestrator(deps Dependencies, cfg Config, log logger.ILogger) *Orchestrator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Orchestrator{
		deps:   deps,
		cfg:    cfg,
		logger: log,
		tracer: otel.Tracer("sales-assistant/pipeline"),
	}
}

const replySchema = `{
  "type": "object",
  "required": ["responseText"],
  "properties": {
    "responseText": {"type": "string", "minLength": 1},
    "budget": {"type": "string"},
    "timeline": {"type": "string"},
    "objections": {"type": "string"},
    "importantInfo": {"type": "string"}
  }
}`

var replyDecoder = llm.MustStructuredDecoder("reply.json", replySchema)

type replyPayload struct {
	ResponseText string `json:"responseText"`
	store.KeyHighlights
}

// request-scoped state shared by the stages
type run struct {
	req        *Request
	result     *Result
	started    time.Time
	sentiment  *Future[*store.Sentiment]
	highlights *Future[store.KeyHighlights]
	earlyAudio *Future[[]byte]
	speech     string // text handed to the synthesizer
}

func (r *run) mark(stage string) {
	r.result.Metadata.Timings[stage] = time.Since(r.started).Milliseconds()
}

// Process turns a transcript into three reply options and audio. Degraded
// outcomes (quota, generative failure, missing enrichments) still return a
// Result; only an unexpected failure returns ErrPipelineFailure.
func (o *Orchestrator) Process(ctx context.Context, req *Request) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error(module, "Pipeline panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
			res, err = nil, ErrPipelineFailure
		}
	}()

	if req == nil {
		return nil, ErrEmptyTranscript
	}
	if err := req.Normalize(o.cfg.HistoryTurns); err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	ctx, span := o.tracer.Start(ctx, "pipeline.Process", trace.WithAttributes(
		attribute.String("request_id", req.RequestID),
		attribute.String("mode", req.Mode),
	))
	defer span.End()

	rn := &run{
		req:     req,
		started: time.Now(),
		result: &Result{
			Transcript: req.Transcript,
			Metadata: Metadata{
				RequestID: req.RequestID,
				Mode:      req.Mode,
				Timings:   map[string]int64{},
			},
		},
	}

	rn.sentiment = o.startSentiment(ctx, req.Transcript)
	rn.highlights = o.startHighlights(ctx, req.Transcript)
	questions := matching.Split(req.Transcript)
	rn.result.Metadata.Questions = questions
	db := Go(func() ([]*store.MatchResult, error) {
		return o.searchCorpus(ctx, questions)
	})

	matches, dbErr := db.Await(ctx, o.cfg.DBGrace)
	rn.mark("db_decision")
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrPipelineFailure, err)
	}

	if dbErr == nil && hasMatch(matches) {
		o.composeFromCorpus(ctx, rn, questions, matches)
	} else {
		if dbErr != nil && !errors.Is(dbErr, ErrNotReady) {
			o.logger.Warn(module, "Corpus search failed", map[string]interface{}{"request_id": req.RequestID, "error": dbErr.Error()})
		}
		o.composeFromModel(ctx, rn)
	}
	rn.mark("reply")

	rn.result.Audio = o.audio(ctx, rn)
	rn.mark("audio")

	if s, err := rn.sentiment.Await(ctx, o.cfg.SentimentWait); err == nil {
		rn.result.Sentiment = s
	}
	if h, err := rn.highlights.Await(ctx, o.cfg.HighlightGrace); err == nil {
		rn.result.KeyHighlights = rn.result.KeyHighlights.Merge(h)
	}
	rn.mark("total")

	o.publishInsight(ctx, rn)

	span.SetAttributes(attribute.String("source", rn.result.Metadata.Source))
	o.logger.Info(module, "Request processed", map[string]interface{}{
		"request_id":  req.RequestID,
		"source":      rn.result.Metadata.Source,
		"early_audio": rn.result.Metadata.EarlyAudio,
		"timings_ms":  rn.result.Metadata.Timings,
	})
	return rn.result, nil
}

func (o *Orchestrator) startSentiment(ctx context.Context, transcript string) *Future[*store.Sentiment] {
	if o.deps.Sentiment == nil {
		f := NewFuture[*store.Sentiment]()
		f.Resolve(nil, errors.New("sentiment analysis disabled"))
		return f
	}
	return Go(func() (*store.Sentiment, error) {
		s, err := o.deps.Sentiment.Analyze(context.WithoutCancel(ctx), transcript)
		if err != nil {
			o.logger.Warn(module, "Sentiment unavailable", map[string]interface{}{"error": err.Error()})
		}
		return s, err
	})
}

func (o *Orchestrator) startHighlights(ctx context.Context, transcript string) *Future[store.KeyHighlights] {
	if o.deps.Highlights == nil {
		f := NewFuture[store.KeyHighlights]()
		f.Resolve(store.KeyHighlights{}, nil)
		return f
	}
	return Go(func() (store.KeyHighlights, error) {
		h, err := o.deps.Highlights.Extract(context.WithoutCancel(ctx), transcript)
		if err != nil {
			o.logger.Warn(module, "Highlight extraction failed", map[string]interface{}{"error": err.Error()})
			return store.KeyHighlights{}, nil
		}
		return h, nil
	})
}

// searchCorpus matches every split question concurrently, keeping input order
func (o *Orchestrator) searchCorpus(ctx context.Context, questions []string) ([]*store.MatchResult, error) {
	if o.deps.Matcher == nil {
		return nil, nil
	}
	ctx, span := o.tracer.Start(ctx, "pipeline.searchCorpus", trace.WithAttributes(attribute.Int("questions", len(questions))))
	defer span.End()

	results := make([]*store.MatchResult, len(questions))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range questions {
		g.Go(func() error {
			m, err := o.deps.Matcher.Match(gctx, q)
			if err != nil {
				return err
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func hasMatch(matches []*store.MatchResult) bool {
	for _, m := range matches {
		if m != nil {
			return true
		}
	}
	return false
}

func (o *Orchestrator) composeFromCorpus(ctx context.Context, rn *run, questions []string, matches []*store.MatchResult) {
	hits := make([]*store.MatchResult, 0, len(matches))
	for i, m := range matches {
		if m == nil {
			continue
		}
		hits = append(hits, m)
		rn.result.Metadata.Matches = append(rn.result.Metadata.Matches, MatchInfo{
			Question:        questions[i],
			MatchedQuestion: m.MatchedQuestion,
			Category:        m.Category,
			Similarity:      m.Similarity,
			Tier:            m.Tier,
		})
	}

	options := reply.FromMatches(hits)
	text := reply.Format(options)
	rn.result.Metadata.Source = store.SourceDatabase

	if o.deps.Translator != nil && !enrichment.IsEnglish(rn.req.Language) {
		tctx, cancel := context.WithTimeout(ctx, o.cfg.TranslateTimeout)
		translated, err := o.deps.Translator.Translate(tctx, text, rn.req.Language)
		cancel()
		if err != nil {
			o.logger.Warn(module, "Translation failed, keeping English reply", map[string]interface{}{
				"request_id": rn.req.RequestID,
				"language":   rn.req.Language,
				"error":      err.Error(),
			})
		} else if parsed := reply.Parse(translated); len(parsed) > 0 {
			options, text = parsed, translated
			rn.result.Metadata.Translated = true
		}
	}

	rn.result.Options = options
	rn.result.ResponseText = text
	rn.speech = reply.First(options)
}

func (o *Orchestrator) composeFromModel(ctx context.Context, rn *run) {
	ctx, span := o.tracer.Start(ctx, "pipeline.generate")
	defer span.End()

	events, err := o.deps.LLM.ChatStream(ctx, o.buildMessages(rn.req),
		llm.WithMaxTokens(o.cfg.MaxTokens),
		llm.WithTemperature(o.cfg.Temperature),
	)
	if err != nil {
		o.degrade(rn, err)
		return
	}

	trigger := NewEarlySynthesisTrigger(o.cfg.EarlyMinWords, func(text string) {
		rn.earlyAudio = Go(func() ([]byte, error) {
			return o.synthesize(ctx, text, rn.req)
		})
		rn.mark("early_synthesis_fired")
	})

	var streamErr error
	for ev := range events {
		if ev.Err != nil {
			streamErr = ev.Err
			continue
		}
		trigger.Feed(ev.Delta)
	}
	rn.mark("stream_end")
	if streamErr != nil {
		o.degrade(rn, streamErr)
		return
	}

	var payload replyPayload
	if err := replyDecoder.Decode(trigger.Text(), &payload); err != nil {
		o.degrade(rn, err)
		return
	}

	options := reply.Parse(payload.ResponseText)
	rn.result.Metadata.Source = store.SourceGenerative
	rn.result.Options = options
	if len(options) > 0 {
		rn.result.ResponseText = reply.Format(options)
		rn.speech = reply.First(options)
	} else {
		rn.result.ResponseText = reply.Clean(payload.ResponseText)
		rn.speech = rn.result.ResponseText
	}
	rn.result.KeyHighlights = payload.KeyHighlights.Trimmed()
}

// degrade substitutes the fixed fallback for quota errors and the failure
// string for anything else
func (o *Orchestrator) degrade(rn *run, err error) {
	fields := map[string]interface{}{"request_id": rn.req.RequestID, "error": err.Error()}
	if llm.IsQuota(err) {
		o.logger.Warn(module, "Generative quota exceeded, serving fallback", fields)
		options := reply.QuotaFallback()
		rn.result.Options = options
		rn.result.ResponseText = reply.Format(options)
		rn.result.Metadata.Source = store.SourceFallback
		rn.speech = reply.First(options)
		rn.earlyAudio = nil
		return
	}
	o.logger.Error(module, "Generative completion failed", fields)
	rn.result.Options = nil
	rn.result.ResponseText = reply.FailureText
	rn.result.Metadata.Source = store.SourceFailure
	rn.speech = ""
	rn.earlyAudio = nil
}

func (o *Orchestrator) buildMessages(req *Request) []llm.Message {
	system := constant.SalesSystemPromptV1
	if req.Mode == store.ModeSupport {
		system = constant.SupportSystemPromptV1
	}
	if !enrichment.IsEnglish(req.Language) {
		system += fmt.Sprintf(constant.LanguageInstructionTemplate, req.Language)
	}

	var history strings.Builder
	for _, h := range req.History {
		if h.UserInput != "" {
			history.WriteString("Customer: " + h.UserInput + "\n")
		}
		if h.PriorResponse != "" {
			history.WriteString("Rep: " + h.PriorResponse + "\n")
		}
	}
	turns := strings.TrimSpace(history.String())
	if turns == "" {
		turns = constant.NoHistoryPlaceholder
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: fmt.Sprintf(constant.ConversationTurnTemplate, turns, req.Transcript)},
	}
}

// audio prefers the early clip when it lands within the grace window
func (o *Orchestrator) audio(ctx context.Context, rn *run) *store.AudioClip {
	if o.deps.Synthesizer == nil || rn.speech == "" {
		return nil
	}
	if rn.earlyAudio != nil {
		data, err := rn.earlyAudio.Await(ctx, o.cfg.EarlyAudioGrace)
		if err == nil && len(data) > 0 {
			rn.result.Metadata.EarlyAudio = true
			return &store.AudioClip{Data: data, Format: tts.Format, Early: true}
		}
		o.logger.Debug(module, "Early audio unusable, synthesizing full text", map[string]interface{}{
			"request_id": rn.req.RequestID,
			"error":      fmt.Sprint(err),
		})
	}
	data, err := o.synthesize(ctx, rn.speech, rn.req)
	if err != nil || len(data) == 0 {
		return nil
	}
	return &store.AudioClip{Data: data, Format: tts.Format}
}

func (o *Orchestrator) synthesize(ctx context.Context, text string, req *Request) ([]byte, error) {
	if o.deps.Synthesizer == nil {
		return nil, tts.ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, o.cfg.SynthesisTimeout)
	defer cancel()

	data, err := o.deps.Synthesizer.Synthesize(ctx, text, req.VoiceID, req.Language)
	if err != nil {
		o.logger.Warn(module, "Speech synthesis failed", map[string]interface{}{"request_id": req.RequestID, "error": err.Error()})
		return nil, err
	}
	return data, nil
}

// publishInsight hands the final highlights and sentiment to the CRM sink
// once the enrichments settle. The response never waits for it.
func (o *Orchestrator) publishInsight(ctx context.Context, rn *run) {
	if o.deps.Sink == nil {
		return
	}
	base := rn.result.KeyHighlights
	sentiment := rn.result.Sentiment
	bg := context.WithoutCancel(ctx)

	go func() {
		highlights := base
		if h, err := rn.highlights.Await(bg, o.cfg.InsightWait); err == nil {
			highlights = highlights.Merge(h)
		}
		if sentiment == nil {
			if s, err := rn.sentiment.Await(bg, o.cfg.InsightWait); err == nil {
				sentiment = s
			}
		}
		o.deps.Sink.Enqueue(store.CallInsight{
			RequestID:     rn.req.RequestID,
			Transcript:    rn.req.Transcript,
			KeyHighlights: highlights,
			Sentiment:     sentiment,
			OccurredAt:    time.Now().UTC(),
		})
	}()
}
