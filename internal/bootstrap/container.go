package bootstrap

import (
	"context"
	"log"

	"sales-assistant-be/internal/config"
	"sales-assistant-be/internal/controller"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/internal/pkg/serverutils"
	"sales-assistant-be/internal/repository/distributed"
	"sales-assistant-be/internal/repository/memory"
	"sales-assistant-be/internal/repository/unitofwork"
	"sales-assistant-be/internal/service"
	"sales-assistant-be/pkg/enrichment"
	"sales-assistant-be/pkg/llm/factory"
	"sales-assistant-be/pkg/matching"
	"sales-assistant-be/pkg/pipeline"
	"sales-assistant-be/pkg/tts"
	ttsFactory "sales-assistant-be/pkg/tts/factory"

	pktNats "sales-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController

	// Background Services (Exposed for main.go to run)
	CRMSyncService service.ICRMSyncService
	CorpusService  service.ICorpusService

	closers []func()
}

type matchCache interface {
	matching.Cache
	Purge(ctx context.Context)
}

// NewContainer wires the application. db may be nil when the corpus is
// served from a file.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipelineLogger := logger.NewIsolatedLogger(cfg.App.PipelineLogPath)

	// 2. Event Bus
	var (
		eventPublisher  service.EventPublisher
		eventSubscriber service.EventSubscriber
	)
	if cfg.App.NatsURL != "" {
		nc, err := pktNats.Connect(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS: %v", err)
		} else {
			if natsPub, err := pktNats.NewPublisher(nc); err != nil {
				log.Printf("[WARN] Failed to create NATS Publisher: %v", err)
			} else {
				eventPublisher = natsPub
				c.closers = append(c.closers, natsPub.Close)
			}
			if natsSub, err := pktNats.NewSubscriber(nc); err != nil {
				log.Printf("[WARN] Failed to create NATS Subscriber: %v", err)
			} else {
				eventSubscriber = natsSub
				c.closers = append([]func(){natsSub.Close}, c.closers...)
			}
		}
	} else {
		log.Printf("[INFO] NATS_URL not set, CRM insights are logged only")
	}

	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 3. Result Cache
	var cache matchCache
	switch cfg.App.CacheBackend {
	case "redis":
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		cache = distributed.NewMatchCache(rdb, "match:", cfg.Matcher.CacheCapacity, cfg.Matcher.CacheTTL, sysLogger)
		c.closers = append(c.closers, func() { rdb.Close() })
		log.Printf("[INFO] Using Result Cache: REDIS")
	default:
		cache = memory.NewMatchCache(cfg.Matcher.CacheCapacity, cfg.Matcher.CacheTTL)
		log.Printf("[INFO] Using Result Cache: MEMORY")
	}

	// 4. Corpus
	var (
		corpus      matching.Corpus
		fileCorpus  *matching.MemoryCorpus
		repoFactory unitofwork.RepositoryFactory
	)
	if db != nil {
		repoFactory = unitofwork.NewRepositoryFactory(db)
	}
	if cfg.App.CorpusSource == "file" {
		records, err := matching.LoadCorpusFile(cfg.App.CorpusFile)
		if err != nil {
			log.Fatalf("[FATAL] Failed to load corpus file: %v", err)
		}
		fileCorpus = matching.NewMemoryCorpus(records)
		corpus = fileCorpus
		log.Printf("[INFO] Using Corpus: FILE (%s, %d records)", cfg.App.CorpusFile, len(records))
	} else {
		if repoFactory == nil {
			log.Fatalf("[FATAL] CORPUS_SOURCE=postgres requires DB_CONNECTION_STRING")
		}
		corpus = matching.NewRepositoryCorpus(repoFactory)
		log.Printf("[INFO] Using Corpus: POSTGRES")
	}

	matcher := matching.NewMatcher(
		corpus,
		cache,
		matching.NewScorer(matching.DefaultTables()),
		matcherConfig(cfg.Matcher),
		pipelineLogger,
	)

	// 5. Providers
	baseURL := cfg.Ai.LLMBaseURL
	if baseURL == "" && cfg.Ai.LLMProvider == "ollama" {
		baseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(ctx, factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  baseURL,
		APIKey:   cfg.APIKeyFor(cfg.Ai.LLMProvider),
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	synthesizer, err := ttsFactory.NewSynthesizer(ttsFactory.Config{
		Provider: cfg.TTS.Provider,
		Region:   cfg.TTS.Region,
		VoiceID:  cfg.TTS.VoiceID,
		Engine:   cfg.TTS.Engine,
		APIKey:   cfg.Keys.ElevenLabs,
		Endpoint: cfg.TTS.Endpoint,
		ModelID:  cfg.TTS.ModelID,
		Timeout:  cfg.TTS.Timeout,
	})
	if err != nil {
		log.Printf("[WARN] Failed to initialize TTS Provider: %v. Replies will have no audio", err)
		synthesizer = tts.None()
	}
	log.Printf("[INFO] Using TTS Provider: %s", cfg.TTS.Provider)

	// 6. Services
	crmSyncService := service.NewCRMSyncService(pubSub, cfg.App.CRMTopicName, eventPublisher, sysLogger)

	deps := pipeline.Dependencies{
		Matcher:     matcher,
		LLM:         llmProvider,
		Synthesizer: synthesizer,
		Sink:        crmSyncService,
	}
	if cfg.Pipeline.Enrichment {
		deps.Sentiment = enrichment.NewSentimentAnalyzer(llmProvider, pipelineLogger)
		deps.Highlights = enrichment.NewHighlightExtractor(llmProvider, pipelineLogger)
		deps.Translator = enrichment.NewTranslator(llmProvider, pipelineLogger)
	}
	orchestrator := pipeline.NewOrchestrator(deps, pipelineConfig(cfg.Pipeline), pipelineLogger)

	assistantService := service.NewAssistantService(orchestrator, matcher, pipelineLogger, sysLogger)
	corpusService := service.NewCorpusService(service.CorpusServiceOptions{
		RepoFactory:     repoFactory,
		EventPublisher:  eventPublisher,
		EventSubscriber: eventSubscriber,
		Cache:           cache,
		FileCorpus:      fileCorpus,
		CorpusPath:      cfg.App.CorpusFile,
	}, sysLogger)

	if cfg.Keys.JwtSecret == "" {
		log.Printf("[WARN] JWT_SECRET not set, assistant routes will reject every request")
	}

	// 7. Controllers
	c.AssistantController = controller.NewAssistantController(assistantService, serverutils.NewJwtMiddleware(cfg.Keys.JwtSecret))
	c.CRMSyncService = crmSyncService
	c.CorpusService = corpusService
	c.closers = append(c.closers, func() { sysLogger.Sync() })

	return c
}

// Close releases bus, cache and logger resources in reverse dependency order
func (c *Container) Close() {
	for _, closeFn := range c.closers {
		closeFn()
	}
}

func matcherConfig(m config.MatcherConfig) matching.Config {
	return matching.Config{
		Thresholds: matching.Thresholds{
			Trusted:         m.TrustedThreshold,
			Partial:         m.PartialThreshold,
			Relaxed:         m.RelaxedThreshold,
			RelaxedMinWords: m.RelaxedMinWords,
			Basic:           m.BasicThreshold,
			BasicCategory:   m.BasicCategory,
			EarlyExit:       m.EarlyExit,
			Fuzzy:           m.FuzzyThreshold,
			Fallback:        m.FallbackCoverage,
		},
		IndexedMinLength: m.IndexedMinLength,
		MaxVariants:      m.MaxVariants,
		CandidateLimit:   m.CandidateLimit,
		ScanLimit:        m.ScanLimit,
	}
}

func pipelineConfig(p config.PipelineConfig) pipeline.Config {
	return pipeline.Config{
		DBGrace:          p.DBGrace,
		EarlyAudioGrace:  p.EarlyAudioGrace,
		SentimentWait:    p.SentimentWait,
		HighlightGrace:   p.HighlightGrace,
		TranslateTimeout: p.TranslateTimeout,
		SynthesisTimeout: p.SynthesisTimeout,
		InsightWait:      p.InsightWait,
		EarlyMinWords:    p.EarlyMinWords,
		MaxTokens:        p.MaxTokens,
		Temperature:      p.Temperature,
		HistoryTurns:     p.HistoryTurns,
	}
}
