package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Matcher  MatcherConfig
	Pipeline PipelineConfig
	TTS      TTSConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	PipelineLogPath    string
	CorsAllowedOrigins string
	NatsURL            string // empty disables the event bus
	RedisURL           string
	CacheBackend       string // "memory" or "redis"
	CorpusSource       string // "postgres" or "file"
	CorpusFile         string
	CRMTopicName       string
	OtelEnabled        bool
}

type DatabaseConfig struct {
	Connection      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type APIKeys struct {
	JwtSecret    string
	GoogleGemini string
	OpenAI       string
	ElevenLabs   string
}

type AIConfig struct {
	LLMProvider   string // "ollama", "openai", "gemini"
	LLMModel      string
	LLMBaseURL    string
	OllamaBaseURL string
}

type MatcherConfig struct {
	TrustedThreshold float64
	PartialThreshold float64
	RelaxedThreshold float64
	RelaxedMinWords  int
	BasicThreshold   float64
	BasicCategory    string
	EarlyExit        float64
	FuzzyThreshold   float64
	FallbackCoverage float64
	IndexedMinLength int
	MaxVariants      int
	CandidateLimit   int
	ScanLimit        int
	CacheCapacity    int
	CacheTTL         time.Duration
}

type PipelineConfig struct {
	DBGrace          time.Duration
	EarlyAudioGrace  time.Duration
	SentimentWait    time.Duration
	HighlightGrace   time.Duration
	TranslateTimeout time.Duration
	SynthesisTimeout time.Duration
	InsightWait      time.Duration
	EarlyMinWords    int
	MaxTokens        int
	Temperature      float64
	HistoryTurns     int
	Enrichment       bool
}

type TTSConfig struct {
	Provider string // "polly", "elevenlabs", "none"
	Region   string
	VoiceID  string
	Engine   string
	Endpoint string
	ModelID  string
	Timeout  time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	llmProvider := getEnv("LLM_PROVIDER", "ollama")

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			PipelineLogPath:    getEnv("PIPELINE_LOG_PATH", "logs/pipeline.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			CacheBackend:       strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
			CorpusSource:       strings.ToLower(getEnv("CORPUS_SOURCE", "postgres")),
			CorpusFile:         getEnv("CORPUS_FILE", "data/corpus.yaml"),
			CRMTopicName:       getEnv("CRM_TOPIC_NAME", "CALL_INSIGHT"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Connection:      getEnv("DB_CONNECTION_STRING", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Keys: APIKeys{
			JwtSecret:    getEnv("JWT_SECRET", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			ElevenLabs:   getEnv("ELEVENLABS_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:   llmProvider,
			LLMModel:      getEnv("LLM_MODEL", defaultModel(llmProvider)),
			LLMBaseURL:    getEnv("LLM_BASE_URL", ""),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Matcher: MatcherConfig{
			TrustedThreshold: getEnvAsFloat("MATCH_TRUSTED_THRESHOLD", 0.7),
			PartialThreshold: getEnvAsFloat("MATCH_PARTIAL_THRESHOLD", 0.6),
			RelaxedThreshold: getEnvAsFloat("MATCH_RELAXED_THRESHOLD", 0.4),
			RelaxedMinWords:  getEnvAsInt("MATCH_RELAXED_MIN_WORDS", 3),
			BasicThreshold:   getEnvAsFloat("MATCH_BASIC_THRESHOLD", 0.2),
			BasicCategory:    getEnv("MATCH_BASIC_CATEGORY", "Basic Questions"),
			EarlyExit:        getEnvAsFloat("MATCH_EARLY_EXIT", 0.7),
			FuzzyThreshold:   getEnvAsFloat("MATCH_FUZZY_THRESHOLD", 0.5),
			FallbackCoverage: getEnvAsFloat("MATCH_FALLBACK_COVERAGE", 0.6),
			IndexedMinLength: getEnvAsInt("MATCH_INDEXED_MIN_LENGTH", 20),
			MaxVariants:      getEnvAsInt("MATCH_MAX_VARIANTS", 12),
			CandidateLimit:   getEnvAsInt("MATCH_CANDIDATE_LIMIT", 25),
			ScanLimit:        getEnvAsInt("MATCH_SCAN_LIMIT", 50),
			CacheCapacity:    getEnvAsInt("MATCH_CACHE_CAPACITY", 1000),
			CacheTTL:         getEnvAsDuration("MATCH_CACHE_TTL", time.Hour),
		},
		Pipeline: PipelineConfig{
			DBGrace:          getEnvAsDuration("PIPELINE_DB_GRACE", time.Second),
			EarlyAudioGrace:  getEnvAsDuration("PIPELINE_EARLY_AUDIO_GRACE", 1500*time.Millisecond),
			SentimentWait:    getEnvAsDuration("PIPELINE_SENTIMENT_WAIT", 100*time.Millisecond),
			HighlightGrace:   getEnvAsDuration("PIPELINE_HIGHLIGHT_GRACE", 50*time.Millisecond),
			TranslateTimeout: getEnvAsDuration("PIPELINE_TRANSLATE_TIMEOUT", 2*time.Second),
			SynthesisTimeout: getEnvAsDuration("PIPELINE_SYNTHESIS_TIMEOUT", 10*time.Second),
			InsightWait:      getEnvAsDuration("PIPELINE_INSIGHT_WAIT", 15*time.Second),
			EarlyMinWords:    getEnvAsInt("PIPELINE_EARLY_MIN_WORDS", 25),
			MaxTokens:        getEnvAsInt("PIPELINE_MAX_TOKENS", 400),
			Temperature:      getEnvAsFloat("PIPELINE_TEMPERATURE", 0.7),
			HistoryTurns:     getEnvAsInt("PIPELINE_HISTORY_TURNS", 3),
			Enrichment:       getEnvAsBool("PIPELINE_ENRICHMENT", true),
		},
		TTS: TTSConfig{
			Provider: strings.ToLower(getEnv("TTS_PROVIDER", "polly")),
			Region:   getEnv("AWS_REGION", "us-east-1"),
			VoiceID:  getEnv("TTS_VOICE_ID", ""),
			Engine:   getEnv("TTS_ENGINE", "neural"),
			Endpoint: getEnv("TTS_ENDPOINT", ""),
			ModelID:  getEnv("TTS_MODEL_ID", ""),
			Timeout:  getEnvAsDuration("TTS_TIMEOUT", 15*time.Second),
		},
	}
}

// APIKeyFor returns the key of the configured LLM provider
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case "gemini":
		return c.Keys.GoogleGemini
	case "openai":
		return c.Keys.OpenAI
	default:
		return ""
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "gemini":
		return "gemini-2.0-flash"
	default:
		return "llama3"
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("1500ms") or bare milliseconds
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if ms, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
