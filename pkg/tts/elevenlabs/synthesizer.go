package elevenlabs

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
)

const defaultEndpoint = "https://api.elevenlabs.io/v1/text-to-speech"

const maxAudioBytes = 16 * 1024 * 1024

type Config struct {
	APIKey   string
	Endpoint string // base, the voice id is appended
	VoiceID  string
	ModelID  string
	Timeout  time.Duration
}

type Synthesizer struct {
	cfg  Config
	http *http.Client
}

func NewSynthesizer(cfg Config) *Synthesizer {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = "EXAVITQu4vr4xnSDxMaL"
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "eleven_multilingual_v2"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Synthesizer{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

type request struct {
	Text         string `json:"text"`
	ModelID      string `json:"model_id"`
	LanguageCode string `json:"language_code,omitempty"`
}

func (s *Synthesizer) Synthesize(ctx context.Context, text, voiceID, languageCode string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("elevenlabs: empty text")
	}
	if voiceID == "" {
		voiceID = s.cfg.VoiceID
	}

	// ElevenLabs takes ISO 639-1 ("en"), not a locale ("en-US")
	lang := languageCode
	if i := strings.IndexByte(lang, '-'); i > 0 {
		lang = lang[:i]
	}

	body, err := json.Marshal(request{Text: text, ModelID: s.cfg.ModelID, LanguageCode: strings.ToLower(lang)})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(s.cfg.Endpoint, "/") + "/" + voiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	if s.cfg.APIKey != "" {
		req.Header.Set("xi-api-key", s.cfg.APIKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		sample, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevenlabs status %d: %s", resp.StatusCode, strings.TrimSpace(string(sample)))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("elevenlabs: empty audio")
	}
	return audio, nil
}
