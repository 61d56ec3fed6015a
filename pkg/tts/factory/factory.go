package factory

import (
	"fmt"
	"time"

	"sales-assistant-be/pkg/tts"
	"sales-assistant-be/pkg/tts/elevenlabs"
	"sales-assistant-be/pkg/tts/polly"
)

type Config struct {
	Provider string // "polly", "elevenlabs", "none"
	Region   string
	VoiceID  string
	Engine   string
	APIKey   string
	Endpoint string
	ModelID  string
	Timeout  time.Duration
}

func NewSynthesizer(cfg Config) (tts.Synthesizer, error) {
	switch cfg.Provider {
	case "polly":
		return polly.NewSynthesizer(polly.Config{
			Region:  cfg.Region,
			VoiceID: cfg.VoiceID,
			Engine:  cfg.Engine,
			Timeout: cfg.Timeout,
		}), nil
	case "elevenlabs":
		return elevenlabs.NewSynthesizer(elevenlabs.Config{
			APIKey:   cfg.APIKey,
			Endpoint: cfg.Endpoint,
			VoiceID:  cfg.VoiceID,
			ModelID:  cfg.ModelID,
			Timeout:  cfg.Timeout,
		}), nil
	case "", "none":
		return tts.None(), nil
	default:
		return nil, fmt.Errorf("unsupported TTS provider: %s", cfg.Provider)
	}
}
