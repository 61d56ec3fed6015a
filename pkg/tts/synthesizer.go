package tts

import (
	"context"
	"errors"
)

// ErrDisabled is returned by the no-op synthesizer
var ErrDisabled = errors.New("speech synthesis disabled")

// Synthesizer turns reply text into encoded audio (mp3)
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID, languageCode string) ([]byte, error)
}

// Format of the audio every synthesizer returns
const Format = "mp3"

type none struct{}

// None never produces audio
func None() Synthesizer { return none{} }

func (none) Synthesize(context.Context, string, string, string) ([]byte, error) {
	return nil, ErrDisabled
}
