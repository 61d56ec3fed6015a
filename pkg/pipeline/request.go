package pipeline

import (
	"errors"
	"strings"

	"sales-assistant-be/pkg/reply"
	"sales-assistant-be/pkg/store"
)

var (
	ErrEmptyTranscript = errors.New("transcript is empty")
	ErrInvalidMode     = errors.New("mode must be sales or support")
)

// Request is one finalized customer utterance
type Request struct {
	RequestID  string
	Transcript string
	Mode       string // store.ModeSales | store.ModeSupport
	Language   string // BCP-47, e.g. "en-US", "hi-IN"
	History    []store.Exchange
	VoiceID    string
}

// Normalize trims fields, defaults the mode and drops empty history turns.
// Only the most recent maxTurns turns are kept when maxTurns > 0.
func (r *Request) Normalize(maxTurns int) error {
	r.Transcript = strings.TrimSpace(r.Transcript)
	if r.Transcript == "" {
		return ErrEmptyTranscript
	}

	r.Mode = strings.ToLower(strings.TrimSpace(r.Mode))
	switch r.Mode {
	case "":
		r.Mode = store.ModeSales
	case store.ModeSales, store.ModeSupport:
	default:
		return ErrInvalidMode
	}
	r.Language = strings.TrimSpace(r.Language)

	history := make([]store.Exchange, 0, len(r.History))
	for _, h := range r.History {
		h.UserInput = strings.TrimSpace(h.UserInput)
		h.PriorResponse = strings.TrimSpace(h.PriorResponse)
		if h.UserInput == "" && h.PriorResponse == "" {
			continue
		}
		history = append(history, h)
	}
	if maxTurns > 0 && len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}
	r.History = history
	return nil
}

// MatchInfo describes one corpus hit used for the reply
type MatchInfo struct {
	Question        string  `json:"question"`
	MatchedQuestion string  `json:"matched_question"`
	Category        string  `json:"category"`
	Similarity      float64 `json:"similarity"`
	Tier            string  `json:"tier"`
}

type Metadata struct {
	RequestID  string           `json:"request_id"`
	Mode       string           `json:"mode"`
	Source     string           `json:"source"`
	Questions  []string         `json:"questions,omitempty"`
	Matches    []MatchInfo      `json:"matches,omitempty"`
	EarlyAudio bool             `json:"early_audio"`
	Translated bool             `json:"translated"`
	Timings    map[string]int64 `json:"timings_ms"`
}

// Result is always populated; nil Audio or Sentiment means the
// enrichment was unavailable in time.
type Result struct {
	Transcript    string                `json:"transcript"`
	ResponseText  string                `json:"responseText"`
	Options       []reply.LabeledOption `json:"options"`
	Audio         *store.AudioClip      `json:"audio,omitempty"`
	KeyHighlights store.KeyHighlights   `json:"keyHighlights"`
	Sentiment     *store.Sentiment      `json:"sentiment"`
	Metadata      Metadata              `json:"metadata"`
}
