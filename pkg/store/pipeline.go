package store

import (
	"strings"
	"time"
)

// Pipeline modes
const (
	ModeSales   = "sales"
	ModeSupport = "support"
)

// Reply sources reported in metadata
const (
	SourceDatabase   = "database"
	SourceGenerative = "generative"
	SourceFallback   = "fallback"
	SourceFailure    = "failure"
)

// Exchange is one prior turn of the conversation
type Exchange struct {
	UserInput     string `json:"user_input"`
	PriorResponse string `json:"prior_response"`
}

// KeyHighlights are the CRM-facing facts pulled out of customer speech.
// Empty fields are omitted, so an empty value serializes as {}.
type KeyHighlights struct {
	Budget        string `json:"budget,omitempty"`
	Timeline      string `json:"timeline,omitempty"`
	Objections    string `json:"objections,omitempty"`
	ImportantInfo string `json:"importantInfo,omitempty"`
}

// IsEmpty reports whether no highlight field is set
func (k KeyHighlights) IsEmpty() bool {
	return k.Budget == "" && k.Timeline == "" && k.Objections == "" && k.ImportantInfo == ""
}

// Merge fills empty fields of k from other
func (k KeyHighlights) Merge(other KeyHighlights) KeyHighlights {
	if k.Budget == "" {
		k.Budget = other.Budget
	}
	if k.Timeline == "" {
		k.Timeline = other.Timeline
	}
	if k.Objections == "" {
		k.Objections = other.Objections
	}
	if k.ImportantInfo == "" {
		k.ImportantInfo = other.ImportantInfo
	}
	return k
}

// Trimmed strips surrounding whitespace from every field
func (k KeyHighlights) Trimmed() KeyHighlights {
	return KeyHighlights{
		Budget:        strings.TrimSpace(k.Budget),
		Timeline:      strings.TrimSpace(k.Timeline),
		Objections:    strings.TrimSpace(k.Objections),
		ImportantInfo: strings.TrimSpace(k.ImportantInfo),
	}
}

// Sentiment is the optional customer sentiment enrichment
type Sentiment struct {
	Label string  `json:"label"` // "positive" | "neutral" | "negative"
	Score float64 `json:"score"`
}

// AudioClip is synthesized speech for the reply
type AudioClip struct {
	Data   []byte `json:"-"`
	Format string `json:"format"`
	Early  bool   `json:"early"` // produced from the still-streaming first option
}

// CallInsight is what the CRM receives for asynchronous persistence
type CallInsight struct {
	RequestID     string        `json:"request_id"`
	Transcript    string        `json:"transcript"`
	KeyHighlights KeyHighlights `json:"key_highlights"`
	Sentiment     *Sentiment    `json:"sentiment,omitempty"`
	OccurredAt    time.Time     `json:"occurred_at"`
}
