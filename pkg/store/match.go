package store

import "time"

// AnswerOption is one labeled, pre-vetted answer attached to a corpus question
type AnswerOption struct {
	Label string `json:"label" yaml:"label"` // "A" | "B" | "C"
	Text  string `json:"text" yaml:"text"`
}

// MatchResult is what the tiered matcher hands to the orchestrator.
// It is never mutated after creation; callers copy before changing fields.
type MatchResult struct {
	MatchedQuestion string         `json:"matched_question"`
	Answers         []AnswerOption `json:"answers"`
	Category        string         `json:"category"`
	Description     string         `json:"description"`
	Similarity      float64        `json:"similarity"`
	Tier            string         `json:"tier"`
}

// Clone returns a deep copy so cached results are never shared by reference
func (m *MatchResult) Clone() *MatchResult {
	if m == nil {
		return nil
	}
	c := *m
	c.Answers = append([]AnswerOption(nil), m.Answers...)
	return &c
}

// Answer returns the answer text for a label, or "" when missing
func (m *MatchResult) Answer(label string) string {
	for _, a := range m.Answers {
		if a.Label == label {
			return a.Text
		}
	}
	return ""
}

// CacheEntry is the unit stored by a match cache.
// Result may be nil; a nil result is never trusted.
type CacheEntry struct {
	Key       string       `json:"key"`
	Result    *MatchResult `json:"result"`
	Timestamp time.Time    `json:"timestamp"`
}

// Match tiers
const (
	TierCache    = "CACHE"
	TierExact    = "EXACT"
	TierPartial  = "PARTIAL"
	TierIndexed  = "INDEXED"
	TierFuzzy    = "FUZZY"
	TierFallback = "FALLBACK"
)
