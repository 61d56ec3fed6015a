package events

import (
	"time"

	"sales-assistant-be/pkg/store"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType is the dotted subject suffix, e.g. "crm.call_insight".
	EventType() string

	Payload() map[string]interface{}

	Timestamp() time.Time
}

const (
	TypeCallInsight   = "crm.call_insight"
	TypeCorpusUpdated = "corpus.updated"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewCallInsightEvent carries the CRM-facing result of one request
func NewCallInsightEvent(insight store.CallInsight) BaseEvent {
	data := map[string]interface{}{
		"request_id":  insight.RequestID,
		"transcript":  insight.Transcript,
		"occurred_at": insight.OccurredAt.Format(time.RFC3339Nano),
		"key_highlights": map[string]interface{}{
			"budget":        insight.KeyHighlights.Budget,
			"timeline":      insight.KeyHighlights.Timeline,
			"objections":    insight.KeyHighlights.Objections,
			"importantInfo": insight.KeyHighlights.ImportantInfo,
		},
	}
	if insight.Sentiment != nil {
		data["sentiment"] = map[string]interface{}{
			"label": insight.Sentiment.Label,
			"score": insight.Sentiment.Score,
		}
	}
	return BaseEvent{Type: TypeCallInsight, Data: data, OccurredAt: insight.OccurredAt}
}

// NewCorpusUpdatedEvent tells every instance to drop cached matches
func NewCorpusUpdatedEvent(source string, records int) BaseEvent {
	now := time.Now().UTC()
	return BaseEvent{
		Type: TypeCorpusUpdated,
		Data: map[string]interface{}{
			"source":      source,
			"records":     records,
			"occurred_at": now.Format(time.RFC3339Nano),
		},
		OccurredAt: now,
	}
}
