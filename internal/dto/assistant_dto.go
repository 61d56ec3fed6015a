package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"sales-assistant-be/pkg/pipeline"
	"sales-assistant-be/pkg/reply"
	"sales-assistant-be/pkg/store"
)

// ExchangeDto is one prior turn. Both snake_case and camelCase keys are
// accepted since browser and telephony clients send either.
type ExchangeDto struct {
	UserInput     string `json:"user_input" validate:"max=4000"`
	PriorResponse string `json:"prior_response" validate:"max=4000"`
}

func (e *ExchangeDto) UnmarshalJSON(data []byte) error {
	var raw struct {
		UserInput          *string `json:"user_input"`
		UserInputCamel     *string `json:"userInput"`
		PriorResponse      *string `json:"prior_response"`
		PriorResponseCamel *string `json:"priorResponse"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.UserInput = firstNonNil(raw.UserInput, raw.UserInputCamel)
	e.PriorResponse = firstNonNil(raw.PriorResponse, raw.PriorResponseCamel)
	return nil
}

func firstNonNil(values ...*string) string {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return ""
}

// ConversationHistory accepts a list of exchanges, a single exchange
// object, null, or a JSON string holding either of those.
type ConversationHistory []ExchangeDto

func (h *ConversationHistory) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*h = nil
		return nil
	case data[0] == '"':
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		if len(bytes.TrimSpace([]byte(inner))) == 0 {
			*h = nil
			return nil
		}
		return h.UnmarshalJSON([]byte(inner))
	case data[0] == '{':
		var one ExchangeDto
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*h = ConversationHistory{one}
		return nil
	case data[0] == '[':
		var many []ExchangeDto
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*h = many
		return nil
	default:
		return fmt.Errorf("conversation_history must be a list of exchanges")
	}
}

func (h ConversationHistory) ToExchanges() []store.Exchange {
	out := make([]store.Exchange, 0, len(h))
	for _, e := range h {
		out = append(out, store.Exchange{UserInput: e.UserInput, PriorResponse: e.PriorResponse})
	}
	return out
}

type RespondRequest struct {
	Transcript          string              `json:"transcript" validate:"required,max=4000"`
	Mode                string              `json:"mode" validate:"omitempty,oneof=sales support"`
	Language            string              `json:"language" validate:"omitempty,max=16"`
	VoiceId             string              `json:"voice_id" validate:"omitempty,max=64"`
	ConversationHistory ConversationHistory `json:"conversation_history" validate:"omitempty,max=50,dive"`
}

type AudioResponse struct {
	Format string `json:"format"`
	Base64 string `json:"base64"`
	Early  bool   `json:"early"`
}

type RespondResponse struct {
	RequestId     string                `json:"request_id"`
	Transcript    string                `json:"transcript"`
	ResponseText  string                `json:"response_text"`
	Options       []reply.LabeledOption `json:"options"`
	Audio         *AudioResponse        `json:"audio"`
	KeyHighlights store.KeyHighlights   `json:"key_highlights"`
	Sentiment     *store.Sentiment      `json:"sentiment"`
	Metadata      pipeline.Metadata     `json:"metadata"`
}

type MatchRequest struct {
	Query string `json:"query" validate:"required,max=1000"`
	Force bool   `json:"force"`
}

type MatchResponse struct {
	Query      string             `json:"query"`
	Normalized string             `json:"normalized"`
	Matched    bool               `json:"matched"`
	Result     *store.MatchResult `json:"result"`
}

type SplitRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type SplitResponse struct {
	Questions []string `json:"questions"`
}

type LogQuery struct {
	Level  string `query:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
	Limit  int    `query:"limit" validate:"min=0,max=500"`
	Offset int    `query:"offset" validate:"min=0"`
}

type LogListResponse struct {
	Id        string                 `json:"id"` // MD5 hash of the log line
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Module    string                 `json:"module"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
}
