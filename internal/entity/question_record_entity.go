package entity

import (
	"time"

	"sales-assistant-be/pkg/store"

	"github.com/google/uuid"
)

// QuestionEntry is one phrasing of a corpus question with its three vetted answers
type QuestionEntry struct {
	Text    string               `json:"text" yaml:"text"`
	Answers []store.AnswerOption `json:"answers" yaml:"answers"`
}

type QuestionRecord struct {
	Id          uuid.UUID       `json:"id" yaml:"-"`
	Category    string          `json:"category" yaml:"category"`
	Description string          `json:"description" yaml:"description"`
	Questions   []QuestionEntry `json:"questions" yaml:"questions"`
	CreatedAt   time.Time       `json:"created_at" yaml:"-"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty" yaml:"-"`
}
