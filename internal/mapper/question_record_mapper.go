package mapper

import (
	"encoding/json"
	"strings"
	"time"

	"sales-assistant-be/internal/entity"
	"sales-assistant-be/internal/model"

	"gorm.io/datatypes"
)

type QuestionRecordMapper struct{}

func NewQuestionRecordMapper() *QuestionRecordMapper {
	return &QuestionRecordMapper{}
}

func (m *QuestionRecordMapper) ToEntity(r *model.QuestionRecord) *entity.QuestionRecord {
	if r == nil {
		return nil
	}

	var questions []entity.QuestionEntry
	if len(r.Questions) > 0 {
		// Malformed rows surface as records without questions; the scorer skips them.
		_ = json.Unmarshal(r.Questions, &questions)
	}

	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}

	return &entity.QuestionRecord{
		Id:          r.Id,
		Category:    r.Category,
		Description: r.Description,
		Questions:   questions,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *QuestionRecordMapper) ToModel(r *entity.QuestionRecord) *model.QuestionRecord {
	if r == nil {
		return nil
	}

	questions := r.Questions
	if questions == nil {
		questions = []entity.QuestionEntry{}
	}
	raw, _ := json.Marshal(questions)

	var updatedAt time.Time
	if r.UpdatedAt != nil {
		updatedAt = *r.UpdatedAt
	}

	return &model.QuestionRecord{
		Id:          r.Id,
		Category:    r.Category,
		Description: r.Description,
		Questions:   datatypes.JSON(raw),
		SearchText:  SearchText(r),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *QuestionRecordMapper) ToEntities(records []*model.QuestionRecord) []*entity.QuestionRecord {
	entities := make([]*entity.QuestionRecord, len(records))
	for i, r := range records {
		entities[i] = m.ToEntity(r)
	}
	return entities
}

// SearchText is the document indexed for full-text search
func SearchText(r *entity.QuestionRecord) string {
	texts := make([]string, 0, len(r.Questions))
	for _, q := range r.Questions {
		texts = append(texts, q.Text)
	}
	return strings.Join(texts, " \n ")
}
