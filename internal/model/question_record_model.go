package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionRecord struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Category    string         `gorm:"type:varchar(255);not null;index"`
	Description string         `gorm:"type:text"`
	Questions   datatypes.JSON `gorm:"type:jsonb;not null"`
	SearchText  string         `gorm:"type:text"` // question texts joined, feeds the full-text index
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (QuestionRecord) TableName() string {
	return "question_records"
}
