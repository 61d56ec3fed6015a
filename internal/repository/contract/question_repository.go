package contract

import (
	"context"

	"sales-assistant-be/internal/entity"
	"sales-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type QuestionRepository interface {
	Create(ctx context.Context, record *entity.QuestionRecord) error
	Update(ctx context.Context, record *entity.QuestionRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) (int64, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QuestionRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QuestionRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
