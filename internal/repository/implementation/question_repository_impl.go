package implementation

import (
	"context"
	"errors"

	"sales-assistant-be/internal/entity"
	"sales-assistant-be/internal/mapper"
	"sales-assistant-be/internal/model"
	"sales-assistant-be/internal/repository/contract"
	"sales-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QuestionRecordMapper
}

func NewQuestionRepository(db *gorm.DB) contract.QuestionRepository {
	return &QuestionRepositoryImpl{
		db:     db,
		mapper: mapper.NewQuestionRecordMapper(),
	}
}

func (r *QuestionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *QuestionRepositoryImpl) Create(ctx context.Context, record *entity.QuestionRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *QuestionRepositoryImpl) Update(ctx context.Context, record *entity.QuestionRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *QuestionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.QuestionRecord{}, id).Error
}

// DeleteAll hard-deletes the whole corpus before a full reseed
func (r *QuestionRepositoryImpl) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Unscoped().
		Delete(&model.QuestionRecord{})
	return res.RowsAffected, res.Error
}

func (r *QuestionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QuestionRecord, error) {
	var m model.QuestionRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *QuestionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QuestionRecord, error) {
	var models []*model.QuestionRecord
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.QuestionRecord{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *QuestionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.QuestionRecord{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
