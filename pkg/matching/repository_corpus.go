package matching

import (
	"context"
	"fmt"

	"sales-assistant-be/internal/entity"
	"sales-assistant-be/internal/repository/specification"
	"sales-assistant-be/internal/repository/unitofwork"
)

// RepositoryCorpus serves the corpus from Postgres through the unit of work
type RepositoryCorpus struct {
	repoFactory unitofwork.RepositoryFactory
}

func NewRepositoryCorpus(repoFactory unitofwork.RepositoryFactory) *RepositoryCorpus {
	return &RepositoryCorpus{repoFactory: repoFactory}
}

func (c *RepositoryCorpus) MatchPatterns(ctx context.Context, patterns []string, limit int) ([]*entity.QuestionRecord, error) {
	return c.find(ctx, specification.QuestionPatternMatch{Patterns: patterns}, specification.Limit{N: limit})
}

func (c *RepositoryCorpus) ContainsAll(ctx context.Context, words []string, limit int) ([]*entity.QuestionRecord, error) {
	return c.find(ctx, specification.QuestionContainsAll{Words: words}, specification.Limit{N: limit})
}

func (c *RepositoryCorpus) TextSearch(ctx context.Context, query string, limit int) ([]*entity.QuestionRecord, error) {
	return c.find(ctx, specification.FullTextSearch{Query: query}, specification.Limit{N: limit})
}

func (c *RepositoryCorpus) Scan(ctx context.Context, limit int) ([]*entity.QuestionRecord, error) {
	return c.find(ctx, specification.OrderBy{Field: "created_at"}, specification.Limit{N: limit})
}

func (c *RepositoryCorpus) find(ctx context.Context, specs ...specification.Specification) ([]*entity.QuestionRecord, error) {
	uow := c.repoFactory.NewUnitOfWork(ctx)
	records, err := uow.QuestionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusUnavailable, err)
	}
	return records, nil
}
