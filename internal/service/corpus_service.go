package service

import (
	"context"
	"fmt"

	"sales-assistant-be/internal/entity"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/internal/repository/unitofwork"
	"sales-assistant-be/pkg/events"
	"sales-assistant-be/pkg/matching"
	pktNats "sales-assistant-be/pkg/nats"
)

const corpusModule = "CORPUS"

type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType, durableName string, handler pktNats.EventHandler) error
}

// CachePurger drops every cached match result
type CachePurger interface {
	Purge(ctx context.Context)
}

type ICorpusService interface {
	// Seed writes records in one transaction. With replace set the existing
	// corpus is removed first.
	Seed(ctx context.Context, records []*entity.QuestionRecord, replace bool) (int, error)
	// Reload re-reads the corpus file into the in-memory corpus
	Reload(ctx context.Context) (int, error)
	// Watch purges local caches whenever any instance updates the corpus
	Watch(ctx context.Context) error
}

type corpusService struct {
	uowFactory      unitofwork.RepositoryFactory
	eventPublisher  EventPublisher
	eventSubscriber EventSubscriber
	cache           CachePurger
	fileCorpus      *matching.MemoryCorpus
	corpusPath      string
	logger          logger.ILogger
}

type CorpusServiceOptions struct {
	RepoFactory     unitofwork.RepositoryFactory
	EventPublisher  EventPublisher
	EventSubscriber EventSubscriber
	Cache           CachePurger
	FileCorpus      *matching.MemoryCorpus // set when CORPUS_SOURCE=file
	CorpusPath      string
}

func NewCorpusService(opts CorpusServiceOptions, log logger.ILogger) ICorpusService {
	return &corpusService{
		uowFactory:      opts.RepoFactory,
		eventPublisher:  opts.EventPublisher,
		eventSubscriber: opts.EventSubscriber,
		cache:           opts.Cache,
		fileCorpus:      opts.FileCorpus,
		corpusPath:      opts.CorpusPath,
		logger:          log,
	}
}

func (s *corpusService) Seed(ctx context.Context, records []*entity.QuestionRecord, replace bool) (int, error) {
	if s.uowFactory == nil {
		return 0, fmt.Errorf("seeding requires a database corpus")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	if replace {
		removed, err := uow.QuestionRepository().DeleteAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to clear corpus: %w", err)
		}
		s.logger.Info(corpusModule, "Existing corpus removed", map[string]interface{}{"records": removed})
	}

	for i, record := range records {
		if err := uow.QuestionRepository().Create(ctx, record); err != nil {
			return 0, fmt.Errorf("failed to create record %d (%s): %w", i, record.Category, err)
		}
	}

	if err := uow.Commit(); err != nil {
		return 0, err
	}

	s.announce(ctx, "postgres", len(records))
	return len(records), nil
}

func (s *corpusService) Reload(ctx context.Context) (int, error) {
	if s.fileCorpus == nil || s.corpusPath == "" {
		return 0, nil
	}

	records, err := matching.LoadCorpusFile(s.corpusPath)
	if err != nil {
		return 0, err
	}
	s.fileCorpus.Replace(records)
	s.purge(ctx)

	s.logger.Info(corpusModule, "Corpus file reloaded", map[string]interface{}{
		"path":    s.corpusPath,
		"records": len(records),
	})
	return len(records), nil
}

func (s *corpusService) Watch(ctx context.Context) error {
	if s.eventSubscriber == nil {
		return nil
	}

	return s.eventSubscriber.Subscribe(ctx, events.TypeCorpusUpdated, "", func(ctx context.Context, event events.Event) error {
		s.logger.Info(corpusModule, "Corpus updated", event.Payload())
		if s.fileCorpus != nil {
			_, err := s.Reload(ctx)
			return err
		}
		s.purge(ctx)
		return nil
	})
}

func (s *corpusService) purge(ctx context.Context) {
	if s.cache != nil {
		s.cache.Purge(ctx)
	}
}

func (s *corpusService) announce(ctx context.Context, source string, records int) {
	if s.eventPublisher == nil {
		s.purge(ctx)
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.NewCorpusUpdatedEvent(source, records), ""); err != nil {
		s.logger.Warn(corpusModule, "Failed to announce corpus update, purging local cache only", map[string]interface{}{"error": err.Error()})
		s.purge(ctx)
	}
}
