package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"sales-assistant-be/internal/entity"
	"sales-assistant-be/internal/model"
	"sales-assistant-be/internal/repository/specification"
	"sales-assistant-be/internal/repository/unitofwork"
	"sales-assistant-be/pkg/database"
	"sales-assistant-be/pkg/matching"
	"sales-assistant-be/pkg/store"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, database.PoolConfig{MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	require.NoError(t, gormDB.AutoMigrate(&model.QuestionRecord{}))

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	assert.NoError(t, sqlDB.Ping())

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	category := "integration-" + uuid.NewString()

	record := &entity.QuestionRecord{
		Category:    category,
		Description: "integration fixture",
		Questions: []entity.QuestionEntry{{
			Text: "Does the integration plan include onboarding sessions?",
			Answers: []store.AnswerOption{
				{Label: "A", Text: "Yes, two onboarding sessions are included."},
				{Label: "B", Text: "Onboarding is part of every plan."},
				{Label: "C", Text: "We schedule onboarding in your first week."},
			},
		}},
	}

	t.Run("Transactional Create", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		require.NoError(t, uow.QuestionRepository().Create(ctx, record))
		require.NoError(t, uow.Commit())
		assert.NotEqual(t, uuid.Nil, record.Id)
	})

	t.Cleanup(func() {
		if record.Id != uuid.Nil {
			uowFactory.NewUnitOfWork(ctx).QuestionRepository().Delete(ctx, record.Id)
		}
	})

	t.Run("Find By Category", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		count, err := uow.QuestionRepository().Count(ctx, specification.ByCategory{Category: category})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		found, err := uow.QuestionRepository().FindOne(ctx, specification.ByCategory{Category: category})
		require.NoError(t, err)
		require.Len(t, found.Questions, 1)
		assert.Equal(t, "Yes, two onboarding sessions are included.", found.Questions[0].Answers[0].Text)

		byID, err := uow.QuestionRepository().FindOne(ctx, specification.ByID{ID: record.Id})
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Equal(t, category, byID.Category)
	})

	t.Run("Match Through Repository Corpus", func(t *testing.T) {
		m := matching.NewMatcher(matching.NewRepositoryCorpus(uowFactory), matching.NoCache(), nil, matching.DefaultConfig(), nil)

		res, err := m.Match(ctx, "does the integration plan include onboarding sessions")
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, category, res.Category)
		assert.Equal(t, store.TierExact, res.Tier)
	})
}
