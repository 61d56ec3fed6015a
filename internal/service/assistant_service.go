package service

import (
	"context"
	"encoding/base64"
	"errors"

	"sales-assistant-be/internal/dto"
	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/pkg/matching"
	"sales-assistant-be/pkg/pipeline"
	"sales-assistant-be/pkg/store"

	"github.com/gofiber/fiber/v2"
)

type IAssistantService interface {
	Respond(ctx context.Context, agentId string, req *dto.RespondRequest) (*dto.RespondResponse, error)
	Match(ctx context.Context, req *dto.MatchRequest) (*dto.MatchResponse, error)
	Split(ctx context.Context, req *dto.SplitRequest) (*dto.SplitResponse, error)
	GetLogs(ctx context.Context, query *dto.LogQuery) ([]*dto.LogListResponse, error)
}

type Processor interface {
	Process(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error)
}

type QuestionMatcher interface {
	Match(ctx context.Context, query string) (*store.MatchResult, error)
	ForceMatch(ctx context.Context, query string) (*store.MatchResult, error)
}

type LogReader interface {
	GetLogs(level string, limit, offset int) ([]logger.LogEntry, error)
}

type assistantService struct {
	processor Processor
	matcher   QuestionMatcher
	logReader LogReader
	logger    logger.ILogger
}

func NewAssistantService(
	processor Processor,
	matcher QuestionMatcher,
	logReader LogReader,
	log logger.ILogger,
) IAssistantService {
	return &assistantService{
		processor: processor,
		matcher:   matcher,
		logReader: logReader,
		logger:    log,
	}
}

func (s *assistantService) Respond(ctx context.Context, agentId string, req *dto.RespondRequest) (*dto.RespondResponse, error) {
	result, err := s.processor.Process(ctx, &pipeline.Request{
		Transcript: req.Transcript,
		Mode:       req.Mode,
		Language:   req.Language,
		VoiceID:    req.VoiceId,
		History:    req.ConversationHistory.ToExchanges(),
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyTranscript) || errors.Is(err, pipeline.ErrInvalidMode) {
			return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		s.logger.Error("ASSISTANT", "Pipeline failed", map[string]interface{}{
			"agent_id": agentId,
			"error":    err.Error(),
		})
		return nil, fiber.NewError(fiber.StatusInternalServerError, pipeline.ErrPipelineFailure.Error())
	}

	res := &dto.RespondResponse{
		RequestId:     result.Metadata.RequestID,
		Transcript:    result.Transcript,
		ResponseText:  result.ResponseText,
		Options:       result.Options,
		KeyHighlights: result.KeyHighlights,
		Sentiment:     result.Sentiment,
		Metadata:      result.Metadata,
	}
	if result.Audio != nil && len(result.Audio.Data) > 0 {
		res.Audio = &dto.AudioResponse{
			Format: result.Audio.Format,
			Base64: base64.StdEncoding.EncodeToString(result.Audio.Data),
			Early:  result.Audio.Early,
		}
	}

	s.logger.Info("ASSISTANT", "Responded", map[string]interface{}{
		"agent_id":   agentId,
		"request_id": res.RequestId,
		"source":     result.Metadata.Source,
		"has_audio":  res.Audio != nil,
	})
	return res, nil
}

func (s *assistantService) Match(ctx context.Context, req *dto.MatchRequest) (*dto.MatchResponse, error) {
	var (
		result *store.MatchResult
		err    error
	)
	if req.Force {
		result, err = s.matcher.ForceMatch(ctx, req.Query)
	} else {
		result, err = s.matcher.Match(ctx, req.Query)
	}
	if err != nil {
		return nil, err
	}

	return &dto.MatchResponse{
		Query:      req.Query,
		Normalized: matching.Normalize(req.Query),
		Matched:    result != nil,
		Result:     result,
	}, nil
}

func (s *assistantService) Split(ctx context.Context, req *dto.SplitRequest) (*dto.SplitResponse, error) {
	return &dto.SplitResponse{Questions: matching.Split(req.Text)}, nil
}

func (s *assistantService) GetLogs(ctx context.Context, query *dto.LogQuery) ([]*dto.LogListResponse, error) {
	limit := query.Limit
	if limit == 0 {
		limit = 50
	}

	entries, err := s.logReader.GetLogs(query.Level, limit, query.Offset)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.LogListResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, &dto.LogListResponse{
			Id:        e.Id,
			Timestamp: e.Timestamp,
			Level:     e.Level,
			Module:    e.Module,
			Message:   e.Message,
			Details:   e.Details,
		})
	}
	return res, nil
}
