package service

import (
	"context"
	"encoding/json"
	"time"

	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/pkg/events"
	"sales-assistant-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const crmModule = "CRM_SYNC"

// EventPublisher is satisfied by *nats.Publisher
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event, msgID string) error
}

// ICRMSyncService hands call insights to the CRM bus without making the
// request path wait for delivery.
type ICRMSyncService interface {
	Enqueue(insight store.CallInsight)
	Consume(ctx context.Context) error
}

type crmSyncService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	eventPublisher EventPublisher
	logger         logger.ILogger
	attempts       int
	backoff        time.Duration
}

// NewCRMSyncService wires the in-process queue to the bus. A nil
// eventPublisher keeps the queue running and only logs insights.
func NewCRMSyncService(
	pubSub *gochannel.GoChannel,
	topicName string,
	eventPublisher EventPublisher,
	log logger.ILogger,
) ICRMSyncService {
	return &crmSyncService{
		pubSub:         pubSub,
		topicName:      topicName,
		eventPublisher: eventPublisher,
		logger:         log,
		attempts:       3,
		backoff:        500 * time.Millisecond,
	}
}

func (s *crmSyncService) Enqueue(insight store.CallInsight) {
	payload, err := json.Marshal(insight)
	if err != nil {
		s.logger.Error(crmModule, "Failed to marshal call insight", map[string]interface{}{"request_id": insight.RequestID, "error": err.Error()})
		return
	}
	if err := s.pubSub.Publish(s.topicName, message.NewMessage(uuid.NewString(), payload)); err != nil {
		s.logger.Error(crmModule, "Failed to enqueue call insight", map[string]interface{}{"request_id": insight.RequestID, "error": err.Error()})
	}
}

func (s *crmSyncService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *crmSyncService) processMessage(ctx context.Context, msg *message.Message) {
	var insight store.CallInsight
	if err := json.Unmarshal(msg.Payload, &insight); err != nil {
		s.logger.Error(crmModule, "Dropping malformed call insight", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	if s.eventPublisher == nil {
		s.logger.Info(crmModule, "CRM bus disabled, insight logged only", map[string]interface{}{
			"request_id":     insight.RequestID,
			"key_highlights": insight.KeyHighlights,
			"sentiment":      insight.Sentiment,
		})
		msg.Ack()
		return
	}

	event := events.NewCallInsightEvent(insight)
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		lastErr = s.eventPublisher.Publish(pctx, event, insight.RequestID)
		cancel()
		if lastErr == nil {
			s.logger.Debug(crmModule, "Call insight delivered", map[string]interface{}{"request_id": insight.RequestID, "attempt": attempt})
			msg.Ack()
			return
		}
		select {
		case <-ctx.Done():
			msg.Ack()
			return
		case <-time.After(s.backoff * time.Duration(attempt)):
		}
	}

	// Best effort: the CRM is never allowed to back up the queue
	s.logger.Error(crmModule, "Call insight dropped after retries", map[string]interface{}{
		"request_id": insight.RequestID,
		"error":      lastErr.Error(),
	})
	msg.Ack()
}
