package service

import (
	"context"

	"docchat-be/internal/dto"
	"docchat-be/internal/pkg/logger"
	"docchat-be/pkg/events"
	pktNats "docchat-be/pkg/nats"
)

// ActivityRelayService feeds cross-instance activity from the NATS bus back
// into this instance's websocket hub, so a history change made against any
// replica reaches every connected dashboard.
type ActivityRelayService struct {
	subscriber *pktNats.Subscriber
	delivery   ActivityDelivery
	logger     logger.ILogger
}

func NewActivityRelayService(sub *pktNats.Subscriber, delivery ActivityDelivery, log logger.ILogger) *ActivityRelayService {
	return &ActivityRelayService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus with a durable consumer.
func (s *ActivityRelayService) Start() {
	err := s.subscriber.Subscribe("chat.events.>", "activity-relay-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("ActivityRelayService", "Failed to start activity relay", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("ActivityRelayService", "Activity relay started, listening to chat.events.>", nil)
}

func (s *ActivityRelayService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	sessionId, _ := payload["session_id"].(string)
	title, _ := payload["title"].(string)

	s.delivery.Broadcast(dto.PublishSessionActivityMessage{
		Activity:  event.EventType(),
		SessionId: sessionId,
		Title:     title,
	})
	return nil
}
