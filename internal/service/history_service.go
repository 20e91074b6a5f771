package service

import (
	"context"
	"encoding/json"

	"docchat-be/internal/constant"
	"docchat-be/internal/dto"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/contract"
)

// IHistoryService is the read/delete surface behind the dashboard's history
// page. All durable access goes through the session store; nothing here
// mutates returned sessions in place.
type IHistoryService interface {
	GetAllSessions(ctx context.Context) ([]*dto.GetAllSessionsResponse, error)
	GetSession(ctx context.Context, id string) (*dto.GetSessionResponse, error)
	DeleteSession(ctx context.Context, id string) (bool, error)
	ClearAllSessions(ctx context.Context) error
}

type historyService struct {
	sessionStore contract.ChatSessionRepository
	publisher    IPublisherService
	logger       logger.ILogger
}

func NewHistoryService(sessionStore contract.ChatSessionRepository, publisher IPublisherService, log logger.ILogger) IHistoryService {
	return &historyService{
		sessionStore: sessionStore,
		publisher:    publisher,
		logger:       log,
	}
}

func (hs *historyService) GetAllSessions(ctx context.Context) ([]*dto.GetAllSessionsResponse, error) {
	sessions, err := hs.sessionStore.GetAllSessions(ctx)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(sessions))
	for _, s := range sessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:           s.Id,
			Title:        s.Title,
			MessageCount: len(s.Messages),
			CreatedAt:    s.CreatedAt,
			UpdatedAt:    s.UpdatedAt,
		})
	}
	return response, nil
}

func (hs *historyService) GetSession(ctx context.Context, id string) (*dto.GetSessionResponse, error) {
	session, err := hs.sessionStore.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	return &dto.GetSessionResponse{
		Id:        session.Id,
		Title:     session.Title,
		RequestId: session.RequestId,
		Messages:  dto.MessagesToDTO(session.Messages),
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}, nil
}

func (hs *historyService) DeleteSession(ctx context.Context, id string) (bool, error) {
	deleted, err := hs.sessionStore.DeleteSession(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		hs.publishActivity(ctx, constant.SessionActivityDeleted, id)
	}
	return deleted, nil
}

func (hs *historyService) ClearAllSessions(ctx context.Context) error {
	if err := hs.sessionStore.ClearAllSessions(ctx); err != nil {
		return err
	}
	hs.publishActivity(ctx, constant.SessionActivityCleared, "")
	return nil
}

func (hs *historyService) publishActivity(ctx context.Context, activity, sessionId string) {
	payload, err := json.Marshal(dto.PublishSessionActivityMessage{
		Activity:  activity,
		SessionId: sessionId,
	})
	if err != nil {
		return
	}
	if err := hs.publisher.Publish(ctx, payload); err != nil {
		hs.logger.Warn("HistoryService", "Failed to publish session activity", map[string]interface{}{
			"activity": activity,
			"error":    err.Error(),
		})
	}
}
