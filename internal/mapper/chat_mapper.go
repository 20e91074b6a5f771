package mapper

import (
	"encoding/json"

	"docchat-be/internal/entity"
	"docchat-be/internal/model"
	"docchat-be/internal/pkg/logger"

	"gorm.io/datatypes"
)

type ChatMapper struct {
	logger logger.ILogger
}

func NewChatMapper(log logger.ILogger) *ChatMapper {
	return &ChatMapper{logger: log}
}

// ChatSessionToEntity decodes a session row. A corrupt message document is
// treated as an empty transcript, never as a fatal error: corruption means
// "no history" for this session.
func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var messages []entity.ChatMessage
	if len(s.Messages) > 0 {
		if err := json.Unmarshal(s.Messages, &messages); err != nil {
			if m.logger != nil {
				m.logger.Warn("ChatMapper", "Corrupt message document, treating as empty", map[string]interface{}{
					"session_id": s.Id,
					"error":      err.Error(),
				})
			}
			messages = nil
		}
	}

	return &entity.ChatSession{
		Id:        s.Id,
		Title:     s.Title,
		RequestId: s.RequestId,
		Messages:  messages,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) (*model.ChatSession, error) {
	if s == nil {
		return nil, nil
	}

	messages := s.Messages
	if messages == nil {
		messages = []entity.ChatMessage{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}

	return &model.ChatSession{
		Id:        s.Id,
		Title:     s.Title,
		RequestId: s.RequestId,
		Messages:  datatypes.JSON(raw),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}, nil
}
