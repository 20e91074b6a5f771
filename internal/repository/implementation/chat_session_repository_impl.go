package implementation

import (
	"context"
	"errors"
	"time"

	"docchat-be/internal/entity"
	"docchat-be/internal/mapper"
	"docchat-be/internal/model"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/contract"

	"gorm.io/gorm"
)

type ChatSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
	logger logger.ILogger
}

func NewChatSessionRepository(db *gorm.DB, log logger.ILogger) contract.ChatSessionRepository {
	return &ChatSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(log),
		logger: log,
	}
}

func (r *ChatSessionRepositoryImpl) GetAllSessions(ctx context.Context) ([]*entity.ChatSession, error) {
	var models []*model.ChatSession
	// Id as tiebreaker keeps same-timestamp sessions in a stable order.
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	sessions := make([]*entity.ChatSession, len(models))
	for i, m := range models {
		sessions[i] = r.mapper.ChatSessionToEntity(m)
	}
	return sessions, nil
}

func (r *ChatSessionRepositoryImpl) GetSession(ctx context.Context, id string) (*entity.ChatSession, error) {
	var m model.ChatSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatSessionToEntity(&m), nil
}

func (r *ChatSessionRepositoryImpl) SaveSession(ctx context.Context, requestId string, messages []entity.ChatMessage) (*entity.ChatSession, error) {
	now := time.Now()
	session := &entity.ChatSession{
		Id:        entity.GenerateSessionId(),
		Title:     entity.DeriveTitle(messages),
		RequestId: requestId,
		Messages:  messages,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m, err := r.mapper.ChatSessionToModel(session)
	if err != nil {
		return nil, err
	}
	m.Version = 1

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *ChatSessionRepositoryImpl) UpdateSession(ctx context.Context, id string, messages []entity.ChatMessage) (*entity.ChatSession, error) {
	var m model.ChatSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	updated := r.mapper.ChatSessionToEntity(&m)
	updated.Messages = messages
	updated.Title = entity.DeriveTitle(messages)
	updated.UpdatedAt = time.Now()

	row, err := r.mapper.ChatSessionToModel(updated)
	if err != nil {
		return nil, err
	}

	// Optimistic check: a stale version means a concurrent writer got here
	// first, and blindly overwriting would drop their messages.
	res := r.db.WithContext(ctx).Model(&model.ChatSession{}).
		Where("id = ? AND version = ?", id, m.Version).
		Updates(map[string]interface{}{
			"title":      row.Title,
			"messages":   row.Messages,
			"updated_at": row.UpdatedAt,
			"version":    m.Version + 1,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, contract.ErrVersionConflict
	}

	return updated, nil
}

func (r *ChatSessionRepositoryImpl) DeleteSession(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ChatSession{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ChatSessionRepositoryImpl) ClearAllSessions(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&model.ChatSession{}).Error
}
