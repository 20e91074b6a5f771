package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

const (
	historyStorageKey = "chat_history"

	// schemaVersion is written into the envelope so a later format change
	// can migrate instead of discarding history.
	schemaVersion = 1
)

// historyEnvelope is the serialized collection stored under the single
// history key, most-recently-created session first.
type historyEnvelope struct {
	SchemaVersion int                   `json:"schema_version"`
	Sessions      []*entity.ChatSession `json:"sessions"`
}

// ChatSessionRepository keeps the whole session collection JSON-serialized
// under one storage key. Every write is a full read-modify-write of the
// collection, guarded by a single-writer lock so two goroutines cannot drop
// each other's update.
type ChatSessionRepository struct {
	cache  *cache.Cache
	mu     sync.Mutex
	logger logger.ILogger
}

func NewChatSessionRepository(log logger.ILogger) contract.ChatSessionRepository {
	return &ChatSessionRepository{
		cache:  cache.New(cache.NoExpiration, 10*time.Minute),
		logger: log,
	}
}

// load deserializes the collection. A corrupt payload reads as no history.
func (r *ChatSessionRepository) load() []*entity.ChatSession {
	raw, found := r.cache.Get(historyStorageKey)
	if !found {
		return nil
	}
	data, ok := raw.([]byte)
	if !ok {
		return nil
	}

	var envelope historyEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		if r.logger != nil {
			r.logger.Warn("ChatSessionRepository", "Corrupt history payload, treating as empty", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil
	}
	return envelope.Sessions
}

// flush serializes and writes the full collection atomically.
func (r *ChatSessionRepository) flush(sessions []*entity.ChatSession) error {
	data, err := json.Marshal(historyEnvelope{
		SchemaVersion: schemaVersion,
		Sessions:      sessions,
	})
	if err != nil {
		return err
	}
	r.cache.Set(historyStorageKey, data, cache.NoExpiration)
	return nil
}

func (r *ChatSessionRepository) GetAllSessions(ctx context.Context) ([]*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(), nil
}

func (r *ChatSessionRepository) GetSession(ctx context.Context, id string) (*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.load() {
		if s.Id == id {
			return s, nil
		}
	}
	return nil, nil
}

func (r *ChatSessionRepository) SaveSession(ctx context.Context, requestId string, messages []entity.ChatMessage) (*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	session := &entity.ChatSession{
		Id:        entity.GenerateSessionId(),
		Title:     entity.DeriveTitle(messages),
		RequestId: requestId,
		Messages:  messages,
		CreatedAt: now,
		UpdatedAt: now,
	}

	sessions := append([]*entity.ChatSession{session}, r.load()...)
	if err := r.flush(sessions); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *ChatSessionRepository) UpdateSession(ctx context.Context, id string, messages []entity.ChatMessage) (*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := r.load()
	for i, s := range sessions {
		if s.Id != id {
			continue
		}
		updated := *s
		updated.Messages = messages
		updated.Title = entity.DeriveTitle(messages)
		updated.UpdatedAt = time.Now()
		sessions[i] = &updated

		if err := r.flush(sessions); err != nil {
			return nil, err
		}
		return &updated, nil
	}
	// Absent id is a normal outcome; no write happens.
	return nil, nil
}

func (r *ChatSessionRepository) DeleteSession(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := r.load()
	filtered := sessions[:0:0]
	for _, s := range sessions {
		if s.Id != id {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == len(sessions) {
		return false, nil
	}
	if err := r.flush(filtered); err != nil {
		return false, err
	}
	return true, nil
}

func (r *ChatSessionRepository) ClearAllSessions(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Delete(historyStorageKey)
	return nil
}

// CorruptStorage overwrites the stored payload with garbage. Test hook for
// the corruption-reads-as-empty contract.
func (r *ChatSessionRepository) CorruptStorage() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(historyStorageKey, []byte("{not json"), cache.NoExpiration)
}
