package contract

import (
	"context"
	"errors"

	"docchat-be/internal/entity"
)

// ErrVersionConflict signals that another writer updated the session between
// our read and write. Callers retry the whole read-modify-write.
var ErrVersionConflict = errors.New("chat session was modified concurrently")

// ChatSessionRepository owns the persisted session collection. Absent lookups
// return (nil, nil): a stale id is a normal outcome, not an error.
type ChatSessionRepository interface {
	// GetAllSessions returns the collection most-recently-created first.
	// It never fails on corrupt storage; corruption reads as no history.
	GetAllSessions(ctx context.Context) ([]*entity.ChatSession, error)
	GetSession(ctx context.Context, id string) (*entity.ChatSession, error)
	// SaveSession creates a new session bound to requestId, deriving the
	// title from messages and stamping both timestamps.
	SaveSession(ctx context.Context, requestId string, messages []entity.ChatMessage) (*entity.ChatSession, error)
	// UpdateSession replaces the message list, recomputes the title and
	// refreshes UpdatedAt. CreatedAt and RequestId are left untouched.
	// Returns (nil, nil) without writing when id does not exist.
	UpdateSession(ctx context.Context, id string, messages []entity.ChatMessage) (*entity.ChatSession, error)
	// DeleteSession reports whether a session matched; no write otherwise.
	DeleteSession(ctx context.Context, id string) (bool, error)
	ClearAllSessions(ctx context.Context) error
}
