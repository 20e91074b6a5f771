package store

import "docchat-be/internal/entity"

// Conversation is the live, in-memory state of one dashboard tab's chat.
// The durable transcript lives in the session store; this only carries what
// the state machine needs between requests.
type Conversation struct {
	ID string `json:"id"`

	// State gates what the user may do next.
	State string `json:"state"` // EMPTY | INGESTING | READY | ASKING

	// RequestID is only ever set from the exact value returned by the most
	// recent successful ingest.
	RequestID string `json:"request_id"`

	// SessionID is the bound durable session, empty until first persist.
	SessionID string `json:"session_id"`

	// Messages mirrors the transcript shown in the chat pane, including
	// guard messages that are never persisted.
	Messages []entity.ChatMessage `json:"messages"`
}

const (
	StateEmpty     = "EMPTY"
	StateIngesting = "INGESTING"
	StateReady     = "READY"
	StateAsking    = "ASKING"
)
