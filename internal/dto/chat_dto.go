package dto

import (
	"time"

	"docchat-be/internal/entity"
)

type LoadFromWebRequest struct {
	Url string `json:"url" validate:"required,url"`
}

type AskRequest struct {
	Question string `json:"question" validate:"required"`
}

// ChatMessageDTO is one transcript turn as the dashboard renders it. Sources
// are omitted entirely (not sent as an empty list) when the message carried
// no normalized references; the chat pane keys its "Sources" affordance on
// field presence.
type ChatMessageDTO struct {
	Type    string                   `json:"type"`
	Text    string                   `json:"text"`
	Sources []entity.SourceReference `json:"sources,omitempty"`
}

type IngestResponse struct {
	ConversationId string `json:"conversation_id"`
	RequestId      string `json:"request_id"`
	SessionId      string `json:"session_id"`
	State          string `json:"state"`
}

type AskResponse struct {
	ConversationId string          `json:"conversation_id"`
	SessionId      string          `json:"session_id,omitempty"`
	SessionTitle   string          `json:"title,omitempty"`
	State          string          `json:"state"`
	Sent           *ChatMessageDTO `json:"sent,omitempty"`
	Reply          *ChatMessageDTO `json:"reply"`
	// Guarded marks replies produced by a precondition check rather than
	// the engine (e.g. asking before any ingest).
	Guarded bool `json:"guarded,omitempty"`
}

type NewConversationResponse struct {
	ConversationId string `json:"conversation_id"`
	State          string `json:"state"`
}

type GetAllSessionsResponse struct {
	Id           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type GetSessionResponse struct {
	Id        string           `json:"id"`
	Title     string           `json:"title"`
	RequestId string           `json:"request_id"`
	Messages  []ChatMessageDTO `json:"messages"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type DeleteSessionResponse struct {
	Deleted bool `json:"deleted"`
}

// PublishSessionActivityMessage rides the in-process activity topic.
type PublishSessionActivityMessage struct {
	Activity  string `json:"activity"`
	SessionId string `json:"session_id,omitempty"`
	Title     string `json:"title,omitempty"`
}

// MessagesToDTO converts a transcript for API responses.
func MessagesToDTO(messages []entity.ChatMessage) []ChatMessageDTO {
	out := make([]ChatMessageDTO, 0, len(messages))
	for _, m := range messages {
		out = append(out, ChatMessageDTO{
			Type:    m.Type,
			Text:    m.Text,
			Sources: m.Sources,
		})
	}
	return out
}
