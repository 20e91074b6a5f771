package entity

// ChatMessage is one turn in a conversation. Type is immutable once created
// and sources only ever appear on bot messages that carried at least one
// normalized reference.
type ChatMessage struct {
	Type    string            `json:"type"`
	Text    string            `json:"text"`
	Sources []SourceReference `json:"sources,omitempty"`
}
