package entity

import (
	"strings"
	"testing"

	"docchat-be/internal/constant"
)

func TestDeriveTitle(t *testing.T) {
	long := strings.Repeat("x", 60)

	tests := []struct {
		name     string
		messages []ChatMessage
		want     string
	}{
		{
			name:     "no messages",
			messages: nil,
			want:     constant.UntitledSessionTitle,
		},
		{
			name: "only bot messages",
			messages: []ChatMessage{
				{Type: constant.ChatMessageTypeBot, Text: "hello there"},
			},
			want: constant.UntitledSessionTitle,
		},
		{
			name: "short user message used verbatim",
			messages: []ChatMessage{
				{Type: constant.ChatMessageTypeUser, Text: "What is chapter 3 about?"},
			},
			want: "What is chapter 3 about?",
		},
		{
			name: "long user message truncated with ellipsis",
			messages: []ChatMessage{
				{Type: constant.ChatMessageTypeUser, Text: long},
			},
			want: strings.Repeat("x", 50) + "...",
		},
		{
			name: "first user message wins over later ones",
			messages: []ChatMessage{
				{Type: constant.ChatMessageTypeBot, Text: "guard"},
				{Type: constant.ChatMessageTypeUser, Text: "first question"},
				{Type: constant.ChatMessageTypeUser, Text: "second question"},
			},
			want: "first question",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.messages); got != tt.want {
				t.Errorf("DeriveTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveTitleIsIdempotent(t *testing.T) {
	messages := []ChatMessage{
		{Type: constant.ChatMessageTypeUser, Text: strings.Repeat("y", 80)},
	}
	first := DeriveTitle(messages)
	second := DeriveTitle(messages)
	if first != second {
		t.Errorf("derivation is not stable: %q vs %q", first, second)
	}
}

func TestGenerateSessionIdFormat(t *testing.T) {
	id := GenerateSessionId()
	if !strings.HasPrefix(id, "session_") {
		t.Fatalf("id %q does not carry the session_ prefix", id)
	}
	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		t.Fatalf("id %q is not session_<millis>_<suffix>", id)
	}
	if len(parts[2]) != 9 {
		t.Errorf("suffix %q is %d chars, want 9", parts[2], len(parts[2]))
	}
}

func TestGenerateSessionIdIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateSessionId()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
