package entity

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"docchat-be/internal/constant"
)

// ChatSession is a persisted, titled conversation transcript bound to one
// backend request id. RequestId and CreatedAt are set at creation and never
// reassigned; Title is always re-derived from the message list.
type ChatSession struct {
	Id        string        `json:"id"`
	Title     string        `json:"title"`
	RequestId string        `json:"requestId"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// GenerateSessionId produces a process-wide-unique session id in the
// session_<millis>_<random> format the history page links against.
func GenerateSessionId() string {
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), randomSuffix())
}

func randomSuffix() string {
	const length = 9
	s := strconv.FormatUint(rand.Uint64(), 36)
	for len(s) < length {
		s = "0" + s
	}
	return s[:length]
}

// DeriveTitle computes the session title from the first user message,
// truncated to SessionTitleMaxLength characters with an ellipsis.
func DeriveTitle(messages []ChatMessage) string {
	for _, msg := range messages {
		if msg.Type != constant.ChatMessageTypeUser {
			continue
		}
		runes := []rune(msg.Text)
		if len(runes) > constant.SessionTitleMaxLength {
			return string(runes[:constant.SessionTitleMaxLength]) + "..."
		}
		return msg.Text
	}
	return constant.UntitledSessionTitle
}
