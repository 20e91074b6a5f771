package model

import (
	"time"

	"gorm.io/datatypes"
)

// ChatSession is the durable row form of a conversation. Messages are kept as
// a JSON document because the transcript is only ever read and written whole.
// Version backs the optimistic check that prevents two writers from silently
// dropping each other's update.
type ChatSession struct {
	Id        string         `gorm:"type:text;primaryKey"`
	Title     string         `gorm:"type:text;not null"`
	RequestId string         `gorm:"type:text;not null"`
	Messages  datatypes.JSON `gorm:"type:jsonb"`
	Version   int64          `gorm:"not null;default:1"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
