package events

import "time"

// NewSessionActivityEvent describes a change to the persisted history that
// the dashboard's history page may want to reflect live.
func NewSessionActivityEvent(activity, sessionId, title string) Event {
	data := map[string]interface{}{
		"session_id": sessionId,
		"title":      title,
	}
	return BaseEvent{
		Type:       activity,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
