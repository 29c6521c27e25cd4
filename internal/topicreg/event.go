package topicreg

import (
	"time"

	"github.com/google/uuid"
)

// MsgEvent is one published record: a fresh 128-bit id, topic name,
// content, priority, and a local wall-clock timestamp (spec.md §3
// MsgEvent). It is created by Publish Ingress, inserted into retention by
// the Broker before fan-out, and removed by the Cleaner.
type MsgEvent struct {
	ID        uuid.UUID `json:"id"`
	Topic     string    `json:"topic"`
	Content   string    `json:"content"`
	Priority  Priority  `json:"priority"`
	Timestamp time.Time `json:"timestamp"`
}

// PullNotice is the compact form delivered to pull-mode subscribers on
// publish: {id, timestamp} only (spec.md §6).
type PullNotice struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMsgEvent constructs a MsgEvent with a fresh random id and the current
// local wall-clock timestamp.
func NewMsgEvent(topic, content string, priority Priority) MsgEvent {
	return MsgEvent{
		ID:        uuid.New(),
		Topic:     topic,
		Content:   content,
		Priority:  priority,
		Timestamp: time.Now(),
	}
}
