package models

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessageType string

const (
	ChatMessageTypeUser   ChatMessageType = "user"
	ChatMessageTypeSystem ChatMessageType = "system"
)

// SystemSenderID is the sender of system messages.
var SystemSenderID = uuid.Nil

type ChatMessage struct {
	ID          uuid.UUID       `db:"id"`
	SessionID   uuid.UUID       `db:"session_id"`
	SenderID    uuid.UUID       `db:"sender_id"`
	MessageType ChatMessageType `db:"message_type"`
	Body        string          `db:"body"`
	IsRead      bool            `db:"is_read"`
	CreatedAt   time.Time       `db:"created_at"`

	// Seq is assigned by the store and breaks created_at ties.
	Seq int64 `db:"seq"`
}
