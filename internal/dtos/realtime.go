package dtos

import (
	"time"

	"github.com/google/uuid"
)

// Session event pushed over the realtime channel
type SessionEventPayload struct {
	SessionID     uuid.UUID  `json:"session_id"`
	Event         string     `json:"event"` // "session_accepted", "chat_closed", ...
	Status        string     `json:"status"`
	ChatEnabled   bool       `json:"chat_enabled"`
	ChatExpiresAt *time.Time `json:"chat_expires_at,omitempty"`
}

// Notification pushed to a connected user
type NotificationPayload struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Event     string    `json:"event"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
