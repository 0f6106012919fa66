package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationEvent string

const (
	NotificationSessionBooked   NotificationEvent = "session_booked"
	NotificationSessionAccepted NotificationEvent = "session_accepted"
	NotificationSessionRejected NotificationEvent = "session_rejected"
	NotificationChatClosed      NotificationEvent = "chat_closed"
	NotificationReportSubmitted NotificationEvent = "report_submitted"
)

type Notification struct {
	ID        uuid.UUID         `db:"id"`
	UserID    uuid.UUID         `db:"user_id"`
	SessionID uuid.UUID         `db:"session_id"`
	Event     NotificationEvent `db:"event"`
	Message   string            `db:"message"`
	IsRead    bool              `db:"is_read"`
	CreatedAt time.Time         `db:"created_at"`
}
