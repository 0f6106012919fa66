package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/preetsinghmakkar/mentorly/internal/models"
)

// NotificationRepository persists notifications so they survive the
// recipient being offline.
type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Notify(ctx context.Context, n models.Notification) error {
	const query = `
	INSERT INTO notifications (id, user_id, session_id, event, message, is_read, created_at)
	VALUES ($1, $2, $3, $4, $5, FALSE, $6)
	`

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, query, n.ID, n.UserID, n.SessionID, n.Event, n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
