package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/preetsinghmakkar/mentorly/internal/models"
)

type ChatMessageRepository struct {
	db *sql.DB
}

func NewChatMessageRepository(db *sql.DB) *ChatMessageRepository {
	return &ChatMessageRepository{db: db}
}

// CreateIfChatOpen inserts msg only while its session is accepted with chat
// enabled and the expiry still ahead of msg.CreatedAt. The check and the
// insert are a single statement.
func (r *ChatMessageRepository) CreateIfChatOpen(ctx context.Context, msg *models.ChatMessage) error {
	const query = `
	INSERT INTO chat_messages (
		id,
		session_id,
		sender_id,
		message_type,
		body,
		is_read,
		created_at
	)
	SELECT $1, $2, $3, $4, $5, $6, $7
	WHERE EXISTS (
		SELECT 1 FROM mentor_sessions
		WHERE id = $2
			AND status = $8
			AND chat_enabled = TRUE
			AND (chat_expires_at IS NULL OR chat_expires_at > $7)
	)
	RETURNING seq
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		msg.ID,
		msg.SessionID,
		msg.SenderID,
		msg.MessageType,
		msg.Body,
		msg.IsRead,
		msg.CreatedAt,
		models.MentorSessionStatusAccepted,
	).Scan(&msg.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrChatNotOpen
	}
	if err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}
	return nil
}

// ListBySession returns messages in creation order, ties broken by insertion order
func (r *ChatMessageRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.ChatMessage, error) {
	const query = `
	SELECT
		id,
		session_id,
		sender_id,
		message_type,
		body,
		is_read,
		created_at,
		seq
	FROM chat_messages
	WHERE session_id = $1
	ORDER BY created_at ASC, seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		err := rows.Scan(
			&msg.ID,
			&msg.SessionID,
			&msg.SenderID,
			&msg.MessageType,
			&msg.Body,
			&msg.IsRead,
			&msg.CreatedAt,
			&msg.Seq,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return messages, nil
}

// MarkRead flags every unread message in the session not sent by readerID
func (r *ChatMessageRepository) MarkRead(ctx context.Context, sessionID, readerID uuid.UUID) (int64, error) {
	const query = `
	UPDATE chat_messages
	SET is_read = TRUE
	WHERE session_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, sessionID, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark chat messages read: %w", err)
	}
	return result.RowsAffected()
}
