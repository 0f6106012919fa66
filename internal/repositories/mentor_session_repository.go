package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/preetsinghmakkar/mentorly/internal/models"
)

// SessionTransition describes the columns written by a conditional status change.
type SessionTransition struct {
	To            models.MentorSessionStatus
	ChatEnabled   bool
	ChatExpiresAt *time.Time
	At            time.Time
}

type MentorSessionRepository struct {
	db *sql.DB
}

func NewMentorSessionRepository(db *sql.DB) *MentorSessionRepository {
	return &MentorSessionRepository{db: db}
}

const sessionColumns = `
	id,
	student_id,
	reviewer_id,
	course_id,
	to_char(session_date, 'YYYY-MM-DD'),
	to_char(session_time, 'HH24:MI'),
	timezone,
	duration_minutes,
	student_notes,
	status,
	chat_enabled,
	chat_expires_at,
	session_completed_at,
	session_summary,
	created_at,
	updated_at
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*models.MentorSession, error) {
	var (
		session  models.MentorSession
		courseID uuid.NullUUID
	)

	err := row.Scan(
		&session.ID,
		&session.StudentID,
		&session.ReviewerID,
		&courseID,
		&session.SessionDate,
		&session.SessionTime,
		&session.Timezone,
		&session.DurationMinutes,
		&session.StudentNotes,
		&session.Status,
		&session.ChatEnabled,
		&session.ChatExpiresAt,
		&session.SessionCompletedAt,
		&session.SessionSummary,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if courseID.Valid {
		id := courseID.UUID
		session.CourseID = &id
	}
	return &session, nil
}

// Create inserts a new session
func (r *MentorSessionRepository) Create(ctx context.Context, session *models.MentorSession) error {
	const query = `
	INSERT INTO mentor_sessions (
		id,
		student_id,
		reviewer_id,
		course_id,
		session_date,
		session_time,
		timezone,
		duration_minutes,
		student_notes,
		status,
		chat_enabled,
		created_at,
		updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	`

	var courseID uuid.NullUUID
	if session.CourseID != nil {
		courseID = uuid.NullUUID{UUID: *session.CourseID, Valid: true}
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.StudentID,
		session.ReviewerID,
		courseID,
		session.SessionDate,
		session.SessionTime,
		session.Timezone,
		session.DurationMinutes,
		session.StudentNotes,
		session.Status,
		session.ChatEnabled,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create mentor session: %w", err)
	}

	session.UpdatedAt = session.CreatedAt
	return nil
}

// GetByID loads a single session
func (r *MentorSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MentorSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM mentor_sessions WHERE id = $1`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mentor session: %w", err)
	}
	return session, nil
}

// ListByStudent returns the student's sessions, newest first
func (r *MentorSessionRepository) ListByStudent(ctx context.Context, studentID uuid.UUID, statuses ...models.MentorSessionStatus) ([]*models.MentorSession, error) {
	return r.listByParty(ctx, "student_id", studentID, statuses)
}

// ListByReviewer returns the reviewer's sessions, newest first
func (r *MentorSessionRepository) ListByReviewer(ctx context.Context, reviewerID uuid.UUID, statuses ...models.MentorSessionStatus) ([]*models.MentorSession, error) {
	return r.listByParty(ctx, "reviewer_id", reviewerID, statuses)
}

func (r *MentorSessionRepository) listByParty(ctx context.Context, column string, userID uuid.UUID, statuses []models.MentorSessionStatus) ([]*models.MentorSession, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + sessionColumns + ` FROM mentor_sessions WHERE ` + column + ` = $1`)

	args := []interface{}{userID}
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		sb.WriteString(` AND status = ANY($2)`)
		args = append(args, pq.Array(values))
	}
	sb.WriteString(` ORDER BY session_date DESC, session_time DESC, created_at DESC`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list mentor sessions by %s: %w", column, err)
	}
	defer rows.Close()

	var sessions []*models.MentorSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mentor session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mentor sessions: %w", err)
	}
	return sessions, nil
}

// Transition moves a session out of status from. The write only lands if the
// stored status still equals from, so concurrent accept/reject calls on the
// same pending session resolve to a single winner.
func (r *MentorSessionRepository) Transition(ctx context.Context, id uuid.UUID, from models.MentorSessionStatus, t SessionTransition) (*models.MentorSession, error) {
	query := `
	UPDATE mentor_sessions
	SET
		status = $1,
		chat_enabled = $2,
		chat_expires_at = $3,
		updated_at = $4
	WHERE id = $5 AND status = $6
	RETURNING ` + sessionColumns

	session, err := scanSession(r.db.QueryRowContext(ctx, query, t.To, t.ChatEnabled, t.ChatExpiresAt, t.At, id, from))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.conflictOrMissing(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("transition mentor session: %w", err)
	}
	return session, nil
}

// DisableChat turns chat off on an accepted session. It reports false when
// chat was already off.
func (r *MentorSessionRepository) DisableChat(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	const query = `
	UPDATE mentor_sessions
	SET chat_enabled = FALSE, updated_at = $1
	WHERE id = $2 AND status = $3 AND chat_enabled = TRUE
	`

	result, err := r.db.ExecContext(ctx, query, at, id, models.MentorSessionStatusAccepted)
	if err != nil {
		return false, fmt.Errorf("disable chat: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("disable chat: %w", err)
	}
	return affected > 0, nil
}

// ExpireChats disables chat on every accepted session whose window has
// elapsed at now and returns the sessions it changed.
func (r *MentorSessionRepository) ExpireChats(ctx context.Context, now time.Time) ([]*models.MentorSession, error) {
	query := `
	UPDATE mentor_sessions
	SET chat_enabled = FALSE, updated_at = $1
	WHERE status = $2
		AND chat_enabled = TRUE
		AND chat_expires_at IS NOT NULL
		AND chat_expires_at <= $1
	RETURNING ` + sessionColumns

	rows, err := r.db.QueryContext(ctx, query, now, models.MentorSessionStatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("expire chats: %w", err)
	}
	defer rows.Close()

	var sessions []*models.MentorSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired sessions: %w", err)
	}
	return sessions, nil
}

// CompleteWithReport stores the report and moves the session from accepted
// to completed in one transaction.
func (r *MentorSessionRepository) CompleteWithReport(ctx context.Context, report *models.SessionReport, summary string) (*models.MentorSession, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const insertReport = `
	INSERT INTO session_reports (
		id,
		session_id,
		reviewer_id,
		progress_assessment,
		key_topics,
		recommendations,
		next_steps,
		overall_rating,
		submitted_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = tx.ExecContext(
		ctx,
		insertReport,
		report.ID,
		report.SessionID,
		report.ReviewerID,
		report.ProgressAssessment,
		pq.Array(report.KeyTopics),
		report.Recommendations,
		report.NextSteps,
		report.OverallRating,
		report.SubmittedAt,
	)
	if isUniqueViolation(err) {
		return nil, ErrReportExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert session report: %w", err)
	}

	completeSession := `
	UPDATE mentor_sessions
	SET
		status = $1,
		chat_enabled = FALSE,
		session_completed_at = $2,
		session_summary = $3,
		updated_at = $2
	WHERE id = $4 AND status = $5
	RETURNING ` + sessionColumns

	session, err := scanSession(tx.QueryRowContext(
		ctx,
		completeSession,
		models.MentorSessionStatusCompleted,
		report.SubmittedAt,
		summary,
		report.SessionID,
		models.MentorSessionStatusAccepted,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, fmt.Errorf("complete mentor session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return session, nil
}

func (r *MentorSessionRepository) conflictOrMissing(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM mentor_sessions WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check mentor session: %w", err)
	}
	if !exists {
		return ErrSessionNotFound
	}
	return ErrStatusConflict
}
