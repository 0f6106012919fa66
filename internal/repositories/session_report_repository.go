package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/preetsinghmakkar/mentorly/internal/models"
)

// SessionReportRepository reads reports. Reports are written together with
// the session transition in MentorSessionRepository.CompleteWithReport.
type SessionReportRepository struct {
	db *sql.DB
}

func NewSessionReportRepository(db *sql.DB) *SessionReportRepository {
	return &SessionReportRepository{db: db}
}

func (r *SessionReportRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*models.SessionReport, error) {
	const query = `
	SELECT
		id,
		session_id,
		reviewer_id,
		progress_assessment,
		key_topics,
		recommendations,
		next_steps,
		overall_rating,
		submitted_at
	FROM session_reports
	WHERE session_id = $1
	`

	var report models.SessionReport
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&report.ID,
		&report.SessionID,
		&report.ReviewerID,
		&report.ProgressAssessment,
		pq.Array(&report.KeyTopics),
		&report.Recommendations,
		&report.NextSteps,
		&report.OverallRating,
		&report.SubmittedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session report: %w", err)
	}
	return &report, nil
}
