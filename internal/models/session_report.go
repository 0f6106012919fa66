package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultReportRating = 5

type SessionReport struct {
	ID                 uuid.UUID `db:"id"`
	SessionID          uuid.UUID `db:"session_id"`
	ReviewerID         uuid.UUID `db:"reviewer_id"`
	ProgressAssessment string    `db:"progress_assessment"`
	KeyTopics          []string  `db:"key_topics"`
	Recommendations    string    `db:"recommendations"`
	NextSteps          string    `db:"next_steps"`
	OverallRating      int       `db:"overall_rating"`
	SubmittedAt        time.Time `db:"submitted_at"`
}
