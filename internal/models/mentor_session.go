package models

import (
	"time"

	"github.com/google/uuid"
)

type MentorSessionStatus string

const (
	MentorSessionStatusPending   MentorSessionStatus = "pending"
	MentorSessionStatusAccepted  MentorSessionStatus = "accepted"
	MentorSessionStatusRejected  MentorSessionStatus = "rejected"
	MentorSessionStatusCompleted MentorSessionStatus = "completed"
)

// IsTerminal reports whether no further transition may leave this status.
func (s MentorSessionStatus) IsTerminal() bool {
	return s == MentorSessionStatusRejected || s == MentorSessionStatusCompleted
}

// Party is the role a user plays on a given session.
type Party string

const (
	PartyNone     Party = ""
	PartyStudent  Party = "student"
	PartyReviewer Party = "reviewer"
)

type MentorSession struct {
	ID         uuid.UUID  `db:"id"`
	StudentID  uuid.UUID  `db:"student_id"`
	ReviewerID uuid.UUID  `db:"reviewer_id"`
	CourseID   *uuid.UUID `db:"course_id"`

	// SessionDate is YYYY-MM-DD and SessionTime is HH:MM, both local to Timezone.
	SessionDate     string `db:"session_date"`
	SessionTime     string `db:"session_time"`
	Timezone        string `db:"timezone"`
	DurationMinutes int    `db:"duration_minutes"`

	StudentNotes string              `db:"student_notes"`
	Status       MentorSessionStatus `db:"status"`

	ChatEnabled   bool       `db:"chat_enabled"`
	ChatExpiresAt *time.Time `db:"chat_expires_at"`

	SessionCompletedAt *time.Time `db:"session_completed_at"`
	SessionSummary     string     `db:"session_summary"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ChatOpenAt reports whether messages may be written at now.
// A nil expiry means no cap has been computed yet.
func (s *MentorSession) ChatOpenAt(now time.Time) bool {
	if s.Status != MentorSessionStatusAccepted || !s.ChatEnabled {
		return false
	}
	return s.ChatExpiresAt == nil || now.Before(*s.ChatExpiresAt)
}

// ChatStale reports whether chat_enabled is still set although the expiry has passed.
func (s *MentorSession) ChatStale(now time.Time) bool {
	return s.Status == MentorSessionStatusAccepted &&
		s.ChatEnabled &&
		s.ChatExpiresAt != nil &&
		!now.Before(*s.ChatExpiresAt)
}

// PartyOf returns the role userID plays on the session.
func (s *MentorSession) PartyOf(userID uuid.UUID) Party {
	switch userID {
	case uuid.Nil:
		return PartyNone
	case s.StudentID:
		return PartyStudent
	case s.ReviewerID:
		return PartyReviewer
	}
	return PartyNone
}

// CounterpartOf returns the other party's user ID.
func (s *MentorSession) CounterpartOf(userID uuid.UUID) uuid.UUID {
	if userID == s.StudentID {
		return s.ReviewerID
	}
	return s.StudentID
}
