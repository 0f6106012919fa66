package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/preetsinghmakkar/mentorly/internal/models"
	"github.com/preetsinghmakkar/mentorly/internal/repositories"
)

type SessionStore interface {
	Create(ctx context.Context, session *models.MentorSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MentorSession, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID, statuses ...models.MentorSessionStatus) ([]*models.MentorSession, error)
	ListByReviewer(ctx context.Context, reviewerID uuid.UUID, statuses ...models.MentorSessionStatus) ([]*models.MentorSession, error)
	Transition(ctx context.Context, id uuid.UUID, from models.MentorSessionStatus, t repositories.SessionTransition) (*models.MentorSession, error)
	DisableChat(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ExpireChats(ctx context.Context, now time.Time) ([]*models.MentorSession, error)
	CompleteWithReport(ctx context.Context, report *models.SessionReport, summary string) (*models.MentorSession, error)
}

type MessageStore interface {
	CreateIfChatOpen(ctx context.Context, msg *models.ChatMessage) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.ChatMessage, error)
	MarkRead(ctx context.Context, sessionID, readerID uuid.UUID) (int64, error)
}

type ReportStore interface {
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*models.SessionReport, error)
}

// Directory resolves user identities.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type CourseCatalog interface {
	GetCourse(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

// Authorizer decides which party, if any, a caller is on a session.
type Authorizer interface {
	PartyOf(ctx context.Context, callerID uuid.UUID, session *models.MentorSession) (models.Party, error)
}

// Notifier delivers best-effort notifications.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// EventPublisher pushes session activity to realtime subscribers.
type EventPublisher interface {
	PublishMessage(session *models.MentorSession, msg *models.ChatMessage)
	PublishSessionEvent(session *models.MentorSession, event models.NotificationEvent)
}

// SessionPartyAuthorizer compares the caller with the session's stored parties.
type SessionPartyAuthorizer struct{}

func (SessionPartyAuthorizer) PartyOf(_ context.Context, callerID uuid.UUID, session *models.MentorSession) (models.Party, error) {
	return session.PartyOf(callerID), nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, models.Notification) error { return nil }

type noopPublisher struct{}

func (noopPublisher) PublishMessage(*models.MentorSession, *models.ChatMessage)             {}
func (noopPublisher) PublishSessionEvent(*models.MentorSession, models.NotificationEvent) {}
