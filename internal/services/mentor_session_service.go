package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/preetsinghmakkar/mentorly/internal/clock"
	"github.com/preetsinghmakkar/mentorly/internal/models"
	"github.com/preetsinghmakkar/mentorly/internal/repositories"
	"github.com/preetsinghmakkar/mentorly/internal/utils"
	"github.com/rs/zerolog"
)

// Deps groups the collaborators of MentorSessionService. Notifier, Publisher,
// Authorizer and Clock are optional.
type Deps struct {
	Sessions   SessionStore
	Messages   MessageStore
	Reports    ReportStore
	Directory  Directory
	Courses    CourseCatalog
	Authorizer Authorizer
	Notifier   Notifier
	Publisher  EventPublisher
	Clock      clock.Clock
	Logger     zerolog.Logger
	Policy     Policy
}

// MentorSessionService owns the mentoring session lifecycle: booking,
// accept/reject, the time-boxed chat window, the closing report and the
// read-only archive.
type MentorSessionService struct {
	sessions   SessionStore
	messages   MessageStore
	reports    ReportStore
	directory  Directory
	courses    CourseCatalog
	authorizer Authorizer
	notifier   Notifier
	publisher  EventPublisher
	clock      clock.Clock
	logger     zerolog.Logger
	policy     Policy
}

func NewMentorSessionService(deps Deps) *MentorSessionService {
	s := &MentorSessionService{
		sessions:   deps.Sessions,
		messages:   deps.Messages,
		reports:    deps.Reports,
		directory:  deps.Directory,
		courses:    deps.Courses,
		authorizer: deps.Authorizer,
		notifier:   deps.Notifier,
		publisher:  deps.Publisher,
		clock:      deps.Clock,
		logger:     deps.Logger.With().Str("component", "mentor_sessions").Logger(),
		policy:     deps.Policy,
	}

	if s.authorizer == nil {
		s.authorizer = SessionPartyAuthorizer{}
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	if s.publisher == nil {
		s.publisher = noopPublisher{}
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.policy == (Policy{}) {
		s.policy = DefaultPolicy()
	}
	return s
}

// Book creates a pending session between the student and a reviewer.
func (s *MentorSessionService) Book(ctx context.Context, studentID uuid.UUID, in BookingInput) (*models.MentorSession, error) {
	in.normalize()
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	if in.ReviewerID == studentID {
		return nil, newValidationError(FieldError{Field: "reviewer_id", Error: "cannot book a session with yourself"})
	}

	now := s.clock.Now()

	// "Today" is the caller's calendar date in the zone the session is booked in.
	today, err := utils.TodayIn(now, in.Timezone)
	if err != nil {
		return nil, newValidationError(FieldError{Field: "timezone", Error: err.Error()})
	}
	past, err := utils.DateBefore(in.SessionDate, today)
	if err != nil {
		return nil, newValidationError(FieldError{Field: "session_date", Error: err.Error()})
	}
	if past {
		return nil, newValidationError(FieldError{Field: "session_date", Error: "date must not be in the past"})
	}

	reviewer, err := s.directory.GetUser(ctx, in.ReviewerID)
	if err != nil {
		return nil, storeError("get reviewer", err)
	}
	if !reviewer.CanMentor() {
		return nil, newValidationError(FieldError{Field: "reviewer_id", Error: "user is not an eligible mentor"})
	}

	if in.CourseID != nil {
		if _, err := s.courses.GetCourse(ctx, *in.CourseID); err != nil {
			return nil, storeError("get course", err)
		}
	}

	duration := in.DurationMinutes
	if duration == 0 {
		duration = s.policy.DefaultDurationMinutes
	}

	session := &models.MentorSession{
		ID:              uuid.New(),
		StudentID:       studentID,
		ReviewerID:      in.ReviewerID,
		CourseID:        in.CourseID,
		SessionDate:     in.SessionDate,
		SessionTime:     in.SessionTime,
		Timezone:        in.Timezone,
		DurationMinutes: duration,
		StudentNotes:    in.Notes,
		Status:          models.MentorSessionStatusPending,
		ChatEnabled:     false,
		CreatedAt:       now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, storeError("create session", err)
	}

	s.logger.Info().
		Str("session_id", session.ID.String()).
		Str("student_id", studentID.String()).
		Str("reviewer_id", in.ReviewerID.String()).
		Str("date", session.SessionDate).
		Str("time", session.SessionTime).
		Str("timezone", session.Timezone).
		Msg("Session booked")

	s.notify(ctx, session, session.ReviewerID, models.NotificationSessionBooked,
		fmt.Sprintf("New mentoring session request for %s %s (%s)", session.SessionDate, session.SessionTime, session.Timezone))

	return session, nil
}

// Accept moves a pending session to accepted and opens its chat window.
// The window closes at scheduled start + duration + Policy.ChatGrace.
func (s *MentorSessionService) Accept(ctx context.Context, reviewerID, sessionID uuid.UUID) (*models.MentorSession, error) {
	now := s.clock.Now()
	session, err := s.loadAsReviewer(ctx, reviewerID, sessionID, now)
	if err != nil {
		return nil, err
	}
	if session.Status != models.MentorSessionStatusPending {
		return nil, invalidTransition("accept", session.Status)
	}

	expiresAt, err := s.ChatExpiry(session)
	if err != nil {
		return nil, err
	}

	updated, err := s.sessions.Transition(ctx, sessionID, models.MentorSessionStatusPending, repositories.SessionTransition{
		To:            models.MentorSessionStatusAccepted,
		ChatEnabled:   now.Before(expiresAt),
		ChatExpiresAt: &expiresAt,
		At:            now,
	})
	if err != nil {
		return nil, s.transitionError(ctx, "accept", sessionID, err)
	}

	s.logger.Info().
		Str("session_id", sessionID.String()).
		Str("reviewer_id", reviewerID.String()).
		Time("chat_expires_at", expiresAt).
		Bool("chat_enabled", updated.ChatEnabled).
		Msg("Session accepted")

	if updated.ChatEnabled {
		s.postSystemMessage(ctx, updated, now, s.chatOpenedText(updated, expiresAt))
	}

	s.publisher.PublishSessionEvent(updated, models.NotificationSessionAccepted)
	s.notify(ctx, updated, updated.StudentID, models.NotificationSessionAccepted,
		"Your mentoring session was accepted. The chat is now open.")

	return updated, nil
}

// Reject moves a pending session to rejected. Chat stays disabled for good.
func (s *MentorSessionService) Reject(ctx context.Context, reviewerID, sessionID uuid.UUID) (*models.MentorSession, error) {
	now := s.clock.Now()
	session, err := s.loadAsReviewer(ctx, reviewerID, sessionID, now)
	if err != nil {
		return nil, err
	}
	if session.Status != models.MentorSessionStatusPending {
		return nil, invalidTransition("reject", session.Status)
	}

	updated, err := s.sessions.Transition(ctx, sessionID, models.MentorSessionStatusPending, repositories.SessionTransition{
		To:          models.MentorSessionStatusRejected,
		ChatEnabled: false,
		At:          now,
	})
	if err != nil {
		return nil, s.transitionError(ctx, "reject", sessionID, err)
	}

	s.logger.Info().
		Str("session_id", sessionID.String()).
		Str("reviewer_id", reviewerID.String()).
		Msg("Session rejected")

	s.publisher.PublishSessionEvent(updated, models.NotificationSessionRejected)
	s.notify(ctx, updated, updated.StudentID, models.NotificationSessionRejected,
		"Your mentoring session request was declined.")

	return updated, nil
}

// SendMessage appends a user message. The chat window is re-checked at write
// time; a stale chat_enabled flag is never trusted.
func (s *MentorSessionService) SendMessage(ctx context.Context, senderID, sessionID uuid.UUID, body string) (*models.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, newValidationError(FieldError{Field: "body", Error: requiredText})
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return nil, newValidationError(FieldError{Field: "body", Error: fmt.Sprintf("must be at most %d characters", MaxMessageLength)})
	}

	now := s.clock.Now()
	session, _, err := s.loadForParty(ctx, senderID, sessionID, now)
	if err != nil {
		return nil, err
	}
	if err := chatClosedReason(session, now); err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		ID:          uuid.New(),
		SessionID:   sessionID,
		SenderID:    senderID,
		MessageType: models.ChatMessageTypeUser,
		Body:        body,
		IsRead:      false,
		CreatedAt:   now,
	}
	if err := s.messages.CreateIfChatOpen(ctx, msg); err != nil {
		return nil, storeError("create message", err)
	}

	s.logger.Debug().
		Str("session_id", sessionID.String()).
		Str("sender_id", senderID.String()).
		Msg("Chat message stored")

	s.publisher.PublishMessage(session, msg)
	return msg, nil
}

// EndChat lets the reviewer close an open chat window before it expires.
// The session stays accepted until the report is submitted.
func (s *MentorSessionService) EndChat(ctx context.Context, reviewerID, sessionID uuid.UUID) (*models.MentorSession, error) {
	now := s.clock.Now()
	session, err := s.loadAsReviewer(ctx, reviewerID, sessionID, now)
	if err != nil {
		return nil, err
	}
	if session.Status != models.MentorSessionStatusAccepted {
		return nil, invalidTransition("end the chat of", session.Status)
	}
	if err := chatClosedReason(session, now); err != nil {
		return nil, err
	}

	changed, err := s.sessions.DisableChat(ctx, sessionID, now)
	if err != nil {
		return nil, storeError("disable chat", err)
	}
	session.ChatEnabled = false
	session.UpdatedAt = now

	if changed {
		s.logger.Info().
			Str("session_id", sessionID.String()).
			Str("reviewer_id", reviewerID.String()).
			Msg("Chat ended by reviewer")
		s.chatClosed(ctx, session)
	}
	return session, nil
}

// SubmitReport stores the reviewer's report and completes the session. It
// requires the chat window to be elapsed or ended. Late reports are accepted;
// SessionView.IsOverdue exposes lateness.
func (s *MentorSessionService) SubmitReport(ctx context.Context, reviewerID, sessionID uuid.UUID, in ReportInput) (*models.SessionReport, error) {
	now := s.clock.Now()
	session, err := s.loadAsReviewer(ctx, reviewerID, sessionID, now)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case models.MentorSessionStatusAccepted:
	case models.MentorSessionStatusCompleted:
		if _, err := s.reports.GetBySessionID(ctx, sessionID); err == nil {
			return nil, ErrReportAlreadyExists
		} else if !errors.Is(err, repositories.ErrReportNotFound) {
			return nil, storeError("get report", err)
		}
		return nil, invalidTransition("report on", session.Status)
	default:
		return nil, invalidTransition("report on", session.Status)
	}

	if session.ChatOpenAt(now) {
		return nil, fmt.Errorf("%w: the chat window is still open, end the chat before submitting the report", ErrInvalidTransition)
	}

	in.normalize()
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	rating := models.DefaultReportRating
	if in.OverallRating != nil {
		rating = *in.OverallRating
	}

	report := &models.SessionReport{
		ID:                 uuid.New(),
		SessionID:          sessionID,
		ReviewerID:         reviewerID,
		ProgressAssessment: in.ProgressAssessment,
		KeyTopics:          in.KeyTopics,
		Recommendations:    in.Recommendations,
		NextSteps:          in.NextSteps,
		OverallRating:      rating,
		SubmittedAt:        now,
	}

	updated, err := s.sessions.CompleteWithReport(ctx, report, in.ProgressAssessment)
	if err != nil {
		return nil, storeError("complete session", err)
	}

	s.logger.Info().
		Str("session_id", sessionID.String()).
		Str("reviewer_id", reviewerID.String()).
		Int("rating", rating).
		Bool("overdue", s.isOverdue(session, now)).
		Msg("Session report submitted")

	s.publisher.PublishSessionEvent(updated, models.NotificationReportSubmitted)
	s.notify(ctx, updated, updated.StudentID, models.NotificationReportSubmitted,
		"Your session summary is available. The chat is now read-only.")

	return report, nil
}

// GetSession returns the session as seen by one of its parties.
func (s *MentorSessionService) GetSession(ctx context.Context, callerID, sessionID uuid.UUID) (*SessionView, error) {
	now := s.clock.Now()
	session, party, err := s.loadForParty(ctx, callerID, sessionID, now)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, session, party, callerID, now, newLookupCache()), nil
}

// ListMessages returns the session's chat in creation order. Messages stay
// readable after the session completes.
func (s *MentorSessionService) ListMessages(ctx context.Context, callerID, sessionID uuid.UUID) ([]*models.ChatMessage, error) {
	if _, _, err := s.loadForParty(ctx, callerID, sessionID, s.clock.Now()); err != nil {
		return nil, err
	}

	messages, err := s.messages.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, storeError("list messages", err)
	}
	return messages, nil
}

// MarkMessagesRead marks the counterpart's messages as read by the caller.
func (s *MentorSessionService) MarkMessagesRead(ctx context.Context, callerID, sessionID uuid.UUID) (int64, error) {
	if _, _, err := s.loadForParty(ctx, callerID, sessionID, s.clock.Now()); err != nil {
		return 0, err
	}

	n, err := s.messages.MarkRead(ctx, sessionID, callerID)
	if err != nil {
		return 0, storeError("mark messages read", err)
	}
	return n, nil
}

// GetReport returns the session's report to either party.
func (s *MentorSessionService) GetReport(ctx context.Context, callerID, sessionID uuid.UUID) (*models.SessionReport, error) {
	if _, _, err := s.loadForParty(ctx, callerID, sessionID, s.clock.Now()); err != nil {
		return nil, err
	}

	report, err := s.reports.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, storeError("get report", err)
	}
	return report, nil
}

// ListForStudent partitions the student's sessions by lifecycle stage.
func (s *MentorSessionService) ListForStudent(ctx context.Context, studentID uuid.UUID) (*SessionBuckets, error) {
	sessions, err := s.sessions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, storeError("list student sessions", err)
	}
	return s.partition(ctx, sessions, models.PartyStudent, studentID)
}

// ListForReviewer partitions the reviewer's sessions by lifecycle stage.
func (s *MentorSessionService) ListForReviewer(ctx context.Context, reviewerID uuid.UUID) (*SessionBuckets, error) {
	sessions, err := s.sessions.ListByReviewer(ctx, reviewerID)
	if err != nil {
		return nil, storeError("list reviewer sessions", err)
	}
	return s.partition(ctx, sessions, models.PartyReviewer, reviewerID)
}

// ExpireChats disables chat on every accepted session whose window has
// elapsed and returns how many sessions changed.
func (s *MentorSessionService) ExpireChats(ctx context.Context) (int, error) {
	now := s.clock.Now()
	expired, err := s.sessions.ExpireChats(ctx, now)
	if err != nil {
		return 0, storeError("expire chats", err)
	}

	for _, session := range expired {
		s.logger.Info().
			Str("session_id", session.ID.String()).
			Msg("Chat window expired")
		s.chatClosed(ctx, session)
	}
	return len(expired), nil
}

// ChatExpiry computes the deterministic end of a session's chat window.
func (s *MentorSessionService) ChatExpiry(session *models.MentorSession) (time.Time, error) {
	_, end, err := utils.SessionWindow(session.SessionDate, session.SessionTime, session.Timezone, session.DurationMinutes)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: stored schedule is invalid: %v", ErrValidation, err)
	}
	return end.Add(s.policy.ChatGrace), nil
}

func (s *MentorSessionService) loadForParty(ctx context.Context, callerID, sessionID uuid.UUID, now time.Time) (*models.MentorSession, models.Party, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, models.PartyNone, storeError("get session", err)
	}

	party, err := s.authorizer.PartyOf(ctx, callerID, session)
	if err != nil {
		return nil, models.PartyNone, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if party == models.PartyNone {
		return nil, models.PartyNone, ErrUnauthorized
	}

	if session.ChatStale(now) {
		if err := s.expireChat(ctx, session, now); err != nil {
			return nil, models.PartyNone, err
		}
	}
	return session, party, nil
}

func (s *MentorSessionService) loadAsReviewer(ctx context.Context, reviewerID, sessionID uuid.UUID, now time.Time) (*models.MentorSession, error) {
	session, party, err := s.loadForParty(ctx, reviewerID, sessionID, now)
	if err != nil {
		return nil, err
	}
	if party != models.PartyReviewer {
		return nil, fmt.Errorf("%w: only the session reviewer can do this", ErrUnauthorized)
	}
	return session, nil
}

// expireChat flips a stale chat_enabled flag found on read.
func (s *MentorSessionService) expireChat(ctx context.Context, session *models.MentorSession, now time.Time) error {
	changed, err := s.sessions.DisableChat(ctx, session.ID, now)
	if err != nil {
		return storeError("disable chat", err)
	}
	session.ChatEnabled = false
	session.UpdatedAt = now

	if changed {
		s.logger.Info().
			Str("session_id", session.ID.String()).
			Msg("Chat window expired on access")
		s.chatClosed(ctx, session)
	}
	return nil
}

func (s *MentorSessionService) chatClosed(ctx context.Context, session *models.MentorSession) {
	s.publisher.PublishSessionEvent(session, models.NotificationChatClosed)
	text := "The session chat has closed. The reviewer will now write the session report."
	s.notify(ctx, session, session.StudentID, models.NotificationChatClosed, text)
	s.notify(ctx, session, session.ReviewerID, models.NotificationChatClosed,
		"The session chat has closed. Please submit the session report.")
}

func (s *MentorSessionService) postSystemMessage(ctx context.Context, session *models.MentorSession, now time.Time, body string) {
	msg := &models.ChatMessage{
		ID:          uuid.New(),
		SessionID:   session.ID,
		SenderID:    models.SystemSenderID,
		MessageType: models.ChatMessageTypeSystem,
		Body:        body,
		CreatedAt:   now,
	}
	if err := s.messages.CreateIfChatOpen(ctx, msg); err != nil {
		s.logger.Warn().Err(err).Str("session_id", session.ID.String()).Msg("Failed to post system message")
		return
	}
	s.publisher.PublishMessage(session, msg)
}

func (s *MentorSessionService) chatOpenedText(session *models.MentorSession, expiresAt time.Time) string {
	until, err := utils.FormatTimeInTimezone(expiresAt, session.Timezone)
	if err != nil {
		until = expiresAt.Format(time.RFC3339)
	}
	return "Session accepted. The chat is open until " + until + "."
}

// transitionError explains a lost conditional write using the current state.
func (s *MentorSessionService) transitionError(ctx context.Context, action string, sessionID uuid.UUID, err error) error {
	if !errors.Is(err, repositories.ErrStatusConflict) {
		return storeError(action+" session", err)
	}
	current, getErr := s.sessions.GetByID(ctx, sessionID)
	if getErr != nil {
		return storeError(action+" session", err)
	}
	return invalidTransition(action, current.Status)
}

func (s *MentorSessionService) notify(ctx context.Context, session *models.MentorSession, userID uuid.UUID, event models.NotificationEvent, message string) {
	n := models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		SessionID: session.ID,
		Event:     event,
		Message:   message,
		CreatedAt: s.clock.Now(),
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn().
			Err(fmt.Errorf("%w: %w", ErrNotifyFailed, err)).
			Str("session_id", session.ID.String()).
			Str("user_id", userID.String()).
			Str("event", string(event)).
			Msg("Notification failed")
	}
}

// chatClosedReason returns a ChatClosed error explaining why no message can
// be written at now, or nil when the chat is open.
func chatClosedReason(session *models.MentorSession, now time.Time) error {
	switch {
	case session.Status == models.MentorSessionStatusPending:
		return fmt.Errorf("%w: the session has not been accepted yet", ErrChatClosed)
	case session.Status == models.MentorSessionStatusRejected:
		return fmt.Errorf("%w: the session was rejected", ErrChatClosed)
	case session.Status == models.MentorSessionStatusCompleted:
		return fmt.Errorf("%w: the session is completed and the chat is read-only", ErrChatClosed)
	case session.ChatExpiresAt != nil && !now.Before(*session.ChatExpiresAt):
		return fmt.Errorf("%w: the chat expired at %s", ErrChatClosed, session.ChatExpiresAt.Format(time.RFC3339))
	case !session.ChatEnabled:
		return fmt.Errorf("%w: the chat has been ended", ErrChatClosed)
	}
	return nil
}
