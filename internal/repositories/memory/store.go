// Package memory is an in-process implementation of the session, message,
// report, user and course stores. It is used by tests and by the server
// when STORE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/preetsinghmakkar/mentorly/internal/models"
	"github.com/preetsinghmakkar/mentorly/internal/repositories"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.MentorSession
	messages map[uuid.UUID][]*models.ChatMessage
	reports  map[uuid.UUID]*models.SessionReport
	users    map[uuid.UUID]*models.User
	courses  map[uuid.UUID]*models.Course
	seq      int64
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*models.MentorSession),
		messages: make(map[uuid.UUID][]*models.ChatMessage),
		reports:  make(map[uuid.UUID]*models.SessionReport),
		users:    make(map[uuid.UUID]*models.User),
		courses:  make(map[uuid.UUID]*models.Course),
	}
}

func copySession(s *models.MentorSession) *models.MentorSession {
	c := *s
	if s.CourseID != nil {
		id := *s.CourseID
		c.CourseID = &id
	}
	if s.ChatExpiresAt != nil {
		t := *s.ChatExpiresAt
		c.ChatExpiresAt = &t
	}
	if s.SessionCompletedAt != nil {
		t := *s.SessionCompletedAt
		c.SessionCompletedAt = &t
	}
	return &c
}

func copyReport(r *models.SessionReport) *models.SessionReport {
	c := *r
	c.KeyTopics = append([]string(nil), r.KeyTopics...)
	return &c
}

// AddUser seeds the identity directory.
func (s *Store) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

// AddCourse seeds the course catalog.
func (s *Store) AddCourse(c models.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[c.ID] = &c
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (s *Store) GetCourse(_ context.Context, id uuid.UUID) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return nil, repositories.ErrCourseNotFound
	}
	cc := *c
	return &cc, nil
}

func (s *Store) Create(_ context.Context, session *models.MentorSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.UpdatedAt = session.CreatedAt
	s.sessions[session.ID] = copySession(session)
	return nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*models.MentorSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, repositories.ErrSessionNotFound
	}
	return copySession(session), nil
}

func (s *Store) ListByStudent(_ context.Context, studentID uuid.UUID, statuses ...models.MentorSessionStatus) ([]*models.MentorSession, error) {
	return s.list(func(m *models.MentorSession) bool { return m.StudentID == studentID }, statuses), nil
}

func (s *Store) ListByReviewer(_ context.Context, reviewerID uuid.UUID, statuses ...models.MentorSessionStatus) ([]*models.MentorSession, error) {
	return s.list(func(m *models.MentorSession) bool { return m.ReviewerID == reviewerID }, statuses), nil
}

func (s *Store) list(match func(*models.MentorSession) bool, statuses []models.MentorSessionStatus) []*models.MentorSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.MentorSession
	for _, m := range s.sessions {
		if !match(m) || !hasStatus(m.Status, statuses) {
			continue
		}
		out = append(out, copySession(m))
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SessionDate != b.SessionDate {
			return a.SessionDate > b.SessionDate
		}
		if a.SessionTime != b.SessionTime {
			return a.SessionTime > b.SessionTime
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out
}

func hasStatus(status models.MentorSessionStatus, statuses []models.MentorSessionStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (s *Store) Transition(_ context.Context, id uuid.UUID, from models.MentorSessionStatus, t repositories.SessionTransition) (*models.MentorSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, repositories.ErrSessionNotFound
	}
	if session.Status != from {
		return nil, repositories.ErrStatusConflict
	}

	session.Status = t.To
	session.ChatEnabled = t.ChatEnabled
	session.ChatExpiresAt = nil
	if t.ChatExpiresAt != nil {
		exp := *t.ChatExpiresAt
		session.ChatExpiresAt = &exp
	}
	session.UpdatedAt = t.At
	return copySession(session), nil
}

func (s *Store) DisableChat(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.Status != models.MentorSessionStatusAccepted || !session.ChatEnabled {
		return false, nil
	}
	session.ChatEnabled = false
	session.UpdatedAt = at
	return true, nil
}

func (s *Store) ExpireChats(_ context.Context, now time.Time) ([]*models.MentorSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*models.MentorSession
	for _, session := range s.sessions {
		if !session.ChatStale(now) {
			continue
		}
		session.ChatEnabled = false
		session.UpdatedAt = now
		expired = append(expired, copySession(session))
	}
	return expired, nil
}

func (s *Store) CompleteWithReport(_ context.Context, report *models.SessionReport, summary string) (*models.MentorSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[report.SessionID]; exists {
		return nil, repositories.ErrReportExists
	}
	session, ok := s.sessions[report.SessionID]
	if !ok {
		return nil, repositories.ErrSessionNotFound
	}
	if session.Status != models.MentorSessionStatusAccepted {
		return nil, repositories.ErrStatusConflict
	}

	s.reports[report.SessionID] = copyReport(report)

	completedAt := report.SubmittedAt
	session.Status = models.MentorSessionStatusCompleted
	session.ChatEnabled = false
	session.SessionCompletedAt = &completedAt
	session.SessionSummary = summary
	session.UpdatedAt = completedAt
	return copySession(session), nil
}

func (s *Store) GetBySessionID(_ context.Context, sessionID uuid.UUID) (*models.SessionReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[sessionID]
	if !ok {
		return nil, repositories.ErrReportNotFound
	}
	return copyReport(report), nil
}

func (s *Store) CreateIfChatOpen(_ context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[msg.SessionID]
	if !ok || !session.ChatOpenAt(msg.CreatedAt) {
		return repositories.ErrChatNotOpen
	}

	s.seq++
	msg.Seq = s.seq
	c := *msg
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], &c)
	return nil
}

func (s *Store) ListBySession(_ context.Context, sessionID uuid.UUID) ([]*models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.messages[sessionID]
	out := make([]*models.ChatMessage, 0, len(stored))
	for _, m := range stored {
		c := *m
		out = append(out, &c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (s *Store) MarkRead(_ context.Context, sessionID, readerID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, m := range s.messages[sessionID] {
		if m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}
