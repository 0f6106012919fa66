package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/preetsinghmakkar/mentorly/internal/models"
	"github.com/preetsinghmakkar/mentorly/internal/utils"
)

// SessionView is a session enriched for one of its parties.
type SessionView struct {
	Session *models.MentorSession
	Party   models.Party

	StartsAt    time.Time
	EndsAt      time.Time
	ReportDueAt time.Time

	ChatOpen  bool
	IsOverdue bool

	CounterpartName  string
	CounterpartEmail string
	CourseTitle      string
}

// SessionBuckets partitions a user's sessions by lifecycle stage.
type SessionBuckets struct {
	Pending        []*SessionView
	Active         []*SessionView
	AwaitingReport []*SessionView
	Completed      []*SessionView
	Rejected       []*SessionView
}

// lookupCache avoids resolving the same user or course twice per request.
type lookupCache struct {
	users   map[uuid.UUID]*models.User
	courses map[uuid.UUID]*models.Course
}

func newLookupCache() *lookupCache {
	return &lookupCache{
		users:   make(map[uuid.UUID]*models.User),
		courses: make(map[uuid.UUID]*models.Course),
	}
}

func (s *MentorSessionService) partition(ctx context.Context, sessions []*models.MentorSession, party models.Party, userID uuid.UUID) (*SessionBuckets, error) {
	now := s.clock.Now()
	cache := newLookupCache()
	buckets := &SessionBuckets{}

	for _, session := range sessions {
		if session.ChatStale(now) {
			if err := s.expireChat(ctx, session, now); err != nil {
				return nil, err
			}
		}

		view := s.buildView(ctx, session, party, userID, now, cache)
		switch session.Status {
		case models.MentorSessionStatusPending:
			buckets.Pending = append(buckets.Pending, view)
		case models.MentorSessionStatusAccepted:
			if view.ChatOpen {
				buckets.Active = append(buckets.Active, view)
			} else {
				buckets.AwaitingReport = append(buckets.AwaitingReport, view)
			}
		case models.MentorSessionStatusCompleted:
			buckets.Completed = append(buckets.Completed, view)
		case models.MentorSessionStatusRejected:
			buckets.Rejected = append(buckets.Rejected, view)
		}
	}
	return buckets, nil
}

// buildView resolves display data. Lookup failures only leave display fields
// empty; they never fail the read.
func (s *MentorSessionService) buildView(ctx context.Context, session *models.MentorSession, party models.Party, callerID uuid.UUID, now time.Time, cache *lookupCache) *SessionView {
	view := &SessionView{
		Session:   session,
		Party:     party,
		ChatOpen:  session.ChatOpenAt(now),
		IsOverdue: s.isOverdue(session, now),
	}

	start, end, err := utils.SessionWindow(session.SessionDate, session.SessionTime, session.Timezone, session.DurationMinutes)
	if err == nil {
		view.StartsAt = start
		view.EndsAt = end
		view.ReportDueAt = end.Add(s.policy.ReportWindow)
	}

	if counterpart := s.lookupUser(ctx, session.CounterpartOf(callerID), cache); counterpart != nil {
		view.CounterpartName = counterpart.DisplayName()
		view.CounterpartEmail = counterpart.Email
	}
	if session.CourseID != nil {
		if course := s.lookupCourse(ctx, *session.CourseID, cache); course != nil {
			view.CourseTitle = course.Title
		}
	}
	return view
}

// isOverdue reports whether an accepted session is past its report deadline.
func (s *MentorSessionService) isOverdue(session *models.MentorSession, now time.Time) bool {
	if session.Status != models.MentorSessionStatusAccepted {
		return false
	}
	_, end, err := utils.SessionWindow(session.SessionDate, session.SessionTime, session.Timezone, session.DurationMinutes)
	if err != nil {
		return false
	}
	return now.After(end.Add(s.policy.ReportWindow))
}

func (s *MentorSessionService) lookupUser(ctx context.Context, id uuid.UUID, cache *lookupCache) *models.User {
	if u, ok := cache.users[id]; ok {
		return u
	}
	u, err := s.directory.GetUser(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", id.String()).Msg("Failed to resolve counterpart")
		u = nil
	}
	cache.users[id] = u
	return u
}

func (s *MentorSessionService) lookupCourse(ctx context.Context, id uuid.UUID, cache *lookupCache) *models.Course {
	if c, ok := cache.courses[id]; ok {
		return c
	}
	c, err := s.courses.GetCourse(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("course_id", id.String()).Msg("Failed to resolve course")
		c = nil
	}
	cache.courses[id] = c
	return c
}
