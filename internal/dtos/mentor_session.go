package dtos

import (
	"time"

	"github.com/google/uuid"
	"github.com/preetsinghmakkar/mentorly/internal/models"
	"github.com/preetsinghmakkar/mentorly/internal/services"
)

// Book session request
type BookSessionRequest struct {
	ReviewerID      string  `json:"reviewer_id" binding:"required,uuid"`
	SessionDate     string  `json:"session_date" binding:"required"` // YYYY-MM-DD
	SessionTime     string  `json:"session_time" binding:"required"` // HH:MM
	Timezone        string  `json:"timezone" binding:"required"`     // e.g. "America/New_York"
	DurationMinutes int     `json:"duration_minutes" binding:"omitempty,min=1"`
	CourseID        *string `json:"course_id" binding:"omitempty,uuid"`
	Notes           string  `json:"notes"`
}

// ToInput converts the request after binding has validated the UUIDs.
func (r *BookSessionRequest) ToInput() services.BookingInput {
	in := services.BookingInput{
		ReviewerID:      uuid.MustParse(r.ReviewerID),
		SessionDate:     r.SessionDate,
		SessionTime:     r.SessionTime,
		Timezone:        r.Timezone,
		DurationMinutes: r.DurationMinutes,
		Notes:           r.Notes,
	}
	if r.CourseID != nil && *r.CourseID != "" {
		id := uuid.MustParse(*r.CourseID)
		in.CourseID = &id
	}
	return in
}

type SendMessageRequest struct {
	Body string `json:"body"`
}

// Report fields are validated by the service so field errors are uniform.
type SubmitReportRequest struct {
	ProgressAssessment string   `json:"progress_assessment"`
	KeyTopics          []string `json:"key_topics"`
	Recommendations    string   `json:"recommendations"`
	NextSteps          string   `json:"next_steps"`
	OverallRating      *int     `json:"overall_rating"` // 1-5, defaults to 5
}

func (r *SubmitReportRequest) ToInput() services.ReportInput {
	return services.ReportInput{
		ProgressAssessment: r.ProgressAssessment,
		KeyTopics:          r.KeyTopics,
		Recommendations:    r.Recommendations,
		NextSteps:          r.NextSteps,
		OverallRating:      r.OverallRating,
	}
}

type SessionResponse struct {
	ID                 uuid.UUID  `json:"id"`
	StudentID          uuid.UUID  `json:"student_id"`
	ReviewerID         uuid.UUID  `json:"reviewer_id"`
	CourseID           *uuid.UUID `json:"course_id,omitempty"`
	CourseTitle        string     `json:"course_title,omitempty"`
	SessionDate        string     `json:"session_date"`
	SessionTime        string     `json:"session_time"`
	Timezone           string     `json:"timezone"`
	DurationMinutes    int        `json:"duration_minutes"`
	StudentNotes       string     `json:"student_notes,omitempty"`
	Status             string     `json:"status"`
	ChatEnabled        bool       `json:"chat_enabled"`
	ChatOpen           bool       `json:"chat_open"`
	ChatExpiresAt      *time.Time `json:"chat_expires_at,omitempty"`
	SessionCompletedAt *time.Time `json:"session_completed_at,omitempty"`
	SessionSummary     string     `json:"session_summary,omitempty"`
	StartsAt           *time.Time `json:"starts_at,omitempty"`
	EndsAt             *time.Time `json:"ends_at,omitempty"`
	ReportDueAt        *time.Time `json:"report_due_at,omitempty"`
	IsOverdue          bool       `json:"is_overdue"`
	Role               string     `json:"role,omitempty"` // "student" or "reviewer"
	CounterpartName    string     `json:"counterpart_name,omitempty"`
	CounterpartEmail   string     `json:"counterpart_email,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func NewSessionResponse(s *models.MentorSession) SessionResponse {
	return SessionResponse{
		ID:                 s.ID,
		StudentID:          s.StudentID,
		ReviewerID:         s.ReviewerID,
		CourseID:           s.CourseID,
		SessionDate:        s.SessionDate,
		SessionTime:        s.SessionTime,
		Timezone:           s.Timezone,
		DurationMinutes:    s.DurationMinutes,
		StudentNotes:       s.StudentNotes,
		Status:             string(s.Status),
		ChatEnabled:        s.ChatEnabled,
		ChatExpiresAt:      s.ChatExpiresAt,
		SessionCompletedAt: s.SessionCompletedAt,
		SessionSummary:     s.SessionSummary,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func NewSessionViewResponse(v *services.SessionView) SessionResponse {
	resp := NewSessionResponse(v.Session)
	resp.CourseTitle = v.CourseTitle
	resp.ChatOpen = v.ChatOpen
	resp.IsOverdue = v.IsOverdue
	resp.Role = string(v.Party)
	resp.CounterpartName = v.CounterpartName
	resp.CounterpartEmail = v.CounterpartEmail
	if !v.StartsAt.IsZero() {
		starts, ends, due := v.StartsAt, v.EndsAt, v.ReportDueAt
		resp.StartsAt = &starts
		resp.EndsAt = &ends
		resp.ReportDueAt = &due
	}
	return resp
}

type SessionListResponse struct {
	Pending        []SessionResponse `json:"pending"`
	Active         []SessionResponse `json:"active"`
	AwaitingReport []SessionResponse `json:"awaiting_report"`
	Completed      []SessionResponse `json:"completed"`
	Rejected       []SessionResponse `json:"rejected"`
}

func NewSessionListResponse(b *services.SessionBuckets) SessionListResponse {
	return SessionListResponse{
		Pending:        viewResponses(b.Pending),
		Active:         viewResponses(b.Active),
		AwaitingReport: viewResponses(b.AwaitingReport),
		Completed:      viewResponses(b.Completed),
		Rejected:       viewResponses(b.Rejected),
	}
}

func viewResponses(views []*services.SessionView) []SessionResponse {
	out := make([]SessionResponse, 0, len(views))
	for _, v := range views {
		out = append(out, NewSessionViewResponse(v))
	}
	return out
}

type ChatMessageResponse struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	SenderID    uuid.UUID `json:"sender_id"`
	MessageType string    `json:"message_type"` // "user" or "system"
	Body        string    `json:"body"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewChatMessageResponse(m *models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:          m.ID,
		SessionID:   m.SessionID,
		SenderID:    m.SenderID,
		MessageType: string(m.MessageType),
		Body:        m.Body,
		IsRead:      m.IsRead,
		CreatedAt:   m.CreatedAt,
	}
}

func NewChatMessageResponses(messages []*models.ChatMessage) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, NewChatMessageResponse(m))
	}
	return out
}

type ReportResponse struct {
	ID                 uuid.UUID `json:"id"`
	SessionID          uuid.UUID `json:"session_id"`
	ReviewerID         uuid.UUID `json:"reviewer_id"`
	ProgressAssessment string    `json:"progress_assessment"`
	KeyTopics          []string  `json:"key_topics"`
	Recommendations    string    `json:"recommendations"`
	NextSteps          string    `json:"next_steps,omitempty"`
	OverallRating      int       `json:"overall_rating"`
	SubmittedAt        time.Time `json:"submitted_at"`
}

func NewReportResponse(r *models.SessionReport) ReportResponse {
	return ReportResponse{
		ID:                 r.ID,
		SessionID:          r.SessionID,
		ReviewerID:         r.ReviewerID,
		ProgressAssessment: r.ProgressAssessment,
		KeyTopics:          r.KeyTopics,
		Recommendations:    r.Recommendations,
		NextSteps:          r.NextSteps,
		OverallRating:      r.OverallRating,
		SubmittedAt:        r.SubmittedAt,
	}
}

type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

type ErrorResponse struct {
	Error  string                `json:"error"`
	Code   string                `json:"code"`
	Fields []services.FieldError `json:"fields,omitempty"`
}
