package services

import "time"

const (
	MaxSessionDurationMinutes = 120
	MaxMessageLength          = 4000
)

// Policy holds the time rules of the session lifecycle.
type Policy struct {
	// ChatGrace extends the chat window past the scheduled end.
	ChatGrace time.Duration
	// ReportWindow is how long after the scheduled end the report is due.
	ReportWindow time.Duration
	// DefaultDurationMinutes applies when a booking omits the duration.
	DefaultDurationMinutes int
}

func DefaultPolicy() Policy {
	return Policy{
		ChatGrace:              30 * time.Minute,
		ReportWindow:           time.Hour,
		DefaultDurationMinutes: 60,
	}
}
