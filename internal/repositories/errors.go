package repositories

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrSessionNotFound = errors.New("mentor session not found")
	ErrReportNotFound  = errors.New("session report not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrCourseNotFound  = errors.New("course not found")

	// ErrStatusConflict is returned by conditional writes when the stored
	// status no longer matches the expected one.
	ErrStatusConflict = errors.New("session status changed concurrently")
	ErrReportExists   = errors.New("session report already exists")
	ErrChatNotOpen    = errors.New("session chat is not open")
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	return false
}
