package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/preetsinghmakkar/mentorly/internal/models"
	"github.com/preetsinghmakkar/mentorly/internal/repositories"
)

var (
	ErrInvalidTransition   = errors.New("invalid session transition")
	ErrUnauthorized        = errors.New("not authorized for this session")
	ErrChatClosed          = errors.New("chat is closed")
	ErrValidation          = errors.New("validation failed")
	ErrReportAlreadyExists = errors.New("session report already exists")
	ErrNotFound            = errors.New("not found")
	ErrStoreUnavailable    = errors.New("session store unavailable")
	ErrNotifyFailed        = errors.New("notification delivery failed")
)

// FieldError is used to indicate an error with a specific input field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func newValidationError(flds ...FieldError) error {
	return &ValidationError{Fields: flds}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Error
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalidTransition(action string, status models.MentorSessionStatus) error {
	return fmt.Errorf("%w: cannot %s a session that is already %s", ErrInvalidTransition, action, status)
}

// storeError translates repository failures into service error kinds.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrSessionNotFound):
		return fmt.Errorf("%w: mentor session", ErrNotFound)
	case errors.Is(err, repositories.ErrReportNotFound):
		return fmt.Errorf("%w: session report", ErrNotFound)
	case errors.Is(err, repositories.ErrUserNotFound):
		return fmt.Errorf("%w: user", ErrNotFound)
	case errors.Is(err, repositories.ErrCourseNotFound):
		return fmt.Errorf("%w: course", ErrNotFound)
	case errors.Is(err, repositories.ErrStatusConflict):
		return fmt.Errorf("%w: session was modified by someone else", ErrInvalidTransition)
	case errors.Is(err, repositories.ErrReportExists):
		return ErrReportAlreadyExists
	case errors.Is(err, repositories.ErrChatNotOpen):
		return fmt.Errorf("%w: chat window is not open", ErrChatClosed)
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
