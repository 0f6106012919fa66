package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const requiredText = "this field is required"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notnil_uuid", func(fl validator.FieldLevel) bool {
		id, ok := fl.Field().Interface().(uuid.UUID)
		return ok && id != uuid.Nil
	})
	return v
}

// BookingInput is what a student submits to book a session.
type BookingInput struct {
	ReviewerID      uuid.UUID  `json:"reviewer_id" validate:"notnil_uuid"`
	SessionDate     string     `json:"session_date" validate:"required,datetime=2006-01-02"`
	SessionTime     string     `json:"session_time" validate:"required,datetime=15:04"`
	Timezone        string     `json:"timezone" validate:"required,timezone"`
	DurationMinutes int        `json:"duration_minutes" validate:"omitempty,min=1,max=120"`
	CourseID        *uuid.UUID `json:"course_id"`
	Notes           string     `json:"notes" validate:"max=2000"`
}

func (in *BookingInput) normalize() {
	in.SessionDate = strings.TrimSpace(in.SessionDate)
	in.SessionTime = strings.TrimSpace(in.SessionTime)
	in.Timezone = strings.TrimSpace(in.Timezone)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.CourseID != nil && *in.CourseID == uuid.Nil {
		in.CourseID = nil
	}
}

// ReportInput is the reviewer's post-session write-up.
type ReportInput struct {
	ProgressAssessment string   `json:"progress_assessment" validate:"required,max=5000"`
	KeyTopics          []string `json:"key_topics" validate:"required,min=1,max=20,dive,required,max=200"`
	Recommendations    string   `json:"recommendations" validate:"required,max=5000"`
	NextSteps          string   `json:"next_steps" validate:"max=5000"`
	// OverallRating defaults to 5 when nil.
	OverallRating *int `json:"overall_rating" validate:"omitempty,min=1,max=5"`
}

func (in *ReportInput) normalize() {
	in.ProgressAssessment = strings.TrimSpace(in.ProgressAssessment)
	in.Recommendations = strings.TrimSpace(in.Recommendations)
	in.NextSteps = strings.TrimSpace(in.NextSteps)
	topics := make([]string, len(in.KeyTopics))
	for i, t := range in.KeyTopics {
		topics[i] = strings.TrimSpace(t)
	}
	in.KeyTopics = topics
}

// validateInput runs struct validation and converts failures into a ValidationError.
func validateInput(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fieldPath(fe), Error: fieldMessage(fe)})
	}
	return newValidationError(fields...)
}

// fieldPath strips the struct name prefix, e.g. "ReportInput.key_topics[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notnil_uuid":
		return requiredText
	case "datetime":
		return "must match the format " + fe.Param()
	case "timezone":
		return "must be a valid IANA timezone name"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " item(s)"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return "must contain at most " + fe.Param() + " items"
		}
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}
