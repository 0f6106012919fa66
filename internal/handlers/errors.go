package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/preetsinghmakkar/mentorly/internal/dtos"
	"github.com/preetsinghmakkar/mentorly/internal/services"
)

// Machine-readable error codes shared by the HTTP and websocket surfaces.
const (
	CodeValidation          = "validation_error"
	CodeBadRequest          = "bad_request"
	CodeUnauthenticated     = "unauthenticated"
	CodeUnauthorized        = "unauthorized"
	CodeNotFound            = "not_found"
	CodeInvalidTransition   = "invalid_transition"
	CodeChatClosed          = "chat_closed"
	CodeReportAlreadyExists = "report_already_exists"
	CodeStoreUnavailable    = "store_unavailable"
	CodeInternal            = "internal_error"
)

// ErrorStatus maps a service error kind to an HTTP status and code.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusUnprocessableEntity, CodeValidation
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusForbidden, CodeUnauthorized
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict, CodeInvalidTransition
	case errors.Is(err, services.ErrChatClosed):
		return http.StatusConflict, CodeChatClosed
	case errors.Is(err, services.ErrReportAlreadyExists):
		return http.StatusConflict, CodeReportAlreadyExists
	case errors.Is(err, services.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, CodeStoreUnavailable
	}
	return http.StatusInternalServerError, CodeInternal
}

// ErrorMessage hides infrastructure details from clients.
func ErrorMessage(err error, code string) string {
	switch code {
	case CodeStoreUnavailable:
		return "service temporarily unavailable"
	case CodeInternal:
		return "internal server error"
	}
	return err.Error()
}

func respondError(c *gin.Context, err error) {
	status, code := ErrorStatus(err)
	resp := dtos.ErrorResponse{Error: ErrorMessage(err, code), Code: code}

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, resp)
}

func respondBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dtos.ErrorResponse{Error: msg, Code: CodeBadRequest})
}
