package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/preetsinghmakkar/mentorly/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{&services.ValidationError{}, http.StatusUnprocessableEntity, CodeValidation},
		{fmt.Errorf("%w: only the reviewer", services.ErrUnauthorized), http.StatusForbidden, CodeUnauthorized},
		{services.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{fmt.Errorf("%w: already accepted", services.ErrInvalidTransition), http.StatusConflict, CodeInvalidTransition},
		{fmt.Errorf("%w: expired", services.ErrChatClosed), http.StatusConflict, CodeChatClosed},
		{services.ErrReportAlreadyExists, http.StatusConflict, CodeReportAlreadyExists},
		{fmt.Errorf("%w: get session: %w", services.ErrStoreUnavailable, errors.New("conn refused")), http.StatusServiceUnavailable, CodeStoreUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			status, code := ErrorStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestErrorMessageHidesInfrastructure(t *testing.T) {
	err := fmt.Errorf("%w: get session: %w", services.ErrStoreUnavailable, errors.New("dial tcp 10.0.0.5:5432"))
	assert.Equal(t, "service temporarily unavailable", ErrorMessage(err, CodeStoreUnavailable))
	assert.Equal(t, "chat is closed", ErrorMessage(services.ErrChatClosed, CodeChatClosed))
}
