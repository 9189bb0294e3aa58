package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("name is required"), http.StatusBadRequest},
		{"not found", NewNotFoundError("user not found"), http.StatusNotFound},
		{"conflict", NewConflictError("email already registered"), http.StatusConflict},
		{"invalid state", NewInvalidStateError("appointment already cancelled"), http.StatusConflict},
		{"external", NewExternalError("sendgrid failed", fmt.Errorf("timeout")), http.StatusBadGateway},
		{"internal", NewInternalError("db down", fmt.Errorf("refused")), http.StatusInternalServerError},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError},
		{"wrapped app error", fmt.Errorf("book: %w", NewNotFoundError("clinic not found")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage_HidesInternalCauses(t *testing.T) {
	err := NewInternalError("failed to update appointment", fmt.Errorf("pq: connection refused"))

	msg := PublicMessage(err)

	assert.NotContains(t, msg, "pq")
	assert.Equal(t, "something went wrong, please try again", msg)
	assert.Equal(t, "clinic not found", PublicMessage(NewNotFoundError("clinic not found")))
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewInternalError("wrapped", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "INTERNAL: wrapped: root cause")
	assert.True(t, IsNotFound(fmt.Errorf("x: %w", NewNotFoundError("y"))))
	assert.False(t, IsNotFound(cause))
}
