package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/pkg/client"
	apperrors "github.com/zatekoja/waitwise/backend/pkg/errors"
)

// upstream reads appointments from the API server and maps its failures
// onto application errors so handlers answer with the same status codes
type upstream struct {
	api *client.HTTPClient
}

func (u *upstream) GetAppointment(ctx context.Context, appointmentID string) (*entities.AppointmentView, error) {
	view, err := u.api.GetAppointment(ctx, appointmentID)
	if err == nil {
		return view, nil
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return nil, apperrors.NewExternalError("appointment service unavailable", err)
	}
	switch apiErr.StatusCode {
	case http.StatusNotFound:
		return nil, apperrors.NewNotFoundError(apiErr.Message)
	case http.StatusBadRequest:
		return nil, apperrors.NewValidationError(apiErr.Message)
	}
	return nil, apperrors.NewExternalError("appointment service failed", err)
}
