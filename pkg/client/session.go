package client

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/zatekoja/waitwise/backend/internal/application/services"
	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/tracking"
)

var (
	// ErrNotRegistered is returned by steps that need a patient
	ErrNotRegistered = errors.New("session has no registered user")
	// ErrNoAppointment is returned by steps that need a booking
	ErrNoAppointment = errors.New("session has no appointment")
)

// Session carries the state of one patient flow: who registered, their
// triage result, where they booked. It is not safe for concurrent use.
type Session struct {
	client *HTTPClient

	User          *entities.User
	Assessment    *services.Assessment
	ClinicID      string
	AppointmentID string
}

// NewSession starts an empty flow against client
func NewSession(client *HTTPClient) *Session {
	return &Session{client: client}
}

// Register creates the patient for this session
func (s *Session) Register(ctx context.Context, input services.RegisterInput) (*entities.User, error) {
	user, err := s.client.Register(ctx, input)
	if err != nil {
		return nil, err
	}
	s.User = user
	return user, nil
}

// Triage assesses symptoms for the session patient
func (s *Session) Triage(ctx context.Context, symptoms string) (*services.Assessment, error) {
	if s.User == nil {
		return nil, ErrNotRegistered
	}
	assessment, err := s.client.Triage(ctx, s.User.ID, symptoms)
	if err != nil {
		return nil, err
	}
	s.Assessment = assessment
	return assessment, nil
}

// Book joins the queue at clinicID
func (s *Session) Book(ctx context.Context, clinicID string, symptoms *string) (*BookResult, error) {
	if s.User == nil {
		return nil, ErrNotRegistered
	}
	result, err := s.client.Book(ctx, services.BookInput{
		UserID:   s.User.ID,
		ClinicID: clinicID,
		Symptoms: symptoms,
	})
	if err != nil {
		return nil, err
	}
	s.ClinicID = clinicID
	s.AppointmentID = result.AppointmentID
	return result, nil
}

// Status fetches the session appointment
func (s *Session) Status(ctx context.Context) (*entities.AppointmentView, error) {
	if s.AppointmentID == "" {
		return nil, ErrNoAppointment
	}
	return s.client.GetAppointment(ctx, s.AppointmentID)
}

// Cancel leaves the queue
func (s *Session) Cancel(ctx context.Context) error {
	if s.AppointmentID == "" {
		return ErrNoAppointment
	}
	return s.client.Cancel(ctx, s.AppointmentID)
}

// Track polls the session appointment until it ends or ctx is done
func (s *Session) Track(ctx context.Context, cfg tracking.Config, logger zerolog.Logger) (<-chan tracking.Update, error) {
	if s.AppointmentID == "" {
		return nil, ErrNoAppointment
	}
	return tracking.New(s.client, cfg, logger).Track(ctx, s.AppointmentID, nil), nil
}
