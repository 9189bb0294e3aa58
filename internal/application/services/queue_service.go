package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
	"github.com/zatekoja/waitwise/backend/internal/domain/repositories"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/waitwise/backend/pkg/errors"
)

// activeStatuses hold a user's place at a clinic
var activeStatuses = []entities.AppointmentStatus{
	entities.AppointmentStatusQueued,
	entities.AppointmentStatusNotified,
	entities.AppointmentStatusConfirmed,
}

// BookInput carries a booking request
type BookInput struct {
	UserID   string  `json:"user_id"`
	ClinicID string  `json:"clinic_id"`
	Symptoms *string `json:"symptoms,omitempty"`
}

// QueueDependencies are the collaborators of QueueService. Events, Notifier
// and Metrics may be nil.
type QueueDependencies struct {
	Appointments repositories.AppointmentRepository
	Clinics      repositories.ClinicRepository
	Users        repositories.UserRepository
	Locker       providers.ClinicLocker
	Events       providers.EventBus
	Notifier     *NotificationService
	Metrics      *observability.QueueMetrics
}

// QueueService manages clinic queues. Queued positions at a clinic are
// always exactly 1..N; every mutation runs under the clinic lock.
type QueueService struct {
	appointments      repositories.AppointmentRepository
	clinics           repositories.ClinicRepository
	users             repositories.UserRepository
	locker            providers.ClinicLocker
	events            providers.EventBus
	notifier          *NotificationService
	metrics           *observability.QueueMetrics
	minutesPerPatient int
	logger            zerolog.Logger
	now               func() time.Time
}

// NewQueueService creates a new queue service
func NewQueueService(deps QueueDependencies, minutesPerPatient int, logger zerolog.Logger) *QueueService {
	if minutesPerPatient <= 0 {
		minutesPerPatient = 15
	}
	return &QueueService{
		appointments:      deps.Appointments,
		clinics:           deps.Clinics,
		users:             deps.Users,
		locker:            deps.Locker,
		events:            deps.Events,
		notifier:          deps.Notifier,
		metrics:           deps.Metrics,
		minutesPerPatient: minutesPerPatient,
		logger:            logger,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// Book appends the user to the end of the clinic queue
func (s *QueueService) Book(ctx context.Context, input BookInput) (*entities.Appointment, error) {
	input.UserID = strings.TrimSpace(input.UserID)
	input.ClinicID = strings.TrimSpace(input.ClinicID)
	if input.UserID == "" {
		return nil, apperrors.NewValidationError("user_id is required")
	}
	if input.ClinicID == "" {
		return nil, apperrors.NewValidationError("clinic_id is required")
	}
	if input.Symptoms != nil && strings.TrimSpace(*input.Symptoms) == "" {
		input.Symptoms = nil
	}

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	clinic, err := s.clinics.GetByID(ctx, input.ClinicID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, clinic.ID)
	if err != nil {
		return nil, err
	}
	appointment, err := s.enqueue(ctx, user, clinic, input.Symptoms)
	unlock()
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveBooking(clinic.ID)
	s.metrics.SetQueueLength(clinic.ID, appointment.Position)
	s.publish(ctx, entities.QueueEventBooked, appointment)
	if s.notifier != nil {
		s.notifier.SendSMS(ctx, entities.NotificationQueued, NewNotificationContext(user, clinic, appointment))
	}

	s.logger.Info().
		Str("appointment_id", appointment.ID).
		Str("clinic_id", clinic.ID).
		Int("position", appointment.Position).
		Msg("Appointment booked")
	return appointment, nil
}

func (s *QueueService) enqueue(ctx context.Context, user *entities.User, clinic *entities.Clinic, symptoms *string) (*entities.Appointment, error) {
	active, err := s.appointments.ListByUser(ctx, user.ID, repositories.AppointmentFilter{
		ClinicID: clinic.ID,
		Statuses: activeStatuses,
		Limit:    1,
	})
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		return nil, apperrors.NewConflictError(fmt.Sprintf("user already has an active appointment at %s", clinic.Name))
	}

	tail, err := s.appointments.MaxQueuedPosition(ctx, clinic.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	appointment := &entities.Appointment{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ClinicID:  clinic.ID,
		Status:    entities.AppointmentStatusQueued,
		Position:  tail + 1,
		Symptoms:  symptoms,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.appointments.Enqueue(ctx, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

// Cancel cancels an active appointment. A queued appointment leaves a gap
// that is closed by moving everyone behind it up by one.
func (s *QueueService) Cancel(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	appointment, err := s.transition(ctx, appointmentID, entities.AppointmentStatusCancelled)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, entities.QueueEventCancelled, entities.NotificationCancellation, appointment)
	return appointment, nil
}

// Confirm records staff check-in of a notified patient
func (s *QueueService) Confirm(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	appointment, err := s.transition(ctx, appointmentID, entities.AppointmentStatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, entities.QueueEventConfirmed, entities.NotificationConfirmed, appointment)
	return appointment, nil
}

// Complete closes a confirmed visit
func (s *QueueService) Complete(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	appointment, err := s.transition(ctx, appointmentID, entities.AppointmentStatusCompleted)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, entities.QueueEventCompleted, "", appointment)
	return appointment, nil
}

// NotifyNext moves the head of the clinic queue to notified. It returns
// nil without error when nobody is queued.
func (s *QueueService) NotifyNext(ctx context.Context, clinicID string) (*entities.Appointment, error) {
	if strings.TrimSpace(clinicID) == "" {
		return nil, apperrors.NewValidationError("clinic_id is required")
	}
	clinic, err := s.clinics.GetByID(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, clinic.ID)
	if err != nil {
		return nil, err
	}
	head, err := s.notifyHead(ctx, clinic.ID)
	unlock()
	if err != nil || head == nil {
		return nil, err
	}

	s.afterTransition(ctx, entities.QueueEventNotified, entities.NotificationTurnNear, head)
	return head, nil
}

func (s *QueueService) notifyHead(ctx context.Context, clinicID string) (*entities.Appointment, error) {
	queued, err := s.appointments.ListByClinic(ctx, clinicID, repositories.AppointmentFilter{
		Statuses: []entities.AppointmentStatus{entities.AppointmentStatusQueued},
		Limit:    1,
	})
	if err != nil {
		return nil, err
	}
	if len(queued) == 0 {
		return nil, nil
	}

	head := queued[0]
	err = s.appointments.ApplyStatusChange(ctx, repositories.StatusChange{
		AppointmentID: head.ID,
		ClinicID:      clinicID,
		From:          entities.AppointmentStatusQueued,
		To:            entities.AppointmentStatusNotified,
		CompactAfter:  head.Position,
	})
	if err != nil {
		return nil, err
	}
	head.Status = entities.AppointmentStatusNotified
	head.UpdatedAt = s.now()
	return head, nil
}

// PositionOf returns the stored queue position of an appointment
func (s *QueueService) PositionOf(ctx context.Context, appointmentID string) (int, error) {
	appointment, err := s.getAppointment(ctx, appointmentID)
	if err != nil {
		return 0, err
	}
	return appointment.Position, nil
}

// GetAppointment returns the appointment with its estimated wait. Only
// queued appointments are still waiting.
func (s *QueueService) GetAppointment(ctx context.Context, appointmentID string) (*entities.AppointmentView, error) {
	appointment, err := s.getAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	view := &entities.AppointmentView{Appointment: appointment}
	if appointment.IsQueued() {
		view.EstimatedWaitMinutes = appointment.Position * s.minutesPerPatient
	}
	return view, nil
}

// ListQueue returns the queued appointments of a clinic in position order
func (s *QueueService) ListQueue(ctx context.Context, clinicID string) ([]*entities.Appointment, error) {
	if strings.TrimSpace(clinicID) == "" {
		return nil, apperrors.NewValidationError("clinic id is required")
	}
	if _, err := s.clinics.GetByID(ctx, clinicID); err != nil {
		return nil, err
	}
	return s.appointments.ListByClinic(ctx, clinicID, repositories.AppointmentFilter{
		Statuses: []entities.AppointmentStatus{entities.AppointmentStatusQueued},
	})
}

func (s *QueueService) getAppointment(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	if strings.TrimSpace(appointmentID) == "" {
		return nil, apperrors.NewValidationError("appointment_id is required")
	}
	return s.appointments.GetByID(ctx, appointmentID)
}

// transition applies one state machine edge under the clinic lock. The
// appointment is re-read after locking so concurrent requests see each
// other's writes, and the status, compaction and counter changes commit
// together.
func (s *QueueService) transition(ctx context.Context, appointmentID string, to entities.AppointmentStatus) (*entities.Appointment, error) {
	current, err := s.getAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, current.ClinicID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !appointment.Status.CanTransitionTo(to) {
		return nil, invalidTransition(appointment.Status, to)
	}

	change := repositories.StatusChange{
		AppointmentID: appointment.ID,
		ClinicID:      appointment.ClinicID,
		From:          appointment.Status,
		To:            to,
	}
	if appointment.IsQueued() {
		change.CompactAfter = appointment.Position
	}
	if to == entities.AppointmentStatusCancelled || to == entities.AppointmentStatusCompleted {
		change.ActiveDelta = -1
	}
	if err := s.appointments.ApplyStatusChange(ctx, change); err != nil {
		return nil, err
	}

	appointment.Status = to
	appointment.UpdatedAt = s.now()
	return appointment, nil
}

func invalidTransition(from, to entities.AppointmentStatus) error {
	if from.IsTerminal() {
		return apperrors.NewInvalidStateError(fmt.Sprintf("appointment is already %s", from))
	}
	switch to {
	case entities.AppointmentStatusConfirmed:
		return apperrors.NewInvalidStateError("appointment must be notified before confirmation")
	case entities.AppointmentStatusCompleted:
		return apperrors.NewInvalidStateError("appointment must be confirmed before completion")
	}
	return apperrors.NewInvalidStateError(fmt.Sprintf("cannot move appointment from %s to %s", from, to))
}

func (s *QueueService) lock(ctx context.Context, clinicID string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, clinicID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to lock clinic queue", err)
	}
	return unlock, nil
}

// afterTransition runs the side effects of a committed transition outside
// the clinic lock
func (s *QueueService) afterTransition(ctx context.Context, eventType entities.QueueEventType, notification entities.NotificationType, appointment *entities.Appointment) {
	s.metrics.ObserveTransition(string(appointment.Status))
	s.refreshQueueLength(ctx, appointment.ClinicID)
	s.publish(ctx, eventType, appointment)

	s.logger.Info().
		Str("appointment_id", appointment.ID).
		Str("clinic_id", appointment.ClinicID).
		Str("status", string(appointment.Status)).
		Msg("Appointment status changed")

	if notification == "" || s.notifier == nil {
		return
	}
	user, err := s.users.GetByID(ctx, appointment.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", appointment.ID).Msg("Skipping notification, user lookup failed")
		return
	}
	clinic, err := s.clinics.GetByID(ctx, appointment.ClinicID)
	if err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", appointment.ID).Msg("Skipping notification, clinic lookup failed")
		return
	}
	s.notifier.SendSMS(ctx, notification, NewNotificationContext(user, clinic, appointment))
}

func (s *QueueService) refreshQueueLength(ctx context.Context, clinicID string) {
	if s.metrics == nil {
		return
	}
	tail, err := s.appointments.MaxQueuedPosition(ctx, clinicID)
	if err != nil {
		return
	}
	s.metrics.SetQueueLength(clinicID, tail)
}

// publish announces a queue change on the clinic channel and the global
// channel. Failures are logged; the change is already committed.
func (s *QueueService) publish(ctx context.Context, eventType entities.QueueEventType, appointment *entities.Appointment) {
	if s.events == nil {
		return
	}
	event := entities.NewQueueEvent(eventType, appointment)
	for _, channel := range []string{providers.GetClinicChannel(appointment.ClinicID), providers.EventChannelQueueUpdates} {
		if err := s.events.Publish(ctx, channel, event); err != nil {
			s.logger.Warn().Err(err).Str("channel", channel).Str("appointment_id", appointment.ID).Msg("Failed to publish queue event")
		}
	}
}
