package repositories

import (
	"context"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
)

// AppointmentRepository defines the interface for appointment data operations
type AppointmentRepository interface {
	// Create creates a new appointment
	Create(ctx context.Context, appointment *entities.Appointment) error

	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// Enqueue creates a queued appointment and increments the clinic's
	// active_patients counter as one unit
	Enqueue(ctx context.Context, appointment *entities.Appointment) error

	// ApplyStatusChange commits a status change together with its queue
	// compaction and active_patients adjustment. Nothing is written when
	// any step fails. It returns an INVALID_STATE error when the
	// appointment is no longer in change.From.
	ApplyStatusChange(ctx context.Context, change StatusChange) error

	// MaxQueuedPosition returns the highest position among queued
	// appointments of a clinic, or 0 when the queue is empty
	MaxQueuedPosition(ctx context.Context, clinicID string) (int, error)

	// ListByClinic retrieves appointments for a clinic ordered by position
	ListByClinic(ctx context.Context, clinicID string, filter AppointmentFilter) ([]*entities.Appointment, error)

	// ListByUser retrieves appointments for a user, newest first
	ListByUser(ctx context.Context, userID string, filter AppointmentFilter) ([]*entities.Appointment, error)
}

// StatusChange is one appointment transition and the queue bookkeeping
// that commits with it
type StatusChange struct {
	AppointmentID string
	ClinicID      string
	From          entities.AppointmentStatus
	To            entities.AppointmentStatus

	// CompactAfter moves every queued appointment behind this position up
	// by one. Zero leaves positions untouched.
	CompactAfter int

	// ActiveDelta is added to the clinic's active_patients, floored at 0
	ActiveDelta int
}

// AppointmentFilter defines filters for listing appointments
type AppointmentFilter struct {
	Statuses []entities.AppointmentStatus
	ClinicID string
	Limit    int
}

// Matches reports whether appointment satisfies the filter
func (f AppointmentFilter) Matches(appointment *entities.Appointment) bool {
	if f.ClinicID != "" && appointment.ClinicID != f.ClinicID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, status := range f.Statuses {
		if appointment.Status == status {
			return true
		}
	}
	return false
}
