package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/waitwise/backend/pkg/errors"
)

// AppointmentRepository is an in-memory AppointmentRepository. It keeps the
// active_patients counters of clinics in step with its own writes.
type AppointmentRepository struct {
	mu           sync.RWMutex
	appointments map[string]*entities.Appointment
	clinics      *ClinicRepository
	now          func() time.Time
}

// NewAppointmentRepository creates an empty appointment repository whose
// queue writes adjust the counters held by clinics
func NewAppointmentRepository(clinics *ClinicRepository) *AppointmentRepository {
	return &AppointmentRepository{
		appointments: make(map[string]*entities.Appointment),
		clinics:      clinics,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

var _ repositories.AppointmentRepository = (*AppointmentRepository)(nil)

// Create creates a new appointment
func (r *AppointmentRepository) Create(_ context.Context, appointment *entities.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.appointments[appointment.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("appointment with id %s already exists", appointment.ID))
	}
	r.appointments[appointment.ID] = copyAppointment(appointment)
	return nil
}

// GetByID retrieves an appointment by ID
func (r *AppointmentRepository) GetByID(_ context.Context, id string) (*entities.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appointment, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	return copyAppointment(appointment), nil
}

// Enqueue stores a queued appointment and increments its clinic's counter
// under the repository write lock
func (r *AppointmentRepository) Enqueue(_ context.Context, appointment *entities.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.appointments[appointment.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("appointment with id %s already exists", appointment.ID))
	}
	if err := r.clinics.adjustActivePatients(appointment.ClinicID, 1); err != nil {
		return err
	}
	r.appointments[appointment.ID] = copyAppointment(appointment)
	return nil
}

// ApplyStatusChange applies the transition under the repository write
// lock. The counter is adjusted before any appointment is touched because
// it is the only step that can fail.
func (r *AppointmentRepository) ApplyStatusChange(_ context.Context, change repositories.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appointment, ok := r.appointments[change.AppointmentID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", change.AppointmentID))
	}
	if appointment.Status != change.From {
		return apperrors.NewInvalidStateError(fmt.Sprintf("appointment %s is no longer %s", change.AppointmentID, change.From))
	}
	if change.ActiveDelta != 0 {
		if err := r.clinics.adjustActivePatients(change.ClinicID, change.ActiveDelta); err != nil {
			return err
		}
	}

	now := r.now()
	appointment.Status = change.To
	appointment.UpdatedAt = now
	if change.CompactAfter > 0 {
		for _, queued := range r.appointments {
			if queued.ClinicID == change.ClinicID && queued.IsQueued() && queued.Position > change.CompactAfter {
				queued.Position--
				queued.UpdatedAt = now
			}
		}
	}
	return nil
}

// MaxQueuedPosition returns the highest queued position at a clinic
func (r *AppointmentRepository) MaxQueuedPosition(_ context.Context, clinicID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	maxPosition := 0
	for _, appointment := range r.appointments {
		if appointment.ClinicID == clinicID && appointment.IsQueued() && appointment.Position > maxPosition {
			maxPosition = appointment.Position
		}
	}
	return maxPosition, nil
}

// ListByClinic retrieves appointments for a clinic ordered by position
func (r *AppointmentRepository) ListByClinic(_ context.Context, clinicID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	filter.ClinicID = clinicID
	result := r.collect(func(a *entities.Appointment) bool { return filter.Matches(a) })
	sort.Slice(result, func(i, j int) bool {
		if result[i].Position == result[j].Position {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Position < result[j].Position
	})
	return limit(result, filter.Limit), nil
}

// ListByUser retrieves appointments for a user, newest first
func (r *AppointmentRepository) ListByUser(_ context.Context, userID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	result := r.collect(func(a *entities.Appointment) bool {
		return a.UserID == userID && filter.Matches(a)
	})
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return limit(result, filter.Limit), nil
}

func (r *AppointmentRepository) collect(keep func(*entities.Appointment) bool) []*entities.Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entities.Appointment, 0)
	for _, appointment := range r.appointments {
		if keep(appointment) {
			result = append(result, copyAppointment(appointment))
		}
	}
	return result
}

func limit(appointments []*entities.Appointment, n int) []*entities.Appointment {
	if n > 0 && len(appointments) > n {
		return appointments[:n]
	}
	return appointments
}

func copyAppointment(appointment *entities.Appointment) *entities.Appointment {
	clone := *appointment
	if appointment.Symptoms != nil {
		symptoms := *appointment.Symptoms
		clone.Symptoms = &symptoms
	}
	return &clone
}
