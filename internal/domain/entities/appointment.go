package entities

import (
	"time"
)

// AppointmentStatus represents the status of a queue appointment
type AppointmentStatus string

const (
	AppointmentStatusQueued    AppointmentStatus = "queued"
	AppointmentStatusNotified  AppointmentStatus = "notified"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// allowedTransitions lists the outbound edges of every status.
// completed and cancelled have none.
var allowedTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusQueued:    {AppointmentStatusNotified, AppointmentStatusCancelled},
	AppointmentStatusNotified:  {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled},
}

// Valid reports whether s is a known status
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusQueued, AppointmentStatusNotified, AppointmentStatusConfirmed,
		AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted
}

// CanTransitionTo reports whether next is a legal successor of s
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Appointment is a patient's slot in a clinic queue
type Appointment struct {
	ID        string            `json:"id" db:"id"`
	UserID    string            `json:"user_id" db:"user_id"`
	ClinicID  string            `json:"clinic_id" db:"clinic_id"`
	Status    AppointmentStatus `json:"status" db:"status"`
	Position  int               `json:"position" db:"position"`
	Symptoms  *string           `json:"symptoms" db:"symptoms"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`
}

// IsQueued reports whether the appointment holds a place in the dense queue
func (a *Appointment) IsQueued() bool {
	return a.Status == AppointmentStatusQueued
}

// AppointmentView is the appointment as returned to patients
type AppointmentView struct {
	*Appointment
	EstimatedWaitMinutes int `json:"estimated_wait_minutes"`
}
