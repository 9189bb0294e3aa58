package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// QueueEventType represents the kind of change made to a clinic queue
type QueueEventType string

const (
	QueueEventBooked    QueueEventType = "appointment_booked"
	QueueEventCancelled QueueEventType = "appointment_cancelled"
	QueueEventNotified  QueueEventType = "appointment_notified"
	QueueEventConfirmed QueueEventType = "appointment_confirmed"
	QueueEventCompleted QueueEventType = "appointment_completed"
)

// QueueEvent is published whenever a clinic queue changes
type QueueEvent struct {
	ID            string            `json:"id"`
	ClinicID      string            `json:"clinic_id"`
	AppointmentID string            `json:"appointment_id"`
	EventType     QueueEventType    `json:"event_type"`
	Status        AppointmentStatus `json:"status"`
	Position      int               `json:"position"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NewQueueEvent creates a new queue event for the given appointment
func NewQueueEvent(eventType QueueEventType, appointment *Appointment) *QueueEvent {
	return &QueueEvent{
		ID:            generateEventID(),
		ClinicID:      appointment.ClinicID,
		AppointmentID: appointment.ID,
		EventType:     eventType,
		Status:        appointment.Status,
		Position:      appointment.Position,
		Timestamp:     time.Now().UTC(),
	}
}

func generateEventID() string {
	return time.Now().UTC().Format("20060102150405") + "-" + randomString(8)
}

func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
