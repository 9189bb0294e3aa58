package entities

import "time"

// NotificationChannel represents the delivery channel
type NotificationChannel string

const (
	ChannelSMS   NotificationChannel = "sms"
	ChannelEmail NotificationChannel = "email"
)

// NotificationType represents the notification purpose
type NotificationType string

const (
	NotificationQueued       NotificationType = "queued"
	NotificationTurnNear     NotificationType = "turn_near"
	NotificationConfirmed    NotificationType = "confirmed"
	NotificationCancellation NotificationType = "cancellation"
	NotificationVisitSummary NotificationType = "visit_summary"
)

// NotificationStatus represents the delivery status
type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

// NotificationResult records one outbound message
type NotificationResult struct {
	AppointmentID string              `json:"appointment_id"`
	Type          NotificationType    `json:"type"`
	Channel       NotificationChannel `json:"channel"`
	Recipient     string              `json:"recipient"`
	Subject       string              `json:"subject,omitempty"`
	Message       string              `json:"message"`
	Status        NotificationStatus  `json:"status"`
	Error         string              `json:"error,omitempty"`
	SentAt        time.Time           `json:"sent_at"`
}
