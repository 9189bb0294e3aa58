package entities

import (
	"time"
)

// IDType is the identity document a patient registers with
type IDType string

const (
	IDTypeHealthcard IDType = "Healthcard"
	IDTypeGovID      IDType = "GovID"
)

// Valid reports whether t is a supported identity document
func (t IDType) Valid() bool {
	return t == IDTypeHealthcard || t == IDTypeGovID
}

// UrgencyLevel is the triage tier derived from reported symptoms
type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
)

// Valid reports whether u is one of the three tiers
func (u UrgencyLevel) Valid() bool {
	return u == UrgencyLow || u == UrgencyMedium || u == UrgencyHigh
}

// User represents a registered patient
type User struct {
	ID           string        `json:"id" db:"id"`
	Name         string        `json:"name" db:"name"`
	Email        string        `json:"email" db:"email"`
	Phone        string        `json:"phone" db:"phone"`
	IDType       IDType        `json:"id_type" db:"id_type"`
	UrgencyLevel *UrgencyLevel `json:"urgency_level" db:"urgency_level"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

// Urgency returns the stored urgency or an empty string before triage
func (u *User) Urgency() UrgencyLevel {
	if u == nil || u.UrgencyLevel == nil {
		return ""
	}
	return *u.UrgencyLevel
}
