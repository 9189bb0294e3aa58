package entities

import (
	"time"

	"github.com/zatekoja/waitwise/backend/pkg/geo"
)

// Clinic represents a walk-in clinic patients can queue at
type Clinic struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Address        string    `json:"address" db:"address"`
	Latitude       float64   `json:"latitude" db:"latitude"`
	Longitude      float64   `json:"longitude" db:"longitude"`
	CurrentWait    int       `json:"current_wait" db:"current_wait"`
	Capacity       int       `json:"capacity" db:"capacity"`
	ActivePatients int       `json:"active_patients" db:"active_patients"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Point returns the clinic coordinates
func (c *Clinic) Point() geo.Point {
	return geo.Point{Latitude: c.Latitude, Longitude: c.Longitude}
}

// ClinicWithDistance is a directory entry annotated with the distance from
// the caller when an origin was supplied
type ClinicWithDistance struct {
	*Clinic
	DistanceKm *float64 `json:"distance_km,omitempty"`
}
