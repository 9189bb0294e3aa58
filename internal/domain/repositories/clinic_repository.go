package repositories

import (
	"context"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
)

// ClinicRepository defines the interface for clinic data operations
type ClinicRepository interface {
	// Create creates a new clinic
	Create(ctx context.Context, clinic *entities.Clinic) error

	// GetByID retrieves a clinic by ID
	GetByID(ctx context.Context, id string) (*entities.Clinic, error)

	// List retrieves every clinic ordered by name
	List(ctx context.Context) ([]*entities.Clinic, error)

	// Count returns the number of stored clinics
	Count(ctx context.Context) (int, error)
}
