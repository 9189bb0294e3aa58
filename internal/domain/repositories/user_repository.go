package repositories

import (
	"context"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// UpdateUrgency stores the triage outcome on the user record
	UpdateUrgency(ctx context.Context, id string, urgency entities.UrgencyLevel) error
}
