// Package memory provides process-local repositories backing the service
// when STORAGE_DRIVER=memory and in tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/waitwise/backend/pkg/errors"
)

// UserRepository is an in-memory UserRepository
type UserRepository struct {
	mu      sync.RWMutex
	users   map[string]*entities.User
	byEmail map[string]string
}

// NewUserRepository creates an empty user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[string]*entities.User),
		byEmail: make(map[string]string),
	}
}

var _ repositories.UserRepository = (*UserRepository)(nil)

// Create creates a new user; emails are unique case-insensitively
func (r *UserRepository) Create(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := r.byEmail[email]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("email %s is already registered", user.Email))
	}
	if _, exists := r.users[user.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("user with id %s already exists", user.ID))
	}

	r.users[user.ID] = copyUser(user)
	r.byEmail[email] = user.ID
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(_ context.Context, id string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", id))
	}
	return copyUser(user), nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with email %s not found", email))
	}
	return copyUser(r.users[id]), nil
}

// UpdateUrgency stores the triage outcome on the user record
func (r *UserRepository) UpdateUrgency(_ context.Context, id string, urgency entities.UrgencyLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", id))
	}
	level := urgency
	user.UrgencyLevel = &level
	return nil
}

func copyUser(user *entities.User) *entities.User {
	clone := *user
	if user.UrgencyLevel != nil {
		level := *user.UrgencyLevel
		clone.UrgencyLevel = &level
	}
	return &clone
}
