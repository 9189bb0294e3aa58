package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/waitwise/backend/pkg/errors"
)

// ClinicRepository is an in-memory ClinicRepository
type ClinicRepository struct {
	mu      sync.RWMutex
	clinics map[string]*entities.Clinic
}

// NewClinicRepository creates an empty clinic repository
func NewClinicRepository() *ClinicRepository {
	return &ClinicRepository{clinics: make(map[string]*entities.Clinic)}
}

var _ repositories.ClinicRepository = (*ClinicRepository)(nil)

// Create creates a new clinic
func (r *ClinicRepository) Create(_ context.Context, clinic *entities.Clinic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clinics[clinic.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("clinic with id %s already exists", clinic.ID))
	}
	clone := *clinic
	r.clinics[clinic.ID] = &clone
	return nil
}

// GetByID retrieves a clinic by ID
func (r *ClinicRepository) GetByID(_ context.Context, id string) (*entities.Clinic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clinic, ok := r.clinics[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("clinic with id %s not found", id))
	}
	clone := *clinic
	return &clone, nil
}

// List retrieves every clinic ordered by name
func (r *ClinicRepository) List(_ context.Context) ([]*entities.Clinic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clinics := make([]*entities.Clinic, 0, len(r.clinics))
	for _, clinic := range r.clinics {
		clone := *clinic
		clinics = append(clinics, &clone)
	}
	sort.Slice(clinics, func(i, j int) bool {
		if clinics[i].Name == clinics[j].Name {
			return clinics[i].ID < clinics[j].ID
		}
		return clinics[i].Name < clinics[j].Name
	})
	return clinics, nil
}

// Count returns the number of stored clinics
func (r *ClinicRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clinics), nil
}

// adjustActivePatients adds delta to active_patients, flooring at zero
func (r *ClinicRepository) adjustActivePatients(id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clinic, ok := r.clinics[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("clinic with id %s not found", id))
	}
	clinic.ActivePatients += delta
	if clinic.ActivePatients < 0 {
		clinic.ActivePatients = 0
	}
	return nil
}
