package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/waitwise/backend/pkg/errors"
	"github.com/zatekoja/waitwise/backend/pkg/geo"
)

// SortCriterion selects the clinic directory ordering
type SortCriterion string

const (
	SortByWait     SortCriterion = "wait"
	SortByDistance SortCriterion = "distance"
)

// ParseSortCriterion parses a sort query value. An empty value picks
// distance when an origin is known and wait otherwise.
func ParseSortCriterion(value string, hasOrigin bool) (SortCriterion, error) {
	switch SortCriterion(strings.ToLower(strings.TrimSpace(value))) {
	case "":
		if hasOrigin {
			return SortByDistance, nil
		}
		return SortByWait, nil
	case SortByWait:
		return SortByWait, nil
	case SortByDistance:
		return SortByDistance, nil
	}
	return "", apperrors.NewValidationError("sort must be wait or distance")
}

// DefaultClinics are created on first start when no clinic exists
func DefaultClinics() []entities.Clinic {
	return []entities.Clinic{
		{Name: "Downtown Health Hub", Address: "123 Main St", Latitude: 43.6510, Longitude: -79.3470, CurrentWait: 25, Capacity: 30},
		{Name: "Lakeside Walk-In", Address: "456 Lake Ave", Latitude: 43.6426, Longitude: -79.3871, CurrentWait: 40, Capacity: 20},
		{Name: "Uptown Care Clinic", Address: "789 Uptown Blvd", Latitude: 43.6629, Longitude: -79.3957, CurrentWait: 15, Capacity: 25},
	}
}

// ClinicDirectoryService lists clinics for patients choosing where to queue
type ClinicDirectoryService struct {
	clinics repositories.ClinicRepository
	logger  zerolog.Logger
}

// NewClinicDirectoryService creates a new clinic directory service
func NewClinicDirectoryService(clinics repositories.ClinicRepository, logger zerolog.Logger) *ClinicDirectoryService {
	return &ClinicDirectoryService{clinics: clinics, logger: logger}
}

// ListSortedBy returns every clinic ordered by criterion. origin is required
// for distance ordering; when present each entry carries its distance.
func (s *ClinicDirectoryService) ListSortedBy(ctx context.Context, criterion SortCriterion, origin *geo.Point) ([]*entities.ClinicWithDistance, error) {
	if criterion == SortByDistance && origin == nil {
		return nil, apperrors.NewValidationError("lat and lon are required to sort by distance")
	}
	if origin != nil && !origin.Valid() {
		return nil, apperrors.NewValidationError("lat must be within [-90, 90] and lon within [-180, 180]")
	}

	clinics, err := s.clinics.List(ctx)
	if err != nil {
		return nil, err
	}
	return SortClinics(clinics, criterion, origin), nil
}

// GetClinic retrieves a clinic by ID
func (s *ClinicDirectoryService) GetClinic(ctx context.Context, id string) (*entities.Clinic, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("clinic id is required")
	}
	return s.clinics.GetByID(ctx, id)
}

// SeedDefaults inserts DefaultClinics when the directory is empty and
// returns how many clinics were created
func (s *ClinicDirectoryService) SeedDefaults(ctx context.Context) (int, error) {
	count, err := s.clinics.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	created := 0
	for _, clinic := range DefaultClinics() {
		clinic := clinic
		clinic.ID = uuid.New().String()
		clinic.CreatedAt = time.Now().UTC()
		if err := s.clinics.Create(ctx, &clinic); err != nil {
			return created, err
		}
		created++
	}

	s.logger.Info().Int("clinics", created).Msg("Seeded default clinics")
	return created, nil
}

// SortClinics orders clinics without touching the store. Ties keep name
// order.
func SortClinics(clinics []*entities.Clinic, criterion SortCriterion, origin *geo.Point) []*entities.ClinicWithDistance {
	result := make([]*entities.ClinicWithDistance, len(clinics))
	for i, clinic := range clinics {
		entry := &entities.ClinicWithDistance{Clinic: clinic}
		if origin != nil {
			distance := geo.DistanceKm(*origin, clinic.Point())
			entry.DistanceKm = &distance
		}
		result[i] = entry
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if criterion == SortByDistance && a.DistanceKm != nil && b.DistanceKm != nil {
			if *a.DistanceKm != *b.DistanceKm {
				return *a.DistanceKm < *b.DistanceKm
			}
		} else if a.CurrentWait != b.CurrentWait {
			return a.CurrentWait < b.CurrentWait
		}
		return a.Name < b.Name
	})
	return result
}
