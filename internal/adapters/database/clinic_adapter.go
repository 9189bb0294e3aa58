package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/repositories"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/waitwise/backend/pkg/errors"
)

var clinicColumns = []interface{}{
	"id", "name", "address", "latitude", "longitude",
	"current_wait", "capacity", "active_patients", "created_at",
}

// ClinicAdapter implements the ClinicRepository interface
type ClinicAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewClinicAdapter creates a new clinic adapter
func NewClinicAdapter(client *postgres.Client) repositories.ClinicRepository {
	return &ClinicAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new clinic
func (a *ClinicAdapter) Create(ctx context.Context, clinic *entities.Clinic) error {
	record := goqu.Record{
		"id":              clinic.ID,
		"name":            clinic.Name,
		"address":         clinic.Address,
		"latitude":        clinic.Latitude,
		"longitude":       clinic.Longitude,
		"current_wait":    clinic.CurrentWait,
		"capacity":        clinic.Capacity,
		"active_patients": clinic.ActivePatients,
		"created_at":      clinic.CreatedAt,
	}

	query, args, err := a.db.Insert("clinics").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err = a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create clinic", err)
	}
	return nil
}

// GetByID retrieves a clinic by ID
func (a *ClinicAdapter) GetByID(ctx context.Context, id string) (*entities.Clinic, error) {
	query, args, err := a.db.Select(clinicColumns...).From("clinics").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	clinic, err := scanClinic(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("clinic with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get clinic", err)
	}
	return clinic, nil
}

// List retrieves every clinic ordered by name
func (a *ClinicAdapter) List(ctx context.Context) ([]*entities.Clinic, error) {
	query, args, err := a.db.Select(clinicColumns...).From("clinics").
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list clinics", err)
	}
	defer rows.Close()

	clinics := make([]*entities.Clinic, 0)
	for rows.Next() {
		clinic, err := scanClinic(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan clinic", err)
		}
		clinics = append(clinics, clinic)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating clinics", err)
	}
	return clinics, nil
}

// Count returns the number of stored clinics
func (a *ClinicAdapter) Count(ctx context.Context) (int, error) {
	query, args, err := a.db.From("clinics").Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count clinics", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClinic(row rowScanner) (*entities.Clinic, error) {
	clinic := &entities.Clinic{}
	err := row.Scan(
		&clinic.ID,
		&clinic.Name,
		&clinic.Address,
		&clinic.Latitude,
		&clinic.Longitude,
		&clinic.CurrentWait,
		&clinic.Capacity,
		&clinic.ActivePatients,
		&clinic.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return clinic, nil
}
