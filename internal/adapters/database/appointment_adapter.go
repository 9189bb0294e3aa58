package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/rs/zerolog"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
	"github.com/zatekoja/waitwise/backend/internal/domain/repositories"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/waitwise/backend/pkg/errors"
)

var appointmentColumns = []interface{}{
	"id", "user_id", "clinic_id", "status", "position", "symptoms", "created_at", "updated_at",
}

// AppointmentAdapter implements the AppointmentRepository interface.
// Writes that move active_patients evict the clinic cache entries after
// commit when a clinic cache is configured.
type AppointmentAdapter struct {
	client      *postgres.Client
	db          *goqu.Database
	clinicCache providers.CacheProvider
	logger      zerolog.Logger
}

// NewAppointmentAdapter creates a new appointment adapter. clinicCache may
// be nil.
func NewAppointmentAdapter(client *postgres.Client, clinicCache providers.CacheProvider, logger zerolog.Logger) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		client:      client,
		db:          goqu.New("postgres", client.DB()),
		clinicCache: clinicCache,
		logger:      logger,
	}
}

// Create creates a new appointment
func (a *AppointmentAdapter) Create(ctx context.Context, appointment *entities.Appointment) error {
	query, args, err := a.insertQuery(appointment).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err = a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create appointment", err)
	}
	return nil
}

// Enqueue inserts a queued appointment and counts it against the clinic in
// one transaction
func (a *AppointmentAdapter) Enqueue(ctx context.Context, appointment *entities.Appointment) error {
	err := a.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := execIn(ctx, tx, a.insertQuery(appointment), "create appointment"); err != nil {
			return err
		}
		return a.adjustActivePatients(ctx, tx, appointment.ClinicID, 1)
	})
	if err != nil {
		return err
	}
	a.evictClinic(ctx, appointment.ClinicID)
	return nil
}

// ApplyStatusChange runs the status update, the queue compaction and the
// active_patients adjustment in one transaction. The status update is
// guarded on change.From so a stale caller cannot apply a transition twice.
func (a *AppointmentAdapter) ApplyStatusChange(ctx context.Context, change repositories.StatusChange) error {
	now := time.Now().UTC()
	err := a.inTx(ctx, func(tx *sql.Tx) error {
		result, err := execIn(ctx, tx, a.db.Update("appointments").
			Set(goqu.Record{
				"status":     change.To,
				"updated_at": now,
			}).
			Where(goqu.Ex{
				"id":     change.AppointmentID,
				"status": change.From,
			}), "update appointment status")
		if err != nil {
			return err
		}
		updated, err := result.RowsAffected()
		if err != nil {
			return apperrors.NewInternalError("failed to get rows affected", err)
		}
		if updated == 0 {
			return apperrors.NewInvalidStateError(fmt.Sprintf("appointment %s is no longer %s", change.AppointmentID, change.From))
		}

		if change.CompactAfter > 0 {
			if _, err := execIn(ctx, tx, a.db.Update("appointments").
				Set(goqu.Record{
					"position":   goqu.L("position - 1"),
					"updated_at": now,
				}).
				Where(
					goqu.Ex{
						"clinic_id": change.ClinicID,
						"status":    entities.AppointmentStatusQueued,
					},
					goqu.C("position").Gt(change.CompactAfter),
				), "compact queue"); err != nil {
				return err
			}
		}

		if change.ActiveDelta != 0 {
			return a.adjustActivePatients(ctx, tx, change.ClinicID, change.ActiveDelta)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if change.ActiveDelta != 0 {
		a.evictClinic(ctx, change.ClinicID)
	}
	return nil
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).From("appointments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment, err := scanAppointment(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}
	return appointment, nil
}

// MaxQueuedPosition returns the highest queued position at a clinic, 0 when
// the queue is empty
func (a *AppointmentAdapter) MaxQueuedPosition(ctx context.Context, clinicID string) (int, error) {
	query, args, err := a.db.From("appointments").
		Select(goqu.COALESCE(goqu.MAX("position"), 0)).
		Where(goqu.Ex{
			"clinic_id": clinicID,
			"status":    entities.AppointmentStatusQueued,
		}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build query", err)
	}

	var maxPosition int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&maxPosition); err != nil {
		return 0, apperrors.NewInternalError("failed to read queue tail", err)
	}
	return maxPosition, nil
}

// ListByClinic retrieves appointments for a clinic ordered by position
func (a *AppointmentAdapter) ListByClinic(ctx context.Context, clinicID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).From("appointments").
		Where(goqu.Ex{"clinic_id": clinicID})
	ds = applyAppointmentFilter(ds, filter).
		Order(goqu.I("position").Asc(), goqu.I("created_at").Asc())

	return a.list(ctx, ds)
}

// ListByUser retrieves appointments for a user, newest first
func (a *AppointmentAdapter) ListByUser(ctx context.Context, userID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).From("appointments").
		Where(goqu.Ex{"user_id": userID})
	if filter.ClinicID != "" {
		ds = ds.Where(goqu.Ex{"clinic_id": filter.ClinicID})
	}
	ds = applyAppointmentFilter(ds, filter).
		Order(goqu.I("created_at").Desc())

	return a.list(ctx, ds)
}

func applyAppointmentFilter(ds *goqu.SelectDataset, filter repositories.AppointmentFilter) *goqu.SelectDataset {
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			statuses[i] = string(status)
		}
		ds = ds.Where(goqu.C("status").In(statuses))
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	return ds
}

func (a *AppointmentAdapter) list(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.Appointment, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	defer rows.Close()

	appointments := make([]*entities.Appointment, 0)
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating appointments", err)
	}
	return appointments, nil
}

func scanAppointment(row rowScanner) (*entities.Appointment, error) {
	appointment := &entities.Appointment{}
	var symptoms sql.NullString
	err := row.Scan(
		&appointment.ID,
		&appointment.UserID,
		&appointment.ClinicID,
		&appointment.Status,
		&appointment.Position,
		&symptoms,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if symptoms.Valid {
		appointment.Symptoms = &symptoms.String
	}
	return appointment, nil
}

func nullableString(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

func (a *AppointmentAdapter) insertQuery(appointment *entities.Appointment) *goqu.InsertDataset {
	return a.db.Insert("appointments").Rows(goqu.Record{
		"id":         appointment.ID,
		"user_id":    appointment.UserID,
		"clinic_id":  appointment.ClinicID,
		"status":     appointment.Status,
		"position":   appointment.Position,
		"symptoms":   nullableString(appointment.Symptoms),
		"created_at": appointment.CreatedAt,
		"updated_at": appointment.UpdatedAt,
	})
}

// adjustActivePatients adds delta to the clinic counter, flooring the
// stored value at zero
func (a *AppointmentAdapter) adjustActivePatients(ctx context.Context, tx *sql.Tx, clinicID string, delta int) error {
	result, err := execIn(ctx, tx, a.db.Update("clinics").
		Set(goqu.Record{"active_patients": goqu.L("GREATEST(active_patients + ?, 0)", delta)}).
		Where(goqu.Ex{"id": clinicID}), "update active patients")
	if err != nil {
		return err
	}
	return requireAffected(result, fmt.Sprintf("clinic with id %s not found", clinicID))
}

func (a *AppointmentAdapter) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}
	return nil
}

func (a *AppointmentAdapter) evictClinic(ctx context.Context, clinicID string) {
	if a.clinicCache == nil {
		return
	}
	keys := []string{clinicCacheKey(clinicID), clinicsListCacheKey}
	if err := a.clinicCache.Delete(ctx, keys...); err != nil {
		a.logger.Warn().Err(err).Strs("keys", keys).Msg("Failed to invalidate clinic cache")
	}
}

type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

func execIn(ctx context.Context, tx *sql.Tx, builder sqlBuilder, action string) (sql.Result, error) {
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to build query to %s", action), err)
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to %s", action), err)
	}
	return result, nil
}
