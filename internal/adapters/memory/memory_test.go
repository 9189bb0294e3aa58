package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/waitwise/backend/pkg/errors"
)

func TestUserRepository_EmailUniqueness(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entities.User{ID: "u-1", Email: "Ada@Example.com"}))
	err := repo.Create(ctx, &entities.User{ID: "u-2", Email: "ada@example.com"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	user, err := repo.GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
}

func TestUserRepository_UpdateUrgencyDoesNotAliasCaller(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &entities.User{ID: "u-1", Email: "a@b.c"}))

	require.NoError(t, repo.UpdateUrgency(ctx, "u-1", entities.UrgencyHigh))
	user, err := repo.GetByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, entities.UrgencyHigh, user.Urgency())

	*user.UrgencyLevel = entities.UrgencyLow
	again, _ := repo.GetByID(ctx, "u-1")
	assert.Equal(t, entities.UrgencyHigh, again.Urgency())
}

func TestClinicRepository_ActivePatientsFloor(t *testing.T) {
	repo := NewClinicRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &entities.Clinic{ID: "c-1", Name: "Lakeside Walk-In"}))

	require.NoError(t, repo.adjustActivePatients("c-1", 1))
	require.NoError(t, repo.adjustActivePatients("c-1", -1))
	require.NoError(t, repo.adjustActivePatients("c-1", -1))

	clinic, err := repo.GetByID(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 0, clinic.ActivePatients)
	assert.True(t, apperrors.IsNotFound(repo.adjustActivePatients("c-9", 1)))
}

func newQueueRepos(t *testing.T, clinicIDs ...string) (*ClinicRepository, *AppointmentRepository) {
	t.Helper()
	clinics := NewClinicRepository()
	for _, id := range clinicIDs {
		require.NoError(t, clinics.Create(context.Background(), &entities.Clinic{ID: id, Name: "Clinic " + id}))
	}
	return clinics, NewAppointmentRepository(clinics)
}

func TestAppointmentRepository_EnqueueCountsActivePatients(t *testing.T) {
	clinics, repo := newQueueRepos(t, "c-1")
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, &entities.Appointment{ID: "a-1", ClinicID: "c-1", Status: entities.AppointmentStatusQueued, Position: 1}))
	err := repo.Enqueue(ctx, &entities.Appointment{ID: "a-1", ClinicID: "c-1", Status: entities.AppointmentStatusQueued, Position: 2})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	err = repo.Enqueue(ctx, &entities.Appointment{ID: "a-2", ClinicID: "c-9", Status: entities.AppointmentStatusQueued, Position: 1})
	assert.True(t, apperrors.IsNotFound(err))
	_, err = repo.GetByID(ctx, "a-2")
	assert.True(t, apperrors.IsNotFound(err), "appointment must not be stored when its clinic is unknown")

	clinic, err := clinics.GetByID(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 1, clinic.ActivePatients)
}

func TestAppointmentRepository_ApplyStatusChangeCompactsOnlyQueued(t *testing.T) {
	clinics, repo := newQueueRepos(t, "c-1", "c-2")
	ctx := context.Background()
	base := time.Now()

	seed := []*entities.Appointment{
		{ID: "a-1", ClinicID: "c-1", Status: entities.AppointmentStatusQueued, Position: 1, CreatedAt: base},
		{ID: "a-2", ClinicID: "c-1", Status: entities.AppointmentStatusQueued, Position: 2, CreatedAt: base},
		{ID: "a-3", ClinicID: "c-1", Status: entities.AppointmentStatusQueued, Position: 3, CreatedAt: base},
		{ID: "a-4", ClinicID: "c-1", Status: entities.AppointmentStatusNotified, Position: 4, CreatedAt: base},
		{ID: "b-1", ClinicID: "c-2", Status: entities.AppointmentStatusQueued, Position: 5, CreatedAt: base},
	}
	for _, appointment := range seed {
		require.NoError(t, repo.Enqueue(ctx, appointment))
	}

	require.NoError(t, repo.ApplyStatusChange(ctx, repositories.StatusChange{
		AppointmentID: "a-2",
		ClinicID:      "c-1",
		From:          entities.AppointmentStatusQueued,
		To:            entities.AppointmentStatusCancelled,
		CompactAfter:  2,
		ActiveDelta:   -1,
	}))

	queued, err := repo.ListByClinic(ctx, "c-1", repositories.AppointmentFilter{
		Statuses: []entities.AppointmentStatus{entities.AppointmentStatusQueued},
	})
	require.NoError(t, err)
	require.Len(t, queued, 2)
	assert.Equal(t, []string{"a-1", "a-3"}, []string{queued[0].ID, queued[1].ID})
	assert.Equal(t, []int{1, 2}, []int{queued[0].Position, queued[1].Position})

	notified, _ := repo.GetByID(ctx, "a-4")
	assert.Equal(t, 4, notified.Position)
	other, _ := repo.GetByID(ctx, "b-1")
	assert.Equal(t, 5, other.Position)

	clinic, err := clinics.GetByID(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 3, clinic.ActivePatients)

	maxPosition, err := repo.MaxQueuedPosition(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 2, maxPosition)
}

func TestAppointmentRepository_ApplyStatusChangeRejectsStaleStatus(t *testing.T) {
	_, repo := newQueueRepos(t, "c-1")
	ctx := context.Background()
	require.NoError(t, repo.Enqueue(ctx, &entities.Appointment{ID: "a-1", ClinicID: "c-1", Status: entities.AppointmentStatusCancelled, Position: 1}))

	err := repo.ApplyStatusChange(ctx, repositories.StatusChange{
		AppointmentID: "a-1",
		ClinicID:      "c-1",
		From:          entities.AppointmentStatusQueued,
		To:            entities.AppointmentStatusCancelled,
		CompactAfter:  1,
		ActiveDelta:   -1,
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState))

	err = repo.ApplyStatusChange(ctx, repositories.StatusChange{AppointmentID: "missing", From: entities.AppointmentStatusQueued})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAppointmentRepository_ApplyStatusChangeWritesNothingOnFailure(t *testing.T) {
	clinics, repo := newQueueRepos(t, "c-1")
	ctx := context.Background()
	require.NoError(t, repo.Enqueue(ctx, &entities.Appointment{ID: "a-1", ClinicID: "c-1", Status: entities.AppointmentStatusQueued, Position: 1}))
	require.NoError(t, repo.Enqueue(ctx, &entities.Appointment{ID: "a-2", ClinicID: "c-1", Status: entities.AppointmentStatusQueued, Position: 2}))

	err := repo.ApplyStatusChange(ctx, repositories.StatusChange{
		AppointmentID: "a-1",
		ClinicID:      "c-9",
		From:          entities.AppointmentStatusQueued,
		To:            entities.AppointmentStatusCancelled,
		CompactAfter:  1,
		ActiveDelta:   -1,
	})
	require.True(t, apperrors.IsNotFound(err))

	first, _ := repo.GetByID(ctx, "a-1")
	assert.Equal(t, entities.AppointmentStatusQueued, first.Status)
	second, _ := repo.GetByID(ctx, "a-2")
	assert.Equal(t, 2, second.Position)
	clinic, _ := clinics.GetByID(ctx, "c-1")
	assert.Equal(t, 2, clinic.ActivePatients)
}

func TestAppointmentRepository_ListByUserNewestFirst(t *testing.T) {
	_, repo := newQueueRepos(t)
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, repo.Create(ctx, &entities.Appointment{ID: "old", UserID: "u-1", ClinicID: "c-1", Status: entities.AppointmentStatusCompleted, CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &entities.Appointment{ID: "new", UserID: "u-1", ClinicID: "c-2", Status: entities.AppointmentStatusQueued, CreatedAt: base.Add(time.Hour)}))

	all, err := repo.ListByUser(ctx, "u-1", repositories.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].ID)

	atClinic, err := repo.ListByUser(ctx, "u-1", repositories.AppointmentFilter{ClinicID: "c-1"})
	require.NoError(t, err)
	require.Len(t, atClinic, 1)
	assert.Equal(t, "old", atClinic[0].ID)
}
