package database

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/waitwise/backend/internal/adapters/cache"
	"github.com/zatekoja/waitwise/backend/internal/adapters/memory"
	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
)

func TestCachedClinicAdapter_ServesFromCacheUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	backing := memory.NewClinicRepository()
	appointments := memory.NewAppointmentRepository(backing)
	store := cache.NewMemoryAdapter()
	repo := NewCachedClinicAdapter(backing, store, 60, nil, zerolog.Nop())

	require.NoError(t, repo.Create(ctx, &entities.Clinic{ID: "c-1", Name: "Uptown Care Clinic", Capacity: 25}))

	first, err := repo.GetByID(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 0, first.ActivePatients)

	_, err = store.Get(ctx, clinicCacheKey("c-1"))
	require.NoError(t, err, "clinic should be cached after the first read")

	require.NoError(t, appointments.Enqueue(ctx, &entities.Appointment{
		ID: "a-1", ClinicID: "c-1", Status: entities.AppointmentStatusQueued, Position: 1,
	}))

	cached, err := repo.GetByID(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 0, cached.ActivePatients)

	require.NoError(t, store.Delete(ctx, clinicCacheKey("c-1"), clinicsListCacheKey))

	second, err := repo.GetByID(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 1, second.ActivePatients)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].ActivePatients)
}

func TestCachedClinicAdapter_CreateEvictsList(t *testing.T) {
	ctx := context.Background()
	repo := NewCachedClinicAdapter(memory.NewClinicRepository(), cache.NewMemoryAdapter(), 60, nil, zerolog.Nop())

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.Create(ctx, &entities.Clinic{ID: "c-1", Name: "Downtown Health Hub"}))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
