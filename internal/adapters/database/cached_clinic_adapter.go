package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
	"github.com/zatekoja/waitwise/backend/internal/domain/repositories"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/observability"
)

const clinicsListCacheKey = "clinics:list"

func clinicCacheKey(id string) string {
	return fmt.Sprintf("clinic:%s", id)
}

// CachedClinicAdapter wraps a ClinicRepository with a read-through cache.
// Writes go to the wrapped repository first and then evict the entries
// they touched.
type CachedClinicAdapter struct {
	adapter    repositories.ClinicRepository
	cache      providers.CacheProvider
	ttlSeconds int
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// NewCachedClinicAdapter creates a new cached clinic adapter
func NewCachedClinicAdapter(
	adapter repositories.ClinicRepository,
	cache providers.CacheProvider,
	ttlSeconds int,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) repositories.ClinicRepository {
	if ttlSeconds <= 0 {
		ttlSeconds = 30
	}
	return &CachedClinicAdapter{
		adapter:    adapter,
		cache:      cache,
		ttlSeconds: ttlSeconds,
		metrics:    metrics,
		logger:     logger,
	}
}

// GetByID retrieves a clinic by ID with caching
func (a *CachedClinicAdapter) GetByID(ctx context.Context, id string) (*entities.Clinic, error) {
	cacheKey := clinicCacheKey(id)

	var clinic entities.Clinic
	if a.readCache(ctx, cacheKey, &clinic) {
		return &clinic, nil
	}

	start := time.Now()
	fresh, err := a.adapter.GetByID(ctx, id)
	observability.RecordStoreMetric(ctx, a.metrics, "clinic.get", time.Since(start))
	if err != nil {
		return nil, err
	}
	a.writeCache(ctx, cacheKey, fresh)
	return fresh, nil
}

// List retrieves every clinic with caching
func (a *CachedClinicAdapter) List(ctx context.Context) ([]*entities.Clinic, error) {
	var clinics []*entities.Clinic
	if a.readCache(ctx, clinicsListCacheKey, &clinics) {
		return clinics, nil
	}

	start := time.Now()
	fresh, err := a.adapter.List(ctx)
	observability.RecordStoreMetric(ctx, a.metrics, "clinic.list", time.Since(start))
	if err != nil {
		return nil, err
	}
	a.writeCache(ctx, clinicsListCacheKey, fresh)
	return fresh, nil
}

// Count is not cached
func (a *CachedClinicAdapter) Count(ctx context.Context) (int, error) {
	return a.adapter.Count(ctx)
}

// Create creates a clinic and invalidates the directory listing
func (a *CachedClinicAdapter) Create(ctx context.Context, clinic *entities.Clinic) error {
	if err := a.adapter.Create(ctx, clinic); err != nil {
		return err
	}
	a.invalidate(ctx, clinicsListCacheKey)
	return nil
}

func (a *CachedClinicAdapter) readCache(ctx context.Context, key string, dest interface{}) bool {
	cached, err := a.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			a.logger.Warn().Err(err).Str("key", key).Msg("Clinic cache read failed")
		}
		observability.RecordCacheMiss(ctx, a.metrics, "clinic")
		return false
	}
	if err := json.Unmarshal(cached, dest); err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached clinic data")
		observability.RecordCacheMiss(ctx, a.metrics, "clinic")
		return false
	}
	observability.RecordCacheHit(ctx, a.metrics, "clinic")
	return true
}

func (a *CachedClinicAdapter) writeCache(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, data, a.ttlSeconds); err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache clinic data")
	}
}

func (a *CachedClinicAdapter) invalidate(ctx context.Context, keys ...string) {
	if err := a.cache.Delete(ctx, keys...); err != nil {
		a.logger.Warn().Err(err).Strs("keys", keys).Msg("Failed to invalidate clinic cache")
	}
}
