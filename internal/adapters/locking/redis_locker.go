package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
	redisclient "github.com/zatekoja/waitwise/backend/internal/infrastructure/clients/redis"
)

// releaseScript deletes the lock only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes per clinic across instances with SET NX PX. The
// TTL bounds how long a crashed holder can block a clinic.
type RedisLocker struct {
	client    *redisclient.Client
	ttl       time.Duration
	retryWait time.Duration
	logger    zerolog.Logger
}

// NewRedisLocker creates a Redis-backed clinic locker
func NewRedisLocker(client *redisclient.Client, ttl time.Duration, logger zerolog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisLocker{
		client:    client,
		ttl:       ttl,
		retryWait: 25 * time.Millisecond,
		logger:    logger,
	}
}

var _ providers.ClinicLocker = (*RedisLocker)(nil)

func lockKey(clinicID string) string {
	return "lock:clinic:" + clinicID
}

// Lock polls SET NX until it owns the key or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, clinicID string) (func(), error) {
	key := lockKey(clinicID)
	token := uuid.NewString()

	for {
		ok, err := l.client.Client().SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("failed to acquire clinic lock: %w", err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retryWait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return func() { l.release(clinicID, key, token) }, nil
}

// release drops the lock if it still carries token. A lock that expired
// while held means the critical section outlived the TTL.
func (l *RedisLocker) release(clinicID, key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	released, err := releaseScript.Run(ctx, l.client.Client(), []string{key}, token).Int64()
	if err != nil {
		l.logger.Error().Err(err).Str("clinic_id", clinicID).Msg("Failed to release clinic lock")
		return
	}
	if released == 0 {
		l.logger.Warn().Str("clinic_id", clinicID).Dur("ttl", l.ttl).Msg("Clinic lock expired before release")
	}
}
