// Package lock implements per-owner sync run locks.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/finance-tracker/ledgersync/config"
	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by another run is never released by mistake.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes sync runs per owner across processes.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker creates a new Redis-backed locker. ttl bounds how long a
// crashed run can keep the owner locked.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		ttl:    ttl,
	}
}

// NewRedisClient creates a Redis client from configuration and verifies it.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.DB = cfg.DB

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func lockKey(ownerID int64) string {
	return fmt.Sprintf("sync:lock:%d", ownerID)
}

// Acquire takes the owner's lock or returns domainerror.ErrSyncInProgress.
func (l *RedisLocker) Acquire(ctx context.Context, ownerID int64) (func(), error) {
	key := lockKey(ownerID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !ok {
		return nil, domainerror.ErrSyncInProgress
	}

	release := func() {
		// The run's context may already be canceled; release regardless.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			slog.Warn("Failed to release sync lock", "owner_id", ownerID, "error", err)
		}
	}
	return release, nil
}
