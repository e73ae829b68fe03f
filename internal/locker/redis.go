package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"conos/internal/config"
	"conos/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyNamespace = "conos:lock:"

// ErrLockTimeout - блокировку не удалось получить за отведенное время.
var ErrLockTimeout = errors.New("lock wait timeout")

// Удаляем ключ, только если он все еще принадлежит нам.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// RedisLocker - распределенная блокировка через SETNX с TTL.
type RedisLocker struct {
	client   redisStore
	ttl      time.Duration
	wait     time.Duration
	interval time.Duration
	log      *logger.Logger
}

func NewRedisLocker(client redisStore, cfg config.AuctionConfig, log *logger.Logger) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for locker")
	}
	if cfg.LockTTL <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}
	if log == nil {
		log = logger.Nop()
	}
	interval := cfg.LockInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &RedisLocker{
		client:   client,
		ttl:      cfg.LockTTL,
		wait:     cfg.LockWait,
		interval: interval,
		log:      log,
	}, nil
}

// NewRedisClient открывает соединение по URL и проверяет его.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyNamespace + key
	owner := uuid.NewString()

	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, redisKey, owner, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("setnx: %w", err)
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%s: %w", key, ErrLockTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.interval):
		}
	}

	return func() {
		// Освобождаем даже если запрос уже отменен.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := l.client.Eval(releaseCtx, releaseScript, []string{redisKey}, owner).Err(); err != nil {
			l.log.Error(l.log.WithField(ctx, "lock_key", key), "release lock", err)
		}
	}, nil
}
