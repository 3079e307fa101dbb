package lease

import (
	"context"
	"fmt"
	"sync"
	"time"

	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Token-checked delete and extend so a holder never touches a lease that
// expired and was re-acquired by someone else.
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// RedisLeaser implements Leaser with SET NX PX, shared across processes.
type RedisLeaser struct {
	rc     redis.UniversalClient
	prefix string
	log    *logger.Logger
}

// NewRedisLeaser creates a Redis-backed leaser. Keys are stored under prefix.
func NewRedisLeaser(rc redis.UniversalClient, prefix string, log *logger.Logger) *RedisLeaser {
	if prefix == "" {
		prefix = "lease:"
	}
	return &RedisLeaser{rc: rc, prefix: prefix, log: log}
}

// Acquire sets the key if absent. While held, the lease is extended every
// ttl/3 so long runs keep exclusivity.
func (r *RedisLeaser) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	token := uuid.NewString()
	fullKey := r.prefix + key

	ok, err := r.rc.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !ok {
		return nil, ErrHeld
	}

	keepCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	l := &redisLease{
		owner:   r,
		key:     key,
		fullKey: fullKey,
		token:   token,
		stop:    stop,
	}
	go l.keepAlive(keepCtx, ttl)
	return l, nil
}

type redisLease struct {
	owner   *RedisLeaser
	key     string
	fullKey string
	token   string
	stop    context.CancelFunc
	once    sync.Once
	err     error
}

func (l *redisLease) Key() string { return l.key }

func (l *redisLease) Release(ctx context.Context) error {
	l.once.Do(func() {
		l.stop()
		if err := releaseScript.Run(ctx, l.owner.rc, []string{l.fullKey}, l.token).Err(); err != nil {
			l.err = fmt.Errorf("release lease %s: %w", l.key, err)
		}
	})
	return l.err
}

func (l *redisLease) keepAlive(ctx context.Context, ttl time.Duration) {
	interval := ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := extendScript.Run(ctx, l.owner.rc, []string{l.fullKey}, l.token, ttl.Milliseconds()).Int()
			if err != nil {
				if ctx.Err() == nil && l.owner.log != nil {
					l.owner.log.Warn("lease extend failed", "key", l.key, "error", err)
				}
				continue
			}
			if res == 0 {
				if l.owner.log != nil {
					l.owner.log.Warn("lease lost before release", "key", l.key)
				}
				return
			}
		}
	}
}

var _ Leaser = (*RedisLeaser)(nil)
