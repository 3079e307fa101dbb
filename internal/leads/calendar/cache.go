package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadflow_backend/internal/leads/followup"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	cacheWorking       = "1"
	cacheNotWorking    = "0"
	cacheNotConfigured = "-"
)

// CachedProvider caches another provider's answers in Redis. Redis
// failures are logged and the inner provider is asked directly.
type CachedProvider struct {
	inner  followup.CalendarProvider
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
	log    *logger.Logger
}

// NewCachedProvider wraps inner with a Redis cache.
func NewCachedProvider(inner followup.CalendarProvider, rdb redis.UniversalClient, ttl time.Duration, log *logger.Logger) *CachedProvider {
	return &CachedProvider{inner: inner, rdb: rdb, ttl: ttl, prefix: "calendar:", log: log}
}

func (c *CachedProvider) IsWorkingDay(ctx context.Context, tenantID uuid.UUID, date time.Time) (bool, error) {
	key := fmt.Sprintf("%s%s:day:%s", c.prefix, tenantID, date.Format(time.DateOnly))

	switch cached, err := c.rdb.Get(ctx, key).Result(); {
	case err == nil:
		switch cached {
		case cacheWorking:
			return true, nil
		case cacheNotWorking:
			return false, nil
		case cacheNotConfigured:
			return false, followup.ErrCalendarNotConfigured
		}
	case !errors.Is(err, redis.Nil):
		c.cacheFailure("get", err)
	}

	working, err := c.inner.IsWorkingDay(ctx, tenantID, date)
	switch {
	case errors.Is(err, followup.ErrCalendarNotConfigured):
		c.store(ctx, key, cacheNotConfigured)
	case err != nil:
		return false, err
	case working:
		c.store(ctx, key, cacheWorking)
	default:
		c.store(ctx, key, cacheNotWorking)
	}
	return working, err
}

func (c *CachedProvider) GetTimezone(ctx context.Context, tenantID uuid.UUID) (string, error) {
	key := fmt.Sprintf("%s%s:tz", c.prefix, tenantID)

	cached, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		if cached == cacheNotConfigured {
			return "", followup.ErrCalendarNotConfigured
		}
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.cacheFailure("get", err)
	}

	tz, err := c.inner.GetTimezone(ctx, tenantID)
	switch {
	case errors.Is(err, followup.ErrCalendarNotConfigured):
		c.store(ctx, key, cacheNotConfigured)
	case err == nil:
		c.store(ctx, key, tz)
	}
	return tz, err
}

// Invalidate drops every cached answer for a tenant.
func (c *CachedProvider) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	iter := c.rdb.Scan(ctx, 0, fmt.Sprintf("%s%s:*", c.prefix, tenantID), 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *CachedProvider) store(ctx context.Context, key, value string) {
	if err := c.rdb.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.cacheFailure("set", err)
	}
}

func (c *CachedProvider) cacheFailure(op string, err error) {
	if c.log != nil {
		c.log.CollaboratorFailure("calendar_cache", op, err)
	}
}

var _ followup.CalendarProvider = (*CachedProvider)(nil)
