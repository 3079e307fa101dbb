package lease

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadflow_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLocalLeaserExcludesConcurrentHolders(t *testing.T) {
	leaser := NewLocalLeaser()
	ctx := context.Background()

	first, err := leaser.Acquire(ctx, "automation:all", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := leaser.Acquire(ctx, "automation:all", time.Minute); !errors.Is(err, ErrHeld) {
		t.Fatalf("expected ErrHeld, got %v", err)
	}
	if _, err := leaser.Acquire(ctx, "automation:tenant-b", time.Minute); err != nil {
		t.Fatalf("other scopes must not be blocked: %v", err)
	}

	_ = first.Release(ctx)
	_ = first.Release(ctx)

	if _, err := leaser.Acquire(ctx, "automation:all", time.Minute); err != nil {
		t.Fatalf("expected re-acquire after release, got %v", err)
	}
}

func TestLocalLeaserReclaimsExpiredLease(t *testing.T) {
	leaser := NewLocalLeaser()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	leaser.nowFn = func() time.Time { return now }

	if _, err := leaser.Acquire(context.Background(), "k", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := leaser.Acquire(context.Background(), "k", time.Minute); err != nil {
		t.Fatalf("expected expired lease to be reclaimable, got %v", err)
	}
}

func TestLocalLeaserStaleReleaseKeepsNewHolder(t *testing.T) {
	leaser := NewLocalLeaser()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	leaser.nowFn = func() time.Time { return now }
	ctx := context.Background()

	stale, err := leaser.Acquire(ctx, "automation:all", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := leaser.Acquire(ctx, "automation:all", time.Minute); err != nil {
		t.Fatalf("expected expired lease to be reclaimable, got %v", err)
	}

	if err := stale.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := leaser.Acquire(ctx, "automation:all", time.Minute); !errors.Is(err, ErrHeld) {
		t.Fatalf("stale release must not free the current holder's key, got %v", err)
	}
}

func TestRedisLeaserHonoursTokens(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()

	leaser := NewRedisLeaser(rc, "test:", logger.Nop())
	ctx := context.Background()

	held, err := leaser.Acquire(ctx, "automation:all", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mr.Exists("test:automation:all") {
		t.Fatalf("expected lease key in redis")
	}
	if _, err := leaser.Acquire(ctx, "automation:all", time.Hour); !errors.Is(err, ErrHeld) {
		t.Fatalf("expected ErrHeld, got %v", err)
	}

	// Simulate expiry and takeover by another process.
	mr.Set("test:automation:all", "someone-else")
	if err := held.Release(ctx); err != nil {
		t.Fatalf("unexpected release error: %v", err)
	}
	if got, _ := mr.Get("test:automation:all"); got != "someone-else" {
		t.Fatalf("release must not delete a lease owned by another token, got %q", got)
	}
}

func TestRedisLeaserReleaseFreesKey(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()

	leaser := NewRedisLeaser(rc, "", logger.Nop())
	ctx := context.Background()

	held, err := leaser.Acquire(ctx, "automation:all", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := held.Release(ctx); err != nil {
		t.Fatalf("unexpected release error: %v", err)
	}
	if mr.Exists("lease:automation:all") {
		t.Fatalf("expected key to be deleted on release")
	}
}
