// Package lease provides exclusive, time-bounded job leases used to keep
// background runs from overlapping.
// This is part of the platform layer and contains no business logic.
package lease

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrHeld is returned by Acquire when another holder owns the key.
var ErrHeld = errors.New("lease already held")

// Lease is a held lease. Release is idempotent.
type Lease interface {
	Key() string
	Release(ctx context.Context) error
}

// Leaser hands out leases keyed by scope.
type Leaser interface {
	// Acquire returns ErrHeld when the key is already leased.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// LocalLeaser keeps leases in process memory. Suitable for single-instance
// deployments and tests.
type LocalLeaser struct {
	mu    sync.Mutex
	held  map[string]localHold
	gen   uint64
	nowFn func() time.Time
}

type localHold struct {
	expiry time.Time
	gen    uint64
}

// NewLocalLeaser creates an in-process leaser.
func NewLocalLeaser() *LocalLeaser {
	return &LocalLeaser{held: make(map[string]localHold), nowFn: time.Now}
}

// Acquire takes the key if it is free or its previous lease has expired.
func (l *LocalLeaser) Acquire(_ context.Context, key string, ttl time.Duration) (Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	if hold, ok := l.held[key]; ok && now.Before(hold.expiry) {
		return nil, ErrHeld
	}
	l.gen++
	l.held[key] = localHold{expiry: now.Add(ttl), gen: l.gen}
	return &localLease{owner: l, key: key, gen: l.gen}, nil
}

type localLease struct {
	owner *LocalLeaser
	key   string
	gen   uint64
	once  sync.Once
}

func (l *localLease) Key() string { return l.key }

func (l *localLease) Release(context.Context) error {
	l.once.Do(func() {
		l.owner.mu.Lock()
		defer l.owner.mu.Unlock()
		// An expired lease may have been reclaimed by someone else.
		if hold, ok := l.owner.held[l.key]; ok && hold.gen == l.gen {
			delete(l.owner.held, l.key)
		}
	})
	return nil
}

var _ Leaser = (*LocalLeaser)(nil)
