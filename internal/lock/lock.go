// Package lock provides leased mutual exclusion for the scheduled dispatcher.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Lease is a held lock. Releasing an expired or stolen lease is a no-op.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker acquires named leases. ok is false when someone else holds the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (lease Lease, ok bool, err error)
}

type localEntry struct {
	token     string
	expiresAt time.Time
}

// LocalLocker serializes holders inside a single process.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]localEntry
	now     func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{entries: make(map[string]localEntry), now: time.Now}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (Lease, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, ok := l.entries[key]; ok && now.Before(held.expiresAt) {
		return nil, false, nil
	}

	token := uuid.NewString()
	l.entries[key] = localEntry{token: token, expiresAt: now.Add(ttl)}

	return &localLease{locker: l, key: key, token: token}, true, nil
}

type localLease struct {
	locker *LocalLocker
	key    string
	token  string
}

func (l *localLease) Release(context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()

	if held, ok := l.locker.entries[l.key]; ok && held.token == l.token {
		delete(l.locker.entries, l.key)
	}
	return nil
}
