// Package lock provides Redis-backed mutual exclusion shared by the API and workers.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultTTL = 30 * time.Second

// ErrNotAcquired is returned by Keyed.Acquire when another owner holds the key.
var ErrNotAcquired = errors.New("lock held by another owner")

// Store is the subset of the redis client the locks need.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}

// RedisLock implements a single named lock using SETNX + TTL.
type RedisLock struct {
	store Store
	key   string
	ttl   time.Duration
	owner string
}

// NewRedisLock constructs a Redis-backed lock.
func NewRedisLock(store Store, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

// Acquire tries to own the lock for the configured TTL.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release frees the lock only if the owner value still matches.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	if _, err := l.store.CompareAndDelete(ctx, l.key, l.owner); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}

// Keyed hands out short-lived locks for individual records.
type Keyed struct {
	store  Store
	ttl    time.Duration
	keyFor func(id string) string
}

// NewKeyed builds a Keyed locker. keyFor maps a record id to its redis key.
func NewKeyed(store Store, ttl time.Duration, keyFor func(id string) string) (*Keyed, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if keyFor == nil {
		return nil, errors.New("lock key builder is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Keyed{store: store, ttl: ttl, keyFor: keyFor}, nil
}

// Acquire locks id and returns the held lock. ErrNotAcquired means someone else holds it.
func (k *Keyed) Acquire(ctx context.Context, id string) (*RedisLock, error) {
	l := &RedisLock{store: k.store, key: k.keyFor(id), ttl: k.ttl}
	ok, err := l.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return l, nil
}
