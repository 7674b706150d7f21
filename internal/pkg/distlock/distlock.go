// Package distlock serializes plan generation for one domain across server
// replicas.
//
// The locks are advisory. A replica that cannot take the lock may still
// proceed; the job store and the plan upsert stay correct either way, the
// lock only avoids paying for the same generation twice. Redis is preferred
// because it spans hosts; without Redis a Postgres advisory lock covers
// replicas that share a database.
package distlock

import (
	"context"
	"database/sql"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is a single-use advisory lock around one generation run.
// A lock instance belongs to one goroutine; concurrent runs each take
// their own instance.
type DistLock interface {
	// Acquire reports whether the lock was taken. false with a nil error
	// means another holder has it.
	Acquire(ctx context.Context) (bool, error)
	// Release frees the lock if this instance still owns it.
	Release(ctx context.Context) error
}

// NewLock picks the strongest available backend for the given key.
func NewLock(redisClient *redis.Client, db *sql.DB, key string, ttl time.Duration) DistLock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	return NewPGAdvisoryLock(db, key)
}

// PGAdvisoryLock maps the lock key onto a pg_try_advisory_lock id. The lock
// is session scoped, so a crashed holder frees it when its connection drops.
type PGAdvisoryLock struct {
	db *sql.DB
	id int64
}

// NewPGAdvisoryLock derives a deterministic advisory lock id from key.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{db: db, id: int64(h.Sum64())}
}

// Acquire takes the advisory lock without blocking.
func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	var got bool
	err := l.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, l.id).Scan(&got)
	return got, err
}

// Release frees the advisory lock.
func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, l.id)
	return err
}
