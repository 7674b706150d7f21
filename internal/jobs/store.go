// Package jobs tracks public API generation jobs so callers can poll their
// status. Records are short-lived: a TTL bounds how long a finished job
// stays queryable.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/growthbench/planforge/internal/domain"
)

// ErrJobNotFound is returned when a job id is unknown or expired.
var ErrJobNotFound = errors.New("job not found")

// DefaultTTL keeps finished jobs queryable for an hour.
const DefaultTTL = time.Hour

// Store persists job records for the poll endpoint.
type Store interface {
	Put(ctx context.Context, rec domain.JobRecord) error
	Get(ctx context.Context, jobID string) (domain.JobRecord, error)
}

// MemoryStore keeps job records in process memory. Expiry is checked on
// read; no background sweeper.
type MemoryStore struct {
	ttl time.Duration

	mu      sync.RWMutex
	records map[string]memoryEntry
}

type memoryEntry struct {
	rec     domain.JobRecord
	expires time.Time
}

// NewMemoryStore creates an in-memory job store. ttl <= 0 uses DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, records: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Put(_ context.Context, rec domain.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.JobID] = memoryEntry{rec: rec, expires: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, jobID string) (domain.JobRecord, error) {
	s.mu.RLock()
	entry, ok := s.records[jobID]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return domain.JobRecord{}, ErrJobNotFound
	}
	return entry.rec, nil
}

// RedisStore keeps job records in Redis so polls land on any instance.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed job store. ttl <= 0 uses DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(jobID string) string { return "job:" + jobID }

func (s *RedisStore) Put(ctx context.Context, rec domain.JobRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode job record: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(rec.JobID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store job record: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, jobID string) (domain.JobRecord, error) {
	raw, err := s.client.Get(ctx, redisKey(jobID)).Bytes()
	if err == redis.Nil {
		return domain.JobRecord{}, ErrJobNotFound
	}
	if err != nil {
		return domain.JobRecord{}, fmt.Errorf("load job record: %w", err)
	}
	var rec domain.JobRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.JobRecord{}, fmt.Errorf("decode job record: %w", err)
	}
	return rec, nil
}
