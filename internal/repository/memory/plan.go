// Package memory holds in-process store implementations used when no
// database is configured (local development, tests).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/generation"
)

// PlanStore implements generation.PlanStore in process memory.
type PlanStore struct {
	mu    sync.RWMutex
	plans map[string]domain.StoredPlan
}

// NewPlanStore creates an empty in-memory plan store.
func NewPlanStore() *PlanStore {
	return &PlanStore{plans: make(map[string]domain.StoredPlan)}
}

func key(normalizedDomain string, language domain.Language) string {
	return normalizedDomain + "|" + string(language)
}

func (s *PlanStore) Lookup(_ context.Context, normalizedDomain string, language domain.Language) (*domain.MarketingPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.plans[key(normalizedDomain, language)]
	if !ok {
		return nil, generation.ErrNotFound
	}
	plan := rec.Plan
	return &plan, nil
}

func (s *PlanStore) Upsert(_ context.Context, rec domain.StoredPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	k := key(rec.NormalizedDomain, rec.Language)
	if existing, ok := s.plans[k]; ok {
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	s.plans[k] = rec
	return nil
}
