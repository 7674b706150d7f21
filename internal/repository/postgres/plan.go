// Package postgres implements the persistence interfaces against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/generation"
)

// PlanRepo implements generation.PlanStore. One row per
// (normalized_domain, language); the plan document lives in a JSONB column.
type PlanRepo struct{ db *sql.DB }

// NewPlanRepo creates a Postgres-backed plan store.
func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{db: db} }

func (r *PlanRepo) Lookup(ctx context.Context, normalizedDomain string, language domain.Language) (*domain.MarketingPlan, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT plan
		FROM marketing_plans
		WHERE normalized_domain = $1 AND language = $2
	`, normalizedDomain, string(language)).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, generation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup plan: %w", err)
	}

	var plan domain.MarketingPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("decode stored plan: %w", err)
	}
	return &plan, nil
}

func (r *PlanRepo) Upsert(ctx context.Context, rec domain.StoredPlan) error {
	raw, err := json.Marshal(rec.Plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO marketing_plans (normalized_domain, language, email, plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (normalized_domain, language)
		DO UPDATE SET email = EXCLUDED.email, plan = EXCLUDED.plan, updated_at = NOW()
	`, rec.NormalizedDomain, string(rec.Language), rec.Email, raw)
	if err != nil {
		return fmt.Errorf("upsert plan: %w", err)
	}
	return nil
}
