package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/growthbench/planforge/internal/domain"
)

// LeadRepo implements gate.LeadSink. Leads are append-only; the external
// collector is the system of record, this table is the local backup.
type LeadRepo struct{ db *sql.DB }

// NewLeadRepo creates a Postgres-backed lead sink.
func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{db: db} }

func (r *LeadRepo) SaveLead(ctx context.Context, lead domain.LeadRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leads (id, email, captured_at, language, source_page,
		                   trigger_reason, context_tags, user_agent, referrer)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, lead.ID, lead.Email, lead.CapturedAt, string(lead.Language), lead.SourcePage,
		lead.TriggerReason, pq.Array(lead.ContextTags), lead.UserAgent, lead.Referrer)
	if err != nil {
		return fmt.Errorf("save lead: %w", err)
	}
	return nil
}
