package domain

import "time"

// GenerationRequest is the per-action input to the generation orchestrator.
// It is never persisted on its own.
type GenerationRequest struct {
	Domain           string   `json:"domain"`
	NormalizedDomain string   `json:"-"`
	Language         Language `json:"language"`
	Industry         string   `json:"industry,omitempty"`
	ForceRegenerate  bool     `json:"force,omitempty"`
	// Email of the captured lead, stored alongside the generated plan.
	Email string `json:"email,omitempty"`
}

// JobHandle identifies one in-flight generation job at the external agent
// service. Owned by exactly one orchestrator run and discarded when the run
// reaches a terminal state.
type JobHandle struct {
	JobID     string    `json:"job_id"`
	CreatedAt time.Time `json:"created_at"`
}

// JobStatus enumerates the lifecycle of a public API generation job.
type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobComplete   JobStatus = "complete"
	JobFailed     JobStatus = "failed"
)

// JobRecord is the poll-endpoint view of a generation job.
type JobRecord struct {
	JobID     string         `json:"job_id"`
	Status    JobStatus      `json:"status"`
	Domain    string         `json:"domain"`
	Language  Language       `json:"language"`
	Source    PlanSource     `json:"source,omitempty"`
	Plan      *MarketingPlan `json:"plan,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
