// Package agentapi talks to the external AI agent service that produces
// marketing plans. The service's wire protocol is treated as opaque: we
// consume a job identifier, a status enum, and a raw content payload that
// the plan parser normalizes.
package agentapi

import (
	"context"
	"encoding/json"

	"github.com/growthbench/planforge/internal/domain"
)

// Status is the normalized job status. The upstream service has used
// several spellings over time; NormalizeStatus folds them.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// NormalizeStatus maps upstream status spellings onto the three states the
// orchestrator cares about. Unknown values mean "keep polling".
func NormalizeStatus(raw string) Status {
	switch raw {
	case "complete", "completed", "succeeded", "success", "done":
		return StatusComplete
	case "error", "failed", "failure":
		return StatusError
	default:
		return StatusInProgress
	}
}

// CreateJobInput is everything needed to start a generation job.
type CreateJobInput struct {
	Domain   string
	Language domain.Language
	Industry string
	Prompt   string
}

// DebugPayload carries raw-shape diagnostics attached to upstream errors so
// operators can see what the service actually returned.
type DebugPayload struct {
	ResultType string `json:"result_type,omitempty"`
	Keys       string `json:"keys,omitempty"`
	Preview    string `json:"preview,omitempty"`
}

// StatusResult is one poll answer. Content is only set on StatusComplete;
// ErrorMessage and Debug only on StatusError.
type StatusResult struct {
	Status       Status
	Content      json.RawMessage
	ErrorMessage string
	Debug        *DebugPayload
}

// Backend is the contract the generation orchestrator drives. The default
// implementation is the HTTP Client; BedrockBackend is a self-hosted
// alternative.
type Backend interface {
	CreateJob(ctx context.Context, in CreateJobInput) (domain.JobHandle, error)
	JobStatus(ctx context.Context, jobID string) (StatusResult, error)
}
