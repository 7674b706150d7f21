package generation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/growthbench/planforge/internal/agentapi"
	"github.com/growthbench/planforge/internal/plan"
)

// ErrNotFound is returned by PlanStore implementations when no plan exists
// for a (domain, language) key.
var ErrNotFound = errors.New("plan not found")

// ErrCancelled is the result error of a run cancelled by the caller.
var ErrCancelled = errors.New("generation cancelled")

// ValidationError covers bad user input: a malformed or placeholder domain,
// or a generated plan missing required content. Recoverable locally, never
// retried automatically.
type ValidationError struct {
	Field   string
	Message string
	// Details carries per-field plan validation errors when the failure
	// came from plan content rather than the request itself.
	Details []plan.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Details) > 0 {
		msgs := make([]string, len(e.Details))
		for i, d := range e.Details {
			msgs[i] = d.Field + ": " + d.Message
		}
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UpstreamError covers agent service failures: non-2xx answers, transport
// errors after retries, or an explicit error status on the job. Debug, when
// present, describes the raw payload shape for operator diagnosis.
type UpstreamError struct {
	Message string
	Debug   *agentapi.DebugPayload
	// Cause, when set, preserves the underlying error for errors.Is checks
	// (notably agentapi.ErrNotConfigured).
	Cause error
}

func (e *UpstreamError) Error() string {
	return "agent service error: " + e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Cause }

// TimeoutError means the polling attempt budget ran out before the job
// reached a terminal status. Distinct from UpstreamError so callers can
// offer "took longer than expected, try again" instead of a generic failure.
type TimeoutError struct {
	Attempts int
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generation took longer than expected (%d polls over %s)",
		e.Attempts, e.Elapsed.Round(time.Second))
}

// PersistenceError wraps a store failure. A failed upsert after successful
// generation surfaces as this error while the plan is still returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("plan store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
