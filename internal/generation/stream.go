package generation

import (
	"context"
	"io"

	"github.com/growthbench/planforge/internal/agentapi"
	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/plan"
)

// Streamer is the optional streaming capability of a backend. The hosted
// agent client implements it; the Bedrock backend does not.
type Streamer interface {
	OpenStream(ctx context.Context, prompt string) (io.ReadCloser, error)
}

// Stream runs the streaming analysis variant: instead of polling, events
// from the agent are forwarded to the caller as they arrive. The channel
// closes on the first terminal event or when the upstream stream ends.
func (o *Orchestrator) Stream(ctx context.Context, req domain.GenerationRequest) (<-chan agentapi.StreamEvent, error) {
	normalized, err := plan.ValidateDomain(req.Domain)
	if err != nil {
		return nil, &ValidationError{Field: "domain", Message: err.Error()}
	}
	req.NormalizedDomain = normalized
	if !req.Language.IsValid() {
		req.Language = domain.LanguageEN
	}

	streamer, ok := o.backend.(Streamer)
	if !ok {
		return nil, &UpstreamError{Message: "backend does not support streaming"}
	}

	prompt, err := agentapi.BuildPrompt(req)
	if err != nil {
		return nil, &UpstreamError{Message: err.Error()}
	}

	body, err := streamer.OpenStream(ctx, prompt)
	if err != nil {
		return nil, &UpstreamError{Message: err.Error(), Cause: err}
	}
	return agentapi.ReadStream(ctx, body), nil
}
