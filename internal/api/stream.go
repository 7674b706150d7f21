package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/growthbench/planforge/internal/agentapi"
	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/generation"
	"github.com/growthbench/planforge/internal/pkg/httputil"
)

// handleAnalysisStream runs the streaming analysis and relays agent events
// to the client as server-sent events.
func (s *Server) handleAnalysisStream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := domain.GenerationRequest{
		Domain:   q.Get("domain"),
		Language: domain.Language(q.Get("language")),
		Industry: q.Get("industry"),
	}
	if req.Domain == "" {
		httputil.BadRequest(w, "domain is required")
		return
	}

	events, err := s.orchestrator.Stream(r.Context(), req)
	if err != nil {
		var ve *generation.ValidationError
		switch {
		case errors.As(err, &ve):
			httputil.BadRequest(w, ve.Message)
		case errors.Is(err, agentapi.ErrNotConfigured):
			httputil.Error(w, http.StatusServiceUnavailable, "streaming analysis is not configured on this server")
		default:
			httputil.Error(w, http.StatusBadGateway, "the analysis service is unavailable, try again")
		}
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for ev := range events {
		if _, err := w.Write([]byte("data: ")); err != nil {
			return
		}
		if err := enc.Encode(ev); err != nil {
			return
		}
		// Encoder already wrote one newline; SSE events end with a blank line.
		if _, err := w.Write([]byte("\n")); err != nil {
			return
		}
		flusher.Flush()
	}
}
