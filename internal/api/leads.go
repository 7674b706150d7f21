package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/gate"
	"github.com/growthbench/planforge/internal/metrics"
	"github.com/growthbench/planforge/internal/pkg/httputil"
)

type leadRequest struct {
	Email         string          `json:"email"`
	SessionKey    string          `json:"session_key"`
	Language      domain.Language `json:"language"`
	SourcePage    string          `json:"source_page"`
	TriggerReason string          `json:"trigger_reason"`
	ContextTags   []string        `json:"context_tags"`
}

func (s *Server) handleSubmitLead(w http.ResponseWriter, r *http.Request) {
	var req leadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}
	sessionKey := req.SessionKey
	if sessionKey == "" {
		sessionKey = clientIP(r)
	}

	lead, err := s.gate.SubmitEmail(r.Context(), sessionKey, req.Email, gate.LeadMeta{
		Language:      req.Language,
		SourcePage:    req.SourcePage,
		TriggerReason: req.TriggerReason,
		ContextTags:   req.ContextTags,
		UserAgent:     r.UserAgent(),
		Referrer:      r.Referer(),
	})
	switch {
	case err == nil:
		metrics.LeadsCaptured.Inc()
		httputil.OK(w, map[string]any{
			"status":  string(domain.GateUnlocked),
			"lead_id": lead.ID,
		})
	case errors.Is(err, gate.ErrEmailInvalid), errors.Is(err, gate.ErrEmailFree):
		httputil.JSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: err.Error(),
			Code:  "invalid_email",
		})
	case errors.Is(err, gate.ErrLeadRejected):
		httputil.JSON(w, http.StatusUnprocessableEntity, httputil.ErrorResponse{
			Error: "this email could not be accepted",
			Code:  "lead_rejected",
		})
	default:
		httputil.Error(w, http.StatusInternalServerError, "lead submission failed")
	}
}

func (s *Server) handleRetryLeads(w http.ResponseWriter, r *http.Request) {
	delivered := s.gate.RetryQueuedLeads(r.Context())
	metrics.LeadsQueued.Set(float64(s.gate.QueuedLeads()))
	httputil.OK(w, map[string]any{
		"delivered": delivered,
		"remaining": s.gate.QueuedLeads(),
	})
}
