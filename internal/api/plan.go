package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/growthbench/planforge/internal/agentapi"
	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/generation"
	"github.com/growthbench/planforge/internal/jobs"
	"github.com/growthbench/planforge/internal/metrics"
	"github.com/growthbench/planforge/internal/pkg/httputil"
	"github.com/growthbench/planforge/internal/pkg/logger"
)

type generateRequest struct {
	Domain        string          `json:"domain"`
	Language      domain.Language `json:"language"`
	Industry      string          `json:"industry"`
	Force         bool            `json:"force"`
	Email         string          `json:"email"`
	WebhookURL    string          `json:"webhook_url"`
	WebhookSecret string          `json:"webhook_secret"`
}

type planResponse struct {
	Status  string                `json:"status"`
	Source  domain.PlanSource     `json:"source,omitempty"`
	Plan    *domain.MarketingPlan `json:"plan,omitempty"`
	Warning string                `json:"warning,omitempty"`
	JobID   string                `json:"job_id,omitempty"`
	PollURL string                `json:"poll_url,omitempty"`
}

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}
	if req.Domain == "" {
		httputil.BadRequest(w, "domain is required")
		return
	}
	if req.Language == "" {
		req.Language = domain.LanguageEN
	}

	genReq := domain.GenerationRequest{
		Domain:          req.Domain,
		Language:        req.Language,
		Industry:        req.Industry,
		ForceRegenerate: req.Force,
		Email:           req.Email,
	}
	run := s.orchestrator.Start(r.Context(), genReq)
	metrics.GenerationsStarted.WithLabelValues(string(req.Language)).Inc()

	jobID := uuid.NewString()
	record := domain.JobRecord{
		JobID:     jobID,
		Status:    domain.JobProcessing,
		Domain:    req.Domain,
		Language:  req.Language,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.jobs.Put(r.Context(), record); err != nil {
		logger.Warn("job record write failed", "job_id", jobID, "error", err.Error())
	}

	s.mu.Lock()
	s.runs[jobID] = run
	s.mu.Unlock()
	go s.watchRun(jobID, record, run, req.WebhookURL, req.WebhookSecret)

	select {
	case <-run.Done():
		res, _ := run.Result()
		s.writePlanResult(w, res)
	case <-time.After(s.cfg.SyncWait):
		httputil.JSON(w, http.StatusAccepted, planResponse{
			Status:  "processing",
			JobID:   jobID,
			PollURL: s.cfg.PublicBaseURL + "/v1/marketing-plan/" + jobID,
		})
	case <-r.Context().Done():
		// Client went away; the run keeps going and stays pollable.
	}
}

// watchRun records the run's outcome for the poll endpoint and fires the
// completion webhook.
func (s *Server) watchRun(jobID string, record domain.JobRecord, run *generation.Run, webhookURL, webhookSecret string) {
	<-run.Done()
	res, _ := run.Result()

	s.mu.Lock()
	delete(s.runs, jobID)
	s.mu.Unlock()

	metrics.GenerationDuration.Observe(run.Elapsed().Seconds())

	record.UpdatedAt = time.Now().UTC()
	if res.Plan != nil {
		record.Status = domain.JobComplete
		record.Source = res.Source
		record.Plan = res.Plan
		if res.Err != nil {
			record.Error = res.Err.Error()
		}
		metrics.GenerationsCompleted.WithLabelValues(string(res.Source)).Inc()
	} else {
		record.Status = domain.JobFailed
		record.Error = userMessage(res.Err)
		metrics.GenerationsFailed.WithLabelValues(errorKind(res.Err)).Inc()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.jobs.Put(ctx, record); err != nil {
		logger.Warn("job record update failed", "job_id", jobID, "error", err.Error())
	}

	if webhookURL != "" && record.Status == domain.JobComplete {
		s.webhooks.dispatch(context.Background(), webhookURL, webhookSecret, webhookPayload{
			Event:     "plan.completed",
			Domain:    record.Domain,
			Language:  record.Language,
			Plan:      record.Plan,
			Timestamp: time.Now().UTC(),
		})
	}
}

func (s *Server) handlePollJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")

	s.mu.Lock()
	run, live := s.runs[jobID]
	s.mu.Unlock()
	if live {
		httputil.OK(w, map[string]any{
			"job_id":          jobID,
			"status":          domain.JobProcessing,
			"progress":        run.Progress(),
			"elapsed_seconds": int(run.Elapsed().Seconds()),
		})
		return
	}

	record, err := s.jobs.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			httputil.NotFound(w, "unknown or expired job id")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "job store unavailable")
		return
	}
	httputil.OK(w, record)
}

func (s *Server) writePlanResult(w http.ResponseWriter, res generation.Result) {
	if res.Plan != nil {
		resp := planResponse{Status: "complete", Source: res.Source, Plan: res.Plan}
		var pe *generation.PersistenceError
		if errors.As(res.Err, &pe) {
			resp.Warning = "your plan was generated but could not be saved; regenerating later may repeat the work"
		}
		httputil.OK(w, resp)
		return
	}

	err := res.Err
	var ve *generation.ValidationError
	var te *generation.TimeoutError
	var ue *generation.UpstreamError
	switch {
	case errors.As(err, &ve):
		httputil.JSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error:   ve.Message,
			Code:    "validation_error",
			Details: ve.Details,
		})
	case errors.Is(err, agentapi.ErrNotConfigured):
		httputil.Error(w, http.StatusServiceUnavailable, "plan generation is not configured on this server")
	case errors.As(err, &te):
		httputil.Error(w, http.StatusGatewayTimeout, "plan generation took longer than expected, try again")
	case errors.As(err, &ue):
		httputil.JSON(w, http.StatusBadGateway, httputil.ErrorResponse{
			Error:   "the analysis service returned an error, try again",
			Code:    "upstream_error",
			Details: ue.Debug,
		})
	default:
		httputil.Error(w, http.StatusInternalServerError, "plan generation failed")
	}
}

func userMessage(err error) string {
	if err == nil {
		return ""
	}
	var te *generation.TimeoutError
	if errors.As(err, &te) {
		return "plan generation took longer than expected, try again"
	}
	var ue *generation.UpstreamError
	if errors.As(err, &ue) {
		return "the analysis service returned an error, try again"
	}
	return err.Error()
}

func errorKind(err error) string {
	var ve *generation.ValidationError
	var te *generation.TimeoutError
	var ue *generation.UpstreamError
	var pe *generation.PersistenceError
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &te):
		return "timeout"
	case errors.As(err, &ue):
		return "upstream"
	case errors.As(err, &pe):
		return "persistence"
	case errors.Is(err, generation.ErrCancelled):
		return "cancelled"
	default:
		return "other"
	}
}
