// Package generation drives the plan generation workflow: check the store,
// submit a job to the agent backend, poll until terminal, parse and persist
// the result. Each request runs as a Run that callers observe for state,
// progress and the final outcome.
package generation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/growthbench/planforge/internal/agentapi"
	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/pkg/distlock"
	"github.com/growthbench/planforge/internal/pkg/logger"
	"github.com/growthbench/planforge/internal/plan"
)

// State is the lifecycle position of one generation run.
type State string

const (
	StateIdle       State = "idle"
	StateChecking   State = "checking"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateResolving  State = "resolving"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

// PlanStore is the persisted-plan collaborator. Lookup returns ErrNotFound
// on a miss; at most one record exists per (normalizedDomain, language) key.
type PlanStore interface {
	Lookup(ctx context.Context, normalizedDomain string, language domain.Language) (*domain.MarketingPlan, error)
	Upsert(ctx context.Context, rec domain.StoredPlan) error
}

// Config tunes the polling loop. Zero values take the production defaults.
type Config struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	// MaxAttempts bounds the primary flow (default 120, ~10 minutes).
	MaxAttempts int `yaml:"max_attempts"`
	// QuickMaxAttempts bounds the simplified flow (default 60, ~5 minutes).
	QuickMaxAttempts int `yaml:"quick_max_attempts"`
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 120
	}
	if c.QuickMaxAttempts <= 0 {
		c.QuickMaxAttempts = 60
	}
}

// Orchestrator starts and tracks generation runs. Concurrent requests for
// the same (domain, language) share a single in-flight run.
type Orchestrator struct {
	cfg     Config
	store   PlanStore
	backend agentapi.Backend

	// lockFor, when set, provides a cross-instance lock per generation key
	// so multiple server replicas avoid submitting duplicate agent jobs.
	lockFor func(key string) distlock.DistLock

	mu       sync.Mutex
	inflight map[string]*Run
}

// New creates an orchestrator.
func New(cfg Config, store PlanStore, backend agentapi.Backend) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		backend:  backend,
		inflight: make(map[string]*Run),
	}
}

// SetLockFactory enables best-effort distributed locking around job
// submission for multi-instance deployments.
func (o *Orchestrator) SetLockFactory(f func(key string) distlock.DistLock) {
	o.lockFor = f
}

// Result is the terminal outcome of a run. Plan and Err can both be set:
// an upsert failure after successful generation still returns the plan.
type Result struct {
	Plan   *domain.MarketingPlan
	Source domain.PlanSource
	Err    error
}

// Run is one observable generation run.
type Run struct {
	key string

	mu          sync.Mutex
	state       State
	attempt     int
	maxAttempts int
	progress    float64
	started     time.Time
	result      Result

	done     chan struct{}
	doneOnce sync.Once
	cancelCh chan struct{}
	cancOnce sync.Once
}

func newRun(key string, maxAttempts int) *Run {
	return &Run{
		key:         key,
		state:       StateIdle,
		maxAttempts: maxAttempts,
		started:     time.Now(),
		done:        make(chan struct{}),
		cancelCh:    make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Progress returns a monotone estimate in [0,100). It reaches 100 only on
// actual completion.
func (r *Run) Progress() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// Elapsed is the wall-clock time since the run started.
func (r *Run) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Since(r.started)
}

// Done closes when the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} { return r.done }

// Result returns the terminal outcome. ok is false while the run is still
// in flight.
func (r *Run) Result() (Result, bool) {
	select {
	case <-r.done:
	default:
		return Result{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result, true
}

// Cancel stops the run if it is submitting or polling. It never errors, is
// safe to call repeatedly, issues no server-side cancellation, and leaves
// no partial plan persisted. In any other state it is a no-op.
func (r *Run) Cancel() {
	r.mu.Lock()
	if r.state != StateSubmitting && r.state != StatePolling {
		r.mu.Unlock()
		return
	}
	r.state = StateCancelled
	r.mu.Unlock()
	r.cancOnce.Do(func() { close(r.cancelCh) })
}

func (r *Run) cancelled() bool {
	select {
	case <-r.cancelCh:
		return true
	default:
		return false
	}
}

func (r *Run) setState(s State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateCancelled {
		return false
	}
	r.state = s
	return true
}

func (r *Run) setProgress(attempt int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempt = attempt
	p := 5 + (float64(attempt)/float64(r.maxAttempts))*85
	if p > 90 {
		p = 90
	}
	if p > r.progress {
		r.progress = p
	}
}

// Start begins a generation run with the primary attempt budget. The
// returned Run is shared with any concurrent request for the same
// (domain, language) key unless force-regenerate is set.
func (o *Orchestrator) Start(ctx context.Context, req domain.GenerationRequest) *Run {
	return o.start(ctx, req, o.cfg.MaxAttempts)
}

// StartQuick begins a run with the shorter simplified-flow budget.
func (o *Orchestrator) StartQuick(ctx context.Context, req domain.GenerationRequest) *Run {
	return o.start(ctx, req, o.cfg.QuickMaxAttempts)
}

func (o *Orchestrator) start(ctx context.Context, req domain.GenerationRequest, maxAttempts int) *Run {
	normalized, err := plan.ValidateDomain(req.Domain)
	if err != nil {
		run := newRun("", maxAttempts)
		run.mu.Lock()
		run.state = StateFailed
		run.result = Result{Err: &ValidationError{Field: "domain", Message: err.Error()}}
		run.mu.Unlock()
		run.doneOnce.Do(func() { close(run.done) })
		return run
	}
	req.NormalizedDomain = normalized
	if !req.Language.IsValid() {
		req.Language = domain.LanguageEN
	}
	key := normalized + "|" + string(req.Language)

	o.mu.Lock()
	if existing, ok := o.inflight[key]; ok && !req.ForceRegenerate {
		o.mu.Unlock()
		return existing
	}
	run := newRun(key, maxAttempts)
	o.inflight[key] = run
	o.mu.Unlock()

	// The run outlives the HTTP request that started it: callers come back
	// through the poll endpoint.
	go o.execute(context.WithoutCancel(ctx), run, req)
	return run
}

func (o *Orchestrator) execute(ctx context.Context, run *Run, req domain.GenerationRequest) {
	if !req.ForceRegenerate {
		run.setState(StateChecking)
		stored, err := o.store.Lookup(ctx, req.NormalizedDomain, req.Language)
		switch {
		case err == nil:
			o.finish(run, Result{Plan: stored, Source: domain.PlanSourceDB}, StateComplete)
			return
		case errors.Is(err, ErrNotFound):
			// miss, generate
		default:
			// Lookup failures degrade to a miss rather than blocking the
			// user behind a broken store.
			logger.Warn("plan lookup failed, regenerating",
				"domain", req.NormalizedDomain, "language", string(req.Language), "error", err.Error())
		}
	}

	if !run.setState(StateSubmitting) {
		o.finish(run, Result{Err: ErrCancelled}, StateCancelled)
		return
	}

	if o.lockFor != nil {
		lock := o.lockFor("genlock:" + run.key)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			logger.Warn("generation lock unavailable", "key", run.key, "error", err.Error())
		} else if acquired {
			defer lock.Release(ctx)
		} else {
			logger.Warn("generation already running elsewhere, proceeding anyway", "key", run.key)
		}
	}

	prompt, err := agentapi.BuildPrompt(req)
	if err != nil {
		o.finish(run, Result{Err: &UpstreamError{Message: err.Error()}}, StateFailed)
		return
	}

	handle, err := o.backend.CreateJob(ctx, agentapi.CreateJobInput{
		Domain:   req.NormalizedDomain,
		Language: req.Language,
		Industry: req.Industry,
		Prompt:   prompt,
	})
	if err != nil {
		o.finish(run, Result{Err: &UpstreamError{Message: err.Error(), Cause: err}}, StateFailed)
		return
	}
	if run.cancelled() {
		o.finish(run, Result{Err: ErrCancelled}, StateCancelled)
		return
	}

	run.setState(StatePolling)
	o.poll(ctx, run, req, handle)
}

func (o *Orchestrator) poll(ctx context.Context, run *Run, req domain.GenerationRequest, handle domain.JobHandle) {
	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= run.maxAttempts; attempt++ {
		select {
		case <-ticker.C:
		case <-run.cancelCh:
			o.finish(run, Result{Err: ErrCancelled}, StateCancelled)
			return
		case <-ctx.Done():
			o.finish(run, Result{Err: ctx.Err()}, StateFailed)
			return
		}

		status, err := o.backend.JobStatus(ctx, handle.JobID)
		if err != nil {
			o.finish(run, Result{Err: &UpstreamError{Message: err.Error()}}, StateFailed)
			return
		}
		run.setProgress(attempt)

		switch status.Status {
		case agentapi.StatusComplete:
			o.resolve(ctx, run, req, status)
			return
		case agentapi.StatusError:
			o.finish(run, Result{Err: &UpstreamError{
				Message: status.ErrorMessage,
				Debug:   status.Debug,
			}}, StateFailed)
			return
		default:
			// keep polling
		}
	}

	o.finish(run, Result{Err: &TimeoutError{
		Attempts: run.maxAttempts,
		Elapsed:  run.Elapsed(),
	}}, StateFailed)
}

func (o *Orchestrator) resolve(ctx context.Context, run *Run, req domain.GenerationRequest, status agentapi.StatusResult) {
	if !run.setState(StateResolving) {
		o.finish(run, Result{Err: ErrCancelled}, StateCancelled)
		return
	}

	vr := plan.Validate(status.Content, req.NormalizedDomain)
	if !vr.IsValid {
		o.finish(run, Result{Err: &ValidationError{
			Field:   "plan",
			Message: "generated plan is missing required content",
			Details: vr.Errors,
		}}, StateFailed)
		return
	}
	if run.cancelled() {
		o.finish(run, Result{Err: ErrCancelled}, StateCancelled)
		return
	}

	result := Result{Plan: vr.Data, Source: domain.PlanSourceAI}
	err := o.store.Upsert(ctx, domain.StoredPlan{
		NormalizedDomain: req.NormalizedDomain,
		Language:         req.Language,
		Email:            req.Email,
		Plan:             *vr.Data,
	})
	if err != nil {
		// The plan was computed; report the storage failure without
		// withholding the plan.
		logger.Error("plan upsert failed", "domain", req.NormalizedDomain, "error", err.Error())
		result.Err = &PersistenceError{Op: "upsert", Err: err}
	}
	o.finish(run, result, StateComplete)
}

func (o *Orchestrator) finish(run *Run, res Result, state State) {
	if run.key != "" {
		o.mu.Lock()
		if o.inflight[run.key] == run {
			delete(o.inflight, run.key)
		}
		o.mu.Unlock()
	}

	run.mu.Lock()
	if run.state == StateCancelled {
		run.result = Result{Err: ErrCancelled}
	} else {
		run.state = state
		run.result = res
		if state == StateComplete {
			run.progress = 100
		}
	}
	run.mu.Unlock()
	run.doneOnce.Do(func() { close(run.done) })
}
