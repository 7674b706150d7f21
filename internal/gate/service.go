package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/pkg/logger"
)

// ErrPromptBlocked is returned when a blocking-mode prompt is cancelled.
var ErrPromptBlocked = errors.New("prompt cannot be dismissed without submitting")

const unlockedValue = "unlocked"

// LeadSink optionally persists captured leads server-side (in addition to
// the external collector). May be nil.
type LeadSink interface {
	SaveLead(ctx context.Context, lead domain.LeadRecord) error
}

// Config controls one gate instance.
type Config struct {
	// StorageKey prefixes unlock keys so multiple gates can share a store.
	StorageKey string
	// Mode is passive (prompt cancellable) or blocking.
	Mode domain.GateMode
	// BlockFreeProviders enables the free/disposable-domain check.
	BlockFreeProviders bool
}

// Service drives the gate state machine:
//
//	Locked -> PromptOpen on a trigger when not unlocked
//	PromptOpen -> Unlocked on valid submission
//	PromptOpen -> Locked on cancel (passive mode only)
//
// Unlocked is terminal for the storage lifetime.
type Service struct {
	cfg       Config
	store     UnlockStore
	collector *Collector
	leads     LeadSink

	mu      sync.Mutex
	prompts map[string]bool
}

// NewService creates a gate service. leads may be nil.
func NewService(cfg Config, store UnlockStore, collector *Collector, leads LeadSink) *Service {
	if cfg.StorageKey == "" {
		cfg.StorageKey = "gate:unlock"
	}
	if cfg.Mode == "" {
		cfg.Mode = domain.GatePassive
	}
	return &Service{
		cfg:       cfg,
		store:     store,
		collector: collector,
		leads:     leads,
		prompts:   make(map[string]bool),
	}
}

func (s *Service) storageKey(sessionKey string) string {
	return s.cfg.StorageKey + ":" + sessionKey
}

// State reports the current gate state for a session. Store read failures
// degrade to Locked rather than erroring: the user just sees the prompt.
func (s *Service) State(ctx context.Context, sessionKey string) domain.GateState {
	if s.isUnlocked(ctx, sessionKey) {
		return domain.GateUnlocked
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prompts[sessionKey] {
		return domain.GatePromptOpen
	}
	return domain.GateLocked
}

// RequireUnlock gates an action: if the session is already unlocked,
// onSuccess runs synchronously and the state stays Unlocked. Otherwise the
// capture prompt opens.
func (s *Service) RequireUnlock(ctx context.Context, sessionKey string, onSuccess func()) domain.GateState {
	if s.isUnlocked(ctx, sessionKey) {
		if onSuccess != nil {
			onSuccess()
		}
		return domain.GateUnlocked
	}
	s.mu.Lock()
	s.prompts[sessionKey] = true
	s.mu.Unlock()
	return domain.GatePromptOpen
}

// Cancel dismisses an open prompt. Only permitted in passive mode.
func (s *Service) Cancel(ctx context.Context, sessionKey string) error {
	if s.isUnlocked(ctx, sessionKey) {
		return nil
	}
	if s.cfg.Mode == domain.GateBlocking {
		return ErrPromptBlocked
	}
	s.mu.Lock()
	delete(s.prompts, sessionKey)
	s.mu.Unlock()
	return nil
}

// LeadMeta carries the page context attached to a captured lead.
type LeadMeta struct {
	Language      domain.Language
	SourcePage    string
	TriggerReason string
	ContextTags   []string
	UserAgent     string
	Referrer      string
}

// SubmitEmail validates the address and, on success, marks the session
// unlocked and fires the lead submission. Collector delivery is fail-open
// except for 4xx rejections, which propagate.
func (s *Service) SubmitEmail(ctx context.Context, sessionKey, email string, meta LeadMeta) (domain.LeadRecord, error) {
	if err := CheckEmail(email, s.cfg.BlockFreeProviders); err != nil {
		return domain.LeadRecord{}, err
	}

	lead := domain.LeadRecord{
		ID:            uuid.NewString(),
		Email:         email,
		CapturedAt:    time.Now().UTC(),
		Language:      meta.Language,
		SourcePage:    meta.SourcePage,
		TriggerReason: meta.TriggerReason,
		ContextTags:   meta.ContextTags,
		UserAgent:     meta.UserAgent,
		Referrer:      meta.Referrer,
	}

	if err := s.store.Set(ctx, s.storageKey(sessionKey), unlockedValue); err != nil {
		return domain.LeadRecord{}, fmt.Errorf("persist unlock state: %w", err)
	}
	s.mu.Lock()
	delete(s.prompts, sessionKey)
	s.mu.Unlock()

	if s.leads != nil {
		if err := s.leads.SaveLead(ctx, lead); err != nil {
			logger.Warn("lead persistence failed", "error", err.Error())
		}
	}

	if s.collector != nil {
		if err := s.collector.Submit(ctx, lead); err != nil {
			return domain.LeadRecord{}, err
		}
	}
	return lead, nil
}

// RetryQueuedLeads replays queued collector submissions.
func (s *Service) RetryQueuedLeads(ctx context.Context) int {
	if s.collector == nil {
		return 0
	}
	return s.collector.RetryAll(ctx)
}

// QueuedLeads reports how many leads still await collector delivery.
func (s *Service) QueuedLeads() int {
	if s.collector == nil {
		return 0
	}
	return s.collector.QueueLen()
}

func (s *Service) isUnlocked(ctx context.Context, sessionKey string) bool {
	v, ok, err := s.store.Get(ctx, s.storageKey(sessionKey))
	if err != nil {
		logger.Warn("unlock store read failed", "error", err.Error())
		return false
	}
	return ok && v == unlockedValue
}
