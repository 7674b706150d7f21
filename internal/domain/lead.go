package domain

import "time"

// LeadRecord captures a professional email at the moment a gate unlocks.
// Immutable once created.
type LeadRecord struct {
	ID            string    `json:"id" db:"id"`
	Email         string    `json:"email" db:"email"`
	CapturedAt    time.Time `json:"captured_at" db:"captured_at"`
	Language      Language  `json:"language" db:"language"`
	SourcePage    string    `json:"source_page" db:"source_page"`
	TriggerReason string    `json:"trigger_reason" db:"trigger_reason"`
	ContextTags   []string  `json:"context_tags" db:"context_tags"`
	UserAgent     string    `json:"user_agent,omitempty" db:"user_agent"`
	Referrer      string    `json:"referrer,omitempty" db:"referrer"`
}

// GateState enumerates the email gate state machine.
// Unlocked is terminal for the storage lifetime.
type GateState string

const (
	GateLocked     GateState = "locked"
	GatePromptOpen GateState = "prompt_open"
	GateUnlocked   GateState = "unlocked"
)

// GateMode controls whether the capture prompt can be dismissed.
type GateMode string

const (
	// GatePassive allows cancelling the prompt (PromptOpen -> Locked).
	GatePassive GateMode = "passive"
	// GateBlocking requires a submission before the prompt closes.
	GateBlocking GateMode = "blocking"
)
