package domain

import "time"

// Language enumerates the languages a plan can be generated in.
type Language string

const (
	LanguageEN Language = "en"
	LanguageFR Language = "fr"
	LanguageDE Language = "de"
	LanguageES Language = "es"
)

// IsValid reports whether l is one of the supported languages.
func (l Language) IsValid() bool {
	switch l {
	case LanguageEN, LanguageFR, LanguageDE, LanguageES:
		return true
	}
	return false
}

// PlanSource records where a served plan came from.
type PlanSource string

const (
	PlanSourceDB PlanSource = "db"
	PlanSourceAI PlanSource = "ai"
)

// CompanySummary describes the analyzed company. Activities/Industry and
// Target/TargetAudience are synonym pairs: the parser populates both sides
// so downstream consumers can read either.
type CompanySummary struct {
	Name                   string   `json:"name"`
	Website                string   `json:"website"`
	Activities             string   `json:"activities"`
	Industry               string   `json:"industry,omitempty"`
	Target                 string   `json:"target"`
	TargetAudience         string   `json:"target_audience,omitempty"`
	EmployeeCount          string   `json:"employee_count,omitempty"`
	BusinessModel          string   `json:"business_model,omitempty"`
	CustomerLifecycleSteps []string `json:"customer_lifecycle_steps,omitempty"`
}

// ScenarioMessage is one message in an ordered program scenario sequence.
type ScenarioMessage struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
}

// ProgramScenario is a concrete messaging scenario inside a program.
type ProgramScenario struct {
	Target           string            `json:"target"`
	Objective        string            `json:"objective"`
	MainMessageIdeas string            `json:"main_message_ideas"`
	MessageSequence  []ScenarioMessage `json:"message_sequence"`
}

// MarketingProgram is a single relationship program in a plan.
// Scenarios may be empty.
type MarketingProgram struct {
	Name        string            `json:"name"`
	Target      string            `json:"target"`
	Objective   string            `json:"objective"`
	KPI         string            `json:"kpi"`
	Description string            `json:"description"`
	Scenarios   []ProgramScenario `json:"scenarios"`
}

// HelpScenario is a suggestion of how the platform can support a program.
type HelpScenario struct {
	ScenarioName    string   `json:"scenario_name"`
	WhyBetter       string   `json:"why_better"`
	Channels        []string `json:"channels"`
	SetupEfficiency string   `json:"setup_efficiency"`
}

// PlanMetadata carries opportunistic identifiers extracted from the raw
// generation payload. All fields may be empty.
type PlanMetadata struct {
	ConversationID string `json:"conversation_id,omitempty"`
}

// MarketingPlan is the validated output of a generation run.
// Stored at most once per (normalized domain, language) pair.
type MarketingPlan struct {
	CompanySummary CompanySummary     `json:"company_summary"`
	Introduction   string             `json:"introduction,omitempty"`
	ProgramsList   []MarketingProgram `json:"programs_list"`
	Conclusion     string             `json:"conclusion,omitempty"`
	HelpScenarios  []HelpScenario     `json:"brevo_help_scenarios"`
	Metadata       PlanMetadata       `json:"metadata"`
}

// StoredPlan wraps a plan with its persistence key and audit fields.
type StoredPlan struct {
	NormalizedDomain string        `json:"normalized_domain" db:"normalized_domain"`
	Language         Language      `json:"language" db:"language"`
	Email            string        `json:"email" db:"email"`
	Plan             MarketingPlan `json:"plan" db:"plan"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}
