package plan

import (
	"strings"

	"github.com/growthbench/planforge/internal/domain"
)

// notSpecified is the placeholder the agent emits when it has nothing to say
// about a field. It does not count as meaningful content.
const notSpecified = "not specified"

// FieldError is one validation failure with the field it applies to.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult reports whether a raw payload parses and validates into a
// usable plan. Errors accumulate: callers get the complete remediation list,
// not just the first failure.
type ValidationResult struct {
	Data    *domain.MarketingPlan `json:"data"`
	IsValid bool                  `json:"is_valid"`
	Errors  []FieldError          `json:"errors"`
}

// Validate parses rawPayload and checks the minimum-content rules. On any
// failure Data is nil.
func Validate(rawPayload any, domainHint string) ValidationResult {
	parsed, err := Parse(rawPayload, domainHint)
	if err != nil {
		return ValidationResult{
			Errors: []FieldError{{Field: "parsing", Message: err.Error()}},
		}
	}

	var errs []FieldError
	cs := parsed.CompanySummary

	if !meaningful(cs.Activities) && !meaningful(cs.Industry) {
		errs = append(errs, FieldError{
			Field:   "activities",
			Message: "company summary needs activities or an industry",
		})
	}
	if !meaningful(cs.Target) && !meaningful(cs.TargetAudience) {
		errs = append(errs, FieldError{
			Field:   "target",
			Message: "company summary needs a target or target audience",
		})
	}

	if len(errs) > 0 {
		return ValidationResult{Errors: errs}
	}
	return ValidationResult{Data: parsed, IsValid: true}
}

// meaningful rejects empty strings and the agent's "Not specified" sentinel.
func meaningful(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && strings.ToLower(s) != notSpecified
}
