package vendors

import (
	"fmt"
	"strings"

	"github.com/growthbench/planforge/internal/domain"
)

// Criterion weights. They sum to 100 so a vendor matching everything scores
// a full 100.
const (
	weightSegment      = 25
	weightGoal         = 25
	weightChannels     = 20
	weightIntegrations = 15
	weightComplexity   = 10
	weightGovernance   = 5
)

// ScoredVendor is a catalog entry with its fit score and the ordered list
// of reasons that earned it.
type ScoredVendor struct {
	domain.VendorRecord
	Score int `json:"score"`
	// Reasons follow criterion evaluation order: segment, goal, channels,
	// integrations, complexity, governance.
	Reasons []string `json:"reasons"`
}

// Score computes a 0-100 fit score for one vendor against a profile.
// Criteria are evaluated in a fixed order and each satisfied criterion
// appends one reason string.
func Score(v domain.VendorRecord, p domain.UserProfile) (int, []string) {
	score := 0
	var reasons []string

	if p.CompanySize != "" && containsSegment(v.TargetSegments, p.CompanySize) {
		score += weightSegment
		reasons = append(reasons, fmt.Sprintf("Targets %s companies like yours", p.CompanySize))
	}

	if p.PrimaryGoal != "" && containsFold(v.SupportedGoals, p.PrimaryGoal) {
		score += weightGoal
		reasons = append(reasons, fmt.Sprintf("Supports your primary goal (%s)", humanize(p.PrimaryGoal)))
	}

	if len(p.RequiredChannels) > 0 {
		covered := coverage(v.Channels, p.RequiredChannels)
		score += int(float64(weightChannels) * covered)
		if covered == 1 {
			reasons = append(reasons, "Covers all your required channels")
		} else if covered > 0 {
			reasons = append(reasons, "Covers some of your required channels")
		}
	}

	if len(p.RequiredIntegrations) > 0 {
		covered := coverage(v.Integrations, p.RequiredIntegrations)
		score += int(float64(weightIntegrations) * covered)
		if covered == 1 {
			reasons = append(reasons, "Integrates with all your tools")
		} else if covered > 0 {
			reasons = append(reasons, "Integrates with some of your tools")
		}
	}

	if p.ImplementationTolerance != "" &&
		domain.ComplexityRank(v.Complexity) <= domain.ComplexityRank(p.ImplementationTolerance) {
		score += weightComplexity
		reasons = append(reasons, fmt.Sprintf("Fits your implementation tolerance (%s setup)", v.Complexity))
	}

	if p.NeedsGovernance && len(v.GovernanceFeatures) > 0 {
		score += weightGovernance
		reasons = append(reasons, "Offers governance and compliance features")
	}

	return score, reasons
}

// MeanRating averages the vendor's available rating sources. Vendors with
// no ratings yield 0.
func MeanRating(v domain.VendorRecord) float64 {
	if len(v.Ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range v.Ratings {
		sum += r.Rating
	}
	return sum / float64(len(v.Ratings))
}

func containsSegment(segments []domain.CompanySize, want domain.CompanySize) bool {
	for _, s := range segments {
		if s == want {
			return true
		}
	}
	return false
}

func containsFold(haystack []string, want string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}

// coverage returns the fraction of wanted entries present in available.
func coverage(available, wanted []string) float64 {
	if len(wanted) == 0 {
		return 0
	}
	hits := 0
	for _, w := range wanted {
		if containsFold(available, w) {
			hits++
		}
	}
	return float64(hits) / float64(len(wanted))
}

func humanize(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}
