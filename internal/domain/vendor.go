package domain

// CompanySize segments used for vendor targeting.
type CompanySize string

const (
	SizeSMB CompanySize = "SMB"
	SizeMM  CompanySize = "MM"
	SizeENT CompanySize = "ENT"
)

// Complexity is the implementation weight of a vendor platform.
type Complexity string

const (
	ComplexityLight  Complexity = "light"
	ComplexityMedium Complexity = "medium"
	ComplexityHeavy  Complexity = "heavy"
)

// ComplexityRank orders complexities for sorting (light < medium < heavy).
func ComplexityRank(c Complexity) int {
	switch c {
	case ComplexityLight:
		return 0
	case ComplexityMedium:
		return 1
	case ComplexityHeavy:
		return 2
	}
	return 3
}

// VendorRating is one review source's aggregate rating.
type VendorRating struct {
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// VendorRecord is a static catalog entry for the comparison tool.
// Loaded once at startup, never mutated at runtime.
type VendorRecord struct {
	VendorID           string                  `json:"vendor_id"`
	Name               string                  `json:"name"`
	TargetSegments     []CompanySize           `json:"target_segments"`
	SupportedGoals     []string                `json:"supported_goals"`
	Complexity         Complexity              `json:"complexity"`
	Ratings            map[string]VendorRating `json:"ratings"`
	Channels           []string                `json:"channels"`
	Integrations       []string                `json:"integrations"`
	GovernanceFeatures []string                `json:"governance_features"`
	IsSponsor          bool                    `json:"is_sponsor"`
}

// UserProfile is the ephemeral, user-editable profile driving vendor scoring.
type UserProfile struct {
	CompanySize             CompanySize `json:"company_size"`
	PrimaryGoal             string      `json:"primary_goal"`
	RequiredChannels        []string    `json:"required_channels"`
	RequiredIntegrations    []string    `json:"required_integrations"`
	ImplementationTolerance Complexity  `json:"implementation_tolerance"`
	NeedsGovernance         bool        `json:"needs_governance"`
}

// AdvancedFilters narrows the vendor list beyond the profile. Zero values
// mean "no constraint".
type AdvancedFilters struct {
	MinRating    float64      `json:"min_rating,omitempty"`
	Channels     []string     `json:"channels,omitempty"`
	Integrations []string     `json:"integrations,omitempty"`
	Complexities []Complexity `json:"complexities,omitempty"`
	SponsorsOnly bool         `json:"sponsors_only,omitempty"`
}
