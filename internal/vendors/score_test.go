package vendors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/growthbench/planforge/internal/domain"
)

func fullMatchVendor() domain.VendorRecord {
	return domain.VendorRecord{
		VendorID:           "v",
		Name:               "Vendor",
		TargetSegments:     []domain.CompanySize{domain.SizeSMB},
		SupportedGoals:     []string{"email_marketing"},
		Complexity:         domain.ComplexityLight,
		Channels:           []string{"email", "sms"},
		Integrations:       []string{"shopify"},
		GovernanceFeatures: []string{"gdpr_tools"},
	}
}

func TestScoreFullMatchIsHundred(t *testing.T) {
	profile := domain.UserProfile{
		CompanySize:             domain.SizeSMB,
		PrimaryGoal:             "email_marketing",
		RequiredChannels:        []string{"email", "sms"},
		RequiredIntegrations:    []string{"shopify"},
		ImplementationTolerance: domain.ComplexityMedium,
		NeedsGovernance:         true,
	}

	score, reasons := Score(fullMatchVendor(), profile)
	assert.Equal(t, 100, score)
	assert.Len(t, reasons, 6)
}

func TestScoreEmptyProfileIsZero(t *testing.T) {
	score, reasons := Score(fullMatchVendor(), domain.UserProfile{})
	assert.Zero(t, score)
	assert.Empty(t, reasons)
}

func TestScoreReasonsFollowEvaluationOrder(t *testing.T) {
	profile := domain.UserProfile{
		CompanySize:      domain.SizeSMB,
		PrimaryGoal:      "email_marketing",
		RequiredChannels: []string{"email"},
	}

	_, reasons := Score(fullMatchVendor(), profile)
	assert.Len(t, reasons, 3)
	assert.Contains(t, reasons[0], "SMB")
	assert.Contains(t, reasons[1], "primary goal")
	assert.Contains(t, reasons[2], "channels")
}

func TestScorePartialChannelCoverage(t *testing.T) {
	v := fullMatchVendor()
	profile := domain.UserProfile{
		RequiredChannels: []string{"email", "whatsapp"},
	}

	score, reasons := Score(v, profile)
	assert.Equal(t, weightChannels/2, score)
	assert.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "some")
}

func TestScoreComplexityAboveTolerance(t *testing.T) {
	v := fullMatchVendor()
	v.Complexity = domain.ComplexityHeavy
	profile := domain.UserProfile{ImplementationTolerance: domain.ComplexityLight}

	score, _ := Score(v, profile)
	assert.Zero(t, score)
}

func TestMeanRating(t *testing.T) {
	v := domain.VendorRecord{Ratings: map[string]domain.VendorRating{
		"g2":       {Rating: 4.0},
		"capterra": {Rating: 5.0},
	}}
	assert.InDelta(t, 4.5, MeanRating(v), 0.001)

	assert.Zero(t, MeanRating(domain.VendorRecord{}))
}
