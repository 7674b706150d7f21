package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/generation"
)

func TestPlanStoreRoundTrip(t *testing.T) {
	s := NewPlanStore()
	ctx := context.Background()

	_, err := s.Lookup(ctx, "acme.io", domain.LanguageEN)
	assert.ErrorIs(t, err, generation.ErrNotFound)

	require.NoError(t, s.Upsert(ctx, domain.StoredPlan{
		NormalizedDomain: "acme.io",
		Language:         domain.LanguageEN,
		Plan:             domain.MarketingPlan{Introduction: "v1"},
	}))

	plan, err := s.Lookup(ctx, "acme.io", domain.LanguageEN)
	require.NoError(t, err)
	assert.Equal(t, "v1", plan.Introduction)

	// Same key is replaced, not duplicated.
	require.NoError(t, s.Upsert(ctx, domain.StoredPlan{
		NormalizedDomain: "acme.io",
		Language:         domain.LanguageEN,
		Plan:             domain.MarketingPlan{Introduction: "v2"},
	}))
	plan, err = s.Lookup(ctx, "acme.io", domain.LanguageEN)
	require.NoError(t, err)
	assert.Equal(t, "v2", plan.Introduction)

	// Language is part of the key.
	_, err = s.Lookup(ctx, "acme.io", domain.LanguageFR)
	assert.ErrorIs(t, err, generation.ErrNotFound)
}
