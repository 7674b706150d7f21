package agentapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growthbench/planforge/internal/domain"
)

func TestBuildPromptPerLanguage(t *testing.T) {
	req := domain.GenerationRequest{NormalizedDomain: "acme.io"}

	for lang, marker := range map[domain.Language]string{
		domain.LanguageEN: "in English",
		domain.LanguageFR: "en français",
		domain.LanguageDE: "auf Deutsch",
		domain.LanguageES: "en español",
	} {
		req.Language = lang
		out, err := BuildPrompt(req)
		require.NoError(t, err, "language %s", lang)
		assert.Contains(t, out, "acme.io")
		assert.Contains(t, out, marker)
	}
}

func TestBuildPromptIncludesIndustryWhenSet(t *testing.T) {
	req := domain.GenerationRequest{
		NormalizedDomain: "acme.io",
		Language:         domain.LanguageEN,
		Industry:         "logistics",
	}
	out, err := BuildPrompt(req)
	require.NoError(t, err)
	assert.Contains(t, out, "logistics")

	req.Industry = ""
	out, err = BuildPrompt(req)
	require.NoError(t, err)
	assert.NotContains(t, out, "industry:")
}

func TestBuildPromptUnknownLanguageFallsBackToEnglish(t *testing.T) {
	req := domain.GenerationRequest{
		NormalizedDomain: "acme.io",
		Language:         domain.Language("pt"),
	}
	out, err := BuildPrompt(req)
	require.NoError(t, err)
	assert.Contains(t, out, "in English")
}
