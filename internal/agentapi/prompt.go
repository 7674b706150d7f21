package agentapi

import (
	"fmt"

	"github.com/osteele/liquid"

	"github.com/growthbench/planforge/internal/domain"
)

// Per-language prompt templates, rendered with Liquid. The agent answers in
// the language the prompt is written in, so each language carries its own
// full template rather than a translated preamble.
var promptTemplates = map[domain.Language]string{
	domain.LanguageEN: `You are a senior relationship-marketing strategist.
Analyze the company behind the domain {{ domain }}{% if industry != "" %} (industry: {{ industry }}){% endif %}.
Produce a JSON object with keys company_summary, programs_list, introduction, conclusion and brevo_help_scenarios.
company_summary must include name, website, activities, target.
Each program in programs_list needs name, target, objective, kpi, description and scenarios.
Answer with JSON only, in English.`,

	domain.LanguageFR: `Tu es un stratège senior en marketing relationnel.
Analyse l'entreprise derrière le domaine {{ domain }}{% if industry != "" %} (secteur : {{ industry }}){% endif %}.
Produis un objet JSON avec les clés company_summary, programs_list, introduction, conclusion et brevo_help_scenarios.
company_summary doit contenir name, website, activities, target.
Chaque programme de programs_list doit contenir name, target, objective, kpi, description et scenarios.
Réponds uniquement en JSON, en français.`,

	domain.LanguageDE: `Du bist ein erfahrener Stratege für Beziehungsmarketing.
Analysiere das Unternehmen hinter der Domain {{ domain }}{% if industry != "" %} (Branche: {{ industry }}){% endif %}.
Erzeuge ein JSON-Objekt mit den Schlüsseln company_summary, programs_list, introduction, conclusion und brevo_help_scenarios.
company_summary muss name, website, activities und target enthalten.
Jedes Programm in programs_list braucht name, target, objective, kpi, description und scenarios.
Antworte ausschließlich mit JSON, auf Deutsch.`,

	domain.LanguageES: `Eres un estratega senior de marketing relacional.
Analiza la empresa detrás del dominio {{ domain }}{% if industry != "" %} (sector: {{ industry }}){% endif %}.
Genera un objeto JSON con las claves company_summary, programs_list, introduction, conclusion y brevo_help_scenarios.
company_summary debe incluir name, website, activities y target.
Cada programa de programs_list necesita name, target, objective, kpi, description y scenarios.
Responde solo con JSON, en español.`,
}

var liquidEngine = liquid.NewEngine()

// BuildPrompt renders the language-specific prompt template for a request.
// Unknown languages fall back to English.
func BuildPrompt(req domain.GenerationRequest) (string, error) {
	tpl, ok := promptTemplates[req.Language]
	if !ok {
		tpl = promptTemplates[domain.LanguageEN]
	}
	out, err := liquidEngine.ParseAndRenderString(tpl, liquid.Bindings{
		"domain":   req.NormalizedDomain,
		"industry": req.Industry,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return out, nil
}
