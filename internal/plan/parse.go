// Package plan turns loosely-shaped agent responses into validated
// marketing plans.
//
// The agent service has changed its response envelope several times without
// versioning, so the parser tries an ordered list of extraction paths and
// accepts historical field-name synonyms. Keep the extractor list in one
// place: schema drift should only ever require adding one entry.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/growthbench/planforge/internal/domain"
)

// ErrUnparsable is returned when no extraction path yields a content object.
// Callers must not attempt partial recovery.
var ErrUnparsable = errors.New("agent response is not a recognizable plan payload")

// contentExtractor resolves one historical payload shape to the content
// object, or reports false.
type contentExtractor struct {
	name string
	path []string
}

// Extraction paths in priority order. The first that resolves to a non-null
// object wins. The empty path means "the payload itself is the content".
var contentExtractors = []contentExtractor{
	{"response.data.content", []string{"response", "data", "content"}},
	{"content", []string{"content"}},
	{"response.data.content.json_response", []string{"response", "data", "content", "json_response"}},
	{"content.json_response", []string{"content", "json_response"}},
	{"root", nil},
}

var programDetailsKey = regexp.MustCompile(`^program_(\d+)_details$`)

// Parse normalizes a raw agent payload into a MarketingPlan. rawPayload may
// be a decoded JSON value, a JSON-encoded string, or raw bytes. domainHint,
// when set, backfills the company name and website.
func Parse(rawPayload any, domainHint string) (*domain.MarketingPlan, error) {
	root, ok := decodeValue(rawPayload)
	if !ok {
		return nil, fmt.Errorf("%w: payload is %s", ErrUnparsable, describeValue(rawPayload))
	}

	content, _, ok := extractContent(root)
	if !ok {
		return nil, fmt.Errorf("%w: no content object at any known path (top-level keys: %s)",
			ErrUnparsable, topLevelKeys(root))
	}

	p := &domain.MarketingPlan{
		CompanySummary: parseCompanySummary(asMap(content["company_summary"]), domainHint),
		Introduction:   str(content["introduction"]),
		Conclusion:     str(content["conclusion"]),
	}

	p.ProgramsList = parsePrograms(content["programs_list"])
	if len(p.ProgramsList) == 0 {
		p.ProgramsList = []domain.MarketingProgram{placeholderProgram(p.CompanySummary.Name)}
	}
	mergeProgramDetails(content, p.ProgramsList)

	p.HelpScenarios = parseHelpScenarios(content["brevo_help_scenarios"])
	p.Metadata.ConversationID = extractConversationID(root, content)

	return p, nil
}

// decodeValue accepts decoded JSON, JSON strings, or raw bytes, and returns
// an object. Arrays and scalars are not valid payload roots.
func decodeValue(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case string:
		return decodeJSONObject([]byte(v))
	case []byte:
		return decodeJSONObject(v)
	case json.RawMessage:
		return decodeJSONObject(v)
	}
	return nil, false
}

func decodeJSONObject(data []byte) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

// extractContent tries each extractor in order and returns the first
// resolved object plus the path name that matched.
func extractContent(root map[string]any) (map[string]any, string, bool) {
	for _, ex := range contentExtractors {
		v := any(root)
		resolved := true
		for _, key := range ex.path {
			m := asMap(v)
			if m == nil {
				resolved = false
				break
			}
			next, ok := m[key]
			if !ok || next == nil {
				resolved = false
				break
			}
			v = next
		}
		if !resolved {
			continue
		}
		if m := asMap(v); m != nil && looksLikeContent(m, ex.path == nil) {
			return m, ex.name, true
		}
	}
	return nil, "", false
}

// looksLikeContent rejects objects that are themselves envelopes. A content
// object that merely wraps json_response must lose to the deeper extractor,
// and the raw-root fallback only fires for objects carrying plan keys.
func looksLikeContent(m map[string]any, isRoot bool) bool {
	hasPlanKey := false
	for _, k := range []string{"company_summary", "programs_list", "introduction", "brevo_help_scenarios"} {
		if _, ok := m[k]; ok {
			hasPlanKey = true
			break
		}
	}
	if _, wrapped := m["json_response"]; wrapped && !hasPlanKey {
		return false
	}
	if isRoot {
		return hasPlanKey
	}
	return true
}

func parseCompanySummary(m map[string]any, domainHint string) domain.CompanySummary {
	cs := domain.CompanySummary{
		Name:          str(m["name"]),
		Website:       str(m["website"]),
		EmployeeCount: str(m["employee_count"]),
		BusinessModel: str(m["business_model"]),
	}

	if cs.Name == "" && domainHint != "" {
		cs.Name = CompanyNameFromDomain(domainHint)
	}
	if cs.Website == "" && domainHint != "" {
		cs.Website = NormalizeDomain(domainHint)
	}

	// Synonym pairs: first non-empty wins, both outputs populated so
	// consumers expecting either name keep working.
	activities := firstNonEmpty(str(m["activities"]), str(m["industry"]))
	cs.Activities = activities
	cs.Industry = firstNonEmpty(str(m["industry"]), activities)

	target := firstNonEmpty(str(m["target"]), str(m["target_audience"]))
	cs.Target = target
	cs.TargetAudience = firstNonEmpty(str(m["target_audience"]), target)

	for _, v := range asSlice(m["customer_lifecycle_steps"]) {
		if s := str(v); s != "" {
			cs.CustomerLifecycleSteps = append(cs.CustomerLifecycleSteps, s)
		}
	}
	return cs
}

// parsePrograms accepts programs as an ordered array or a keyed mapping.
// Mapping keys are ordered naturally (program_2 before program_10) since
// JSON objects carry no insertion order once decoded.
func parsePrograms(v any) []domain.MarketingProgram {
	var entries []any
	switch pv := v.(type) {
	case []any:
		entries = pv
	case map[string]any:
		for _, k := range sortedKeysNatural(pv) {
			entries = append(entries, pv[k])
		}
	default:
		return nil
	}

	programs := make([]domain.MarketingProgram, 0, len(entries))
	for i, e := range entries {
		m := asMap(e)
		if m == nil {
			continue
		}
		p := domain.MarketingProgram{
			Name:        str(m["name"]),
			Target:      str(m["target"]),
			Objective:   str(m["objective"]),
			KPI:         str(m["kpi"]),
			Description: str(m["description"]),
			Scenarios:   parseScenarios(m["scenarios"]),
		}
		if p.Name == "" {
			p.Name = fmt.Sprintf("Program %d", i+1)
		}
		programs = append(programs, p)
	}
	return programs
}

func parseScenarios(v any) []domain.ProgramScenario {
	var out []domain.ProgramScenario
	for _, e := range asSlice(v) {
		m := asMap(e)
		if m == nil {
			continue
		}
		out = append(out, domain.ProgramScenario{
			Target:           str(m["target"]),
			Objective:        str(m["objective"]),
			MainMessageIdeas: str(m["main_message_ideas"]),
			MessageSequence:  parseMessageSequence(m["message_sequence"]),
		})
	}
	return out
}

// parseMessageSequence accepts an ordered array or a keyed mapping. Mapping
// keys are ordered naturally; see parsePrograms for why.
func parseMessageSequence(v any) []domain.ScenarioMessage {
	var entries []any
	switch mv := v.(type) {
	case []any:
		entries = mv
	case map[string]any:
		for _, k := range sortedKeysNatural(mv) {
			entries = append(entries, mv[k])
		}
	default:
		return nil
	}

	var out []domain.ScenarioMessage
	for _, e := range entries {
		switch m := e.(type) {
		case map[string]any:
			out = append(out, domain.ScenarioMessage{
				Title:       str(m["title"]),
				Description: str(m["description"]),
				Content:     str(m["content"]),
			})
		case string:
			out = append(out, domain.ScenarioMessage{Title: m})
		}
	}
	return out
}

// placeholderProgram manufactures a single default program when the agent
// returned none. The UI always has something to render; callers that would
// rather fail on an empty list should check for this before display.
func placeholderProgram(companyName string) domain.MarketingProgram {
	who := "your company"
	if companyName != "" {
		who = companyName
	}
	return domain.MarketingProgram{
		Name:        "Program 1",
		Target:      "Your existing customers and warm prospects",
		Objective:   fmt.Sprintf("Build a recurring relationship between %s and its audience", who),
		KPI:         "Engagement rate on the first two campaigns",
		Description: "A starter relationship program: a welcome sequence, a monthly value newsletter, and a reactivation message for dormant contacts.",
	}
}

// mergeProgramDetails folds sibling program_<N>_details keys (1-based) into
// the corresponding program by position. Out-of-range indices are ignored.
func mergeProgramDetails(content map[string]any, programs []domain.MarketingProgram) {
	for key, v := range content {
		m := programDetailsKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(programs) {
			continue
		}
		details := asMap(v)
		if details == nil {
			continue
		}
		p := &programs[n-1]
		if name := str(details["name"]); name != "" {
			p.Name = name
		}
		if desc := str(details["description"]); desc != "" {
			p.Description = desc
		}
		if scenarios := parseScenarios(details["scenarios"]); len(scenarios) > 0 {
			p.Scenarios = scenarios
		}
	}
}

func parseHelpScenarios(v any) []domain.HelpScenario {
	var out []domain.HelpScenario
	for _, e := range asSlice(v) {
		m := asMap(e)
		if m == nil {
			continue
		}
		hs := domain.HelpScenario{
			ScenarioName:    firstNonEmpty(str(m["scenario_name"]), str(m["name"])),
			WhyBetter:       str(m["why_better"]),
			SetupEfficiency: str(m["setup_efficiency"]),
		}
		for _, c := range asSlice(m["channels"]) {
			if s := str(c); s != "" {
				hs.Channels = append(hs.Channels, s)
			}
		}
		out = append(out, hs)
	}
	return out
}

// extractConversationID opportunistically pulls a conversation/job id from
// the metadata locations the agent service has used over time. Absence is
// not an error.
func extractConversationID(root, content map[string]any) string {
	candidates := []any{
		dig(content, "metadata", "conversation_id"),
		content["conversation_id"],
		dig(root, "response", "data", "conversation_id"),
		dig(root, "metadata", "conversation_id"),
		root["conversation_id"],
	}
	for _, c := range candidates {
		if s := str(c); s != "" {
			return s
		}
	}
	return ""
}

// ---- value helpers ----

// asMap returns v as an object, decoding JSON-encoded string values on the
// way (some envelope versions double-encode nested content).
func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case string:
		if decoded, ok := decodeJSONObject([]byte(m)); ok {
			return decoded
		}
	}
	return nil
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func dig(m map[string]any, path ...string) any {
	var v any = m
	for _, key := range path {
		mm := asMap(v)
		if mm == nil {
			return nil
		}
		v = mm[key]
	}
	return v
}

// sortedKeysNatural sorts keys so trailing numbers order numerically:
// program_2 < program_10. Plain lexicographic order is the tiebreak.
func sortedKeysNatural(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, ni := splitTrailingInt(keys[i])
		pj, nj := splitTrailingInt(keys[j])
		if pi == pj && ni >= 0 && nj >= 0 {
			return ni < nj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func splitTrailingInt(s string) (prefix string, n int) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return s, -1
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, -1
	}
	return s[:i], n
}

func topLevelKeys(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 8 {
		keys = keys[:8]
	}
	return strings.Join(keys, ",")
}

func describeValue(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string, []byte, json.RawMessage:
		return "a non-JSON string"
	case []any:
		return "an array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
