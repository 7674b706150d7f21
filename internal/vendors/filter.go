package vendors

import (
	"sort"
	"strings"

	"github.com/growthbench/planforge/internal/domain"
)

// SortOption selects the result ordering.
type SortOption string

const (
	SortRecommended SortOption = "recommended"
	SortRating      SortOption = "rating"
	SortName        SortOption = "name"
	SortComplexity  SortOption = "complexity"
)

// FilterResult is the outcome of a filter run. Relaxed is true when the
// strict filter set matched nothing and constraints were dropped to keep
// the list non-empty; DroppedStages names what was dropped, in order.
type FilterResult struct {
	Vendors       []ScoredVendor `json:"vendors"`
	Relaxed       bool           `json:"relaxed"`
	DroppedStages []string       `json:"dropped_stages,omitempty"`
}

// Relaxation stages, least important constraint first.
const (
	stageSearch   = "search"
	stageAdvanced = "advanced_filters"
	stageProfile  = "profile"
)

// FilterAndSort scores every vendor against the profile, applies the search
// term, advanced filters and profile constraints, and sorts the survivors.
// It never returns an empty list: when the strict set matches nothing,
// constraints are dropped stage by stage (search, then advanced filters,
// then profile requirements) until at least one vendor remains. The input
// slice is never mutated.
func FilterAndSort(catalog []domain.VendorRecord, profile domain.UserProfile,
	adv *domain.AdvancedFilters, searchTerm string, sortBy SortOption) FilterResult {

	scored := make([]ScoredVendor, 0, len(catalog))
	for _, v := range catalog {
		s, reasons := Score(v, profile)
		scored = append(scored, ScoredVendor{VendorRecord: v, Score: s, Reasons: reasons})
	}

	type stage struct {
		name    string
		search  string
		adv     *domain.AdvancedFilters
		profile bool
	}
	stages := []stage{
		{name: "", search: searchTerm, adv: adv, profile: true},
		{name: stageSearch, adv: adv, profile: true},
		{name: stageAdvanced, profile: true},
		{name: stageProfile},
	}

	var dropped []string
	for i, st := range stages {
		matched := applyFilters(scored, profile, st.adv, st.search, st.profile)
		if len(matched) > 0 {
			sortVendors(matched, sortBy)
			return FilterResult{
				Vendors:       matched,
				Relaxed:       i > 0,
				DroppedStages: dropped,
			}
		}
		if i+1 < len(stages) {
			dropped = append(dropped, stages[i+1].name)
		}
	}

	// The last stage has no constraints at all, so with a non-empty catalog
	// this point is unreachable. Guard for an empty catalog anyway.
	return FilterResult{Vendors: []ScoredVendor{}, Relaxed: true, DroppedStages: dropped}
}

func applyFilters(scored []ScoredVendor, profile domain.UserProfile,
	adv *domain.AdvancedFilters, searchTerm string, useProfile bool) []ScoredVendor {

	var out []ScoredVendor
	for _, sv := range scored {
		if searchTerm != "" && !matchesSearch(sv.VendorRecord, searchTerm) {
			continue
		}
		if adv != nil && !matchesAdvanced(sv.VendorRecord, adv) {
			continue
		}
		if useProfile && !matchesProfile(sv.VendorRecord, profile) {
			continue
		}
		out = append(out, sv)
	}
	return out
}

func matchesSearch(v domain.VendorRecord, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(v.Name), term) {
		return true
	}
	for _, ch := range v.Channels {
		if strings.Contains(strings.ToLower(ch), term) {
			return true
		}
	}
	return false
}

func matchesAdvanced(v domain.VendorRecord, f *domain.AdvancedFilters) bool {
	if f.MinRating > 0 && MeanRating(v) < f.MinRating {
		return false
	}
	for _, ch := range f.Channels {
		if !containsFold(v.Channels, ch) {
			return false
		}
	}
	for _, in := range f.Integrations {
		if !containsFold(v.Integrations, in) {
			return false
		}
	}
	if len(f.Complexities) > 0 {
		found := false
		for _, c := range f.Complexities {
			if v.Complexity == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.SponsorsOnly && !v.IsSponsor {
		return false
	}
	return true
}

// matchesProfile enforces the hard profile requirements: every required
// channel and integration must be present, and governance when needed.
// Size, goal and tolerance only influence the score.
func matchesProfile(v domain.VendorRecord, p domain.UserProfile) bool {
	for _, ch := range p.RequiredChannels {
		if !containsFold(v.Channels, ch) {
			return false
		}
	}
	for _, in := range p.RequiredIntegrations {
		if !containsFold(v.Integrations, in) {
			return false
		}
	}
	if p.NeedsGovernance && len(v.GovernanceFeatures) == 0 {
		return false
	}
	return true
}

// sortVendors orders in place. Stable so catalog order breaks ties.
func sortVendors(vs []ScoredVendor, by SortOption) {
	switch by {
	case SortRating:
		sort.SliceStable(vs, func(i, j int) bool {
			return MeanRating(vs[i].VendorRecord) > MeanRating(vs[j].VendorRecord)
		})
	case SortName:
		sort.SliceStable(vs, func(i, j int) bool {
			return vs[i].Name < vs[j].Name
		})
	case SortComplexity:
		sort.SliceStable(vs, func(i, j int) bool {
			return domain.ComplexityRank(vs[i].Complexity) < domain.ComplexityRank(vs[j].Complexity)
		})
	default: // recommended
		sort.SliceStable(vs, func(i, j int) bool {
			return vs[i].Score > vs[j].Score
		})
	}
}
