package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/pkg/httputil"
	"github.com/growthbench/planforge/internal/vendors"
)

// handleVendors filters and sorts the vendor catalog from query parameters.
// Profile fields: company_size, goal, channels, integrations, tolerance,
// governance. Advanced filters: min_rating, filter_channels,
// filter_integrations, complexities, sponsors_only. Plus q and sort.
func (s *Server) handleVendors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	profile := domain.UserProfile{
		CompanySize:             domain.CompanySize(q.Get("company_size")),
		PrimaryGoal:             q.Get("goal"),
		RequiredChannels:        splitParam(q.Get("channels")),
		RequiredIntegrations:    splitParam(q.Get("integrations")),
		ImplementationTolerance: domain.Complexity(q.Get("tolerance")),
		NeedsGovernance:         q.Get("governance") == "true",
	}

	var adv *domain.AdvancedFilters
	if q.Get("min_rating") != "" || q.Get("filter_channels") != "" ||
		q.Get("filter_integrations") != "" || q.Get("complexities") != "" ||
		q.Get("sponsors_only") == "true" {
		adv = &domain.AdvancedFilters{
			Channels:     splitParam(q.Get("filter_channels")),
			Integrations: splitParam(q.Get("filter_integrations")),
			SponsorsOnly: q.Get("sponsors_only") == "true",
		}
		if raw := q.Get("min_rating"); raw != "" {
			min, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				httputil.BadRequest(w, "min_rating must be a number")
				return
			}
			adv.MinRating = min
		}
		for _, c := range splitParam(q.Get("complexities")) {
			adv.Complexities = append(adv.Complexities, domain.Complexity(c))
		}
	}

	result := vendors.FilterAndSort(s.catalog, profile, adv,
		q.Get("q"), vendors.SortOption(q.Get("sort")))
	httputil.OK(w, result)
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
