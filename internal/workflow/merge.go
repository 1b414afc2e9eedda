package workflow

import "github.com/ygtangsdu/qse-architect/internal/model"

// MergedLocation pairs a baseline location with its counterfactual
// counterpart, matched by id. Counterfactual is nil when the counterfactual
// set has no location with the baseline's id.
type MergedLocation struct {
	model.Location
	Counterfactual *model.Location `json:"counterfactual,omitempty"`
}

// Merge combines a baseline location set with an optional counterfactual set
// into per-location comparison records keyed by id. Baseline order is
// preserved. Locations present only in the counterfactual set are dropped;
// the merged view is anchored on the baseline, not a superset. Duplicate ids
// in the counterfactual set resolve last-write-wins. Pure and deterministic.
func Merge(baseline, counterfactual []model.Location) []MergedLocation {
	byID := make(map[string]model.Location, len(counterfactual))
	for _, loc := range counterfactual {
		byID[loc.ID] = loc
	}

	out := make([]MergedLocation, 0, len(baseline))
	for _, loc := range baseline {
		rec := MergedLocation{Location: loc}
		if cf, ok := byID[loc.ID]; ok {
			rec.Counterfactual = &cf
		}
		out = append(out, rec)
	}
	return out
}
