package recommend

import "github.com/qhana/plugin-registry/internal/store"

// admissibleTypes is the set of plugin types recommendations may include,
// per spec §4.6's admissibility filter.
var admissibleTypes = map[string]struct{}{
	"processing": {},
	"conversion": {},
}

// FilterAdmissible removes (a) any scored plugin whose type is neither
// "processing" nor "conversion", and (b) any plugin with at least one
// required consumed IOData row that cannot be satisfied from
// rc.AvailableData, computed via the same requirement-matching used by
// AvailableDataRecommender, per spec §4.6 and the admissibility testable
// property in §8. Grounded on
// get_plugin_ids_with_unmet_requirements/filter_votes.
func FilterAdmissible(st *store.Store, scores map[uint]float64, available map[string][]string) (map[uint]float64, error) {
	if len(scores) == 0 {
		return scores, nil
	}

	plugins, err := loadRequiredConsumed(st)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]requiredConsumed, len(plugins))
	for _, p := range plugins {
		byID[p.PluginID] = p
	}

	result := make(map[uint]float64, len(scores))
	for pluginID, score := range scores {
		rc, ok := byID[pluginID]
		if !ok {
			continue
		}
		if _, ok := admissibleTypes[rc.Type]; !ok {
			continue
		}
		if !allRequirementsSatisfiable(rc.Required, available) {
			continue
		}
		result[pluginID] = score
	}
	return result, nil
}
