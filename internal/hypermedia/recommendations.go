package hypermedia

// RecommendationEntry is one ranked recommendation rendered into the
// recommendation list payload: the recommended plugin's link and its
// aggregated, weighted score.
type RecommendationEntry struct {
	Plugin ApiLink `json:"plugin"`
	Score  float64 `json:"score"`
}

// RecommendationListObject is the typed payload for the recommendation
// collection resource.
type RecommendationListObject struct {
	BaseApiObject
	Items []RecommendationEntry `json:"items"`
}

// RegisterRecommendationGenerators wires the recommendation resource's
// link/object generators. The object generator expects a
// []RecommendationEntry, assembled by the handler from the engine's ranked
// results.
func RegisterRecommendationGenerators(reg *Registry) {
	reg.RegisterLinkGenerator(ResourceRecommendation, RelSelf, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		return idLink(ResourceRecommendation, "/recommendations/"), nil
	})
	reg.RegisterLinkGenerator(ResourceRecommendation, RelUp, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		return idLink(ResourceRoot, "/", "up"), nil
	})
	reg.RegisterObjectGenerator(ResourceRecommendation, func(reg *Registry, resource any) (ApiObject, error) {
		entries, _ := resource.([]RecommendationEntry)
		self, err := reg.BuildLink(ResourceRecommendation, RelSelf, resource, nil)
		if err != nil {
			return nil, err
		}
		return RecommendationListObject{
			BaseApiObject: BaseApiObject{Self: self},
			Items:         entries,
		}, nil
	})
}
