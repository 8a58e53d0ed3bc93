package hypermedia

import (
	"fmt"

	"github.com/qhana/plugin-registry/internal/store"
)

// PluginObject is the typed payload for a single plugin resource.
type PluginObject struct {
	BaseApiObject
	ID            uint     `json:"id"`
	Identifier    string   `json:"identifier"`
	Version       string   `json:"version"`
	Title         string   `json:"title,omitempty"`
	Description   string   `json:"description,omitempty"`
	Type          string   `json:"type,omitempty"`
	EntryURL      string   `json:"entryUrl,omitempty"`
	UIURL         string   `json:"uiUrl,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	LastAvailable string   `json:"lastAvailable,omitempty"`
}

// SeedObject is the typed payload for a seed resource.
type SeedObject struct {
	BaseApiObject
	ID  uint   `json:"id"`
	URL string `json:"url"`
}

// ServiceObject is the typed payload for a service resource.
type ServiceObject struct {
	BaseApiObject
	ServiceID   string `json:"serviceId"`
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// EnvObject is the typed payload for an env resource.
type EnvObject struct {
	BaseApiObject
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TemplateObject is the typed payload for a template resource.
type TemplateObject struct {
	BaseApiObject
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// TemplateTabObject is the typed payload for a template-tab resource.
type TemplateTabObject struct {
	BaseApiObject
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	SortKey      int    `json:"sortKey"`
	Location     string `json:"location"`
	Icon         string `json:"icon,omitempty"`
	GroupKey     string `json:"groupKey,omitempty"`
	FilterString string `json:"filterString"`
}

// RootObject is the typed payload for the API root resource.
type RootObject struct {
	BaseApiObject
}

func idLink(resourceType ResourceType, path string, rel ...string) ApiLink {
	if len(rel) == 0 {
		rel = []string{"self"}
	}
	return ApiLink{Href: path, Rel: rel, ResourceType: string(resourceType)}
}

// RegisterDefaultGenerators wires the key/link/object generators for every
// SPEC_FULL.md domain resource type into reg, grounded on
// api/models/*.py's per-type generator registrations (one `__init_subclass__`
// hook per resource there, one Register* call here).
func RegisterDefaultGenerators(reg *Registry) {
	registerRoot(reg)
	registerPlugin(reg)
	registerSeed(reg)
	registerService(reg)
	registerEnv(reg)
	registerTemplate(reg)
	registerTemplateTab(reg)
	RegisterRecommendationGenerators(reg)
}

func registerRoot(reg *Registry) {
	reg.RegisterKeyGenerator(ResourceRoot, RelSelf, func(reg *Registry, resource any) (map[string]string, error) {
		return map[string]string{}, nil
	})
	reg.RegisterLinkGenerator(ResourceRoot, RelSelf, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		return idLink(ResourceRoot, "/"), nil
	})
	reg.RegisterObjectGenerator(ResourceRoot, func(reg *Registry, resource any) (ApiObject, error) {
		self, _ := reg.BuildLink(ResourceRoot, RelSelf, resource, nil)
		return RootObject{BaseApiObject: BaseApiObject{Self: self}}, nil
	})
	// The root envelope advertises a nav link to every sub-resource type
	// rather than the default-relations walk.
	reg.RegisterResponseGenerator(ResourceRoot, func(reg *Registry, resource any, query map[string]string) (ApiResponse, error) {
		self, err := reg.BuildLink(ResourceRoot, RelSelf, resource, nil)
		if err != nil {
			return ApiResponse{}, err
		}
		obj, err := reg.BuildObject(ResourceRoot, resource)
		if err != nil {
			return ApiResponse{}, err
		}
		links := []ApiLink{self}
		for _, rt := range []ResourceType{
			ResourcePluginList, ResourceSeedList, ResourceServiceList,
			ResourceEnvList, ResourceTemplateList, ResourceRecommendation,
		} {
			l, err := reg.BuildLink(rt, RelSelf, nil, nil)
			if err != nil {
				continue
			}
			links = append(links, withRel(l, "nav"))
		}
		return ApiResponse{Links: links, Data: obj}, nil
	})
}

func registerPlugin(reg *Registry) {
	reg.RegisterKeyGenerator(ResourcePlugin, RelSelf, func(reg *Registry, resource any) (map[string]string, error) {
		p, ok := resource.(*store.Plugin)
		if !ok {
			return nil, fmt.Errorf("hypermedia: plugin key generator expects *store.Plugin")
		}
		return map[string]string{"plugin-id": fmt.Sprint(p.ID)}, nil
	})
	reg.RegisterLinkGenerator(ResourcePlugin, RelSelf, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		p := resource.(*store.Plugin)
		return idLink(ResourcePlugin, fmt.Sprintf("/plugins/%d/", p.ID)), nil
	})
	reg.RegisterLinkGenerator(ResourcePlugin, RelUp, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		return idLink(ResourcePluginList, "/plugins/", "up"), nil
	})
	reg.RegisterLinkGenerator(ResourcePlugin, RelDelete, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		p := resource.(*store.Plugin)
		return idLink(ResourcePlugin, fmt.Sprintf("/plugins/%d/", p.ID), "delete"), nil
	})
	reg.RegisterObjectGenerator(ResourcePlugin, func(reg *Registry, resource any) (ApiObject, error) {
		p := resource.(*store.Plugin)
		self, err := reg.BuildLink(ResourcePlugin, RelSelf, p, nil)
		if err != nil {
			return nil, err
		}
		tags := make([]string, 0, len(p.Tags))
		for _, t := range p.Tags {
			tags = append(tags, t.Name)
		}
		return PluginObject{
			BaseApiObject: BaseApiObject{Self: self},
			ID:            p.ID,
			Identifier:    p.Identifier,
			Version:       p.Version,
			Title:         p.Title,
			Description:   p.Description,
			Type:          p.Type,
			EntryURL:      p.EntryURL,
			UIURL:         p.UIURL,
			Tags:          tags,
			LastAvailable: p.LastAvailable.UTC().Format("2006-01-02T15:04:05Z"),
		}, nil
	})

	reg.RegisterLinkGenerator(ResourcePluginList, RelSelf, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		return idLink(ResourcePluginList, "/plugins/"), nil
	})
	reg.RegisterLinkGenerator(ResourcePluginList, RelUp, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		return idLink(ResourceRoot, "/", "up"), nil
	})
	reg.RegisterPageLinkGenerator(ResourcePluginList, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		cursor := query["cursor"]
		itemCount := query["item-count"]
		href := "/plugins/"
		if cursor != "" || itemCount != "" {
			href = fmt.Sprintf("/plugins/?cursor=%s&item-count=%s", cursor, itemCount)
		}
		return idLink(ResourcePluginList, href), nil
	})
}

func registerSeed(reg *Registry) {
	reg.RegisterKeyGenerator(ResourceSeed, RelSelf, func(reg *Registry, resource any) (map[string]string, error) {
		s := resource.(*store.Seed)
		return map[string]string{"seed-id": fmt.Sprint(s.ID)}, nil
	})
	reg.RegisterLinkGenerator(ResourceSeed, RelSelf, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		s := resource.(*store.Seed)
		return idLink(ResourceSeed, fmt.Sprintf("/seeds/%d/", s.ID)), nil
	})
	reg.RegisterLinkGenerator(ResourceSeed, RelUp, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		return idLink(ResourceSeedList, "/seeds/", "up"), nil
	})
	reg.RegisterLinkGenerator(ResourceSeed, RelDelete, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		s := resource.(*store.Seed)
		return idLink(ResourceSeed, fmt.Sprintf("/seeds/%d/", s.ID), "delete"), nil
	})
	reg.RegisterObjectGenerator(ResourceSeed, func(reg *Registry, resource any) (ApiObject, error) {
		s := resource.(*store.Seed)
		self, err := reg.BuildLink(ResourceSeed, RelSelf, s, nil)
		if err != nil {
			return nil, err
		}
		return SeedObject{BaseApiObject: BaseApiObject{Self: self}, ID: s.ID, URL: s.URL}, nil
	})
	reg.RegisterLinkGenerator(ResourceSeedList, RelSelf, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		return idLink(ResourceSeedList, "/seeds/"), nil
	})
}

func registerService(reg *Registry) {
	reg.RegisterKeyGenerator(ResourceService, RelSelf, func(reg *Registry, resource any) (map[string]string, error) {
		s := resource.(*store.Service)
		return map[string]string{"service-id": s.ServiceID}, nil
	})
	reg.RegisterLinkGenerator(ResourceService, RelSelf, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		s := resource.(*store.Service)
		return idLink(ResourceService, fmt.Sprintf("/services/%s/", s.ServiceID)), nil
	})
	reg.RegisterLinkGenerator(ResourceService, RelUp, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		return idLink(ResourceServiceList, "/services/", "up"), nil
	})
	reg.RegisterLinkGenerator(ResourceService, RelDelete, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		s := resource.(*store.Service)
		return idLink(ResourceService, fmt.Sprintf("/services/%s/", s.ServiceID), "delete"), nil
	})
	reg.RegisterObjectGenerator(ResourceService, func(reg *Registry, resource any) (ApiObject, error) {
		s := resource.(*store.Service)
		self, err := reg.BuildLink(ResourceService, RelSelf, s, nil)
		if err != nil {
			return nil, err
		}
		return ServiceObject{
			BaseApiObject: BaseApiObject{Self: self},
			ServiceID:     s.ServiceID,
			URL:           s.URL,
			Name:          s.Name,
			Description:   s.Description,
		}, nil
	})
	reg.RegisterLinkGenerator(ResourceServiceList, RelSelf, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		return idLink(ResourceServiceList, "/services/"), nil
	})
}

func registerEnv(reg *Registry) {
	reg.RegisterKeyGenerator(ResourceEnv, RelSelf, func(reg *Registry, resource any) (map[string]string, error) {
		e := resource.(*store.Env)
		return map[string]string{"env-name": e.Name}, nil
	})
	reg.RegisterLinkGenerator(ResourceEnv, RelSelf, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		e := resource.(*store.Env)
		return idLink(ResourceEnv, fmt.Sprintf("/env/%s/", e.Name)), nil
	})
	reg.RegisterLinkGenerator(ResourceEnv, RelUp, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		return idLink(ResourceEnvList, "/env/", "up"), nil
	})
	reg.RegisterLinkGenerator(ResourceEnv, RelDelete, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		e := resource.(*store.Env)
		return idLink(ResourceEnv, fmt.Sprintf("/env/%s/", e.Name), "delete"), nil
	})
	reg.RegisterObjectGenerator(ResourceEnv, func(reg *Registry, resource any) (ApiObject, error) {
		e := resource.(*store.Env)
		self, err := reg.BuildLink(ResourceEnv, RelSelf, e, nil)
		if err != nil {
			return nil, err
		}
		return EnvObject{BaseApiObject: BaseApiObject{Self: self}, Name: e.Name, Value: e.Value}, nil
	})
	reg.RegisterLinkGenerator(ResourceEnvList, RelSelf, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		return idLink(ResourceEnvList, "/env/"), nil
	})
}

func registerTemplate(reg *Registry) {
	reg.RegisterKeyGenerator(ResourceTemplate, RelSelf, func(reg *Registry, resource any) (map[string]string, error) {
		t := resource.(*store.Template)
		return map[string]string{"template-id": fmt.Sprint(t.ID)}, nil
	})
	reg.RegisterLinkGenerator(ResourceTemplate, RelSelf, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		t := resource.(*store.Template)
		return idLink(ResourceTemplate, fmt.Sprintf("/templates/%d/", t.ID)), nil
	})
	reg.RegisterLinkGenerator(ResourceTemplate, RelUp, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		return idLink(ResourceTemplateList, "/templates/", "up"), nil
	})
	reg.RegisterLinkGenerator(ResourceTemplate, RelDelete, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		t := resource.(*store.Template)
		return idLink(ResourceTemplate, fmt.Sprintf("/templates/%d/", t.ID), "delete"), nil
	})
	reg.RegisterObjectGenerator(ResourceTemplate, func(reg *Registry, resource any) (ApiObject, error) {
		t := resource.(*store.Template)
		self, err := reg.BuildLink(ResourceTemplate, RelSelf, t, nil)
		if err != nil {
			return nil, err
		}
		tags := make([]string, 0, len(t.Tags))
		for _, tag := range t.Tags {
			tags = append(tags, tag.Name)
		}
		return TemplateObject{
			BaseApiObject: BaseApiObject{Self: self},
			ID:            t.ID,
			Name:          t.Name,
			Description:   t.Description,
			Tags:          tags,
		}, nil
	})
	reg.RegisterLinkGenerator(ResourceTemplateList, RelSelf, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		return idLink(ResourceTemplateList, "/templates/"), nil
	})
}

func registerTemplateTab(reg *Registry) {
	reg.RegisterKeyGenerator(ResourceTemplateTab, RelSelf, func(reg *Registry, resource any) (map[string]string, error) {
		tab := resource.(*store.TemplateTab)
		key, err := reg.BuildKey(ResourceTemplate, RelSelf, &store.Template{ID: tab.TemplateID})
		if err != nil {
			return nil, err
		}
		key["tab-id"] = fmt.Sprint(tab.ID)
		return key, nil
	})
	reg.RegisterLinkGenerator(ResourceTemplateTab, RelSelf, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		tab := resource.(*store.TemplateTab)
		return idLink(ResourceTemplateTab, fmt.Sprintf("/templates/%d/tabs/%d/", tab.TemplateID, tab.ID)), nil
	})
	reg.RegisterLinkGenerator(ResourceTemplateTab, RelUp, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		tab := resource.(*store.TemplateTab)
		return reg.BuildLink(ResourceTemplate, RelSelf, &store.Template{ID: tab.TemplateID}, nil)
	})
	reg.RegisterLinkGenerator(ResourceTemplateTab, RelDelete, func(reg *Registry, resource any, query map[string]string) (ApiLink, error) {
		tab := resource.(*store.TemplateTab)
		return idLink(ResourceTemplateTab, fmt.Sprintf("/templates/%d/tabs/%d/", tab.TemplateID, tab.ID), "delete"), nil
	})
	reg.RegisterObjectGenerator(ResourceTemplateTab, func(reg *Registry, resource any) (ApiObject, error) {
		tab := resource.(*store.TemplateTab)
		self, err := reg.BuildLink(ResourceTemplateTab, RelSelf, tab, nil)
		if err != nil {
			return nil, err
		}
		return TemplateTabObject{
			BaseApiObject: BaseApiObject{Self: self},
			ID:            tab.ID,
			Name:          tab.Name,
			Description:   tab.Description,
			SortKey:       tab.SortKey,
			Location:      tab.Location,
			Icon:          tab.Icon,
			GroupKey:      tab.GroupKey,
			FilterString:  tab.FilterString,
		}, nil
	})
}
