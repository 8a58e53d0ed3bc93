package hypermedia

import (
	"fmt"
	"sort"
)

// ResourceType tags a kind of domain resource the registry knows how to key,
// link, and render. Go's static-table lookup replaces the source's
// `type(resource)` dynamic dispatch, per spec §9's "Dynamic dispatch by
// type" redesign flag.
type ResourceType string

const (
	ResourceRoot           ResourceType = "root"
	ResourcePlugin         ResourceType = "plugin"
	ResourcePluginList     ResourceType = "plugin-list"
	ResourceSeed           ResourceType = "seed"
	ResourceSeedList       ResourceType = "seed-list"
	ResourceService        ResourceType = "service"
	ResourceServiceList    ResourceType = "service-list"
	ResourceEnv            ResourceType = "env"
	ResourceEnvList        ResourceType = "env-list"
	ResourceTemplate       ResourceType = "template"
	ResourceTemplateList   ResourceType = "template-list"
	ResourceTemplateTab    ResourceType = "template-tab"
	ResourceRecommendation ResourceType = "recommendation"
)

// Relation names a non-self generator variant registered for a resource
// type, e.g. "create", "update", "delete", "restore", "up". The empty
// relation is the self generator.
type Relation string

const (
	RelSelf    Relation = ""
	RelUp      Relation = "up"
	RelCreate  Relation = "create"
	RelUpdate  Relation = "update"
	RelDelete  Relation = "delete"
	RelRestore Relation = "restore"
)

// defaultRelations is walked by BuildResponse to assemble the links of an
// envelope beyond its self link, per spec §4.7's "Default relations" rule.
var defaultRelations = []Relation{RelUp, RelCreate, RelUpdate, RelDelete, RelRestore}

// KeyGenerator builds the stable routing-parameter map for a resource.
// Recursive generators call reg.BuildKey for the parent resource type and
// merge the result in, inheriting the parent key, per spec §4.7.
type KeyGenerator func(reg *Registry, resource any) (map[string]string, error)

// LinkGenerator builds the ApiLink for one (resource type, relation) pair.
type LinkGenerator func(reg *Registry, resource any, query map[string]string) (ApiLink, error)

// ObjectGenerator builds the typed `data` payload for a resource.
type ObjectGenerator func(reg *Registry, resource any) (ApiObject, error)

// ResponseGenerator bundles links, object, and embedded responses into the
// full envelope. Most resource types can rely on the Registry's generic
// BuildResponse and never need to register one of these directly; it exists
// for resource types (e.g. collections) whose envelope composition isn't the
// default-relations walk.
type ResponseGenerator func(reg *Registry, resource any, query map[string]string) (ApiResponse, error)

type generatorKey struct {
	resourceType ResourceType
	relation     Relation
}

// Registry is the static, immutable-after-startup table of the four
// generator kinds, populated once at process start and read concurrently by
// every request handler thereafter, per spec §5's "Shared-resource policy".
type Registry struct {
	keyGens      map[generatorKey]KeyGenerator
	linkGens     map[generatorKey]LinkGenerator
	objectGens   map[ResourceType]ObjectGenerator
	responseGens map[ResourceType]ResponseGenerator

	pageKeyGens  map[ResourceType]KeyGenerator
	pageLinkGens map[ResourceType]LinkGenerator
}

// NewRegistry creates an empty registry; callers populate it via the
// Register* methods during startup wiring.
func NewRegistry() *Registry {
	return &Registry{
		keyGens:      map[generatorKey]KeyGenerator{},
		linkGens:     map[generatorKey]LinkGenerator{},
		objectGens:   map[ResourceType]ObjectGenerator{},
		responseGens: map[ResourceType]ResponseGenerator{},
		pageKeyGens:  map[ResourceType]KeyGenerator{},
		pageLinkGens: map[ResourceType]LinkGenerator{},
	}
}

func (r *Registry) RegisterKeyGenerator(rt ResourceType, rel Relation, gen KeyGenerator) {
	r.keyGens[generatorKey{rt, rel}] = gen
}

func (r *Registry) RegisterLinkGenerator(rt ResourceType, rel Relation, gen LinkGenerator) {
	r.linkGens[generatorKey{rt, rel}] = gen
}

func (r *Registry) RegisterObjectGenerator(rt ResourceType, gen ObjectGenerator) {
	r.objectGens[rt] = gen
}

func (r *Registry) RegisterResponseGenerator(rt ResourceType, gen ResponseGenerator) {
	r.responseGens[rt] = gen
}

func (r *Registry) RegisterPageKeyGenerator(rt ResourceType, gen KeyGenerator) {
	r.pageKeyGens[rt] = gen
}

func (r *Registry) RegisterPageLinkGenerator(rt ResourceType, gen LinkGenerator) {
	r.pageLinkGens[rt] = gen
}

// ResourceTypes lists every resource type with a registered object
// generator, sorted, used by the diagnostics routes.
func (r *Registry) ResourceTypes() []ResourceType {
	types := make([]ResourceType, 0, len(r.objectGens))
	for rt := range r.objectGens {
		types = append(types, rt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (r *Registry) hasGenerator(rt ResourceType, rel Relation) bool {
	_, ok := r.linkGens[generatorKey{rt, rel}]
	return ok
}

// BuildKey invokes the registered key generator for (resourceType, relation)
// if present, else falls back to the self generator.
func (r *Registry) BuildKey(rt ResourceType, rel Relation, resource any) (map[string]string, error) {
	gen, ok := r.keyGens[generatorKey{rt, rel}]
	if !ok {
		gen, ok = r.keyGens[generatorKey{rt, RelSelf}]
	}
	if !ok {
		return nil, fmt.Errorf("hypermedia: no key generator registered for %s/%s", rt, rel)
	}
	return gen(r, resource)
}

// BuildPageKey builds the routing-parameter map for a page of the given
// resource type's collection.
func (r *Registry) BuildPageKey(rt ResourceType, resource any) (map[string]string, error) {
	gen, ok := r.pageKeyGens[rt]
	if !ok {
		return nil, fmt.Errorf("hypermedia: no page key generator registered for %s", rt)
	}
	return gen(r, resource)
}

// BuildPageLink invokes the registered page link generator for a resource
// type's collection, used to build cursor-anchored navigation links.
func (r *Registry) BuildPageLink(rt ResourceType, resource any, query map[string]string) (ApiLink, error) {
	gen, ok := r.pageLinkGens[rt]
	if !ok {
		return ApiLink{}, fmt.Errorf("hypermedia: no page link generator registered for %s", rt)
	}
	return gen(r, resource, query)
}

// BuildLink invokes the registered link generator for (resourceType,
// relation).
func (r *Registry) BuildLink(rt ResourceType, rel Relation, resource any, query map[string]string) (ApiLink, error) {
	gen, ok := r.linkGens[generatorKey{rt, rel}]
	if !ok {
		return ApiLink{}, fmt.Errorf("hypermedia: no link generator registered for %s/%s", rt, rel)
	}
	return gen(r, resource, query)
}

// BuildObject invokes the registered object generator for a resource type.
func (r *Registry) BuildObject(rt ResourceType, resource any) (ApiObject, error) {
	gen, ok := r.objectGens[rt]
	if !ok {
		return nil, fmt.Errorf("hypermedia: no object generator registered for %s", rt)
	}
	return gen(r, resource)
}

// BuildResponse assembles the default envelope for a resource: the self
// link and object from their respective generators, plus one link for each
// of {up, create, update, delete, restore} that has a registered generator,
// per spec §4.7's "Default relations" rule. Callers may pass extraRelations
// to supplement with additional registered relations (e.g. collection
// paging tokens are handled separately by BuildCollectionResponse/
// BuildPageResponse).
func (r *Registry) BuildResponse(rt ResourceType, resource any, query map[string]string, extraRelations ...Relation) (ApiResponse, error) {
	if gen, ok := r.responseGens[rt]; ok {
		return gen(r, resource, query)
	}

	self, err := r.BuildLink(rt, RelSelf, resource, query)
	if err != nil {
		return ApiResponse{}, err
	}
	obj, err := r.BuildObject(rt, resource)
	if err != nil {
		return ApiResponse{}, err
	}

	links := []ApiLink{self}
	for _, rel := range defaultRelations {
		if !r.hasGenerator(rt, rel) {
			continue
		}
		l, err := r.BuildLink(rt, rel, resource, nil)
		if err != nil {
			return ApiResponse{}, err
		}
		links = append(links, l)
	}
	for _, rel := range extraRelations {
		if !r.hasGenerator(rt, rel) {
			continue
		}
		l, err := r.BuildLink(rt, rel, resource, nil)
		if err != nil {
			return ApiResponse{}, err
		}
		links = append(links, l)
	}

	return ApiResponse{Links: links, Data: obj}, nil
}

// NewCreatedResponse wraps resp (the created resource's normal response) in
// a NewApiObject envelope, per spec §4.7's derived response types.
func NewCreatedResponse(self ApiLink, normal ApiResponse) ApiResponse {
	return newNewApiObject(self, normal.Links[0], normal)
}

// NewChangedResponse wraps resp in a ChangedApiObject envelope.
func NewChangedResponse(self ApiLink, normal ApiResponse) ApiResponse {
	return newChangedApiObject(self, normal.Links[0], normal)
}

// NewDeletedResponse wraps a deleted resource's self link in a
// DeletedApiObject envelope, optionally with a redirect target (e.g. the
// parent collection).
func NewDeletedResponse(self ApiLink, redirectTo *ApiLink) ApiResponse {
	return newDeletedApiObject(self, self, redirectTo)
}
