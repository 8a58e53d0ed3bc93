// Package hypermedia builds the hypermedia JSON envelopes (C7): per-resource
// key/link/object/response generators assembled into ApiResponse values, per
// spec §4.7, grounded on api/models/base_models.go and
// api/models/request_helpers.go (`.py`).
package hypermedia

// ApiLink is a non-templated API link. Serializes camelCase with empty
// optional members omitted, per spec §4.7.
type ApiLink struct {
	Href         string            `json:"href"`
	Rel          []string          `json:"rel"`
	ResourceType string            `json:"resourceType"`
	Doc          string            `json:"doc,omitempty"`
	Schema       string            `json:"schema,omitempty"`
	Name         string            `json:"name,omitempty"`
	ResourceKey  map[string]string `json:"resourceKey,omitempty"`
}

// KeyedApiLink is a templated API link: Href still contains `{placeholders}`
// that Key/QueryKey name.
type KeyedApiLink struct {
	ApiLink
	Key      []string `json:"key"`
	QueryKey []string `json:"queryKey"`
}

// ApiObject is the embedded "data" payload of an ApiResponse: any typed
// struct carrying a Self link.
type ApiObject interface {
	SelfLink() ApiLink
}

// BaseApiObject is embedded by concrete object payloads to satisfy
// ApiObject.
type BaseApiObject struct {
	Self ApiLink `json:"self"`
}

func (b BaseApiObject) SelfLink() ApiLink { return b.Self }

// NewApiObject wraps a created resource's normal response with a `new`
// relation, per spec §4.7's "Derived response types".
type NewApiObject struct {
	BaseApiObject
	New ApiLink `json:"new"`
}

// ChangedApiObject wraps an updated resource's normal response with a
// `changed` relation.
type ChangedApiObject struct {
	BaseApiObject
	Changed ApiLink `json:"changed"`
}

// DeletedApiObject wraps a deleted resource's response with a `deleted`
// relation and an optional redirect target.
type DeletedApiObject struct {
	BaseApiObject
	Deleted    ApiLink  `json:"deleted"`
	RedirectTo *ApiLink `json:"redirectTo,omitempty"`
}

// ApiResponse is the envelope shape from spec §4.7: links, optional keyed
// links, optional embedded responses, and the typed data payload.
type ApiResponse struct {
	Links      []ApiLink      `json:"links"`
	KeyedLinks []KeyedApiLink `json:"keyedLinks,omitempty"`
	Embedded   []ApiResponse  `json:"embedded,omitempty"`
	Data       ApiObject      `json:"data"`
}

// CollectionResource is the `data` payload for a plain (non-paged)
// collection resource.
type CollectionResource struct {
	BaseApiObject
	CollectionSize int       `json:"collectionSize"`
	Items          []ApiLink `json:"items"`
}

// CursorPage is the `data` payload for a cursor-paged collection resource.
type CursorPage struct {
	BaseApiObject
	CollectionSize int       `json:"collectionSize"`
	Page           int       `json:"page"`
	Items          []ApiLink `json:"items"`
}

// newNewApiObject builds a NewApiObject whose embedded self/new links both
// point at the created resource, plus an embedded copy of its normal
// response, per spec §4.7.
func newNewApiObject(self, newLink ApiLink, normal ApiResponse) ApiResponse {
	return ApiResponse{
		Links: []ApiLink{self},
		Data: NewApiObject{
			BaseApiObject: BaseApiObject{Self: self},
			New:           newLink,
		},
		Embedded: []ApiResponse{normal},
	}
}

func newChangedApiObject(self, changed ApiLink, normal ApiResponse) ApiResponse {
	return ApiResponse{
		Links: []ApiLink{self},
		Data: ChangedApiObject{
			BaseApiObject: BaseApiObject{Self: self},
			Changed:       changed,
		},
		Embedded: []ApiResponse{normal},
	}
}

func newDeletedApiObject(self, deleted ApiLink, redirectTo *ApiLink) ApiResponse {
	return ApiResponse{
		Links: []ApiLink{self},
		Data: DeletedApiObject{
			BaseApiObject: BaseApiObject{Self: self},
			Deleted:       deleted,
			RedirectTo:    redirectTo,
		},
	}
}
