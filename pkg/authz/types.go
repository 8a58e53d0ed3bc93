// Package authz provides the authorization hook point for the registry
// server. Policy enforcement is intentionally out of scope; the Authorizer
// interface and a no-op implementation exist so deployments can plug a real
// policy engine in front of the API without changing the router.
package authz

import "context"

// Resource names for authorization mapping, one per top-level API resource.
const (
	ResourcePlugins         = "plugins"
	ResourceSeeds           = "seeds"
	ResourceServices        = "services"
	ResourceEnv             = "env"
	ResourceTemplates       = "templates"
	ResourceRecommendations = "recommendations"
)

// Verb names for authorization mapping.
const (
	VerbGet    = "get"
	VerbList   = "list"
	VerbCreate = "create"
	VerbUpdate = "update"
	VerbDelete = "delete"
)

// Request represents one authorization check.
type Request struct {
	User      string
	Groups    []string
	Resource  string
	Verb      string
	Namespace string
}

// Authorizer checks whether a caller is authorized to perform an action.
type Authorizer interface {
	Authorize(ctx context.Context, req Request) (bool, error)
}
