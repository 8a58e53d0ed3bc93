package authz

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/qhana/plugin-registry/pkg/tenancy"
)

// resourceFromPath maps the first path segment under the API prefix onto an
// authorization resource name; unknown segments map to "" (allowed through,
// the router's 404 handles them).
func resourceFromPath(path string) string {
	path = strings.TrimPrefix(path, "/")
	segment, _, _ := strings.Cut(path, "/")
	switch segment {
	case ResourcePlugins, ResourceSeeds, ResourceServices, ResourceEnv,
		ResourceTemplates, ResourceRecommendations:
		return segment
	}
	return ""
}

// verbFromRequest maps the HTTP method (and, for GET, whether the path
// targets the collection itself) onto an authorization verb.
func verbFromRequest(method, path, resource string) string {
	switch method {
	case http.MethodPost:
		return VerbCreate
	case http.MethodPut:
		return VerbUpdate
	case http.MethodDelete:
		return VerbDelete
	}
	if strings.Trim(path, "/") == resource {
		return VerbList
	}
	return VerbGet
}

// Middleware returns HTTP middleware that consults the given Authorizer for
// every request, responding 403 on deny. prefix is the API base prefix
// (e.g. "/api") stripped before resolving the resource from the path's
// first segment.
func Middleware(authorizer Authorizer, prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := strings.TrimPrefix(r.URL.Path, prefix)
			resource := resourceFromPath(path)
			if resource == "" {
				next.ServeHTTP(w, r)
				return
			}

			req := Request{
				Resource:  resource,
				Verb:      verbFromRequest(r.Method, path, resource),
				Namespace: tenancy.NamespaceFromContext(r.Context()),
			}
			allowed, err := authorizer.Authorize(r.Context(), req)
			if err != nil || !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
