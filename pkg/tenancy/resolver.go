package tenancy

import (
	"fmt"
	"net/http"
	"regexp"
)

// maxNamespaceLen is the maximum length for a namespace (DNS label rules).
const maxNamespaceLen = 63

// namespaceRe validates namespace format: lowercase alphanumeric and
// hyphens, must start and end with an alphanumeric character.
var namespaceRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// NamespaceQueryParam is the query parameter used for namespace resolution.
const NamespaceQueryParam = "namespace"

// NamespaceHeader is the HTTP header used for namespace resolution.
const NamespaceHeader = "X-Registry-Namespace"

// ScopeResolver resolves the registry scope from an HTTP request.
type ScopeResolver interface {
	Resolve(r *http.Request) (ScopeContext, error)
}

// SingleScopeResolver always returns the "default" namespace.
type SingleScopeResolver struct{}

// Resolve always returns a ScopeContext with Namespace "default".
func (s SingleScopeResolver) Resolve(_ *http.Request) (ScopeContext, error) {
	return ScopeContext{Namespace: "default"}, nil
}

// NamespaceScopeResolver reads the namespace from the request query
// parameter or header; in namespace mode a namespace is always required.
type NamespaceScopeResolver struct{}

// Resolve extracts the namespace from the request, checking the query
// parameter first and the header second. Returns an error if the namespace
// is missing or invalid.
func (n NamespaceScopeResolver) Resolve(r *http.Request) (ScopeContext, error) {
	ns := r.URL.Query().Get(NamespaceQueryParam)
	if ns == "" {
		ns = r.Header.Get(NamespaceHeader)
	}

	if ns == "" {
		return ScopeContext{}, fmt.Errorf("namespace is required in namespace mode (use ?namespace= or the %s header)", NamespaceHeader)
	}

	if err := validateNamespace(ns); err != nil {
		return ScopeContext{}, err
	}

	return ScopeContext{Namespace: ns}, nil
}

func validateNamespace(ns string) error {
	if len(ns) > maxNamespaceLen {
		return fmt.Errorf("namespace %q exceeds maximum length of %d characters", ns, maxNamespaceLen)
	}
	if !namespaceRe.MatchString(ns) {
		return fmt.Errorf("namespace %q is invalid: must consist of lowercase alphanumeric characters or hyphens, and must start and end with an alphanumeric character", ns)
	}
	return nil
}
