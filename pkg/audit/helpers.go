package audit

import "strings"

// extractResourceType extracts the audited resource type from a request
// path. Recognizes the registry's own collection paths: /plugins/,
// /seeds/, /services/, /env/, /templates/{id}/tabs/{tab}/.
func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return ""
	}

	switch parts[0] {
	case "plugins", "seeds", "services", "env":
		return strings.TrimSuffix(parts[0], "s")
	case "templates":
		if len(parts) >= 3 && parts[2] == "tabs" {
			return "tab"
		}
		return "template"
	}
	return ""
}

// extractResourceIDs pulls path-parameter identifiers out of the request
// path for the registry's collection routes.
func extractResourceIDs(path string) []string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	var ids []string

	switch {
	case len(parts) >= 2 && (parts[0] == "plugins" || parts[0] == "seeds" || parts[0] == "services" || parts[0] == "env"):
		ids = append(ids, parts[1])
	case len(parts) >= 2 && parts[0] == "templates":
		ids = append(ids, parts[1])
		if len(parts) >= 4 && parts[2] == "tabs" {
			ids = append(ids, parts[3])
		}
	}

	return ids
}

// extractActionVerb derives a human-readable action from the HTTP method.
func extractActionVerb(method string) string {
	switch method {
	case "POST":
		return "create"
	case "PUT":
		return "update"
	case "PATCH":
		return "patch"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

// isAuditableEndpoint returns true when the request uses a mutating method
// (POST, PUT, PATCH, DELETE); the path is not checked against the catalog
// collections. GETs and health endpoints are never audited.
func isAuditableEndpoint(method, path string) bool {
	if isHealthEndpoint(path) {
		return false
	}
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}

func isHealthEndpoint(path string) bool {
	switch path {
	case "/livez", "/readyz", "/healthz":
		return true
	}
	return false
}
