package tenancy

import (
	"encoding/json"
	"net/http"
)

// Middleware returns HTTP middleware that resolves the registry scope using
// the provided ScopeResolver and stores it in the request context. On
// resolution failure it responds with a 400 JSON error.
func Middleware(resolver ScopeResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc, err := resolver.Resolve(r)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}

			ctx := WithScope(r.Context(), sc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewMiddleware creates middleware with the appropriate resolver for the
// given TenancyMode.
func NewMiddleware(mode TenancyMode) func(http.Handler) http.Handler {
	var resolver ScopeResolver
	switch mode {
	case ModeNamespace:
		resolver = NamespaceScopeResolver{}
	default:
		resolver = SingleScopeResolver{}
	}
	return Middleware(resolver)
}
