package tenancy

import "context"

// ctxKey is an unexported type used as the context key for ScopeContext.
type ctxKey struct{}

// ScopeContext carries the resolved registry scope through request context.
type ScopeContext struct {
	Namespace string
}

// WithScope returns a new context with the given ScopeContext attached.
func WithScope(ctx context.Context, sc ScopeContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, sc)
}

// ScopeFromContext retrieves the ScopeContext from the context. Returns the
// zero value and false if no scope is set.
func ScopeFromContext(ctx context.Context) (ScopeContext, bool) {
	sc, ok := ctx.Value(ctxKey{}).(ScopeContext)
	return sc, ok
}

// NamespaceFromContext returns the namespace from the context, or "" if no
// scope context is set.
func NamespaceFromContext(ctx context.Context) string {
	sc, ok := ScopeFromContext(ctx)
	if !ok {
		return ""
	}
	return sc.Namespace
}
