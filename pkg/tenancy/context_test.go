package tenancy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeRoundTrip(t *testing.T) {
	ctx := WithScope(context.Background(), ScopeContext{Namespace: "team-a"})

	sc, ok := ScopeFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "team-a", sc.Namespace)
	assert.Equal(t, "team-a", NamespaceFromContext(ctx))
}

func TestScopeFromContextMissing(t *testing.T) {
	_, ok := ScopeFromContext(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "", NamespaceFromContext(context.Background()))
}
