package tenancy

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleScopeResolverAlwaysDefault(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/plugins/", nil)
	sc, err := SingleScopeResolver{}.Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, "default", sc.Namespace)
}

func TestNamespaceScopeResolverQueryParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/plugins/?namespace=team-a", nil)
	sc, err := NamespaceScopeResolver{}.Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, "team-a", sc.Namespace)
}

func TestNamespaceScopeResolverHeaderFallback(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/plugins/", nil)
	r.Header.Set(NamespaceHeader, "team-b")
	sc, err := NamespaceScopeResolver{}.Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, "team-b", sc.Namespace)
}

func TestNamespaceScopeResolverMissing(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/plugins/", nil)
	_, err := NamespaceScopeResolver{}.Resolve(r)
	assert.Error(t, err)
}

func TestNamespaceScopeResolverRejectsInvalid(t *testing.T) {
	for _, ns := range []string{"Team-A", "-leading", "trailing-", "has_underscore"} {
		r := httptest.NewRequest("GET", "/api/plugins/?namespace="+ns, nil)
		_, err := NamespaceScopeResolver{}.Resolve(r)
		assert.Error(t, err, "namespace %q should be rejected", ns)
	}
}
