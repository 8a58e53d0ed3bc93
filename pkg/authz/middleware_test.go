package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type denyAll struct{}

func (denyAll) Authorize(_ context.Context, _ Request) (bool, error) { return false, nil }

type recordingAuthorizer struct {
	last Request
}

func (a *recordingAuthorizer) Authorize(_ context.Context, req Request) (bool, error) {
	a.last = req
	return true, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareAllowsWithNoop(t *testing.T) {
	h := Middleware(&NoopAuthorizer{}, "")(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/plugins/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareDenies(t *testing.T) {
	h := Middleware(denyAll{}, "")(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("DELETE", "/seeds/3/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddlewareMapsResourceAndVerb(t *testing.T) {
	rec := &recordingAuthorizer{}
	h := Middleware(rec, "")(okHandler())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/templates/", nil))
	assert.Equal(t, ResourceTemplates, rec.last.Resource)
	assert.Equal(t, VerbCreate, rec.last.Verb)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/plugins/", nil))
	assert.Equal(t, ResourcePlugins, rec.last.Resource)
	assert.Equal(t, VerbList, rec.last.Verb)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/plugins/7/", nil))
	assert.Equal(t, VerbGet, rec.last.Verb)
}

func TestMiddlewarePassesUnknownSegments(t *testing.T) {
	h := Middleware(denyAll{}, "")(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
