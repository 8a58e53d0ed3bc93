package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/qhana/plugin-registry/internal/hypermedia"
	"github.com/qhana/plugin-registry/internal/store"
)

// listEnv handles GET /env/.
func (h *handlers) listEnv(w http.ResponseWriter, r *http.Request) {
	envs, err := h.deps.Store.ListEnv()
	if err != nil {
		h.deps.Logger.Error("list env", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]hypermedia.ApiLink, 0, len(envs))
	for i := range envs {
		link, err := h.deps.Registry.BuildLink(hypermedia.ResourceEnv, hypermedia.RelSelf, &envs[i], nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		items = append(items, link)
	}

	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceEnvList, hypermedia.RelSelf, nil, nil)
	writeJSON(w, http.StatusOK, hypermedia.BuildCollectionResponse(self, len(envs), items))
}

type envRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// createEnv handles POST /env/. Env entries are upserted by unique name
// (spec §3's Env type).
func (h *handlers) createEnv(w http.ResponseWriter, r *http.Request) {
	var req envRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	env, err := h.deps.Store.UpsertEnv(req.Name, req.Value)
	if err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourceEnv, env, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceEnv, hypermedia.RelSelf, env, nil)
	writeJSON(w, http.StatusCreated, hypermedia.NewCreatedResponse(self, resp))
}

// getEnv handles GET /env/{name}/.
func (h *handlers) getEnv(w http.ResponseWriter, r *http.Request) {
	env, err := h.deps.Store.GetEnv(chi.URLParam(r, "envName"))
	if err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}
	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourceEnv, env, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// putEnv handles PUT /env/{name}/: replaces the value, creating the entry if
// absent.
func (h *handlers) putEnv(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "envName")

	var req envRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	env, err := h.deps.Store.UpsertEnv(name, req.Value)
	if err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourceEnv, env, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceEnv, hypermedia.RelSelf, env, nil)
	writeJSON(w, http.StatusOK, hypermedia.NewChangedResponse(self, resp))
}

// deleteEnv handles DELETE /env/{name}/.
func (h *handlers) deleteEnv(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "envName")
	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceEnv, hypermedia.RelSelf, &store.Env{Name: name}, nil)

	if err := h.deps.Store.DeleteEnv(name); err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	redirect, _ := h.deps.Registry.BuildLink(hypermedia.ResourceEnvList, hypermedia.RelSelf, nil, nil)
	writeJSON(w, http.StatusOK, hypermedia.NewDeletedResponse(self, &redirect))
}
