package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/qhana/plugin-registry/internal/hypermedia"
	"github.com/qhana/plugin-registry/internal/store"
)

// listSeeds handles GET /seeds/.
func (h *handlers) listSeeds(w http.ResponseWriter, r *http.Request) {
	seeds, err := h.deps.Store.ListSeeds()
	if err != nil {
		h.deps.Logger.Error("list seeds", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]hypermedia.ApiLink, 0, len(seeds))
	for i := range seeds {
		link, err := h.deps.Registry.BuildLink(hypermedia.ResourceSeed, hypermedia.RelSelf, &seeds[i], nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		items = append(items, link)
	}

	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceSeedList, hypermedia.RelSelf, nil, nil)
	writeJSON(w, http.StatusOK, hypermedia.BuildCollectionResponse(self, len(seeds), items))
}

type createSeedRequest struct {
	URL string `json:"url"`
}

// createSeed handles POST /seeds/, a new root for the discovery crawler
// (spec §3's Seed type, §6's /seeds/ resource).
func (h *handlers) createSeed(w http.ResponseWriter, r *http.Request) {
	var req createSeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	seed, err := h.deps.Store.CreateSeed(req.URL)
	if err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourceSeed, seed, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceSeed, hypermedia.RelSelf, seed, nil)
	writeJSON(w, http.StatusCreated, hypermedia.NewCreatedResponse(self, resp))
}

// getSeed handles GET /seeds/{seedID}/.
func (h *handlers) getSeed(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "seedID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid seed id")
		return
	}
	seed, err := h.deps.Store.GetSeed(uint(id))
	if err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}
	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourceSeed, seed, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// deleteSeed handles DELETE /seeds/{seedID}/.
func (h *handlers) deleteSeed(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "seedID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid seed id")
		return
	}
	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceSeed, hypermedia.RelSelf, &store.Seed{ID: uint(id)}, nil)

	if err := h.deps.Store.DeleteSeed(uint(id)); err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	redirect, _ := h.deps.Registry.BuildLink(hypermedia.ResourceSeedList, hypermedia.RelSelf, nil, nil)
	writeJSON(w, http.StatusOK, hypermedia.NewDeletedResponse(self, &redirect))
}
