package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/qhana/plugin-registry/internal/hypermedia"
	"github.com/qhana/plugin-registry/internal/store"
)

type templateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// listTemplates handles GET /templates/.
func (h *handlers) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.deps.Store.ListTemplates()
	if err != nil {
		h.deps.Logger.Error("list templates", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]hypermedia.ApiLink, 0, len(templates))
	for i := range templates {
		link, err := h.deps.Registry.BuildLink(hypermedia.ResourceTemplate, hypermedia.RelSelf, &templates[i], nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		items = append(items, link)
	}

	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceTemplateList, hypermedia.RelSelf, nil, nil)
	writeJSON(w, http.StatusOK, hypermedia.BuildCollectionResponse(self, len(templates), items))
}

// createTemplate handles POST /templates/.
func (h *handlers) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	tags, err := h.deps.Store.GetOrCreateTags(req.Tags)
	if err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	template := &store.Template{Name: req.Name, Description: req.Description, Tags: tags}
	if _, err := h.deps.Store.CreateTemplate(template); err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourceTemplate, template, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceTemplate, hypermedia.RelSelf, template, nil)
	writeJSON(w, http.StatusCreated, hypermedia.NewCreatedResponse(self, resp))
}

// getTemplate handles GET /templates/{id}/.
func (h *handlers) getTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "templateID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}
	template, err := h.deps.Store.GetTemplate(uint(id))
	if err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}
	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourceTemplate, template, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// updateTemplate handles PUT /templates/{id}/.
func (h *handlers) updateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "templateID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	template, err := h.deps.Store.GetTemplate(uint(id))
	if err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	tags, err := h.deps.Store.GetOrCreateTags(req.Tags)
	if err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	template.Name = req.Name
	template.Description = req.Description
	template.Tags = tags
	if err := h.deps.Store.UpdateTemplate(template); err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourceTemplate, template, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceTemplate, hypermedia.RelSelf, template, nil)
	writeJSON(w, http.StatusOK, hypermedia.NewChangedResponse(self, resp))
}

// deleteTemplate handles DELETE /templates/{id}/. Tabs cascade with the
// template; tags are shared and survive (spec §3).
func (h *handlers) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "templateID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}
	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceTemplate, hypermedia.RelSelf, &store.Template{ID: uint(id)}, nil)

	if err := h.deps.Store.DeleteTemplate(uint(id)); err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	redirect, _ := h.deps.Registry.BuildLink(hypermedia.ResourceTemplateList, hypermedia.RelSelf, nil, nil)
	writeJSON(w, http.StatusOK, hypermedia.NewDeletedResponse(self, &redirect))
}
