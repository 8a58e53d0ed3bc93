package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/qhana/plugin-registry/internal/filterlang"
	"github.com/qhana/plugin-registry/internal/hypermedia"
	"github.com/qhana/plugin-registry/internal/materializer"
	"github.com/qhana/plugin-registry/internal/store"
)

type tabRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SortKey      int    `json:"sortKey"`
	Location     string `json:"location"`
	Icon         string `json:"icon"`
	GroupKey     string `json:"groupKey"`
	FilterString string `json:"filterString"`
}

// validateTabRequest enforces the filter grammar and the group-key/location
// invariant before any row is written, so a malformed filter never creates a
// tab (spec §7, testable scenario 6).
func validateTabRequest(req *tabRequest) error {
	if err := filterlang.ValidateTabInvariant(req.GroupKey, req.FilterString, req.Location); err != nil {
		return err
	}
	if req.FilterString != "" {
		return filterlang.ValidateFilterString(req.FilterString)
	}
	return nil
}

// scheduleTabMaterialization enqueues C5's apply_filter_for_tab for the tab;
// failures are logged but never fail the request, the membership set catches
// up on the next reconcile (spec §1: eventual consistency is sufficient).
func (h *handlers) scheduleTabMaterialization(tabID uint) {
	if h.deps.Jobs == nil {
		return
	}
	if err := materializer.EnqueueTab(h.deps.Jobs, tabID, "http-api"); err != nil {
		h.deps.Logger.Error("failed to schedule tab materialization", "tabID", tabID, "error", err)
	}
}

// listTabs handles GET /templates/{tid}/tabs/ with the optional ?group=
// filter from spec §6.
func (h *handlers) listTabs(w http.ResponseWriter, r *http.Request) {
	templateID, err := strconv.ParseUint(chi.URLParam(r, "templateID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}
	if _, err := h.deps.Store.GetTemplate(uint(templateID)); err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	tabs, err := h.deps.Store.ListTabsForTemplate(uint(templateID), r.URL.Query().Get("group"))
	if err != nil {
		h.deps.Logger.Error("list tabs", "templateID", templateID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]hypermedia.ApiLink, 0, len(tabs))
	for i := range tabs {
		link, err := h.deps.Registry.BuildLink(hypermedia.ResourceTemplateTab, hypermedia.RelSelf, &tabs[i], nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		items = append(items, link)
	}

	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceTemplate, hypermedia.RelSelf, &store.Template{ID: uint(templateID)}, nil)
	writeJSON(w, http.StatusOK, hypermedia.BuildCollectionResponse(self, len(tabs), items))
}

// createTab handles POST /templates/{tid}/tabs/. A successful create
// schedules C5 for the new tab.
func (h *handlers) createTab(w http.ResponseWriter, r *http.Request) {
	templateID, err := strconv.ParseUint(chi.URLParam(r, "templateID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}
	if _, err := h.deps.Store.GetTemplate(uint(templateID)); err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	var req tabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := validateTabRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tab := &store.TemplateTab{
		TemplateID:   uint(templateID),
		Name:         req.Name,
		Description:  req.Description,
		SortKey:      req.SortKey,
		Location:     req.Location,
		Icon:         req.Icon,
		GroupKey:     req.GroupKey,
		FilterString: req.FilterString,
	}
	if _, err := h.deps.Store.CreateTab(tab); err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	h.scheduleTabMaterialization(tab.ID)

	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourceTemplateTab, tab, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceTemplateTab, hypermedia.RelSelf, tab, nil)
	writeJSON(w, http.StatusCreated, hypermedia.NewCreatedResponse(self, resp))
}

// getTab handles GET /templates/{tid}/tabs/{tab}/.
func (h *handlers) getTab(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.loadTab(w, r)
	if !ok {
		return
	}
	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourceTemplateTab, tab, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// updateTab handles PUT /templates/{tid}/tabs/{tab}/. A successful update
// re-schedules C5 so the membership set follows the new filter.
func (h *handlers) updateTab(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.loadTab(w, r)
	if !ok {
		return
	}

	var req tabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := validateTabRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tab.Name = req.Name
	tab.Description = req.Description
	tab.SortKey = req.SortKey
	tab.Location = req.Location
	tab.Icon = req.Icon
	tab.GroupKey = req.GroupKey
	tab.FilterString = req.FilterString
	if err := h.deps.Store.UpdateTab(tab); err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	h.scheduleTabMaterialization(tab.ID)

	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourceTemplateTab, tab, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceTemplateTab, hypermedia.RelSelf, tab, nil)
	writeJSON(w, http.StatusOK, hypermedia.NewChangedResponse(self, resp))
}

// deleteTab handles DELETE /templates/{tid}/tabs/{tab}/.
func (h *handlers) deleteTab(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.loadTab(w, r)
	if !ok {
		return
	}
	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceTemplateTab, hypermedia.RelSelf, tab, nil)

	if err := h.deps.Store.DeleteTab(tab.ID); err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	redirect, _ := h.deps.Registry.BuildLink(hypermedia.ResourceTemplate, hypermedia.RelSelf, &store.Template{ID: tab.TemplateID}, nil)
	writeJSON(w, http.StatusOK, hypermedia.NewDeletedResponse(self, &redirect))
}

// loadTab resolves the {templateID}/{tabID} pair, writing the error response
// itself when the tab is missing or belongs to a different template.
func (h *handlers) loadTab(w http.ResponseWriter, r *http.Request) (*store.TemplateTab, bool) {
	templateID, err := strconv.ParseUint(chi.URLParam(r, "templateID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return nil, false
	}
	tabID, err := strconv.ParseUint(chi.URLParam(r, "tabID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tab id")
		return nil, false
	}
	tab, err := h.deps.Store.GetTab(uint(tabID))
	if err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return nil, false
	}
	if tab.TemplateID != uint(templateID) {
		writeError(w, http.StatusNotFound, "tab not found in template")
		return nil, false
	}
	return tab, true
}
