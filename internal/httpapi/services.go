package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/qhana/plugin-registry/internal/hypermedia"
	"github.com/qhana/plugin-registry/internal/store"
)

// listServices handles GET /services/.
func (h *handlers) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.deps.Store.ListServices()
	if err != nil {
		h.deps.Logger.Error("list services", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]hypermedia.ApiLink, 0, len(services))
	for i := range services {
		link, err := h.deps.Registry.BuildLink(hypermedia.ResourceService, hypermedia.RelSelf, &services[i], nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		items = append(items, link)
	}

	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceServiceList, hypermedia.RelSelf, nil, nil)
	writeJSON(w, http.StatusOK, hypermedia.BuildCollectionResponse(self, len(services), items))
}

type createServiceRequest struct {
	ServiceID   string `json:"serviceId"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// createService handles POST /services/, registering a named external
// service (e.g. the experiment backend, spec §3's Service type).
func (h *handlers) createService(w http.ResponseWriter, r *http.Request) {
	var req createServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.ServiceID == "" || req.URL == "" {
		writeError(w, http.StatusBadRequest, "serviceId and url are required")
		return
	}

	svc, err := h.deps.Store.CreateService(&store.Service{
		ServiceID:   req.ServiceID,
		URL:         req.URL,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourceService, svc, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceService, hypermedia.RelSelf, svc, nil)
	writeJSON(w, http.StatusCreated, hypermedia.NewCreatedResponse(self, resp))
}

// getService handles GET /services/{serviceID}/.
func (h *handlers) getService(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	svc, err := h.deps.Store.GetServiceByServiceID(serviceID)
	if err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}
	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourceService, svc, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// deleteService handles DELETE /services/{serviceID}/.
func (h *handlers) deleteService(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	svc, err := h.deps.Store.GetServiceByServiceID(serviceID)
	if err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}
	self, _ := h.deps.Registry.BuildLink(hypermedia.ResourceService, hypermedia.RelSelf, svc, nil)

	if err := h.deps.Store.DeleteService(svc.ID); err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	redirect, _ := h.deps.Registry.BuildLink(hypermedia.ResourceServiceList, hypermedia.RelSelf, nil, nil)
	writeJSON(w, http.StatusOK, hypermedia.NewDeletedResponse(self, &redirect))
}
