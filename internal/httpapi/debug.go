package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/qhana/plugin-registry/pkg/audit"
)

// mountDebugRoutes mounts the diagnostics sub-router: a listing of the
// registered hypermedia resource types and recommendation voters, useful
// when wiring a new resource or voter and for operational spot checks.
// Mounted only when the deployment enables it.
func (h *handlers) mountDebugRoutes(r chi.Router) {
	r.Route("/debug", func(dbg chi.Router) {
		dbg.Get("/resources", h.debugResources)
		dbg.Get("/voters", h.debugVoters)
		dbg.Get("/jobs/{jobID}", h.debugJob)
		if h.deps.AuditStore != nil {
			dbg.Mount("/audit", audit.Router(h.deps.AuditStore))
		}
	})
}

func (h *handlers) debugResources(w http.ResponseWriter, r *http.Request) {
	types := h.deps.Registry.ResourceTypes()
	names := make([]string, 0, len(types))
	for _, rt := range types {
		names = append(names, string(rt))
	}
	writeJSON(w, http.StatusOK, map[string]any{"resourceTypes": names})
}

func (h *handlers) debugVoters(w http.ResponseWriter, r *http.Request) {
	var names []string
	if h.deps.VoterRegistry != nil {
		for _, v := range h.deps.VoterRegistry.Voters() {
			names = append(names, v.Name())
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"voters": names})
}

func (h *handlers) debugJob(w http.ResponseWriter, r *http.Request) {
	if h.deps.Jobs == nil {
		writeError(w, http.StatusNotFound, "job queue not configured")
		return
	}
	job, err := h.deps.Jobs.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}
