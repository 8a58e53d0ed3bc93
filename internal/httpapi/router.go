package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/qhana/plugin-registry/internal/discovery"
	"github.com/qhana/plugin-registry/internal/hypermedia"
	"github.com/qhana/plugin-registry/internal/jobs"
	"github.com/qhana/plugin-registry/internal/materializer"
	"github.com/qhana/plugin-registry/internal/recommend"
	"github.com/qhana/plugin-registry/internal/store"
	"github.com/qhana/plugin-registry/pkg/audit"
	"github.com/qhana/plugin-registry/pkg/authz"
	"github.com/qhana/plugin-registry/pkg/cache"
	"github.com/qhana/plugin-registry/pkg/tenancy"
)

// Deps bundles everything the router needs to build handlers, one field per
// core component (C1-C7) plus the ambient infrastructure they're wired to.
type Deps struct {
	Store         *store.Store
	Jobs          *jobs.Store
	Crawler       *discovery.Crawler
	Materializer  *materializer.Materializer
	Recommender   *recommend.Engine
	VoterRegistry *recommend.Registry
	Backend       recommend.BackendClient
	Registry      *hypermedia.Registry

	AuditStore  *audit.Store
	AuditConfig *audit.AuditConfig
	CacheMgr    *cache.CacheManager
	Authorizer  authz.Authorizer
	TenancyMode tenancy.TenancyMode

	RecommendationTimeout time.Duration
	RecommendationLimit   int

	BasePrefix  string // default "/api"
	DebugRoutes bool
	Logger      *slog.Logger
}

// NewRouter builds the full chi.Router for the registry's HTTP surface per
// spec §6's resource table, grounded on pkg/catalog/plugin/server.go's
// MountRoutes.
func NewRouter(d *Deps) chi.Router {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.BasePrefix == "" {
		d.BasePrefix = "/api"
	}

	h := &handlers{deps: d}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if d.AuditStore != nil {
		r.Use(audit.Middleware(d.AuditStore, d.AuditConfig, d.Logger))
	}

	r.Get("/healthz", h.health)
	r.Get("/readyz", h.ready)

	r.Route(d.BasePrefix, func(api chi.Router) {
		api.Use(tenancy.NewMiddleware(d.TenancyMode))
		if d.Authorizer != nil {
			api.Use(authz.Middleware(d.Authorizer, d.BasePrefix))
		}
		if d.CacheMgr != nil {
			api.Use(d.CacheMgr.DiscoveryMiddleware())
		}

		api.Get("/", h.root)

		api.Route("/plugins", func(rt chi.Router) {
			rt.Get("/", h.listPlugins)
			rt.Post("/", h.triggerDiscovery)
			rt.Get("/{pluginID}/", h.getPlugin)
		})

		api.Route("/seeds", func(rt chi.Router) {
			rt.Get("/", h.listSeeds)
			rt.Post("/", h.createSeed)
			rt.Get("/{seedID}/", h.getSeed)
			rt.Delete("/{seedID}/", h.deleteSeed)
		})

		api.Route("/services", func(rt chi.Router) {
			rt.Get("/", h.listServices)
			rt.Post("/", h.createService)
			rt.Get("/{serviceID}/", h.getService)
			rt.Delete("/{serviceID}/", h.deleteService)
		})

		api.Route("/env", func(rt chi.Router) {
			rt.Get("/", h.listEnv)
			rt.Post("/", h.createEnv)
			rt.Get("/{envName}/", h.getEnv)
			rt.Put("/{envName}/", h.putEnv)
			rt.Delete("/{envName}/", h.deleteEnv)
		})

		api.Route("/templates", func(rt chi.Router) {
			rt.Get("/", h.listTemplates)
			rt.Post("/", h.createTemplate)
			rt.Get("/{templateID}/", h.getTemplate)
			rt.Put("/{templateID}/", h.updateTemplate)
			rt.Delete("/{templateID}/", h.deleteTemplate)

			rt.Route("/{templateID}/tabs", func(tabs chi.Router) {
				tabs.Get("/", h.listTabs)
				tabs.Post("/", h.createTab)
				tabs.Get("/{tabID}/", h.getTab)
				tabs.Put("/{tabID}/", h.updateTab)
				tabs.Delete("/{tabID}/", h.deleteTab)
			})
		})

		api.Get("/recommendations/", h.recommendations)
	})

	if d.DebugRoutes {
		h.mountDebugRoutes(r)
	}

	return r
}

type handlers struct {
	deps *Deps
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) ready(w http.ResponseWriter, r *http.Request) {
	if h.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *handlers) root(w http.ResponseWriter, r *http.Request) {
	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourceRoot, nil, nil)
	if err != nil {
		h.deps.Logger.Error("build root response", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
