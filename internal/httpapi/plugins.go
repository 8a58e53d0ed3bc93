package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/qhana/plugin-registry/internal/discovery"
	"github.com/qhana/plugin-registry/internal/filterquery"
	"github.com/qhana/plugin-registry/internal/hypermedia"
	"github.com/qhana/plugin-registry/internal/jobs"
	"github.com/qhana/plugin-registry/internal/store"
	"github.com/qhana/plugin-registry/pkg/version"
)

// criteriaFromQuery translates the GET /plugins/ query string into
// filterquery.Criteria per spec §4.2's table. version, when it doesn't
// parse as a single exact PEP-440 version, is resolved into the candidate
// list of matching versions for the given identifier ("load candidate
// versions, filter on the server ... emit version IN (...)").
func (h *handlers) criteriaFromQuery(q url.Values) filterquery.Criteria {
	c := filterquery.Criteria{}

	if idsRaw := q.Get("id"); idsRaw != "" {
		for _, part := range strings.Split(idsRaw, ",") {
			if n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64); err == nil {
				c.IDs = append(c.IDs, uint(n))
			}
		}
	}

	c.URL = q.Get("url")

	if periodRaw := q.Get("last-available-period"); periodRaw != "" {
		if secs, err := strconv.Atoi(periodRaw); err == nil {
			c.LastAvailablePeriod = time.Duration(secs) * time.Second
		}
	}

	c.Identifier = q.Get("identifier")
	versionRaw := q.Get("version")
	if c.Identifier != "" && versionRaw != "" {
		if isExactVersion(versionRaw) {
			c.Version = versionRaw
		} else if spec, err := version.ParseSpecifierSet(versionRaw); err == nil {
			c.CandidateVersions = h.resolveCandidateVersions(c.Identifier, spec)
		}
	}

	if tagsRaw := q.Get("tags"); tagsRaw != "" {
		c.TagsMustHave = splitNonEmpty(tagsRaw)
	}
	if forbiddenRaw := q.Get("forbidden-tags"); forbiddenRaw != "" {
		c.TagsForbidden = splitNonEmpty(forbiddenRaw)
	}

	c.InputDataType = q.Get("input-data-type")
	c.InputContentType = q.Get("input-content-type")

	if tabRaw := q.Get("template-tab"); tabRaw != "" {
		if n, err := strconv.ParseUint(tabRaw, 10, 64); err == nil {
			c.TemplateTabID = uint(n)
		}
	}

	c.Type = q.Get("type")

	return c
}

// isExactVersion reports whether raw looks like a single PEP-440 version
// rather than a specifier-set expression (spec §4.2: "if version is a
// PEP-440-style single version, equality; else ... filter on the server").
func isExactVersion(raw string) bool {
	if strings.ContainsAny(raw, "<>=!~,") {
		return false
	}
	v, err := version.Parse(raw)
	return err == nil && v.Valid()
}

func splitNonEmpty(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// resolveCandidateVersions loads every distinct version string stored for
// identifier and keeps the ones the specifier set accepts, the server-side
// half of spec §4.2's range-version resolution.
func (h *handlers) resolveCandidateVersions(identifier string, spec *version.SpecifierSet) []string {
	var versions []string
	h.deps.Store.DB().Model(&store.Plugin{}).
		Where("identifier = ?", identifier).
		Distinct().Pluck("version", &versions)

	candidates := make([]string, 0, len(versions))
	for _, v := range versions {
		if spec.Contains(v) {
			candidates = append(candidates, v)
		}
	}
	return candidates
}

// listPlugins handles GET /plugins/: builds criteria from the query string,
// paginates by cursor, and renders a CursorPage envelope per spec §4.2/§4.7.
func (h *handlers) listPlugins(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := h.criteriaFromQuery(q)

	var cursorID uint
	if cursorRaw := q.Get("cursor"); cursorRaw != "" {
		if n, err := strconv.ParseUint(cursorRaw, 10, 64); err == nil {
			cursorID = uint(n)
		}
	}

	pageSize := filterquery.DefaultPageSize
	if itemCountRaw := q.Get("item-count"); itemCountRaw != "" {
		if n, err := strconv.Atoi(itemCountRaw); err == nil && n > 0 {
			pageSize = n
		}
	}

	result, err := filterquery.Paginate(h.deps.Store.DB(), criteria, cursorID, pageSize, filterquery.DefaultSurroundingPages, time.Now())
	if err != nil {
		h.deps.Logger.Error("paginate plugins", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]hypermedia.ApiLink, 0, len(result.Items))
	for i := range result.Items {
		link, err := h.deps.Registry.BuildLink(hypermedia.ResourcePlugin, hypermedia.RelSelf, &result.Items[i], nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		items = append(items, link)
	}

	self, _ := h.deps.Registry.BuildPageLink(hypermedia.ResourcePluginList, nil, map[string]string{
		"cursor":     q.Get("cursor"),
		"item-count": strconv.Itoa(pageSize),
	})

	nav := hypermedia.PageLinks{Numbered: map[int]hypermedia.ApiLink{}}
	nav.Last = pageAnchorLink(h.deps.Registry, result.LastPage, pageSize)
	for _, anchor := range result.SurroundingPages {
		l := pageAnchorLink(h.deps.Registry, anchor, pageSize)
		nav.Numbered[int(anchor.Page)] = *l
		if anchor.Page == result.CursorPage-1 {
			nav.Prev = l
		}
		if anchor.Page == result.CursorPage+1 {
			nav.Next = l
		}
	}
	if len(result.SurroundingPages) > 0 {
		nav.First = pageAnchorLink(h.deps.Registry, filterquery.PageAnchor{Page: 1, Row: 0, CursorID: 0}, pageSize)
	}

	resp := hypermedia.BuildPageResponse(self, int(result.CursorPage), int(result.TotalCount), items, nav)
	writeJSON(w, http.StatusOK, resp)
}

func pageAnchorLink(reg *hypermedia.Registry, anchor filterquery.PageAnchor, pageSize int) *hypermedia.ApiLink {
	l, err := reg.BuildPageLink(hypermedia.ResourcePluginList, nil, map[string]string{
		"cursor":     strconv.FormatUint(uint64(anchor.CursorID), 10),
		"item-count": strconv.Itoa(pageSize),
	})
	if err != nil {
		return nil
	}
	return &l
}

// getPlugin handles GET /plugins/{pluginID}/.
func (h *handlers) getPlugin(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "pluginID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plugin id")
		return
	}
	p, err := h.deps.Store.GetPlugin(uint(id))
	if err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}
	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourcePlugin, p, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// triggerDiscovery handles POST /plugins/?url=…: looks up the known seed by
// URL and enqueues a root discovery task for it, per spec §6: "POST ?url=…
// triggers discovery for a known-seed URL". Returns 204 per spec §7's
// "async-accepted side effects" rule.
func (h *handlers) triggerDiscovery(w http.ResponseWriter, r *http.Request) {
	targetURL := r.URL.Query().Get("url")
	if targetURL == "" {
		writeError(w, http.StatusBadRequest, "missing url query parameter")
		return
	}

	seed, err := h.deps.Store.GetSeedByURL(targetURL)
	if err != nil {
		handleStoreErr(w, h.deps.Logger, err)
		return
	}

	params := discovery.DiscoverParams{URL: targetURL, RootSeedID: seed.ID, Depth: 0, DeleteOnMissing: true}
	payload, err := json.Marshal(params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if _, err := h.deps.Jobs.Enqueue(&jobs.Job{
		ID:             uuid.NewString(),
		Kind:           jobs.KindDiscoverSeed,
		Payload:        string(payload),
		RequestedBy:    "http-api",
		RequestedAt:    time.Now(),
		IdempotencyKey: "discover:" + targetURL,
	}); err != nil {
		h.deps.Logger.Error("enqueue discovery trigger", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
