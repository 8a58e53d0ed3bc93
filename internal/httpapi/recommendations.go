package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/qhana/plugin-registry/internal/hypermedia"
	"github.com/qhana/plugin-registry/internal/recommend"
)

// recommendationContextFromQuery translates spec §6's recommendation query
// args (plugin-id, experiment, step, data-type, content-type, data-name)
// into a recommend.Context. data-type/content-type/data-name are positional
// lists: the i-th values of each together describe one current-data item.
func recommendationContextFromQuery(q url.Values) *recommend.Context {
	rc := &recommend.Context{}

	if pidRaw := q.Get("plugin-id"); pidRaw != "" {
		if n, err := strconv.ParseUint(pidRaw, 10, 64); err == nil {
			id := uint(n)
			rc.CurrentPlugin = &id
		}
	}

	rc.Experiment = q.Get("experiment")
	if stepRaw := q.Get("step"); stepRaw != "" {
		if n, err := strconv.Atoi(stepRaw); err == nil {
			rc.CurrentStep = &n
		}
	}

	dataTypes := q["data-type"]
	contentTypes := q["content-type"]
	dataNames := q["data-name"]
	for i, dt := range dataTypes {
		item := recommend.DataItem{DataType: dt}
		if i < len(contentTypes) {
			item.ContentType = contentTypes[i]
		}
		if i < len(dataNames) {
			item.Name = dataNames[i]
		}
		rc.CurrentData = append(rc.CurrentData, item)
	}

	// Without an experiment to fetch a data summary from, the caller's
	// current data is all the data known to exist; fold it into
	// available_data so the admissibility filter judges requirements
	// against it rather than against an empty world.
	if len(rc.CurrentData) > 0 {
		rc.AvailableData = map[string][]string{}
		for _, item := range rc.CurrentData {
			rc.AvailableData[item.DataType] = append(rc.AvailableData[item.DataType], item.ContentType)
		}
	}

	return rc
}

// recommendations handles GET /recommendations/: gathers context (fanning
// out to the configured backend when an experiment is given), runs the voter
// ensemble bounded by the timeout, and renders the ranked, admissible
// results with each recommended plugin's response embedded.
func (h *handlers) recommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	timeout := h.deps.RecommendationTimeout
	if timeout <= 0 {
		timeout = recommend.DefaultTimeout
	}
	if timeoutRaw := q.Get("timeout"); timeoutRaw != "" {
		secs, err := strconv.ParseFloat(timeoutRaw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid timeout")
			return
		}
		timeout = recommend.ClampTimeout(time.Duration(secs * float64(time.Second)))
	}

	limit := h.deps.RecommendationLimit
	if limit <= 0 {
		limit = recommend.DefaultLimit
	}
	if limitRaw := q.Get("limit"); limitRaw != "" {
		n, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = recommend.ClampLimit(n)
	}

	rc := recommendationContextFromQuery(q)

	gatherCtx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	if err := recommend.GatherContext(gatherCtx, h.deps.Store, h.deps.Backend, rc, h.deps.Logger); err != nil {
		// Enrichment failure degrades to the caller-provided context, per
		// spec §7 #5: timeouts/partial fetches never surface as errors.
		h.deps.Logger.Info("context gathering failed, using caller context only", "error", err)
	}

	results, err := h.deps.Recommender.Recommend(r.Context(), rc, timeout, limit)
	if err != nil {
		h.deps.Logger.Error("recommendation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	entries := make([]hypermedia.RecommendationEntry, 0, len(results))
	var embedded []hypermedia.ApiResponse
	for _, res := range results {
		p, err := h.deps.Store.GetPlugin(res.PluginID)
		if err != nil {
			// Raced with a purge; skip the vanished plugin.
			continue
		}
		link, err := h.deps.Registry.BuildLink(hypermedia.ResourcePlugin, hypermedia.RelSelf, p, nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		entries = append(entries, hypermedia.RecommendationEntry{Plugin: link, Score: res.Score})

		if resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourcePlugin, p, nil); err == nil {
			embedded = append(embedded, resp)
		}
	}

	resp, err := h.deps.Registry.BuildResponse(hypermedia.ResourceRecommendation, entries, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	resp.Embedded = embedded
	writeJSON(w, http.StatusOK, resp)
}
