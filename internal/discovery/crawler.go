// Package discovery implements the discovery crawler (C4): a periodic BFS
// crawl of seed URLs that ingests plugin self-descriptions and ages out
// plugins that stop responding, grounded on the original's
// tasks/plugin_discovery.go (discover_plugins_from_seeds) and
// tasks/plugin_purge.go (purge_plugins).
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/qhana/plugin-registry/internal/jobs"
	"github.com/qhana/plugin-registry/internal/store"
	"gorm.io/gorm"
)

// newJobID generates a fresh job id for enqueued discovery tasks.
func newJobID() string { return uuid.NewString() }

// MaxDepth is the crawl cycle guard from spec §4.4 step 1.
const MaxDepth = 3

// pluginSignatureKeys is the key set that, if a superset is present on the
// fetched JSON document, marks it as a plugin resource rather than a
// plugin-runner index, per spec §4.4 step 6.
var pluginSignatureKeys = []string{"name", "version", "title", "description", "type", "tags", "entryPoint"}

// DiscoverParams is the per-seed task payload from spec §4.4: "Input:
// (url, root_seed, depth, delete_on_missing)". JSON-encoded into
// jobs.Job.Payload and decoded by HandleDiscover.
type DiscoverParams struct {
	URL             string `json:"url"`
	RootSeedID      uint   `json:"rootSeedId"`
	Depth           int    `json:"depth"`
	DeleteOnMissing bool   `json:"deleteOnMissing"`
}

// dataInputEntry mirrors the self-description's entryPoint.dataInput shape.
type dataInputEntry struct {
	Parameter   string   `json:"parameter"`
	DataType    string   `json:"dataType"`
	ContentType []string `json:"contentType"`
	Required    bool     `json:"required"`
}

// dataOutputEntry mirrors the self-description's entryPoint.dataOutput shape.
type dataOutputEntry struct {
	Name        string   `json:"name"`
	DataType    string   `json:"dataType"`
	ContentType []string `json:"contentType"`
	Required    bool     `json:"required"`
}

// dependencyEntry mirrors entryPoint.pluginDependencies; tags prefixed with
// '!' become forbidden tags on the owned Dependency row (spec §4.4 step 6).
type dependencyEntry struct {
	Parameter string   `json:"parameter"`
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Type      string   `json:"type"`
	Tags      []string `json:"tags"`
	Required  bool     `json:"required"`
}

type entryPoint struct {
	Href               string            `json:"href"`
	UIHref             string            `json:"uiHref"`
	DataInput          []dataInputEntry  `json:"dataInput"`
	DataOutput         []dataOutputEntry `json:"dataOutput"`
	PluginDependencies []dependencyEntry `json:"pluginDependencies"`
}

// pluginResource is the ingested plugin self-description shape from spec §6.
type pluginResource struct {
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	Tags        []string   `json:"tags"`
	EntryPoint  entryPoint `json:"entryPoint"`
}

// runnerResource is a plugin-runner index: {"plugins": [{"apiRoot": "..."}]}.
type runnerResource struct {
	Plugins []struct {
		APIRoot string `json:"apiRoot"`
	} `json:"plugins"`
}

// HTTPDoer is the minimal client surface the crawler needs, satisfied by
// *http.Client; lets tests substitute a fake transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// OnPluginUpserted is called after a plugin row is created or refreshed,
// used by the caller to schedule C5's update_plugin_lists (the crawler
// resolves dependencies itself), per spec §4.4 step 6 ("if newly created, schedule C5's
// update_plugin_lists").
type OnPluginUpserted func(pluginID uint, created bool)

// Crawler runs per-seed discovery tasks, grounded structurally on the
// teacher's worker-pool generalized from "refresh job per plugin" to
// "discovery job per seed".
type Crawler struct {
	store       *store.Store
	jobs        *jobs.Store
	http        HTTPDoer
	rewrites    *RewriteRules
	logger      *slog.Logger
	onUpserted  OnPluginUpserted
	httpTimeout time.Duration
}

// New creates a Crawler. httpTimeout is the per-request timeout from spec
// §4.4 step 2 (~5s) and §5 ("crawler tasks use per-request HTTP timeouts
// (<=10s)").
func New(st *store.Store, jobStore *jobs.Store, client HTTPDoer, rewrites *RewriteRules, onUpserted OnPluginUpserted, httpTimeout time.Duration, logger *slog.Logger) *Crawler {
	if client == nil {
		client = &http.Client{}
	}
	if httpTimeout <= 0 {
		httpTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{store: st, jobs: jobStore, http: client, rewrites: rewrites, onUpserted: onUpserted, httpTimeout: httpTimeout, logger: logger}
}

// EnqueueSeedTick reads every seed from the store and enqueues a root
// discovery job per seed (depth 0, delete_on_missing true), spec §4.4 step
// 1-2, without batching; the periodic Scheduler enqueues in staggered
// batches instead, this is the direct path for one-shot reconciles.
func (c *Crawler) EnqueueSeedTick(ctx context.Context) (int, error) {
	seeds, err := c.store.ListSeeds()
	if err != nil {
		return 0, fmt.Errorf("list seeds: %w", err)
	}

	enqueued := 0
	for _, seed := range seeds {
		params := DiscoverParams{URL: seed.URL, RootSeedID: seed.ID, Depth: 0, DeleteOnMissing: true}
		payload, err := json.Marshal(params)
		if err != nil {
			return enqueued, fmt.Errorf("marshal discover params: %w", err)
		}
		if _, err := c.jobs.Enqueue(&jobs.Job{
			ID:             newJobID(),
			Kind:           jobs.KindDiscoverSeed,
			Payload:        string(payload),
			RequestedBy:    "discovery-scheduler",
			RequestedAt:    time.Now(),
			IdempotencyKey: "discover:" + seed.URL,
		}); err != nil {
			c.logger.Error("failed to enqueue seed discovery", "seedID", seed.ID, "error", err)
			continue
		}
		enqueued++
	}
	return enqueued, nil
}

// HandleDiscover is the jobs.Handler registered for jobs.KindDiscoverSeed; it
// decodes the payload and runs the per-seed crawl step described by spec
// §4.4.
func (c *Crawler) HandleDiscover(ctx context.Context, payload string) error {
	var params DiscoverParams
	if err := json.Unmarshal([]byte(payload), &params); err != nil {
		return fmt.Errorf("decode discover params: %w", err)
	}
	return c.crawlOne(ctx, params)
}

func (c *Crawler) crawlOne(ctx context.Context, p DiscoverParams) error {
	if p.Depth > MaxDepth {
		c.logger.Error("discovery cycle guard tripped", "url", p.URL, "depth", p.Depth)
		return nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.httpTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.URL, nil)
	if err != nil {
		c.logger.Error("failed to build discovery request", "url", p.URL, "error", err)
		return nil
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Connection error (spec §4.4 step 3): timeouts, DNS failures,
		// refused connections all land here.
		var netErr net.Error
		isNet := errors.As(err, &netErr)
		c.logger.Info("discovery request failed", "url", p.URL, "error", err, "network", isNet)
		if p.DeleteOnMissing {
			if delErr := c.store.DeletePluginByURL(p.URL); delErr != nil {
				c.logger.Error("failed to delete plugin on connection error", "url", p.URL, "error", delErr)
			}
		}
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// spec §4.4 step 4.
		if p.DeleteOnMissing {
			if delErr := c.store.DeletePluginByURL(p.URL); delErr != nil {
				c.logger.Error("failed to delete plugin on 404", "url", p.URL, "error", delErr)
			}
		}
		return nil
	}

	if resp.StatusCode >= 300 {
		// spec §4.4 step 5: other HTTP error, log and return.
		c.logger.Error("discovery request returned error status", "url", p.URL, "status", resp.StatusCode)
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.logger.Error("discovery response is not valid json", "url", p.URL, "error", err)
		return nil
	}

	if isPluginResource(raw) {
		return c.ingestPlugin(p, raw)
	}
	return c.crawlRunner(ctx, p, raw)
}

// isPluginResource reports whether raw's keys are a superset of
// pluginSignatureKeys, spec §4.4 step 6.
func isPluginResource(raw map[string]json.RawMessage) bool {
	for _, key := range pluginSignatureKeys {
		if _, ok := raw[key]; !ok {
			return false
		}
	}
	return true
}

func (c *Crawler) ingestPlugin(p DiscoverParams, raw map[string]json.RawMessage) error {
	var resource pluginResource
	blob, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("remarshal plugin resource: %w", err)
	}
	if err := json.Unmarshal(blob, &resource); err != nil {
		c.logger.Error("failed to decode plugin resource", "url", p.URL, "error", err)
		return nil
	}

	entryURL := c.rewrites.Apply(resource.EntryPoint.Href)
	uiURL := c.rewrites.Apply(resource.EntryPoint.UIHref)
	rootURL := c.rewrites.Apply(p.URL)

	schemaBlob, _ := json.Marshal(resource.EntryPoint)

	now := time.Now()
	plugin := &store.Plugin{
		Identifier:  resource.Name,
		Version:     resource.Version,
		Title:       resource.Title,
		Description: resource.Description,
		Type:        resource.Type,
		RootURL:     rootURL,
		EntryURL:    entryURL,
		UIURL:       uiURL,
		Schema:      string(schemaBlob),
	}
	if p.RootSeedID != 0 {
		seedID := p.RootSeedID
		plugin.SeedID = &seedID
	}

	tags, err := c.store.GetOrCreateTags(resource.Tags)
	if err != nil {
		return fmt.Errorf("resolve plugin tags: %w", err)
	}

	upserted, created, err := c.store.UpsertPlugin(plugin, now)
	if err != nil {
		return fmt.Errorf("upsert plugin %s@%s: %w", resource.Name, resource.Version, err)
	}

	if err := c.store.DB().Model(upserted).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("set plugin tags: %w", err)
	}

	if created {
		if err := c.replaceIOAndDependencies(upserted.ID, resource.EntryPoint); err != nil {
			return fmt.Errorf("populate io/dependencies for plugin %d: %w", upserted.ID, err)
		}
	} else {
		// Rediscovery: the dependency rows are stable but their best match
		// may have changed as other plugins came and went.
		var deps []store.Dependency
		if err := c.store.DB().Preload("Tags.Tag").Where("plugin_id = ?", upserted.ID).Find(&deps).Error; err == nil {
			for i := range deps {
				if err := store.ResolveDependency(c.store.DB(), c.logger, &deps[i]); err != nil {
					c.logger.Error("failed to re-resolve dependency", "dependencyID", deps[i].ID, "error", err)
				}
			}
		}
	}

	c.logger.Info("ingested plugin", "pluginID", upserted.ID, "identifier", upserted.Identifier,
		"version", upserted.Version, "created", created)

	if c.onUpserted != nil {
		c.onUpserted(upserted.ID, created)
	}
	return nil
}

// replaceIOAndDependencies prepares IOData (consumed/produced), their
// ContentType children, and Dependencies for a newly created plugin, per
// spec §4.4 step 6.
func (c *Crawler) replaceIOAndDependencies(pluginID uint, ep entryPoint) error {
	db := c.store.DB()

	for _, in := range ep.DataInput {
		dtStart, dtEnd := splitDataType(in.DataType)
		io := store.IOData{
			PluginID:      pluginID,
			Identifier:    in.Parameter,
			Required:      in.Required,
			Relation:      store.RelationConsumed,
			DataTypeStart: dtStart,
			DataTypeEnd:   dtEnd,
		}
		for _, ct := range in.ContentType {
			ctStart, ctEnd := splitDataType(ct)
			io.ContentTypes = append(io.ContentTypes, store.ContentType{ContentTypeStart: ctStart, ContentTypeEnd: ctEnd})
		}
		if err := db.Create(&io).Error; err != nil {
			return fmt.Errorf("create consumed io data: %w", err)
		}
	}

	for _, out := range ep.DataOutput {
		dtStart, dtEnd := splitDataType(out.DataType)
		io := store.IOData{
			PluginID:      pluginID,
			Identifier:    out.Name,
			Required:      out.Required,
			Relation:      store.RelationProduced,
			DataTypeStart: dtStart,
			DataTypeEnd:   dtEnd,
		}
		for _, ct := range out.ContentType {
			ctStart, ctEnd := splitDataType(ct)
			io.ContentTypes = append(io.ContentTypes, store.ContentType{ContentTypeStart: ctStart, ContentTypeEnd: ctEnd})
		}
		if err := db.Create(&io).Error; err != nil {
			return fmt.Errorf("create produced io data: %w", err)
		}
	}

	for _, dep := range ep.PluginDependencies {
		var required, forbidden []string
		for _, t := range dep.Tags {
			if len(t) > 0 && t[0] == '!' {
				forbidden = append(forbidden, t[1:])
			} else {
				required = append(required, t)
			}
		}

		row := store.Dependency{
			PluginID:         pluginID,
			Required:         dep.Required,
			Parameter:        dep.Parameter,
			TargetIdentifier: dep.Name,
			TargetVersion:    dep.Version,
			TargetType:       dep.Type,
		}
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("create dependency: %w", err)
		}

		if err := attachDependencyTags(db, c.store, &row, required, false); err != nil {
			return err
		}
		if err := attachDependencyTags(db, c.store, &row, forbidden, true); err != nil {
			return err
		}

		if err := store.ResolveDependency(db, c.logger, &row); err != nil {
			return fmt.Errorf("resolve dependency %d: %w", row.ID, err)
		}
	}

	return nil
}

func attachDependencyTags(db *gorm.DB, st *store.Store, dep *store.Dependency, names []string, excluded bool) error {
	for _, name := range names {
		tag, err := st.GetOrCreateTag(name)
		if err != nil {
			return fmt.Errorf("resolve dependency tag %q: %w", name, err)
		}
		row := store.DependencyTag{DependencyID: dep.ID, TagID: tag.ID, Excluded: excluded}
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("attach dependency tag %q: %w", name, err)
		}
	}
	return nil
}

func splitDataType(s string) (string, string) {
	if s == "" {
		return "*", "*"
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			start, end := s[:i], s[i+1:]
			if start == "" {
				start = "*"
			}
			if end == "" {
				end = "*"
			}
			return start, end
		}
	}
	return s, "*"
}

func (c *Crawler) crawlRunner(ctx context.Context, p DiscoverParams, raw map[string]json.RawMessage) error {
	pluginsURL := trimTrailingSlash(p.URL) + "/plugins"

	reqCtx, cancel := context.WithTimeout(ctx, c.httpTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pluginsURL, nil)
	if err != nil {
		c.logger.Error("failed to build runner request", "url", pluginsURL, "error", err)
		return nil
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Info("runner request failed", "url", pluginsURL, "error", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		c.logger.Error("runner request returned error status", "url", pluginsURL, "status", resp.StatusCode)
		return nil
	}

	var runner runnerResource
	if err := json.NewDecoder(resp.Body).Decode(&runner); err != nil {
		c.logger.Error("runner response is not valid json", "url", pluginsURL, "error", err)
		return nil
	}

	// Sub-discovery tasks are enqueued in runner-returned order, per spec §5
	// ("within a seed, sub-discovery tasks are enqueued in the order returned
	// by the runner").
	for _, entry := range runner.Plugins {
		childParams := DiscoverParams{URL: entry.APIRoot, RootSeedID: p.RootSeedID, Depth: p.Depth + 1, DeleteOnMissing: p.DeleteOnMissing}
		payload, err := json.Marshal(childParams)
		if err != nil {
			return fmt.Errorf("marshal child discover params: %w", err)
		}
		if _, err := c.jobs.Enqueue(&jobs.Job{
			ID:             newJobID(),
			Kind:           jobs.KindDiscoverSeed,
			Payload:        string(payload),
			RequestedBy:    "discovery-runner",
			RequestedAt:    time.Now(),
			IdempotencyKey: "discover:" + entry.APIRoot,
		}); err != nil {
			c.logger.Error("failed to enqueue child discovery", "url", entry.APIRoot, "error", err)
		}
	}
	return nil
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
