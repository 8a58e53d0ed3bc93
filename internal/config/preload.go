package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/qhana/plugin-registry/internal/store"
)

// Preload applies the configuration's startup state to the catalog: Env
// entries from CURRENT_ENV, seed URLs from INITIAL_PLUGIN_SEEDS (only when
// the seed table is empty), service records from PRECONFIGURED_SERVICES,
// and UI templates from UI_TEMPLATE_PATHS. Each section is independent; a
// failure in one is logged and the others still run.
func Preload(cfg *Config, st *store.Store, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	for name, value := range cfg.CurrentEnv {
		if _, err := st.UpsertEnv(name, value); err != nil {
			logger.Error("preload env entry failed", "name", name, "error", err)
		}
	}

	if len(cfg.InitialPluginSeeds) > 0 {
		seeds, err := st.ListSeeds()
		if err != nil {
			logger.Error("preload seeds: list failed", "error", err)
		} else if len(seeds) == 0 {
			for _, url := range cfg.InitialPluginSeeds {
				if _, err := st.CreateSeed(url); err != nil {
					logger.Error("preload seed failed", "url", url, "error", err)
				}
			}
		}
	}

	for _, svc := range cfg.PreconfiguredServices {
		if _, err := st.GetServiceByServiceID(svc.ServiceID); err == nil {
			continue
		}
		if _, err := st.CreateService(&store.Service{
			ServiceID:   svc.ServiceID,
			URL:         svc.URL,
			Name:        svc.Name,
			Description: svc.Description,
		}); err != nil {
			logger.Error("preload service failed", "serviceID", svc.ServiceID, "error", err)
		}
	}

	for _, path := range cfg.UITemplatePaths {
		if err := LoadUITemplates(path, st, logger); err != nil {
			logger.Error("preload ui templates failed", "path", path, "error", err)
		}
	}
}

// templateFile is the JSON shape of a UI template definition file.
type templateFile struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Tabs        []struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		SortKey      int    `json:"sortKey"`
		Location     string `json:"location"`
		Icon         string `json:"icon"`
		GroupKey     string `json:"groupKey"`
		FilterString string `json:"filterString"`
	} `json:"tabs"`
}

// LoadUITemplates loads JSON template definitions from a file or folder and
// upserts them by template name. Returns the first I/O error; individual
// malformed files inside a folder are logged and skipped.
func LoadUITemplates(path string, st *store.Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat template path: %w", err)
	}

	if !info.IsDir() {
		return loadTemplateFile(path, st)
	}

	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".json") {
			return nil
		}
		if err := loadTemplateFile(p, st); err != nil {
			logger.Error("skipping malformed template file", "path", p, "error", err)
		}
		return nil
	})
}

func loadTemplateFile(path string, st *store.Store) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template file: %w", err)
	}

	var tf templateFile
	if err := json.Unmarshal(blob, &tf); err != nil {
		return fmt.Errorf("decode template file %s: %w", path, err)
	}
	if tf.Name == "" {
		return fmt.Errorf("template file %s has no name", path)
	}

	tags, err := st.GetOrCreateTags(tf.Tags)
	if err != nil {
		return fmt.Errorf("resolve template tags: %w", err)
	}

	// Lookup by name: template names are assumed unique for lookups (spec
	// §3), and preload treats a re-run as an upsert of the same template.
	var existing store.Template
	lookupErr := st.DB().Where("name = ?", tf.Name).First(&existing).Error

	template := &existing
	if lookupErr != nil {
		template = &store.Template{Name: tf.Name}
		if _, err := st.CreateTemplate(template); err != nil {
			return fmt.Errorf("create template %s: %w", tf.Name, err)
		}
	}
	template.Description = tf.Description
	template.Tags = tags
	if err := st.UpdateTemplate(template); err != nil {
		return fmt.Errorf("update template %s: %w", tf.Name, err)
	}

	existingTabs, err := st.ListTabsForTemplate(template.ID, "")
	if err != nil {
		return fmt.Errorf("list tabs for template %s: %w", tf.Name, err)
	}
	byName := make(map[string]*store.TemplateTab, len(existingTabs))
	for i := range existingTabs {
		byName[existingTabs[i].Name] = &existingTabs[i]
	}

	for _, tab := range tf.Tabs {
		row, ok := byName[tab.Name]
		if !ok {
			row = &store.TemplateTab{TemplateID: template.ID, Name: tab.Name}
		}
		row.Description = tab.Description
		row.SortKey = tab.SortKey
		row.Location = tab.Location
		row.Icon = tab.Icon
		row.GroupKey = tab.GroupKey
		row.FilterString = tab.FilterString

		if !ok {
			if _, err := st.CreateTab(row); err != nil {
				return fmt.Errorf("create tab %s/%s: %w", tf.Name, tab.Name, err)
			}
		} else if err := st.UpdateTab(row); err != nil {
			return fmt.Errorf("update tab %s/%s: %w", tf.Name, tab.Name, err)
		}
	}

	return nil
}
