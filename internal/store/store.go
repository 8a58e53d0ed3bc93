package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned by single-entity lookups when no row matches,
// translated by internal/httpapi into a 404 per spec §7.
var ErrNotFound = errors.New("store: not found")

// ErrConflict is returned on unique-constraint violations, translated by
// internal/httpapi into a 409 per spec §7.
var ErrConflict = errors.New("store: conflict")

// Store wraps a *gorm.DB with the catalog's CRUD operations, following the
// same constructor + method-per-operation shape as pkg/jobs.JobStore.
type Store struct {
	db *gorm.DB
}

// New creates a new Store.
func New(db *gorm.DB) *Store { return &Store{db: db} }

// DB exposes the underlying *gorm.DB for packages (filterquery, filterlang)
// that need to compose additional query criteria.
func (s *Store) DB() *gorm.DB { return s.db }

// AutoMigrate creates or updates every catalog table.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&Plugin{}, &Tag{}, &IOData{}, &ContentType{}, &Dependency{}, &DependencyTag{},
		&Seed{}, &Service{}, &Env{}, &Template{}, &TemplateTab{},
	)
}

// translateErr maps GORM sentinel errors onto the store's own sentinels.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

// --- Plugin ---

// UpsertPlugin looks up a plugin by (identifier, version); creates it if
// absent, otherwise refreshes last_available and the denormalized fields,
// matching update_plugin_data's "always refresh last_available" rule.
// Returns the plugin and whether it was newly created.
func (s *Store) UpsertPlugin(p *Plugin, now time.Time) (*Plugin, bool, error) {
	p.SortVersion = DeriveSortVersion(p.Version)

	var existing Plugin
	err := s.db.Where("identifier = ? AND version = ?", p.Identifier, p.Version).First(&existing).Error
	switch {
	case err == nil:
		existing.Title = p.Title
		existing.Description = p.Description
		existing.Type = p.Type
		existing.RootURL = p.RootURL
		existing.EntryURL = p.EntryURL
		existing.UIURL = p.UIURL
		existing.Schema = p.Schema
		existing.SeedID = p.SeedID
		existing.LastAvailable = now
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, false, fmt.Errorf("update plugin: %w", translateErr(err))
		}
		return &existing, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		p.LastAvailable = now
		if err := s.db.Create(p).Error; err != nil {
			return nil, false, fmt.Errorf("create plugin: %w", translateErr(err))
		}
		return p, true, nil
	default:
		return nil, false, fmt.Errorf("lookup plugin: %w", err)
	}
}

// GetPlugin loads a plugin by id, preloading its tags, io data, and
// dependencies.
func (s *Store) GetPlugin(id uint) (*Plugin, error) {
	var p Plugin
	err := s.db.Preload("Tags").Preload("IOData.ContentTypes").Preload("Dependencies.Tags.Tag").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("get plugin: %w", translateErr(err))
	}
	return &p, nil
}

// GetPluginByIdentifierVersion finds a plugin by its exact identifier and
// version, used by the recommendation engine to resolve a processor
// (name, version) pair from step details into a plugin id.
func (s *Store) GetPluginByIdentifierVersion(identifier, version string) (*Plugin, error) {
	var p Plugin
	err := s.db.Where("identifier = ? AND version = ?", identifier, version).First(&p).Error
	if err != nil {
		return nil, fmt.Errorf("get plugin by identifier/version: %w", translateErr(err))
	}
	return &p, nil
}

// GetPluginByURL finds a plugin whose entry URL matches the given URL,
// used by the discovery crawler's delete-on-missing branches.
func (s *Store) GetPluginByURL(url string) (*Plugin, error) {
	var p Plugin
	err := s.db.Where("entry_url = ?", url).First(&p).Error
	if err != nil {
		return nil, fmt.Errorf("get plugin by url: %w", translateErr(err))
	}
	return &p, nil
}

// DeletePluginByURL deletes any plugin whose entry URL matches through
// DeletePlugin, cascading to its IOData/ContentType/Dependency rows. No-op if
// none match.
func (s *Store) DeletePluginByURL(url string) error {
	var ids []uint
	if err := s.db.Model(&Plugin{}).Where("entry_url = ?", url).Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("delete plugin by url: %w", err)
	}
	for _, id := range ids {
		if err := s.DeletePlugin(id); err != nil {
			return fmt.Errorf("delete plugin by url: %w", err)
		}
	}
	return nil
}

// DeletePlugin deletes a plugin by id, cascading to owned rows and removing
// it from every tab's materialized membership set (the many2many join row is
// removed automatically by GORM's association cleanup).
func (s *Store) DeletePlugin(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Plugin{ID: id}).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("clear plugin tags: %w", err)
		}
		if err := tx.Exec("DELETE FROM template_tab_plugins WHERE plugin_id = ?", id).Error; err != nil {
			return fmt.Errorf("clear tab membership: %w", err)
		}
		if err := tx.Exec("DELETE FROM content_types WHERE io_data_id IN (SELECT id FROM io_data WHERE plugin_id = ?)", id).Error; err != nil {
			return fmt.Errorf("delete plugin content types: %w", err)
		}
		if err := tx.Exec("DELETE FROM io_data WHERE plugin_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete plugin io data: %w", err)
		}
		if err := tx.Exec("DELETE FROM dependency_tags WHERE dependency_id IN (SELECT id FROM dependencies WHERE plugin_id = ?)", id).Error; err != nil {
			return fmt.Errorf("delete plugin dependency tags: %w", err)
		}
		if err := tx.Exec("DELETE FROM dependencies WHERE plugin_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete plugin dependencies: %w", err)
		}
		if err := tx.Delete(&Plugin{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete plugin: %w", translateErr(err))
		}
		return nil
	})
}

// MaxLastAvailable returns the maximum last_available timestamp across all
// plugins, the purge anchor from spec §4.4. Returns the zero time if the
// catalog is empty.
func (s *Store) MaxLastAvailable() (time.Time, error) {
	var max *time.Time
	if err := s.db.Model(&Plugin{}).Select("MAX(last_available)").Scan(&max).Error; err != nil {
		return time.Time{}, fmt.Errorf("max last_available: %w", err)
	}
	if max == nil {
		return time.Time{}, nil
	}
	return *max, nil
}

// DeleteStaleBefore deletes every plugin whose last_available is strictly
// before cutoff, the purge task's deletion step.
func (s *Store) DeleteStaleBefore(cutoff time.Time) (int64, error) {
	var ids []uint
	if err := s.db.Model(&Plugin{}).Where("last_available < ?", cutoff).Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("find stale plugins: %w", err)
	}
	var removed int64
	for _, id := range ids {
		if err := s.DeletePlugin(id); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// --- Tag ---

// GetOrCreateTag returns the tag with the given name, creating it if absent.
func (s *Store) GetOrCreateTag(name string) (*Tag, error) {
	var t Tag
	err := s.db.Where("name = ?", name).First(&t).Error
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup tag: %w", err)
	}
	t = Tag{Name: name}
	if err := s.db.Create(&t).Error; err != nil {
		// Race: another writer may have created it first.
		if lookupErr := s.db.Where("name = ?", name).First(&t).Error; lookupErr == nil {
			return &t, nil
		}
		return nil, fmt.Errorf("create tag: %w", translateErr(err))
	}
	return &t, nil
}

// GetOrCreateTags resolves a list of tag names in one pass.
func (s *Store) GetOrCreateTags(names []string) ([]Tag, error) {
	tags := make([]Tag, 0, len(names))
	for _, n := range names {
		t, err := s.GetOrCreateTag(n)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *t)
	}
	return tags, nil
}

// --- Seed ---

// CreateSeed inserts a new seed; returns ErrConflict if the URL already
// exists (spec §6: POST /seeds/ returns 409 if url exists).
func (s *Store) CreateSeed(url string) (*Seed, error) {
	var existing Seed
	if err := s.db.Where("url = ?", url).First(&existing).Error; err == nil {
		return nil, ErrConflict
	}
	seed := &Seed{URL: url}
	if err := s.db.Create(seed).Error; err != nil {
		return nil, fmt.Errorf("create seed: %w", translateErr(err))
	}
	return seed, nil
}

// ListSeeds returns every seed URL, used by the discovery crawler's tick.
func (s *Store) ListSeeds() ([]Seed, error) {
	var seeds []Seed
	if err := s.db.Find(&seeds).Error; err != nil {
		return nil, fmt.Errorf("list seeds: %w", err)
	}
	return seeds, nil
}

// GetSeedByURL finds a seed by its exact URL, used by the plugins
// collection's POST handler to resolve a "known-seed URL" (spec §6).
func (s *Store) GetSeedByURL(url string) (*Seed, error) {
	var seed Seed
	if err := s.db.Where("url = ?", url).First(&seed).Error; err != nil {
		return nil, fmt.Errorf("get seed by url: %w", translateErr(err))
	}
	return &seed, nil
}

// GetSeed loads a seed by id.
func (s *Store) GetSeed(id uint) (*Seed, error) {
	var seed Seed
	if err := s.db.First(&seed, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("get seed: %w", translateErr(err))
	}
	return &seed, nil
}

// DeleteSeed removes a seed by id. Plugins referencing it keep a weak
// reference (SeedID becomes an orphaned FK value; not cascaded, matching
// spec §3's "weak reference").
func (s *Store) DeleteSeed(id uint) error {
	if err := s.db.Delete(&Seed{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete seed: %w", err)
	}
	return nil
}

// --- Service ---

func (s *Store) CreateService(svc *Service) (*Service, error) {
	if err := s.db.Create(svc).Error; err != nil {
		return nil, fmt.Errorf("create service: %w", translateErr(err))
	}
	return svc, nil
}

func (s *Store) GetService(id uint) (*Service, error) {
	var svc Service
	if err := s.db.First(&svc, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("get service: %w", translateErr(err))
	}
	return &svc, nil
}

// GetServiceByServiceID resolves a service by its external service-id, used
// by the recommendation engine to find the configured `qhana-backend`.
func (s *Store) GetServiceByServiceID(serviceID string) (*Service, error) {
	var svc Service
	if err := s.db.Where("service_id = ?", serviceID).First(&svc).Error; err != nil {
		return nil, fmt.Errorf("get service by service_id: %w", translateErr(err))
	}
	return &svc, nil
}

func (s *Store) ListServices() ([]Service, error) {
	var services []Service
	if err := s.db.Find(&services).Error; err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

func (s *Store) DeleteService(id uint) error {
	if err := s.db.Delete(&Service{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	return nil
}

// --- Env ---

func (s *Store) UpsertEnv(name, value string) (*Env, error) {
	var env Env
	err := s.db.Where("name = ?", name).First(&env).Error
	if err == nil {
		env.Value = value
		if err := s.db.Save(&env).Error; err != nil {
			return nil, fmt.Errorf("update env: %w", err)
		}
		return &env, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup env: %w", err)
	}
	env = Env{Name: name, Value: value}
	if err := s.db.Create(&env).Error; err != nil {
		return nil, fmt.Errorf("create env: %w", translateErr(err))
	}
	return &env, nil
}

func (s *Store) GetEnv(name string) (*Env, error) {
	var env Env
	if err := s.db.Where("name = ?", name).First(&env).Error; err != nil {
		return nil, fmt.Errorf("get env: %w", translateErr(err))
	}
	return &env, nil
}

func (s *Store) ListEnv() ([]Env, error) {
	var envs []Env
	if err := s.db.Find(&envs).Error; err != nil {
		return nil, fmt.Errorf("list env: %w", err)
	}
	return envs, nil
}

func (s *Store) DeleteEnv(name string) error {
	if err := s.db.Where("name = ?", name).Delete(&Env{}).Error; err != nil {
		return fmt.Errorf("delete env: %w", err)
	}
	return nil
}

// --- Template / TemplateTab ---

func (s *Store) CreateTemplate(t *Template) (*Template, error) {
	if err := s.db.Create(t).Error; err != nil {
		return nil, fmt.Errorf("create template: %w", translateErr(err))
	}
	return t, nil
}

func (s *Store) GetTemplate(id uint) (*Template, error) {
	var t Template
	if err := s.db.Preload("Tags").Preload("Tabs").First(&t, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("get template: %w", translateErr(err))
	}
	return &t, nil
}

func (s *Store) ListTemplates() ([]Template, error) {
	var templates []Template
	if err := s.db.Preload("Tags").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func (s *Store) UpdateTemplate(t *Template) error {
	if err := s.db.Save(t).Error; err != nil {
		return fmt.Errorf("update template: %w", translateErr(err))
	}
	return nil
}

func (s *Store) DeleteTemplate(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", id).Delete(&TemplateTab{}).Error; err != nil {
			return fmt.Errorf("delete template tabs: %w", err)
		}
		if err := tx.Delete(&Template{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete template: %w", err)
		}
		return nil
	})
}

func (s *Store) CreateTab(tab *TemplateTab) (*TemplateTab, error) {
	if err := s.db.Create(tab).Error; err != nil {
		return nil, fmt.Errorf("create tab: %w", translateErr(err))
	}
	return tab, nil
}

func (s *Store) GetTab(id uint) (*TemplateTab, error) {
	var tab TemplateTab
	if err := s.db.First(&tab, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("get tab: %w", translateErr(err))
	}
	return &tab, nil
}

// ListTabsForTemplate returns a template's tabs, optionally filtered by
// group key (spec §6: GET /templates/{tid}/tabs/?group=).
func (s *Store) ListTabsForTemplate(templateID uint, group string) ([]TemplateTab, error) {
	q := s.db.Where("template_id = ?", templateID)
	if group != "" {
		q = q.Where("group_key = ?", group)
	}
	var tabs []TemplateTab
	if err := q.Order("sort_key ASC").Find(&tabs).Error; err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}
	return tabs, nil
}

// ListAllTabs returns every tab in the catalog, used by
// UpdatePluginLists' re-evaluate-all baseline.
func (s *Store) ListAllTabs() ([]TemplateTab, error) {
	var tabs []TemplateTab
	if err := s.db.Find(&tabs).Error; err != nil {
		return nil, fmt.Errorf("list all tabs: %w", err)
	}
	return tabs, nil
}

func (s *Store) UpdateTab(tab *TemplateTab) error {
	if err := s.db.Save(tab).Error; err != nil {
		return fmt.Errorf("update tab: %w", translateErr(err))
	}
	return nil
}

func (s *Store) DeleteTab(id uint) error {
	if err := s.db.Delete(&TemplateTab{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete tab: %w", err)
	}
	return nil
}

// SetTabMembership replaces a tab's materialized plugin membership set
// wholesale, the write side of the tab materializer (C5).
func (s *Store) SetTabMembership(tabID uint, pluginIDs []uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM template_tab_plugins WHERE template_tab_id = ?", tabID).Error; err != nil {
			return fmt.Errorf("clear tab membership: %w", err)
		}
		for _, pid := range pluginIDs {
			if err := tx.Exec(
				"INSERT INTO template_tab_plugins (template_tab_id, plugin_id) VALUES (?, ?)",
				tabID, pid,
			).Error; err != nil {
				return fmt.Errorf("insert tab membership: %w", err)
			}
		}
		return nil
	})
}

// TabMembership returns the plugin ids currently materialized for a tab.
func (s *Store) TabMembership(tabID uint) ([]uint, error) {
	var ids []uint
	err := s.db.Table("template_tab_plugins").
		Where("template_tab_id = ?", tabID).
		Pluck("plugin_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("tab membership: %w", err)
	}
	return ids, nil
}
