// Package store implements the catalog store (C1): the persistent model of
// plugins, tags, IO data descriptors, dependencies, seeds, services,
// templates, tabs, and env entries, plus the two non-obvious C1 operations
// (sort-version derivation and dependency resolution) used by the rest of
// the registry.
package store

import "time"

// Plugin is a discovered, self-describing remote computational service
// (called a "RAMP" in the original source). Unique by (Identifier, Version).
type Plugin struct {
	ID            uint      `gorm:"primaryKey;column:id"`
	Identifier    string    `gorm:"column:identifier;uniqueIndex:idx_plugin_identifier_version;not null"`
	Version       string    `gorm:"column:version;uniqueIndex:idx_plugin_identifier_version;not null"`
	SortVersion   string    `gorm:"column:sort_version;index:idx_plugin_sort_version;not null"`
	Title         string    `gorm:"column:title"`
	Description   string    `gorm:"column:description"`
	Type          string    `gorm:"column:type;index:idx_plugin_type"`
	RootURL       string    `gorm:"column:root_url"`
	EntryURL      string    `gorm:"column:entry_url"`
	UIURL         string    `gorm:"column:ui_url"`
	Schema        string    `gorm:"column:schema;type:text"`
	LastAvailable time.Time `gorm:"column:last_available;index:idx_plugin_last_available"`
	SeedID        *uint     `gorm:"column:seed_id;index:idx_plugin_seed_id"`

	Tags         []Tag        `gorm:"many2many:plugin_tags;"`
	IOData       []IOData     `gorm:"foreignKey:PluginID;constraint:OnDelete:CASCADE"`
	Dependencies []Dependency `gorm:"foreignKey:PluginID;constraint:OnDelete:CASCADE"`
}

func (Plugin) TableName() string { return "plugins" }

// FullID is the "identifier@version" form used by the `id` filter and the
// hypermedia layer's resource keys.
func (p *Plugin) FullID() string {
	return p.Identifier + "@" + p.Version
}

// Tag is a globally-unique name shared by plugins and templates. Never
// cascade-deleted.
type Tag struct {
	ID          uint   `gorm:"primaryKey;column:id"`
	Name        string `gorm:"column:name;uniqueIndex:idx_tag_name;not null"`
	Description string `gorm:"column:description"`
}

func (Tag) TableName() string { return "tags" }

// IOData is a declared input ("consumed") or output ("produced") of a
// plugin. The data type is split into (start, end) at the first '/', with
// '*' representing a wildcard segment.
type IOData struct {
	ID            uint          `gorm:"primaryKey;column:id"`
	PluginID      uint          `gorm:"column:plugin_id;index:idx_iodata_plugin_id;not null"`
	Identifier    string        `gorm:"column:identifier;not null"`
	Required      bool          `gorm:"column:required;not null;default:true"`
	Relation      IORelation    `gorm:"column:relation;not null"`
	DataTypeStart string        `gorm:"column:data_type_start;not null"`
	DataTypeEnd   string        `gorm:"column:data_type_end;not null"`
	ContentTypes  []ContentType `gorm:"foreignKey:IODataID;constraint:OnDelete:CASCADE"`
}

func (IOData) TableName() string { return "io_data" }

// DataType rejoins the split (start, end) data-type segments with '/'.
func (d *IOData) DataType() string { return d.DataTypeStart + "/" + d.DataTypeEnd }

// IORelation distinguishes consumed (input) from produced (output) IOData.
type IORelation string

const (
	RelationConsumed IORelation = "consumed"
	RelationProduced IORelation = "produced"
)

// ContentType is an owned child of IOData, split the same way as data types.
type ContentType struct {
	ID               uint   `gorm:"primaryKey;column:id"`
	IODataID         uint   `gorm:"column:io_data_id;index:idx_contenttype_iodata_id;not null"`
	ContentTypeStart string `gorm:"column:content_type_start;not null"`
	ContentTypeEnd   string `gorm:"column:content_type_end;not null"`
}

func (ContentType) TableName() string { return "content_types" }

// MimeType rejoins the split (start, end) content-type segments with '/'.
func (c *ContentType) MimeType() string { return c.ContentTypeStart + "/" + c.ContentTypeEnd }

// Dependency is a Plugin's reference to another Plugin, resolved to
// BestMatchID by ResolveDependency. Owned by the referring Plugin.
type Dependency struct {
	ID               uint   `gorm:"primaryKey;column:id"`
	PluginID         uint   `gorm:"column:plugin_id;index:idx_dependency_plugin_id;not null"`
	Required         bool   `gorm:"column:required;not null;default:true"`
	Parameter        string `gorm:"column:parameter;not null"`
	TargetIdentifier string `gorm:"column:target_identifier"`
	TargetVersion    string `gorm:"column:target_version"`
	TargetType       string `gorm:"column:target_type"`
	BestMatchID      *uint  `gorm:"column:best_match_id;index:idx_dependency_best_match_id"`

	Tags []DependencyTag `gorm:"foreignKey:DependencyID;constraint:OnDelete:CASCADE"`
}

func (Dependency) TableName() string { return "dependencies" }

// DependencyTag is a required or forbidden tag attached to a Dependency; the
// `!tag` prefix from the plugin self-description's pluginDependencies
// becomes Excluded=true.
type DependencyTag struct {
	ID           uint `gorm:"primaryKey;column:id"`
	DependencyID uint `gorm:"column:dependency_id;index:idx_deptag_dependency_id;not null"`
	TagID        uint `gorm:"column:tag_id;index:idx_deptag_tag_id;not null"`
	Excluded     bool `gorm:"column:excluded;not null;default:false"`
	Tag          Tag  `gorm:"foreignKey:TagID"`
}

func (DependencyTag) TableName() string { return "dependency_tags" }

// Seed is a root URL where discovery crawling starts.
type Seed struct {
	ID  uint   `gorm:"primaryKey;column:id"`
	URL string `gorm:"column:url;uniqueIndex:idx_seed_url;not null"`
}

func (Seed) TableName() string { return "seeds" }

// Service is an external service record used by the recommendation engine
// to locate the experiment backend (`qhana-backend`).
type Service struct {
	ID          uint   `gorm:"primaryKey;column:id"`
	ServiceID   string `gorm:"column:service_id;uniqueIndex:idx_service_service_id;not null"`
	URL         string `gorm:"column:url;not null"`
	Name        string `gorm:"column:name"`
	Description string `gorm:"column:description"`
}

func (Service) TableName() string { return "services" }

// Env is an opaque name/value pair exposed to crawled plugins.
type Env struct {
	ID    uint   `gorm:"primaryKey;column:id"`
	Name  string `gorm:"column:name;uniqueIndex:idx_env_name;not null"`
	Value string `gorm:"column:value"`
}

func (Env) TableName() string { return "envs" }

// Template groups TemplateTabs for a UI surface. Names are not enforced
// unique across templates, but lookups assume uniqueness (spec §3).
type Template struct {
	ID          uint          `gorm:"primaryKey;column:id"`
	Name        string        `gorm:"column:name;index:idx_template_name;not null"`
	Description string        `gorm:"column:description"`
	Tags        []Tag         `gorm:"many2many:template_tags;"`
	Tabs        []TemplateTab `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE"`
}

func (Template) TableName() string { return "templates" }

// TemplateTab carries a declarative filter expression (§4.3) continuously
// matched against the catalog; its materialized membership set is
// maintained by the tab materializer (C5).
type TemplateTab struct {
	ID           uint   `gorm:"primaryKey;column:id"`
	TemplateID   uint   `gorm:"column:template_id;index:idx_tab_template_id;not null"`
	Name         string `gorm:"column:name;not null"`
	Description  string `gorm:"column:description"`
	SortKey      int    `gorm:"column:sort_key;not null;default:0"`
	Location     string `gorm:"column:location;not null"`
	Icon         string `gorm:"column:icon"`
	GroupKey     string `gorm:"column:group_key"`
	FilterString string `gorm:"column:filter_string;type:text"`

	Plugins []Plugin `gorm:"many2many:template_tab_plugins;"`
}

func (TemplateTab) TableName() string { return "template_tabs" }
