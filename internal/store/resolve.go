package store

import (
	"fmt"
	"log/slog"

	"github.com/qhana/plugin-registry/pkg/version"
	"gorm.io/gorm"
)

// ResolveDependency resolves dep.BestMatchID to the Plugin that satisfies
// every constraint on the dependency, grounded on
// DependencyToRAMP.match_plugin / is_fulfilled:
//
//  1. matches dep.TargetIdentifier if set,
//  2. whose version satisfies dep.TargetVersion as a PEP-440 specifier if set,
//  3. has dep.TargetType if set,
//  4. contains every required tag and none of the forbidden tags.
//
// If the required and forbidden tag sets overlap the dependency can never be
// satisfied; this is logged and BestMatchID is left nil, matching the
// original's warnings.warn branch.
func ResolveDependency(db *gorm.DB, logger *slog.Logger, dep *Dependency) error {
	if logger == nil {
		logger = slog.Default()
	}

	var tags []DependencyTag
	if err := db.Preload("Tag").Where("dependency_id = ?", dep.ID).Find(&tags).Error; err != nil {
		return fmt.Errorf("load dependency tags: %w", err)
	}

	var required, forbidden []string
	for _, t := range tags {
		if t.Excluded {
			forbidden = append(forbidden, t.Tag.Name)
		} else {
			required = append(required, t.Tag.Name)
		}
	}

	if overlap := intersects(required, forbidden); overlap {
		logger.Warn("dependency has overlapping required and forbidden tags, unsatisfiable",
			"dependencyID", dep.ID, "pluginID", dep.PluginID)
		dep.BestMatchID = nil
		return db.Model(&Dependency{}).Where("id = ?", dep.ID).Update("best_match_id", nil).Error
	}

	query := db.Model(&Plugin{})
	if dep.TargetIdentifier != "" {
		query = query.Where("identifier = ?", dep.TargetIdentifier)
	}
	if dep.TargetType != "" {
		query = query.Where("type = ?", dep.TargetType)
	}

	var candidates []Plugin
	if err := query.Preload("Tags").Find(&candidates).Error; err != nil {
		return fmt.Errorf("load candidate plugins: %w", err)
	}

	var spec *version.SpecifierSet
	if dep.TargetVersion != "" {
		parsed, err := version.ParseSpecifierSet(dep.TargetVersion)
		if err != nil {
			logger.Warn("dependency has invalid version specifier, unsatisfiable",
				"dependencyID", dep.ID, "spec", dep.TargetVersion, "error", err)
			dep.BestMatchID = nil
			return db.Model(&Dependency{}).Where("id = ?", dep.ID).Update("best_match_id", nil).Error
		}
		spec = parsed
	}

	for i := range candidates {
		p := &candidates[i]
		if spec != nil && !spec.Contains(p.Version) {
			continue
		}
		if !hasAllTags(p.Tags, required) {
			continue
		}
		if hasAnyTag(p.Tags, forbidden) {
			continue
		}
		dep.BestMatchID = &p.ID
		return db.Model(&Dependency{}).Where("id = ?", dep.ID).Update("best_match_id", p.ID).Error
	}

	dep.BestMatchID = nil
	return db.Model(&Dependency{}).Where("id = ?", dep.ID).Update("best_match_id", nil).Error
}

func intersects(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}

func hasAllTags(tags []Tag, required []string) bool {
	present := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		present[t.Name] = struct{}{}
	}
	for _, r := range required {
		if _, ok := present[r]; !ok {
			return false
		}
	}
	return true
}

func hasAnyTag(tags []Tag, forbidden []string) bool {
	if len(forbidden) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(forbidden))
	for _, f := range forbidden {
		set[f] = struct{}{}
	}
	for _, t := range tags {
		if _, ok := set[t.Name]; ok {
			return true
		}
	}
	return false
}
