package filterlang

import (
	"fmt"

	"github.com/qhana/plugin-registry/internal/store"
	"gorm.io/gorm"
)

// StreamPlugins loads the catalog in BatchSize-row pages ordered by primary
// key and invokes fn with each batch projected to a PluginView, grounded on
// evaluate_plugin_filter's offset-stepped batch loop — the whole table is
// never held in memory at once.
func StreamPlugins(db *gorm.DB, batchSize int, fn func(batch []PluginView) error) error {
	if batchSize <= 0 {
		batchSize = BatchSize
	}

	var lastID uint
	for {
		var plugins []store.Plugin
		err := db.Preload("Tags").
			Where("id > ?", lastID).
			Order("id ASC").
			Limit(batchSize).
			Find(&plugins).Error
		if err != nil {
			return fmt.Errorf("stream plugins: %w", err)
		}
		if len(plugins) == 0 {
			return nil
		}

		views := make([]PluginView, 0, len(plugins))
		for _, p := range plugins {
			tags := make([]string, 0, len(p.Tags))
			for _, t := range p.Tags {
				tags = append(tags, t.Name)
			}
			views = append(views, PluginView{
				ID:         p.ID,
				Identifier: p.Identifier,
				Version:    p.Version,
				Name:       p.Title,
				Type:       p.Type,
				Tags:       tags,
			})
		}

		if err := fn(views); err != nil {
			return err
		}

		lastID = plugins[len(plugins)-1].ID
		if len(plugins) < batchSize {
			return nil
		}
	}
}
