package store

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	s := New(db)
	require.NoError(t, s.AutoMigrate())
	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS template_tab_plugins (template_tab_id INTEGER, plugin_id INTEGER)`).Error)
	return db
}

func TestUpsertPluginCreatesNew(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	p := &Plugin{Identifier: "k-means", Version: "1.2.0", Type: "processing"}
	created, isNew, err := s.UpsertPlugin(p, time.Now())
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.NotZero(t, created.ID)
	assert.Equal(t, DeriveSortVersion("1.2.0"), created.SortVersion)
}

func TestUpsertPluginRefreshesExisting(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	p := &Plugin{Identifier: "k-means", Version: "1.2.0", Type: "processing"}
	first, _, err := s.UpsertPlugin(p, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	again := &Plugin{Identifier: "k-means", Version: "1.2.0", Type: "processing", Title: "K-Means v2"}
	now := time.Now()
	updated, isNew, err := s.UpsertPlugin(again, now)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, "K-Means v2", updated.Title)
	assert.WithinDuration(t, now, updated.LastAvailable, time.Second)
}

func TestDeletePluginCascades(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	p := &Plugin{Identifier: "k-means", Version: "1.2.0"}
	created, _, err := s.UpsertPlugin(p, time.Now())
	require.NoError(t, err)

	require.NoError(t, db.Create(&IOData{PluginID: created.ID, Identifier: "input", Relation: RelationConsumed, DataTypeStart: "entity", DataTypeEnd: "list"}).Error)
	require.NoError(t, db.Create(&Dependency{PluginID: created.ID, Parameter: "dep"}).Error)

	require.NoError(t, s.DeletePlugin(created.ID))

	var count int64
	db.Model(&IOData{}).Where("plugin_id = ?", created.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&Dependency{}).Where("plugin_id = ?", created.ID).Count(&count)
	assert.Zero(t, count)
}

func TestMaxLastAvailableEmptyCatalog(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)
	max, err := s.MaxLastAvailable()
	require.NoError(t, err)
	assert.True(t, max.IsZero())
}

func TestDeleteStaleBeforeKeepsEqualTimestamp(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	cutoff := time.Now()
	stale := &Plugin{Identifier: "old", Version: "1.0.0"}
	_, _, err := s.UpsertPlugin(stale, cutoff.Add(-time.Minute))
	require.NoError(t, err)

	fresh := &Plugin{Identifier: "new", Version: "1.0.0"}
	_, _, err = s.UpsertPlugin(fresh, cutoff)
	require.NoError(t, err)

	removed, err := s.DeleteStaleBefore(cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var remaining []Plugin
	db.Find(&remaining)
	require.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].Identifier)
}

func TestGetOrCreateTagIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	a, err := s.GetOrCreateTag("clustering")
	require.NoError(t, err)
	b, err := s.GetOrCreateTag("clustering")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
}

func TestCreateSeedRejectsDuplicateURL(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	_, err := s.CreateSeed("http://example.com/seed")
	require.NoError(t, err)

	_, err = s.CreateSeed("http://example.com/seed")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSetTabMembershipReplacesWholesale(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	tpl, err := s.CreateTemplate(&Template{Name: "t1"})
	require.NoError(t, err)
	tab, err := s.CreateTab(&TemplateTab{TemplateID: tpl.ID, Name: "tab1", Location: "workspace/x"})
	require.NoError(t, err)

	p1, _, _ := s.UpsertPlugin(&Plugin{Identifier: "a", Version: "1.0.0"}, time.Now())
	p2, _, _ := s.UpsertPlugin(&Plugin{Identifier: "b", Version: "1.0.0"}, time.Now())

	require.NoError(t, s.SetTabMembership(tab.ID, []uint{p1.ID, p2.ID}))
	members, err := s.TabMembership(tab.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{p1.ID, p2.ID}, members)

	require.NoError(t, s.SetTabMembership(tab.ID, []uint{p1.ID}))
	members, err = s.TabMembership(tab.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{p1.ID}, members)
}

func TestGetPluginNotFound(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)
	_, err := s.GetPlugin(999)
	assert.ErrorIs(t, err, ErrNotFound)
}
