package store

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDependencyMatchesOnIdentifierVersionType(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	target, _, err := s.UpsertPlugin(&Plugin{Identifier: "k-means", Version: "1.2.0", Type: "processing"}, time.Now())
	require.NoError(t, err)
	_, _, err = s.UpsertPlugin(&Plugin{Identifier: "k-means", Version: "0.9.0", Type: "processing"}, time.Now())
	require.NoError(t, err)

	consumer, _, err := s.UpsertPlugin(&Plugin{Identifier: "pipeline", Version: "1.0.0"}, time.Now())
	require.NoError(t, err)

	dep := &Dependency{PluginID: consumer.ID, Parameter: "clusterer", TargetIdentifier: "k-means", TargetVersion: ">=1.0.0", TargetType: "processing"}
	require.NoError(t, db.Create(dep).Error)

	require.NoError(t, ResolveDependency(db, slog.Default(), dep))
	require.NotNil(t, dep.BestMatchID)
	assert.Equal(t, target.ID, *dep.BestMatchID)
}

func TestResolveDependencyRequiresAllTags(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	clustering, err := s.GetOrCreateTag("clustering")
	require.NoError(t, err)
	fast, err := s.GetOrCreateTag("fast")
	require.NoError(t, err)

	match, _, err := s.UpsertPlugin(&Plugin{Identifier: "a", Version: "1.0.0"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, db.Model(match).Association("Tags").Append(clustering, fast))

	partial, _, err := s.UpsertPlugin(&Plugin{Identifier: "b", Version: "1.0.0"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, db.Model(partial).Association("Tags").Append(clustering))

	consumer, _, err := s.UpsertPlugin(&Plugin{Identifier: "pipeline", Version: "1.0.0"}, time.Now())
	require.NoError(t, err)
	dep := &Dependency{PluginID: consumer.ID, Parameter: "x"}
	require.NoError(t, db.Create(dep).Error)
	require.NoError(t, db.Create(&DependencyTag{DependencyID: dep.ID, TagID: clustering.ID}).Error)
	require.NoError(t, db.Create(&DependencyTag{DependencyID: dep.ID, TagID: fast.ID}).Error)

	require.NoError(t, ResolveDependency(db, slog.Default(), dep))
	require.NotNil(t, dep.BestMatchID)
	assert.Equal(t, match.ID, *dep.BestMatchID)
}

func TestResolveDependencyExcludesForbiddenTags(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	slow, err := s.GetOrCreateTag("slow")
	require.NoError(t, err)

	forbidden, _, err := s.UpsertPlugin(&Plugin{Identifier: "a", Version: "1.0.0"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, db.Model(forbidden).Association("Tags").Append(slow))

	consumer, _, err := s.UpsertPlugin(&Plugin{Identifier: "pipeline", Version: "1.0.0"}, time.Now())
	require.NoError(t, err)
	dep := &Dependency{PluginID: consumer.ID, Parameter: "x", TargetIdentifier: "a"}
	require.NoError(t, db.Create(dep).Error)
	require.NoError(t, db.Create(&DependencyTag{DependencyID: dep.ID, TagID: slow.ID, Excluded: true}).Error)

	require.NoError(t, ResolveDependency(db, slog.Default(), dep))
	assert.Nil(t, dep.BestMatchID)
}

func TestResolveDependencyOverlappingTagsUnsatisfiable(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)

	shared, err := s.GetOrCreateTag("shared")
	require.NoError(t, err)

	consumer, _, err := s.UpsertPlugin(&Plugin{Identifier: "pipeline", Version: "1.0.0"}, time.Now())
	require.NoError(t, err)
	dep := &Dependency{PluginID: consumer.ID, Parameter: "x"}
	require.NoError(t, db.Create(dep).Error)
	require.NoError(t, db.Create(&DependencyTag{DependencyID: dep.ID, TagID: shared.ID, Excluded: false}).Error)
	require.NoError(t, db.Create(&DependencyTag{DependencyID: dep.ID, TagID: shared.ID, Excluded: true}).Error)

	require.NoError(t, ResolveDependency(db, slog.Default(), dep))
	assert.Nil(t, dep.BestMatchID)
}
