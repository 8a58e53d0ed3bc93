package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// TestStoreAgainstPostgres exercises the catalog store against a real
// postgres instance: constraint translation, cascade deletes, and the purge
// anchor query all behave differently enough from sqlite to warrant it.
func TestStoreAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("registry"),
		tcpostgres.WithUsername("registry"),
		tcpostgres.WithPassword("registry"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(connStr)
	require.NoError(t, err)
	s := New(db)
	require.NoError(t, s.AutoMigrate())

	now := time.Now().Truncate(time.Microsecond)

	p, created, err := s.UpsertPlugin(&Plugin{Identifier: "k-means", Version: "1.2.0", Type: "processing"}, now)
	require.NoError(t, err)
	require.True(t, created)

	io := IOData{
		PluginID: p.ID, Identifier: "points", Required: true, Relation: RelationConsumed,
		DataTypeStart: "entity", DataTypeEnd: "list",
		ContentTypes: []ContentType{{ContentTypeStart: "application", ContentTypeEnd: "json"}},
	}
	require.NoError(t, db.Create(&io).Error)

	// Unique (identifier, version) holds on a second insert path.
	_, created, err = s.UpsertPlugin(&Plugin{Identifier: "k-means", Version: "1.2.0", Type: "processing"}, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, created)

	maxAvail, err := s.MaxLastAvailable()
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Minute), maxAvail, time.Second)

	// Cascade: deleting the plugin removes its IOData and ContentTypes.
	require.NoError(t, s.DeletePlugin(p.ID))
	var ioCount, ctCount int64
	require.NoError(t, db.Model(&IOData{}).Count(&ioCount).Error)
	require.NoError(t, db.Model(&ContentType{}).Count(&ctCount).Error)
	assert.EqualValues(t, 0, ioCount)
	assert.EqualValues(t, 0, ctCount)

	// Duplicate seed URL translates to ErrConflict.
	_, err = s.CreateSeed("http://runner")
	require.NoError(t, err)
	_, err = s.CreateSeed("http://runner")
	assert.ErrorIs(t, err, ErrConflict)
}
