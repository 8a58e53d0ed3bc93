package discovery

import (
	"testing"
	"time"

	"github.com/qhana/plugin-registry/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeNeverSkips(t *testing.T) {
	_, st, _ := setupTestDB(t)
	p := NewPurger(st, nil)
	removed, err := p.Run(NeverPurge(), time.Minute)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestPurgeFixedWindowAnchorsOnMax(t *testing.T) {
	_, st, _ := setupTestDB(t)
	now := time.Now()

	_, _, err := st.UpsertPlugin(&store.Plugin{Identifier: "stale", Version: "1.0.0"}, now.Add(-time.Hour))
	require.NoError(t, err)
	_, _, err = st.UpsertPlugin(&store.Plugin{Identifier: "fresh", Version: "1.0.0"}, now)
	require.NoError(t, err)

	p := NewPurger(st, nil)
	removed, err := p.Run(FixedPurge(30*time.Minute), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestPurgeAutoSkipsBelowFloor(t *testing.T) {
	_, st, _ := setupTestDB(t)
	now := time.Now()
	_, _, err := st.UpsertPlugin(&store.Plugin{Identifier: "stale", Version: "1.0.0"}, now.Add(-time.Hour))
	require.NoError(t, err)

	p := NewPurger(st, nil)
	removed, err := p.Run(AutoPurge(), 3*time.Second)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestPurgeAutoUsesTenXInterval(t *testing.T) {
	_, st, _ := setupTestDB(t)
	now := time.Now()
	_, _, err := st.UpsertPlugin(&store.Plugin{Identifier: "stale", Version: "1.0.0"}, now.Add(-time.Hour))
	require.NoError(t, err)
	_, _, err = st.UpsertPlugin(&store.Plugin{Identifier: "fresh", Version: "1.0.0"}, now)
	require.NoError(t, err)

	p := NewPurger(st, nil)
	// interval=10m -> window=100m, hour-old plugin survives.
	removed, err := p.Run(AutoPurge(), 10*time.Minute)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestParsePurgeAfterVariants(t *testing.T) {
	pa, err := ParsePurgeAfter("never")
	require.NoError(t, err)
	assert.True(t, pa.Never)

	pa, err = ParsePurgeAfter("auto")
	require.NoError(t, err)
	assert.True(t, pa.Auto)

	pa, err = ParsePurgeAfter(900)
	require.NoError(t, err)
	assert.Equal(t, 900*time.Second, pa.Duration)

	pa, err = ParsePurgeAfter(-1)
	require.NoError(t, err)
	assert.True(t, pa.Never)

	_, err = ParsePurgeAfter("bogus")
	assert.Error(t, err)
}
