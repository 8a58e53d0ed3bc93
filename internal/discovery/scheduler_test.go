package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedulerRejectsIntervalBelowFloor(t *testing.T) {
	_, st, js := setupTestDB(t)
	_, err := NewScheduler(st, js, SchedulerConfig{DiscoveryInterval: 2 * time.Second}, nil, nil)
	assert.Error(t, err)
}

func TestNewSchedulerAcceptsDisabledInterval(t *testing.T) {
	_, st, js := setupTestDB(t)
	_, err := NewScheduler(st, js, SchedulerConfig{DiscoveryInterval: 0}, nil, nil)
	assert.NoError(t, err)
}

func TestDiscoveryTickEnqueuesPerSeed(t *testing.T) {
	db, st, js := setupTestDB(t)

	_, err := st.CreateSeed("http://runner-a")
	require.NoError(t, err)
	_, err = st.CreateSeed("http://runner-b")
	require.NoError(t, err)

	s, err := NewScheduler(st, js, SchedulerConfig{DiscoveryInterval: time.Minute, BatchSize: 1}, nil, nil)
	require.NoError(t, err)
	s.discoveryTick(context.Background())

	var count int64
	require.NoError(t, db.Table("jobs").Where("kind = ?", "discover_seed").Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestPurgeTickEnqueuesPurgeJob(t *testing.T) {
	db, st, js := setupTestDB(t)

	s, err := NewScheduler(st, js, SchedulerConfig{
		DiscoveryInterval: time.Minute,
		PurgeInterval:     time.Minute,
		PurgeAfter:        AutoPurge(),
	}, nil, nil)
	require.NoError(t, err)
	s.purgeTick(context.Background())

	var count int64
	require.NoError(t, db.Table("jobs").Where("kind = ?", "purge").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPurgeParamsRoundTrip(t *testing.T) {
	_, st, _ := setupTestDB(t)
	p := NewPurger(st, nil)

	// An empty catalog makes the purge pass a no-op regardless of window.
	err := p.HandlePurge(context.Background(), `{"purgeAfter":{"Never":false,"Auto":true,"Duration":0},"discoveryInterval":900000000000}`)
	assert.NoError(t, err)
}

func TestSchedulerSkipsTicksWhenNotLeader(t *testing.T) {
	db, st, js := setupTestDB(t)
	_, err := st.CreateSeed("http://runner-a")
	require.NoError(t, err)

	s, err := NewScheduler(st, js, SchedulerConfig{DiscoveryInterval: time.Minute}, func() bool { return false }, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.tickLoop(ctx, time.Millisecond, "discovery", s.discoveryTick)
		close(done)
	}()
	<-done

	var count int64
	require.NoError(t, db.Table("jobs").Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
