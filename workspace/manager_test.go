package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonbergman/electric-planner/config"
	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/plan/plantest"
	"github.com/yonbergman/electric-planner/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "workspace.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestManager_SQLOnly(t *testing.T) {
	m := NewManager(testDB(t), nil, "", nil)
	ctx := context.Background()
	assert.Equal(t, DefaultSlot, m.Slot())

	_, ok, err := m.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	changed, err := m.Save(ctx, plantest.Sample())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = m.Save(ctx, plantest.Sample())
	require.NoError(t, err)
	assert.False(t, changed)

	got, ok, err := m.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, plantest.Sample(), got)

	require.NoError(t, m.Clear(ctx))
	_, ok, err = m.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_LoadsLegacyBrowserSnapshot(t *testing.T) {
	db := testDB(t)
	legacy := []byte(`{"rooms":[{"id":"r1","name":"Kitchen"}],"boxes":[],"modules":[],"items":[]}`)
	_, err := db.SaveSnapshot(DefaultSlot, 1, legacy)
	require.NoError(t, err)

	got, ok, err := NewManager(db, nil, DefaultSlot, nil).Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, plan.SchemaVersion, got.Version)
	assert.Equal(t, []plan.Room{{ID: "r1", Name: "Kitchen"}}, got.Rooms)
	assert.Empty(t, got.FloorPlans)
}

func TestManager_SlotsAreIndependent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	a := NewManager(db, nil, "a", nil)
	b := NewManager(db, nil, "b", nil)

	_, err := a.Save(ctx, plantest.Sample())
	require.NoError(t, err)

	_, ok, err := b.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_WithRedis(t *testing.T) {
	addr := os.Getenv("ELECTRICPLANNER_TEST_REDIS")
	if addr == "" {
		t.Skip("ELECTRICPLANNER_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx).Err())

	rs := NewRedisStore(client)
	slot := "test-" + plan.NewID()
	t.Cleanup(func() { rs.Delete(context.Background(), slot) })
	m := NewManager(testDB(t), rs, slot, nil)

	_, err := m.Save(ctx, plantest.Sample())
	require.NoError(t, err)

	cached, err := rs.Get(ctx, slot)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, store.Checksum(cached.Data), cached.Checksum)

	slots, err := rs.Slots(ctx)
	require.NoError(t, err)
	assert.Contains(t, slots, slot)

	got, ok, err := m.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, plantest.Sample(), got)

	// A cached copy that no longer matches its checksum is ignored and
	// rewritten from SQL.
	require.NoError(t, client.HSet(ctx, slotKey(slot), "data", `{"rooms":[],"boxes":[],"modules":[],"items":[]}`).Err())
	got, ok, err = m.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, plantest.Sample(), got)
	cached, err = rs.Get(ctx, slot)
	require.NoError(t, err)
	assert.True(t, cached.Intact())
}

func TestCached_Intact(t *testing.T) {
	data := []byte(`{"rooms":[]}`)
	c := Cached{Data: data, Checksum: store.Checksum(data)}
	assert.True(t, c.Intact())

	c.Data = []byte(`{"rooms":[{"id":"x"}]}`)
	assert.False(t, c.Intact())
	assert.False(t, (&Cached{Data: data}).Intact())
}
