package share

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yonbergman/electric-planner/config"
	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/plan/plantest"
	"github.com/yonbergman/electric-planner/store"
)

type memBackend struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	gets int
	err  error
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *memBackend) Put(_ context.Context, id string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.data[id]; ok {
		return ErrIDTaken
	}
	m.data[id] = data
	m.ttls[id] = ttl
	return nil
}

func (m *memBackend) Get(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func TestService_CreateFetch(t *testing.T) {
	backend := newMemBackend()
	svc := NewService(backend, 0, 0, zap.NewNop())
	ctx := context.Background()

	link, err := svc.Create(ctx, plantest.Sample())
	require.NoError(t, err)
	assert.True(t, ValidID(link.ID))
	assert.Equal(t, "/s/"+link.ID, link.Path)
	assert.Equal(t, DefaultTTL, backend.ttls[link.ID])

	got, err := svc.Fetch(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, plantest.Sample(), got)
}

func TestService_FetchErrors(t *testing.T) {
	backend := newMemBackend()
	svc := NewService(backend, time.Hour, 0, nil)
	ctx := context.Background()

	_, err := svc.Fetch(ctx, "AAAAAAAAAA")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Fetch(ctx, "../etc")
	assert.ErrorIs(t, err, ErrNotFound)

	backend.data["BBBBBBBBBB"] = []byte(`{"rooms":[],"boxes":[]}`)
	_, err = svc.Fetch(ctx, "BBBBBBBBBB")
	assert.ErrorIs(t, err, plan.ErrInvalidSnapshot)
	assert.NotErrorIs(t, err, ErrNotFound)

	backend.err = errors.New("connection refused")
	_, err = svc.Fetch(ctx, "CCCCCCCCCC")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, plan.ErrInvalidSnapshot)
}

func TestService_RetriesOnCollision(t *testing.T) {
	backend := newMemBackend()
	backend.data["AAAAAAAAAA"] = []byte(`{}`)
	svc := NewService(backend, time.Hour, 0, nil)
	ids := []string{"AAAAAAAAAA", "BBBBBBBBBB"}
	svc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	link, err := svc.Create(context.Background(), plan.Empty())
	require.NoError(t, err)
	assert.Equal(t, "BBBBBBBBBB", link.ID)
}

func TestService_GivesUpAfterRepeatedCollisions(t *testing.T) {
	backend := newMemBackend()
	backend.data["AAAAAAAAAA"] = []byte(`{}`)
	svc := NewService(backend, time.Hour, 0, nil)
	svc.newID = func() string { return "AAAAAAAAAA" }

	_, err := svc.Create(context.Background(), plan.Empty())
	assert.ErrorIs(t, err, ErrIDTaken)
}

func TestService_ReadCache(t *testing.T) {
	backend := newMemBackend()
	svc := NewService(backend, time.Hour, time.Minute, nil)
	ctx := context.Background()

	link, err := svc.Create(ctx, plantest.Sample())
	require.NoError(t, err)

	first, err := svc.Fetch(ctx, link.ID)
	require.NoError(t, err)
	first.Rooms[0].Name = "mutated"

	second, err := svc.Fetch(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", second.Rooms[0].Name)
	assert.Equal(t, 1, backend.gets)
}

func TestSQLBackend(t *testing.T) {
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "share.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	backend := NewSQLBackend(db)
	now := time.Now()
	backend.now = func() time.Time { return now }
	svc := NewService(backend, time.Hour, 0, nil)
	ctx := context.Background()

	link, err := svc.Create(ctx, plantest.Sample())
	require.NoError(t, err)
	got, err := svc.Fetch(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, plantest.Sample(), got)

	assert.ErrorIs(t, backend.Put(ctx, link.ID, []byte(`{}`), time.Hour), ErrIDTaken)

	now = now.Add(2 * time.Hour)
	_, err = svc.Fetch(ctx, link.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := backend.Purge()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestService_CreateRefusesOverlappingModules(t *testing.T) {
	backend := newMemBackend()
	svc := NewService(backend, 0, 0, nil)

	snap := plantest.Sample()
	m := snap.Modules[0]
	m.ID = "overlap"
	snap.Modules = append(snap.Modules, m)

	_, err := svc.Create(context.Background(), snap)
	assert.ErrorIs(t, err, plan.ErrInvalidSnapshot)
	assert.Empty(t, backend.data)
}
