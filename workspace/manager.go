// Package workspace keeps the working plan durable across restarts. Writes go
// to SQL first and then refresh the Redis copy; reads prefer Redis and fall
// back to SQL. Redis is optional.
package workspace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/store"
)

// DefaultSlot is the slot name the planner has always used.
const DefaultSlot = "electric-planner-storage"

type Manager struct {
	db    *store.DB
	redis *RedisStore
	slot  string
	log   *zap.Logger
}

// NewManager returns a manager for slot. redis may be nil.
func NewManager(db *store.DB, redis *RedisStore, slot string, log *zap.Logger) *Manager {
	if slot == "" {
		slot = DefaultSlot
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{db: db, redis: redis, slot: slot, log: log}
}

func (m *Manager) Slot() string { return m.slot }

// Save persists snap. It reports false when the stored copy was already
// identical.
func (m *Manager) Save(ctx context.Context, snap plan.Snapshot) (bool, error) {
	data, err := snap.Encode()
	if err != nil {
		return false, fmt.Errorf("encode workspace: %w", err)
	}
	changed, err := m.db.SaveSnapshot(m.slot, plan.SchemaVersion, data)
	if err != nil {
		return false, fmt.Errorf("save workspace %s: %w", m.slot, err)
	}
	if changed {
		m.refreshRedis(ctx, data)
	}
	return changed, nil
}

// Load returns the stored plan. ok is false when nothing has been saved yet.
func (m *Manager) Load(ctx context.Context) (snap plan.Snapshot, ok bool, err error) {
	if m.redis != nil {
		cached, err := m.redis.Get(ctx, m.slot)
		if err != nil {
			m.log.Warn("workspace redis read failed, using sql", zap.String("slot", m.slot), zap.Error(err))
		}
		switch {
		case cached == nil:
		case !cached.Intact():
			m.log.Warn("discarding cached workspace with bad checksum", zap.String("slot", m.slot))
		default:
			if snap, err := plan.Decode(cached.Data); err == nil {
				return snap, true, nil
			}
			m.log.Warn("discarding unreadable cached workspace", zap.String("slot", m.slot))
		}
	}

	rec, err := m.db.LoadSnapshot(m.slot)
	if errors.Is(err, sql.ErrNoRows) {
		return plan.Snapshot{}, false, nil
	}
	if err != nil {
		return plan.Snapshot{}, false, fmt.Errorf("load workspace %s: %w", m.slot, err)
	}
	snap, err = plan.Decode(rec.Data)
	if err != nil {
		return plan.Snapshot{}, false, fmt.Errorf("load workspace %s: %w", m.slot, err)
	}
	m.refreshRedis(ctx, rec.Data)
	return snap, true, nil
}

// Clear forgets the stored plan.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.db.DeleteSnapshot(m.slot); err != nil {
		return err
	}
	if m.redis != nil {
		if err := m.redis.Delete(ctx, m.slot); err != nil {
			m.log.Warn("workspace redis delete failed", zap.String("slot", m.slot), zap.Error(err))
		}
	}
	return nil
}

// SyncRedisFromSQL copies the SQL snapshot into Redis. Called on startup.
func (m *Manager) SyncRedisFromSQL(ctx context.Context) error {
	if m.redis == nil {
		return nil
	}
	rec, err := m.db.LoadSnapshot(m.slot)
	if errors.Is(err, sql.ErrNoRows) {
		return m.redis.Delete(ctx, m.slot)
	}
	if err != nil {
		return err
	}
	if err := m.redis.Set(ctx, m.slot, Cached{Version: rec.Version, Data: rec.Data, Checksum: rec.Checksum}); err != nil {
		return err
	}
	m.log.Info("workspace synced to redis", zap.String("slot", m.slot), zap.Int("bytes", len(rec.Data)))
	return nil
}

func (m *Manager) refreshRedis(ctx context.Context, data []byte) {
	if m.redis == nil {
		return
	}
	c := Cached{Version: plan.SchemaVersion, Data: data, Checksum: store.Checksum(data)}
	if err := m.redis.Set(ctx, m.slot, c); err != nil {
		m.log.Warn("workspace redis refresh failed", zap.String("slot", m.slot), zap.Error(err))
	}
}
