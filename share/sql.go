package share

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/yonbergman/electric-planner/store"
)

// SQLBackend keeps shares in the shares table, for deployments without
// Redis.
type SQLBackend struct {
	db  *store.DB
	now func() time.Time
}

func NewSQLBackend(db *store.DB) *SQLBackend {
	return &SQLBackend{db: db, now: time.Now}
}

func (b *SQLBackend) Put(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	if _, err := b.db.GetShare(id, time.Unix(0, 0)); err == nil {
		return ErrIDTaken
	}
	return b.db.PutShare(id, data, b.now().Add(ttl))
}

func (b *SQLBackend) Get(ctx context.Context, id string) ([]byte, error) {
	rec, err := b.db.GetShare(id, b.now())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.Data, nil
}

// Purge removes expired shares.
func (b *SQLBackend) Purge() (int64, error) {
	return b.db.PurgeExpiredShares(b.now())
}
