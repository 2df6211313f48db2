package store

import (
	"time"
)

type ShareRecord struct {
	ID        string
	Data      []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (db *DB) PutShare(id string, data []byte, expiresAt time.Time) error {
	_, err := db.Exec(db.Q(`INSERT INTO shares (id, data, expires_at) VALUES (?, ?, ?)`),
		id, string(data), expiresAt.Unix())
	return err
}

// GetShare returns sql.ErrNoRows for ids that are unknown or expired at now.
func (db *DB) GetShare(id string, now time.Time) (*ShareRecord, error) {
	var r ShareRecord
	var data string
	var createdAt any
	var expiresAt int64
	err := db.QueryRow(db.Q(`SELECT id, data, created_at, expires_at FROM shares WHERE id=? AND expires_at > ?`), id, now.Unix()).
		Scan(&r.ID, &data, &createdAt, &expiresAt)
	if err != nil {
		return nil, err
	}
	r.Data = []byte(data)
	r.CreatedAt = parseTime(createdAt)
	r.ExpiresAt = time.Unix(expiresAt, 0)
	return &r, nil
}

// PurgeExpiredShares deletes shares that expired at or before now.
func (db *DB) PurgeExpiredShares(now time.Time) (int64, error) {
	res, err := db.Exec(db.Q(`DELETE FROM shares WHERE expires_at <= ?`), now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
