package store

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/crypto/blake2b"
)

// SnapshotRecord is the serialized plan stored under a named slot.
type SnapshotRecord struct {
	Slot      string
	Version   int
	Data      []byte
	Checksum  string
	UpdatedAt time.Time
}

// Checksum returns the hex BLAKE2b-256 digest of data.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SaveSnapshot writes data to slot. It reports false without writing when the
// slot already holds identical bytes.
func (db *DB) SaveSnapshot(slot string, version int, data []byte) (bool, error) {
	sum := Checksum(data)
	var current string
	err := db.QueryRow(db.Q(`SELECT checksum FROM snapshots WHERE slot=?`), slot).Scan(&current)
	switch {
	case err == nil && current == sum:
		return false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return false, err
	}
	_, err = db.Exec(db.Q(`INSERT INTO snapshots (slot, version, data, checksum) VALUES (?, ?, ?, ?)
		ON CONFLICT (slot) DO UPDATE SET version=excluded.version, data=excluded.data,
		checksum=excluded.checksum, updated_at=datetime('now','localtime')`),
		slot, version, string(data), sum)
	if err != nil {
		return false, err
	}
	return true, nil
}

// LoadSnapshot returns sql.ErrNoRows when the slot is empty.
func (db *DB) LoadSnapshot(slot string) (*SnapshotRecord, error) {
	var r SnapshotRecord
	var data string
	var updatedAt any
	err := db.QueryRow(db.Q(`SELECT slot, version, data, checksum, updated_at FROM snapshots WHERE slot=?`), slot).
		Scan(&r.Slot, &r.Version, &data, &r.Checksum, &updatedAt)
	if err != nil {
		return nil, err
	}
	r.Data = []byte(data)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

func (db *DB) DeleteSnapshot(slot string) error {
	_, err := db.Exec(db.Q(`DELETE FROM snapshots WHERE slot=?`), slot)
	return err
}
