// Package store persists schedule snapshots so the last known good schedule
// survives restarts and upstream outages.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/outages/core/schedule"
)

// DefaultKeep is the number of snapshots retained by default.
const DefaultKeep = 10

// SQLiteStore keeps the most recent snapshots in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	keep int
}

// NewSQLiteStore opens or creates the database and ensures schema. keep
// bounds the history; values below 1 mean DefaultKeep.
func NewSQLiteStore(path string, keep int) (*SQLiteStore, error) {
	if keep < 1 {
		keep = DefaultKeep
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	schema := `CREATE TABLE IF NOT EXISTS snapshots (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        provider TEXT NOT NULL,
        fetched_at INTEGER NOT NULL,
        updated_on INTEGER,
        data TEXT NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, keep: keep}, nil
}

// Save appends snap and prunes snapshots beyond the retention limit.
func (s *SQLiteStore) Save(ctx context.Context, snap *schedule.Snapshot) error {
	if snap == nil {
		return errors.New("store: nil snapshot")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: encode snapshot: %w", err)
	}
	var updated sql.NullInt64
	if !snap.UpdatedOn.IsZero() {
		updated = sql.NullInt64{Int64: snap.UpdatedOn.Unix(), Valid: true}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `INSERT INTO snapshots (provider, fetched_at, updated_on, data)
        VALUES (?, ?, ?, ?)`,
		snap.Provider, snap.FetchedAt.Unix(), updated, string(data)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id NOT IN
        (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`, s.keep); err != nil {
		return err
	}
	return tx.Commit()
}

// Latest returns the most recently saved snapshot, or nil when the store is
// empty.
func (s *SQLiteStore) Latest(ctx context.Context) (*schedule.Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap schedule.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("store: decode snapshot: %w", err)
	}
	return &snap, nil
}

// Entry summarises one stored snapshot.
type Entry struct {
	ID        int64
	Provider  string
	FetchedAt time.Time
	UpdatedOn time.Time
}

// History lists stored snapshots, newest first.
func (s *SQLiteStore) History(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, provider, fetched_at, updated_on
        FROM snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Entry
	for rows.Next() {
		var e Entry
		var fetched int64
		var updated sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Provider, &fetched, &updated); err != nil {
			return nil, err
		}
		e.FetchedAt = time.Unix(fetched, 0).UTC()
		if updated.Valid {
			e.UpdatedOn = time.Unix(updated.Int64, 0).UTC()
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
