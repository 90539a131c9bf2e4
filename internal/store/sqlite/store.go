// Package sqlite is the durable per-user store: the full engine state bundle
// is written as a JSON snapshot row after every mutation, and executed fills
// are mirrored into an append-only transactions table.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"papertradev1/internal/engine"

	_ "github.com/mattn/go-sqlite3"
)

// keepSnapshots bounds the snapshot history retained after pruning.
const keepSnapshots = 10

// Config configures the SQLite store.
type Config struct {
	DBPath string // path to SQLite database file, e.g. "data/papertrade.db"
}

// Store is a single-writer SQLite store.
type Store struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// New opens the database, enables WAL mode and creates the schema.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer connection pool: the engine loop is the only writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS state_snapshots (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			data     TEXT    NOT NULL,
			saved_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS transactions (
			id            TEXT    PRIMARY KEY,
			side          TEXT    NOT NULL,
			instrument_id TEXT    NOT NULL,
			symbol        TEXT    NOT NULL,
			qty           INTEGER NOT NULL,
			price         INTEGER NOT NULL,
			total         INTEGER NOT NULL,
			ts            INTEGER NOT NULL
		);
	`)
	return err
}

// SaveState writes the snapshot and mirrors its transactions in one
// database transaction, then prunes old snapshot rows.
func (s *Store) SaveState(snap *engine.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(
		`INSERT INTO state_snapshots (data, saved_at) VALUES (?, ?)`,
		string(data), snap.SavedAt.UnixNano(),
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite insert snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO transactions (id, side, instrument_id, symbol, qty, price, total, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, t := range snap.Transactions {
		if _, err := stmt.Exec(t.ID, string(t.Side), t.InstrumentID, t.Symbol,
			t.Qty, t.Price, t.Total, t.Timestamp.UnixNano()); err != nil {
			tx.Rollback()
			return err
		}
	}

	if _, err := tx.Exec(
		`DELETE FROM state_snapshots WHERE id NOT IN
			(SELECT id FROM state_snapshots ORDER BY id DESC LIMIT ?)`,
		keepSnapshots,
	); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// LoadLatest returns the most recent persisted snapshot, or nil if the store
// is empty.
func (s *Store) LoadLatest() (*engine.Snapshot, error) {
	var data string
	err := s.db.QueryRow(
		`SELECT data FROM state_snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap engine.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// TransactionCount returns the number of fills mirrored into the durable
// transactions table.
func (s *Store) TransactionCount() (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
