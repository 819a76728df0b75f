// Package storage provides the durable snapshot store for userdeck.
//
// The cache state is persisted as a single JSON-serialized snapshot in
// an embedded SQLite database. Every mutation re-serializes the whole
// snapshot; at this data scale (tens of users) that is cheaper than
// keyed persistence and keeps the load path trivial.
//
// The database runs in embedded mode using the ncruces/go-sqlite3
// driver with WAL enabled, so a watch daemon in another process can
// read the file while this process writes it.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/userdeck/userdeck/internal/types"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// snapshotKey is the fixed key the full snapshot is stored under.
const snapshotKey = "snapshot"

// Store wraps the SQLite connection holding the persisted snapshot.
type Store struct {
	conn   *sql.DB
	path   string
	logger *log.Logger
}

// Open creates a snapshot store at the specified path.
//
// The database is created along with its schema if it does not exist.
// The caller MUST call Close() when done.
//
// If logger is nil, a default logger writing to stderr is used.
//
// Example:
//
//	st, err := storage.Open(filepath.Join(dir, "cache.db"), nil)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[storage] ", log.LstdFlags)
	}

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s", path)
	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	st := &Store{
		conn:   conn,
		path:   path,
		logger: logger,
	}

	// WAL mode lets the watch daemon in another process read during writes
	if _, err := st.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := st.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := st.initSchema(context.Background()); err != nil {
		_ = st.Close()
		return nil, err
	}

	return st, nil
}

// Path returns the filesystem path of the backing database file.
func (st *Store) Path() string {
	return st.path
}

// Close closes the database connection.
// Performs a WAL checkpoint to ensure all changes are persisted.
func (st *Store) Close() error {
	if st.conn == nil {
		return nil
	}

	if _, err := st.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		st.logger.Printf("Warning: failed to checkpoint WAL: %v", err)
	}

	if err := st.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	st.conn = nil
	return nil
}

// initSchema creates the state table if it doesn't exist. Idempotent.
func (st *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS state (
		key        TEXT PRIMARY KEY,
		payload    BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	if _, err := st.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save serializes the full snapshot and overwrites the previous entry.
// The upsert is a single statement, so a concurrent reader sees either
// the old payload or the new one, never a partial write.
func (st *Store) Save(snap types.Snapshot) error {
	return st.SaveContext(context.Background(), snap)
}

// SaveContext is Save with context support.
func (st *Store) SaveContext(ctx context.Context, snap types.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	query := `
	INSERT INTO state (key, payload, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		payload = excluded.payload,
		updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := st.conn.ExecContext(ctx, query, snapshotKey, payload, now); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}

// Load deserializes the persisted snapshot.
//
// Returns ok=false when no entry exists. A malformed payload does not
// fail startup: the discard is logged and an empty snapshot is
// returned, so the cache degrades to a cold start instead of crashing.
func (st *Store) Load() (types.Snapshot, bool) {
	return st.LoadContext(context.Background())
}

// LoadContext is Load with context support.
func (st *Store) LoadContext(ctx context.Context) (types.Snapshot, bool) {
	var payload []byte
	query := `SELECT payload FROM state WHERE key = ?`
	err := st.conn.QueryRowContext(ctx, query, snapshotKey).Scan(&payload)
	if err == sql.ErrNoRows {
		return types.NewSnapshot(), false
	}
	if err != nil {
		st.logger.Printf("Warning: failed to read persisted snapshot, starting empty: %v", err)
		return types.NewSnapshot(), false
	}

	var snap types.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		st.logger.Printf("Warning: discarding malformed persisted snapshot (%d bytes): %v", len(payload), err)
		return types.NewSnapshot(), false
	}

	// Normalize nil containers so callers never see nil maps/slices
	if snap.Users == nil {
		snap.Users = []types.User{}
	}
	if snap.PostsByUserID == nil {
		snap.PostsByUserID = make(map[int][]types.Post)
	}

	return snap, true
}
