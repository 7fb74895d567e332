package store

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"sync"

	"github.com/avk2it/synccore/synccore"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed synccore.StateStore.
//
// It keeps checkpoints, bindings, and item states in a single-file
// database. Designed for:
//   - Development and single-process deployments that need state to
//     survive a restart without standing up a database server
//   - Prototyping before migrating to MySQLStore
//
// SQLiteStore runs in WAL mode for concurrent reads.
//
// Schema:
//   - sync_checkpoint: one row per stream
//   - sync_binding: external-key -> internal-id + version
//   - sync_item_state: per-key processing state and attempt count
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at path,
// enables WAL mode, and creates the schema if it doesn't already exist.
// path may be ":memory:" for an ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite connection: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sync_checkpoint (
			stream TEXT PRIMARY KEY,
			token TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sync_binding (
			system TEXT NOT NULL,
			key TEXT NOT NULL,
			internal_id TEXT NOT NULL,
			version TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (system, key)
		)`,
		`CREATE TABLE IF NOT EXISTS sync_item_state (
			system TEXT NOT NULL,
			key TEXT NOT NULL,
			version TEXT NOT NULL,
			status TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			last_error TEXT,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (system, key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_binding_system ON sync_binding(system)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *SQLiteStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}

func (s *SQLiteStore) GetCheckpoint(ctx context.Context, stream string) (string, bool, error) {
	if err := s.checkOpen(); err != nil {
		return "", false, err
	}
	var token string
	err := s.db.QueryRowContext(ctx, `SELECT token FROM sync_checkpoint WHERE stream = ?`, stream).Scan(&token)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, synccore.NewTemporaryStateError("get checkpoint", err)
	}
	return token, true, nil
}

func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, stream string, token string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_checkpoint (stream, token) VALUES (?, ?)
		ON CONFLICT(stream) DO UPDATE SET token = excluded.token, updated_at = CURRENT_TIMESTAMP
	`, stream, token)
	if err != nil {
		return synccore.NewTemporaryStateError("save checkpoint", err)
	}
	return nil
}

func (s *SQLiteStore) Bind(ctx context.Context, key synccore.ExternalKey, internalID string, version string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_binding (system, key, internal_id, version) VALUES (?, ?, ?, ?)
		ON CONFLICT(system, key) DO UPDATE SET
			internal_id = excluded.internal_id,
			version = excluded.version,
			updated_at = CURRENT_TIMESTAMP
	`, key.System, key.Key, internalID, version)
	if err != nil {
		return synccore.NewTemporaryStateError("bind", err)
	}
	return nil
}

func (s *SQLiteStore) GetBinding(ctx context.Context, key synccore.ExternalKey) (synccore.Binding, bool, error) {
	if err := s.checkOpen(); err != nil {
		return synccore.Binding{}, false, err
	}
	var b synccore.Binding
	err := s.db.QueryRowContext(ctx, `SELECT internal_id, version FROM sync_binding WHERE system = ? AND key = ?`, key.System, key.Key).Scan(&b.InternalID, &b.Version)
	if err == sql.ErrNoRows {
		return synccore.Binding{}, false, nil
	}
	if err != nil {
		return synccore.Binding{}, false, synccore.NewTemporaryStateError("get binding", err)
	}
	return b, true, nil
}

func (s *SQLiteStore) ValidateBinding(_ context.Context, _ synccore.ExternalKey, binding synccore.Binding) error {
	if binding.InternalID == "" {
		return synccore.NewPermanentStateError("binding has empty internal id", nil)
	}
	return nil
}

func (s *SQLiteStore) IterBindings(ctx context.Context, system string) (iter.Seq[synccore.KeyBinding], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT key, internal_id, version FROM sync_binding WHERE system = ?`, system)
	if err != nil {
		return nil, synccore.NewTemporaryStateError("iter bindings", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot []synccore.KeyBinding
	for rows.Next() {
		var key, internalID, version string
		if err := rows.Scan(&key, &internalID, &version); err != nil {
			return nil, synccore.NewTemporaryStateError("scan binding row", err)
		}
		snapshot = append(snapshot, synccore.KeyBinding{
			Key:     synccore.ExternalKey{System: system, Key: key},
			Binding: synccore.Binding{InternalID: internalID, Version: version},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, synccore.NewTemporaryStateError("iterate binding rows", err)
	}

	return func(yield func(synccore.KeyBinding) bool) {
		for _, kb := range snapshot {
			if !yield(kb) {
				return
			}
		}
	}, nil
}

func (s *SQLiteStore) GetItemState(ctx context.Context, key synccore.ExternalKey) (synccore.SyncItemState, bool, error) {
	if err := s.checkOpen(); err != nil {
		return synccore.SyncItemState{}, false, err
	}
	var (
		st        synccore.SyncItemState
		lastError sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT version, status, attempts, last_error FROM sync_item_state WHERE system = ? AND key = ?
	`, key.System, key.Key).Scan(&st.Version, &st.Status, &st.Attempts, &lastError)
	if err == sql.ErrNoRows {
		return synccore.SyncItemState{}, false, nil
	}
	if err != nil {
		return synccore.SyncItemState{}, false, synccore.NewTemporaryStateError("get item state", err)
	}
	st.Key = key
	st.LastError = lastError.String
	return st, true, nil
}

func (s *SQLiteStore) SaveItemState(ctx context.Context, state synccore.SyncItemState) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_item_state (system, key, version, status, attempts, last_error)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(system, key) DO UPDATE SET
			version = excluded.version,
			status = excluded.status,
			attempts = excluded.attempts,
			last_error = excluded.last_error,
			updated_at = CURRENT_TIMESTAMP
	`, state.Key.System, state.Key.Key, state.Version, state.Status, state.Attempts, state.LastError)
	if err != nil {
		return synccore.NewTemporaryStateError("save item state", err)
	}
	return nil
}

// Close closes the underlying database connection. Safe to call more than
// once.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}

// Path returns the database file path this store was opened with.
func (s *SQLiteStore) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

var _ synccore.StateStore = (*SQLiteStore)(nil)
