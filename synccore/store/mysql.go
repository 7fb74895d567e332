package store

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/avk2it/synccore/synccore"
	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB-backed synccore.StateStore.
//
// Designed for:
//   - Production streams requiring persistence across restarts
//   - Multiple worker processes sharing the same stream's state
//
// Schema:
//   - sync_checkpoint: one row per stream
//   - sync_binding: external-key -> internal-id + version
//   - sync_item_state: per-key processing state and attempt count
type MySQLStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore opens a MySQL-backed store.
//
// The DSN (Data Source Name) format is:
//
//	[username[:password]@][protocol[(address)]]/dbname[?param1=value1&...]
//
// Example DSNs:
//
//	user:password@tcp(localhost:3306)/synccore
//	user:password@tcp(127.0.0.1:3306)/synccore?parseTime=true
//
// Security Warning:
//
//	Never hardcode credentials in source. Read the DSN from configuration:
//	    dsn := os.Getenv("SYNCCORE_MYSQL_DSN")
//	    if dsn == "" {
//	        log.Fatal("SYNCCORE_MYSQL_DSN environment variable not set")
//	    }
//	    s, err := store.NewMySQLStore(dsn)
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (m *MySQLStore) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sync_checkpoint (
			stream VARCHAR(255) NOT NULL PRIMARY KEY,
			token VARCHAR(1024) NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
		`CREATE TABLE IF NOT EXISTS sync_binding (
			system VARCHAR(255) NOT NULL,
			key_value VARCHAR(255) NOT NULL,
			internal_id VARCHAR(255) NOT NULL,
			version VARCHAR(255) NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (system, key_value),
			INDEX idx_sync_binding_system (system)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
		`CREATE TABLE IF NOT EXISTS sync_item_state (
			system VARCHAR(255) NOT NULL,
			key_value VARCHAR(255) NOT NULL,
			version VARCHAR(255) NOT NULL,
			status VARCHAR(32) NOT NULL,
			attempts INT NOT NULL,
			last_error TEXT,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (system, key_value)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	}
	for _, stmt := range stmts {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}
	return nil
}

func (m *MySQLStore) checkOpen() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}

func (m *MySQLStore) GetCheckpoint(ctx context.Context, stream string) (string, bool, error) {
	if err := m.checkOpen(); err != nil {
		return "", false, err
	}
	var token string
	err := m.db.QueryRowContext(ctx, `SELECT token FROM sync_checkpoint WHERE stream = ?`, stream).Scan(&token)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, synccore.NewTemporaryStateError("get checkpoint", err)
	}
	return token, true, nil
}

func (m *MySQLStore) SaveCheckpoint(ctx context.Context, stream string, token string) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO sync_checkpoint (stream, token) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE token = VALUES(token)
	`, stream, token)
	if err != nil {
		return synccore.NewTemporaryStateError("save checkpoint", err)
	}
	return nil
}

func (m *MySQLStore) Bind(ctx context.Context, key synccore.ExternalKey, internalID string, version string) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO sync_binding (system, key_value, internal_id, version) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE internal_id = VALUES(internal_id), version = VALUES(version)
	`, key.System, key.Key, internalID, version)
	if err != nil {
		return synccore.NewTemporaryStateError("bind", err)
	}
	return nil
}

func (m *MySQLStore) GetBinding(ctx context.Context, key synccore.ExternalKey) (synccore.Binding, bool, error) {
	if err := m.checkOpen(); err != nil {
		return synccore.Binding{}, false, err
	}
	var b synccore.Binding
	err := m.db.QueryRowContext(ctx, `SELECT internal_id, version FROM sync_binding WHERE system = ? AND key_value = ?`, key.System, key.Key).Scan(&b.InternalID, &b.Version)
	if err == sql.ErrNoRows {
		return synccore.Binding{}, false, nil
	}
	if err != nil {
		return synccore.Binding{}, false, synccore.NewTemporaryStateError("get binding", err)
	}
	return b, true, nil
}

func (m *MySQLStore) ValidateBinding(_ context.Context, _ synccore.ExternalKey, binding synccore.Binding) error {
	if binding.InternalID == "" {
		return synccore.NewPermanentStateError("binding has empty internal id", nil)
	}
	return nil
}

func (m *MySQLStore) IterBindings(ctx context.Context, system string) (iter.Seq[synccore.KeyBinding], error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := m.db.QueryContext(ctx, `SELECT key_value, internal_id, version FROM sync_binding WHERE system = ?`, system)
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

func (m *MySQLStore) GetItemState(ctx context.Context, key synccore.ExternalKey) (synccore.SyncItemState, bool, error) {
	if err := m.checkOpen(); err != nil {
		return synccore.SyncItemState{}, false, err
	}
	var (
		st        synccore.SyncItemState
		lastError sql.NullString
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT version, status, attempts, last_error FROM sync_item_state WHERE system = ? AND key_value = ?
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

func (m *MySQLStore) SaveItemState(ctx context.Context, state synccore.SyncItemState) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO sync_item_state (system, key_value, version, status, attempts, last_error)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			version = VALUES(version),
			status = VALUES(status),
			attempts = VALUES(attempts),
			last_error = VALUES(last_error)
	`, state.Key.System, state.Key.Key, state.Version, state.Status, state.Attempts, state.LastError)
	if err != nil {
		return synccore.NewTemporaryStateError("save item state", err)
	}
	return nil
}

// Close closes the connection pool. Safe to call more than once.
func (m *MySQLStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

// Ping verifies the database connection is alive.
func (m *MySQLStore) Ping(ctx context.Context) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	return m.db.PingContext(ctx)
}

// Stats returns connection pool statistics, useful for monitoring.
func (m *MySQLStore) Stats() sql.DBStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db.Stats()
}

var _ synccore.StateStore = (*MySQLStore)(nil)
