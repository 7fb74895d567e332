// Package store provides StateStore implementations: an in-memory one for
// tests and single-process use, and SQLite/MySQL backends for anything that
// needs to survive a restart.
package store

import (
	"context"
	"iter"
	"sync"

	"github.com/avk2it/synccore/synccore"
)

// MemStore is an in-memory synccore.StateStore.
//
// It keeps checkpoints, bindings, and item states in maps guarded by a
// single RWMutex. Designed for:
//   - Tests
//   - Single-process streams
//   - Short-lived or disposable sync runs
//
// MemStore is thread-safe and supports concurrent access across streams.
//
// Limitations:
//   - Data is lost when the process exits
//   - Not suitable for multiple processes sharing one stream
//
// For persistence across restarts, use SQLiteStore or MySQLStore.
type MemStore struct {
	mu          sync.RWMutex
	checkpoints map[string]string
	bindings    map[synccore.ExternalKey]synccore.Binding
	itemStates  map[synccore.ExternalKey]synccore.SyncItemState
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		checkpoints: make(map[string]string),
		bindings:    make(map[synccore.ExternalKey]synccore.Binding),
		itemStates:  make(map[synccore.ExternalKey]synccore.SyncItemState),
	}
}

func (m *MemStore) GetCheckpoint(_ context.Context, stream string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	token, ok := m.checkpoints[stream]
	return token, ok, nil
}

func (m *MemStore) SaveCheckpoint(_ context.Context, stream string, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoints[stream] = token
	return nil
}

func (m *MemStore) Bind(_ context.Context, key synccore.ExternalKey, internalID string, version string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[key] = synccore.Binding{InternalID: internalID, Version: version}
	return nil
}

func (m *MemStore) GetBinding(_ context.Context, key synccore.ExternalKey) (synccore.Binding, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bindings[key]
	return b, ok, nil
}

// ValidateBinding rejects a binding with an empty internal id: that can
// never be a legitimate result of a Target.Upsert call.
func (m *MemStore) ValidateBinding(_ context.Context, key synccore.ExternalKey, binding synccore.Binding) error {
	if binding.InternalID == "" {
		return synccore.NewPermanentStateError("binding has empty internal id", nil)
	}
	return nil
}

// IterBindings returns a snapshot of the bindings for system taken under
// the read lock, so the caller can range over it without holding the lock
// for the duration of a possibly slow deletion-reconciliation pass.
func (m *MemStore) IterBindings(_ context.Context, system string) (iter.Seq[synccore.KeyBinding], error) {
	m.mu.RLock()
	snapshot := make([]synccore.KeyBinding, 0, len(m.bindings))
	for k, b := range m.bindings {
		if k.System == system {
			snapshot = append(snapshot, synccore.KeyBinding{Key: k, Binding: b})
		}
	}
	m.mu.RUnlock()

	return func(yield func(synccore.KeyBinding) bool) {
		for _, kb := range snapshot {
			if !yield(kb) {
				return
			}
		}
	}, nil
}

func (m *MemStore) GetItemState(_ context.Context, key synccore.ExternalKey) (synccore.SyncItemState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.itemStates[key]
	return st, ok, nil
}

func (m *MemStore) SaveItemState(_ context.Context, state synccore.SyncItemState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.itemStates[state.Key] = state
	return nil
}

var _ synccore.StateStore = (*MemStore)(nil)
