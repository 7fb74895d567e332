package synccore

import (
	"context"
	"iter"
)

// StateStore persists stream checkpoints and the external-key-to-internal-
// id bindings and per-item states that make incremental sync possible. The
// driver assumes a single writer per stream, but implementations must
// remain correct under SaveCheckpoint and Bind racing across different
// streams and keys, since independent streams may run concurrently in the
// same process (see the runner package).
type StateStore interface {
	// GetCheckpoint returns the last persisted token for stream, and
	// whether one exists.
	GetCheckpoint(ctx context.Context, stream string) (token string, ok bool, err error)

	// SaveCheckpoint upserts the token for stream. Atomic per stream.
	SaveCheckpoint(ctx context.Context, stream string, token string) error

	// Bind upserts a binding for key. Atomic per key.
	Bind(ctx context.Context, key ExternalKey, internalID string, version string) error

	// GetBinding returns the binding for key, if one exists.
	GetBinding(ctx context.Context, key ExternalKey) (binding Binding, ok bool, err error)

	// ValidateBinding raises a *SyncError of origin OriginState if binding
	// is structurally invalid (e.g. an empty internal id).
	ValidateBinding(ctx context.Context, key ExternalKey, binding Binding) error

	// IterBindings returns every binding for system as a lazy sequence,
	// used by deletion reconciliation to diff against a full snapshot.
	IterBindings(ctx context.Context, system string) (iter.Seq[KeyBinding], error)

	// GetItemState returns the saved processing state for key, if any.
	GetItemState(ctx context.Context, key ExternalKey) (state SyncItemState, ok bool, err error)

	// SaveItemState upserts the processing state by key.
	SaveItemState(ctx context.Context, state SyncItemState) error
}
