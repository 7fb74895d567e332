package synccore

import "context"

// Target upserts projections into the internal system. Implementations
// must be idempotent when the Source re-delivers the same (key, version):
// calling Upsert twice with the same projection and the binding it produced
// the first time must not create a duplicate record.
type Target[TTarget any] interface {
	// Validate checks that projection is ready to be written, raising a
	// *SyncError of origin OriginTarget on failure.
	Validate(ctx context.Context, key ExternalKey, projection Projection[TTarget]) error

	// Upsert creates a new record if binding is nil, or updates the record
	// identified by binding.InternalID otherwise, and returns the
	// (possibly new) internal id.
	Upsert(ctx context.Context, key ExternalKey, projection Projection[TTarget], binding *Binding) (internalID string, err error)

	// Delete removes or archives the record identified by binding. It is
	// only invoked by deletion reconciliation (SyncJob.ReconcileDeletions);
	// Targets that never participate in reconciliation may return nil
	// unconditionally.
	Delete(ctx context.Context, key ExternalKey, binding Binding) error
}
