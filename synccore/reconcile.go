package synccore

import "context"

// ReconcileDeletions detects and removes target records whose source item
// no longer exists upstream. It only applies to Sources that additionally
// implement SnapshotSource, since detecting a deletion from an incremental
// (checkpoint-driven) feed alone is impossible: a missing key is
// indistinguishable from a key that simply hasn't changed since the last
// checkpoint. Streams whose Source does not implement SnapshotSource are a
// silent no-op, matching the original implementation leaving Target.Delete
// unwired by default.
func (j *SyncJob[TSource, TTarget]) ReconcileDeletions(ctx context.Context, system string) (deleted int, err error) {
	snapshotter, ok := j.Source.(SnapshotSource)
	if !ok {
		return 0, nil
	}

	live, err := snapshotter.SnapshotKeys(ctx)
	if err != nil {
		j.Logger.OnError(fetchErrorKey(j.Stream), err)
		return 0, err
	}

	bindings, err := j.State.IterBindings(ctx, system)
	if err != nil {
		j.Logger.OnError(fetchErrorKey(j.Stream), err)
		return 0, err
	}

	for kb := range bindings {
		if _, stillLive := live[kb.Key]; stillLive {
			continue
		}
		if err := j.Target.Delete(ctx, kb.Key, kb.Binding); err != nil {
			j.Logger.OnError(kb.Key, err)
			continue
		}
		j.Logger.OnDeleted(kb.Key, kb.Binding.InternalID)
		deleted++
	}

	return deleted, nil
}
