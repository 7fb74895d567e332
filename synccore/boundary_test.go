package synccore

import (
	"context"
	"testing"
)

func TestRunEmptyStreamWithNoResolvableCheckpointSkipsSave(t *testing.T) {
	src := &DummySource[string]{}
	state := NewDummyStateStore()
	job := NewSyncJob[string, string]("s", src, identityMapper(), &DummyTarget[string]{}, state, &DummyLogger{})

	result, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Total() != 0 {
		t.Fatalf("result.Total() = %d, want 0", result.Total())
	}
	if len(state.SavedCheckpoints) != 0 {
		t.Fatalf("empty stream with no resolvable checkpoint saved: %v", state.SavedCheckpoints)
	}
}

func TestRunEmptyStreamAdvancesCheckpointWhenResolved(t *testing.T) {
	src := &forcedCheckpointSource[string]{inner: &DummySource[string]{}, checkpoint: ImmediateCheckpoint("cp-empty")}
	state := NewDummyStateStore()
	job := NewSyncJob[string, string]("s", src, identityMapper(), &DummyTarget[string]{}, state, &DummyLogger{})

	result, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Total() != 0 {
		t.Fatalf("result.Total() = %d, want 0", result.Total())
	}
	if len(state.SavedCheckpoints) != 1 || state.SavedCheckpoints[0] != "cp-empty" {
		t.Fatalf("saved checkpoints = %v, want [cp-empty]", state.SavedCheckpoints)
	}
}

// forcedCheckpointSource wraps a Source and replaces its checkpoint
// unconditionally, to test driver behavior against a fixed CheckpointValue
// independent of how many items the inner Source happens to yield.
type forcedCheckpointSource[TSource any] struct {
	inner      Source[TSource]
	checkpoint CheckpointValue
}

func (f *forcedCheckpointSource[TSource]) Fetch(ctx context.Context, since *string) (FetchResult[TSource], error) {
	fr, err := f.inner.Fetch(ctx, since)
	if err != nil {
		return FetchResult[TSource]{}, err
	}
	fr.Checkpoint = f.checkpoint
	return fr, nil
}

func (f *forcedCheckpointSource[TSource]) Validate(ctx context.Context, key ExternalKey, payload Payload[TSource]) error {
	return f.inner.Validate(ctx, key, payload)
}

func TestRunDeferredCheckpointReturningNullSkipsSave(t *testing.T) {
	key := ExternalKey{System: "s", Key: "K"}
	src := &DummySource[string]{Items: []DummySourceItem[string]{
		{Key: key, Payload: Payload[string]{Data: "x", Version: "V"}, Checkpoint: ""},
	}}
	state := NewDummyStateStore()

	// DummySource always reports hasValue=true once an item is consumed;
	// simulate a Source whose deferred checkpoint legitimately never
	// resolves by forcing a deferred value that reports no token.
	neverResolves := DeferredCheckpoint(func() (string, bool, error) { return "", false, nil })
	wrapped := &forcedCheckpointSource[string]{inner: src, checkpoint: neverResolves}
	job := NewSyncJob[string, string]("s", wrapped, identityMapper(), &DummyTarget[string]{}, state, &DummyLogger{})
	result, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("result = %+v, want created=1", result)
	}
	if len(state.SavedCheckpoints) != 0 {
		t.Fatalf("checkpoint saved despite a deferred value that never resolves: %v", state.SavedCheckpoints)
	}
}

func TestRunMaxAttemptsOneSkipsAfterFirstFailure(t *testing.T) {
	key := ExternalKey{System: "s", Key: "K"}
	target := &DummyTarget[string]{UpsertErr: map[ExternalKey]error{
		key: NewTemporaryTargetError("unavailable", nil),
	}}
	state := NewDummyStateStore()
	logger := &DummyLogger{}

	run := func() SyncResult {
		src := &DummySource[string]{Items: []DummySourceItem[string]{
			{Key: key, Payload: Payload[string]{Data: "x", Version: "V"}, Checkpoint: "cp-V"},
		}}
		job := NewSyncJob[string, string]("s", src, identityMapper(), target, state, logger)
		job.MaxAttempts = 1
		result, err := job.Run(context.Background())
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		return result
	}

	first := run()
	if first.Failed != 1 {
		t.Fatalf("first run result = %+v, want failed=1", first)
	}
	st, ok, _ := state.GetItemState(context.Background(), key)
	if !ok || st.Status != StatusTempError || st.Attempts != 1 {
		t.Fatalf("state after first run = %+v (ok=%v), want TEMP_ERROR attempts=1", st, ok)
	}

	second := run()
	if second.Skipped != 1 {
		t.Fatalf("second run result = %+v, want skipped=1 (max_attempts reached after one attempt)", second)
	}
}

func TestSyncResultTotalsAlwaysAccountForEveryItem(t *testing.T) {
	r := NewSyncResult()
	r = r.Inc(2, 1, 1, 1)
	if r.Total() != 5 {
		t.Fatalf("Total() = %d, want 5", r.Total())
	}
}
