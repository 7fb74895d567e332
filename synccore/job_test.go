package synccore

import (
	"context"
	"testing"
)

func identityMapper() *DummyMapper[string, string] {
	return &DummyMapper[string, string]{
		MapFunc: func(key ExternalKey, payload Payload[string]) Projection[string] {
			return Projection[string]{Kind: "item", Data: payload.Data}
		},
	}
}

func TestRunBatchedCheckpointSaves(t *testing.T) {
	src := &DummySource[string]{}
	for i := 1; i <= 5; i++ {
		src.Items = append(src.Items, DummySourceItem[string]{
			Key:        ExternalKey{System: "s", Key: string(rune('0' + i))},
			Payload:    Payload[string]{Data: "x", Version: string(rune('0' + i))},
			Checkpoint: "cp-" + string(rune('0'+i)),
		})
	}
	state := NewDummyStateStore()
	logger := &DummyLogger{}
	job := NewSyncJob[string, string]("s", src, identityMapper(), &DummyTarget[string]{}, state, logger)
	job.CheckpointSaveEvery = 3

	result, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Created != 5 || result.Updated != 0 || result.Skipped != 0 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	want := []string{"cp-3", "cp-5", "cp-5"}
	if len(state.SavedCheckpoints) != len(want) {
		t.Fatalf("saved checkpoints = %v, want %v", state.SavedCheckpoints, want)
	}
	for i, w := range want {
		if state.SavedCheckpoints[i] != w {
			t.Fatalf("saved checkpoints = %v, want %v", state.SavedCheckpoints, want)
		}
	}
}

func TestRunRetryableTempErrorBlocksCheckpoint(t *testing.T) {
	keyTwo := ExternalKey{System: "s", Key: "2"}
	src := &DummySource[string]{
		Items: []DummySourceItem[string]{
			{Key: ExternalKey{System: "s", Key: "1"}, Payload: Payload[string]{Data: "a", Version: "v1"}, Checkpoint: "cp-1"},
			{Key: keyTwo, Payload: Payload[string]{Data: "b", Version: "v1"}, Checkpoint: "cp-2"},
		},
	}
	target := &DummyTarget[string]{UpsertErr: map[ExternalKey]error{
		keyTwo: NewTemporaryTargetError("unavailable", nil),
	}}
	state := NewDummyStateStore()
	logger := &DummyLogger{}
	job := NewSyncJob[string, string]("s", src, identityMapper(), target, state, logger)
	job.CheckpointSaveEvery = 1
	job.MaxAttempts = 3

	result, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(state.SavedCheckpoints) != 1 || state.SavedCheckpoints[0] != "cp-1" {
		t.Fatalf("saved checkpoints = %v, want [cp-1]", state.SavedCheckpoints)
	}
	st, ok, _ := state.GetItemState(context.Background(), keyTwo)
	if !ok || st.Status != StatusTempError || st.Attempts != 1 {
		t.Fatalf("item state for key 2 = %+v (ok=%v), want TEMP_ERROR attempts=1", st, ok)
	}
	if result.Failed != 1 {
		t.Fatalf("result.Failed = %d, want 1", result.Failed)
	}
}

func TestRunVersionEqualShortCircuit(t *testing.T) {
	key := ExternalKey{System: "s", Key: "K"}
	state := NewDummyStateStore()
	if err := state.Bind(context.Background(), key, "internal-1", "V"); err != nil {
		t.Fatalf("seed binding: %v", err)
	}

	src := &DummySource[string]{Items: []DummySourceItem[string]{
		{Key: key, Payload: Payload[string]{Data: "x", Version: "V"}, Checkpoint: "cp-1"},
	}}
	target := &DummyTarget[string]{}
	logger := &DummyLogger{}
	job := NewSyncJob[string, string]("s", src, identityMapper(), target, state, logger)

	result, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Skipped != 1 || result.Created != 0 || result.Updated != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(target.Records) != 0 {
		t.Fatalf("target was called: %+v", target.Records)
	}

	found := false
	for _, e := range logger.Snapshot() {
		if e.Kind == "skipped" && e.Key == key && e.Reason == SkipReasonSameVersion {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected on_skipped(K, same_version) event, got %+v", logger.Snapshot())
	}
}

func TestRunPermanentErrorTerminatesKey(t *testing.T) {
	key := ExternalKey{System: "s", Key: "K"}
	mapper := identityMapper()
	mapper.ValidateErr = map[ExternalKey]error{key: NewPermanentMappingError("bad rule", nil)}

	state := NewDummyStateStore()
	logger := &DummyLogger{}
	target := &DummyTarget[string]{}

	runWith := func(version string) SyncResult {
		src := &DummySource[string]{Items: []DummySourceItem[string]{
			{Key: key, Payload: Payload[string]{Data: "x", Version: version}, Checkpoint: "cp-" + version},
		}}
		job := NewSyncJob[string, string]("s", src, mapper, target, state, logger)
		result, err := job.Run(context.Background())
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		return result
	}

	runWith("V1")
	st, ok, _ := state.GetItemState(context.Background(), key)
	if !ok || st.Status != StatusPermError {
		t.Fatalf("item state after first run = %+v (ok=%v), want PERM_ERROR", st, ok)
	}

	runWith("V1")
	events := logger.Snapshot()
	lastSkip := events[len(events)-1]
	if lastSkip.Kind != "skipped" || lastSkip.Reason != SkipReasonPermError {
		t.Fatalf("second run with same version: last event = %+v, want skipped(perm_error)", lastSkip)
	}

	delete(mapper.ValidateErr, key)
	result := runWith("V2")
	if result.Created != 1 {
		t.Fatalf("third run with new version: result = %+v, want created=1", result)
	}
}

func TestRunCheckpointRequiredAborts(t *testing.T) {
	src := &DummySource[string]{CheckpointRequired: true}
	state := NewDummyStateStore()
	logger := &DummyLogger{}
	job := NewSyncJob[string, string]("s", src, identityMapper(), &DummyTarget[string]{}, state, logger)

	_, err := job.Run(context.Background())
	if err == nil || !IsPermanent(err) {
		t.Fatalf("Run error = %v, want a permanent error", err)
	}
	if len(state.SavedCheckpoints) != 0 {
		t.Fatalf("state mutated: saved checkpoints = %v", state.SavedCheckpoints)
	}

	events := logger.Snapshot()
	if len(events) != 1 || events[0].Kind != "error" || events[0].Key != (ExternalKey{System: "s", Key: "__fetch__"}) {
		t.Fatalf("unexpected logger events: %+v", events)
	}
}

func TestRunTempErrorReachesAttemptCap(t *testing.T) {
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
		job.MaxAttempts = 2
		result, err := job.Run(context.Background())
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		return result
	}

	run()
	run()
	st, ok, _ := state.GetItemState(context.Background(), key)
	if !ok || st.Status != StatusTempError || st.Attempts != 2 {
		t.Fatalf("state after two failed runs = %+v (ok=%v), want TEMP_ERROR attempts=2", st, ok)
	}

	delete(target.UpsertErr, key)
	result := run()
	if result.Skipped != 1 {
		t.Fatalf("third run result = %+v, want skipped=1", result)
	}
	if len(state.SavedCheckpoints) == 0 || state.SavedCheckpoints[len(state.SavedCheckpoints)-1] != "cp-V" {
		t.Fatalf("third run did not advance checkpoint: %v", state.SavedCheckpoints)
	}

	events := logger.Snapshot()
	lastSkip := events[len(events)-1]
	if lastSkip.Kind != "skipped" || lastSkip.Reason != SkipReasonMaxAttempts {
		t.Fatalf("last event = %+v, want skipped(max_attempts)", lastSkip)
	}
}
