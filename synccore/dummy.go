package synccore

import (
	"context"
	"fmt"
	"iter"
	"sync"
)

// This file collects fixed, in-memory implementations of every synccore
// interface. They are ordinary exported types rather than *_test.go
// helpers so that tests in other packages can use them too, and because
// tracking call history on
// an exported struct is easier to assert against than a closure.

// DummySourceItem is one item a DummySource yields, paired with the
// checkpoint value that becomes visible once this item has been consumed.
type DummySourceItem[TSource any] struct {
	Key        ExternalKey
	Payload    Payload[TSource]
	Checkpoint string
}

// DummySource is a fixed, single-page Source. It does not paginate: it
// yields Items in order and exposes a deferred checkpoint that advances to
// the Checkpoint of the last item consumed, so tests can assert the
// driver's batch-save behavior against a known per-item progression.
type DummySource[TSource any] struct {
	Items       []DummySourceItem[TSource]
	FetchErr    error
	ValidateErr map[ExternalKey]error

	// CheckpointRequired mirrors Base.CheckpointRequired: when true, Fetch
	// with a nil since rejects the call with a PermanentSourceError
	// instead of running a full scan implicitly.
	CheckpointRequired bool

	mu      sync.Mutex
	lastIdx int
}

func (d *DummySource[TSource]) Fetch(ctx context.Context, since *string) (FetchResult[TSource], error) {
	if d.CheckpointRequired && since == nil {
		return FetchResult[TSource]{}, NewPermanentSourceError("checkpoint required", nil)
	}
	if d.FetchErr != nil {
		return FetchResult[TSource]{}, d.FetchErr
	}

	d.mu.Lock()
	d.lastIdx = -1
	d.mu.Unlock()

	items := d.Items
	seq := func(yield func(ExternalKey, Payload[TSource]) bool) {
		for i, it := range items {
			d.mu.Lock()
			d.lastIdx = i
			d.mu.Unlock()
			if !yield(it.Key, it.Payload) {
				return
			}
		}
	}
	resolve := func() (string, bool, error) {
		d.mu.Lock()
		idx := d.lastIdx
		d.mu.Unlock()
		if idx < 0 {
			return "", false, nil
		}
		return items[idx].Checkpoint, true, nil
	}
	return FetchResult[TSource]{Items: seq, Checkpoint: DeferredCheckpoint(resolve)}, nil
}

func (d *DummySource[TSource]) Validate(ctx context.Context, key ExternalKey, payload Payload[TSource]) error {
	if err, ok := d.ValidateErr[key]; ok {
		return err
	}
	return nil
}

// DummySnapshotSource wraps a DummySource with SnapshotSource so
// ReconcileDeletions can be exercised without a real full-scan Source.
type DummySnapshotSource[TSource any] struct {
	DummySource[TSource]
	Snapshot    map[ExternalKey]struct{}
	SnapshotErr error
}

func (d *DummySnapshotSource[TSource]) SnapshotKeys(ctx context.Context) (map[ExternalKey]struct{}, error) {
	if d.SnapshotErr != nil {
		return nil, d.SnapshotErr
	}
	return d.Snapshot, nil
}

// DummyMapper maps via MapFunc, or returns the zero Projection if MapFunc
// is nil (sufficient for tests that only care about Validate errors).
type DummyMapper[TSource, TTarget any] struct {
	MapFunc     func(ExternalKey, Payload[TSource]) Projection[TTarget]
	ValidateErr map[ExternalKey]error
}

func (m *DummyMapper[TSource, TTarget]) Validate(ctx context.Context, key ExternalKey, payload Payload[TSource]) error {
	if err, ok := m.ValidateErr[key]; ok {
		return err
	}
	return nil
}

func (m *DummyMapper[TSource, TTarget]) Map(ctx context.Context, key ExternalKey, payload Payload[TSource]) Projection[TTarget] {
	if m.MapFunc != nil {
		return m.MapFunc(key, payload)
	}
	var zero Projection[TTarget]
	return zero
}

// DummyTargetRecord is one record DummyTarget has upserted.
type DummyTargetRecord[TTarget any] struct {
	Projection Projection[TTarget]
	InternalID string
}

// DummyTarget records every Upsert/Delete call it receives, generating
// sequential internal ids for new records.
type DummyTarget[TTarget any] struct {
	ValidateErr map[ExternalKey]error
	UpsertErr   map[ExternalKey]error
	DeleteErr   map[ExternalKey]error

	mu      sync.Mutex
	seq     int
	Records map[ExternalKey]DummyTargetRecord[TTarget]
	Deleted map[ExternalKey]bool
}

func (t *DummyTarget[TTarget]) Validate(ctx context.Context, key ExternalKey, projection Projection[TTarget]) error {
	if err, ok := t.ValidateErr[key]; ok {
		return err
	}
	return nil
}

func (t *DummyTarget[TTarget]) Upsert(ctx context.Context, key ExternalKey, projection Projection[TTarget], binding *Binding) (string, error) {
	if err, ok := t.UpsertErr[key]; ok {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Records == nil {
		t.Records = make(map[ExternalKey]DummyTargetRecord[TTarget])
	}

	internalID := ""
	if binding != nil {
		internalID = binding.InternalID
	} else {
		t.seq++
		internalID = fmt.Sprintf("dummy-%d", t.seq)
	}
	t.Records[key] = DummyTargetRecord[TTarget]{Projection: projection, InternalID: internalID}
	return internalID, nil
}

func (t *DummyTarget[TTarget]) Delete(ctx context.Context, key ExternalKey, binding Binding) error {
	if err, ok := t.DeleteErr[key]; ok {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Deleted == nil {
		t.Deleted = make(map[ExternalKey]bool)
	}
	t.Deleted[key] = true
	delete(t.Records, key)
	return nil
}

// DummyStateStore is a mutex-guarded, map-backed StateStore. Each Err field
// lets a test force a specific key (or, for GetCheckpoint/SaveCheckpoint,
// any call) to fail, to exercise the driver's abort-vs-per-item-failure
// paths without a real backend.
type DummyStateStore struct {
	GetCheckpointErr   error
	SaveCheckpointErr  error
	GetItemStateErr    map[ExternalKey]error
	GetBindingErr      map[ExternalKey]error
	ValidateBindingErr map[ExternalKey]error
	BindErr            map[ExternalKey]error
	SaveItemStateErr   map[ExternalKey]error

	mu          sync.Mutex
	checkpoints map[string]string
	bindings    map[ExternalKey]Binding
	itemStates  map[ExternalKey]SyncItemState

	// SavedCheckpoints records every token passed to SaveCheckpoint, in
	// call order and including duplicates, so tests can assert the exact
	// mid-batch / end-of-batch / end-of-run save sequence.
	SavedCheckpoints []string
}

// NewDummyStateStore returns an empty DummyStateStore ready to use.
func NewDummyStateStore() *DummyStateStore {
	return &DummyStateStore{
		checkpoints: make(map[string]string),
		bindings:    make(map[ExternalKey]Binding),
		itemStates:  make(map[ExternalKey]SyncItemState),
	}
}

func (s *DummyStateStore) GetCheckpoint(ctx context.Context, stream string) (string, bool, error) {
	if s.GetCheckpointErr != nil {
		return "", false, s.GetCheckpointErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.checkpoints[stream]
	return token, ok, nil
}

func (s *DummyStateStore) SaveCheckpoint(ctx context.Context, stream string, token string) error {
	if s.SaveCheckpointErr != nil {
		return s.SaveCheckpointErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[stream] = token
	s.SavedCheckpoints = append(s.SavedCheckpoints, token)
	return nil
}

func (s *DummyStateStore) Bind(ctx context.Context, key ExternalKey, internalID string, version string) error {
	if err, ok := s.BindErr[key]; ok {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[key] = Binding{InternalID: internalID, Version: version}
	return nil
}

func (s *DummyStateStore) GetBinding(ctx context.Context, key ExternalKey) (Binding, bool, error) {
	if err, ok := s.GetBindingErr[key]; ok {
		return Binding{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bindings[key]
	return b, ok, nil
}

func (s *DummyStateStore) ValidateBinding(ctx context.Context, key ExternalKey, binding Binding) error {
	if err, ok := s.ValidateBindingErr[key]; ok {
		return err
	}
	return nil
}

func (s *DummyStateStore) IterBindings(ctx context.Context, system string) (iter.Seq[KeyBinding], error) {
	s.mu.Lock()
	snapshot := make([]KeyBinding, 0, len(s.bindings))
	for k, b := range s.bindings {
		if k.System == system {
			snapshot = append(snapshot, KeyBinding{Key: k, Binding: b})
		}
	}
	s.mu.Unlock()

	return func(yield func(KeyBinding) bool) {
		for _, kb := range snapshot {
			if !yield(kb) {
				return
			}
		}
	}, nil
}

func (s *DummyStateStore) GetItemState(ctx context.Context, key ExternalKey) (SyncItemState, bool, error) {
	if err, ok := s.GetItemStateErr[key]; ok {
		return SyncItemState{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.itemStates[key]
	return st, ok, nil
}

func (s *DummyStateStore) SaveItemState(ctx context.Context, state SyncItemState) error {
	if err, ok := s.SaveItemStateErr[state.Key]; ok {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemStates[state.Key] = state
	return nil
}

// DummyLoggerEvent is one call recorded by DummyLogger, in the shape that
// lets tests assert on whichever fields its Kind makes meaningful.
type DummyLoggerEvent struct {
	Kind       string // "skipped", "created", "updated", "deleted", "error"
	Key        ExternalKey
	InternalID string
	Reason     string
	Err        error
}

// DummyLogger records every call it receives, in order, under a mutex.
type DummyLogger struct {
	mu     sync.Mutex
	Events []DummyLoggerEvent
}

func (l *DummyLogger) record(e DummyLoggerEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Events = append(l.Events, e)
}

func (l *DummyLogger) OnSkipped(key ExternalKey, reason string) {
	l.record(DummyLoggerEvent{Kind: "skipped", Key: key, Reason: reason})
}

func (l *DummyLogger) OnCreated(key ExternalKey, internalID string) {
	l.record(DummyLoggerEvent{Kind: "created", Key: key, InternalID: internalID})
}

func (l *DummyLogger) OnUpdated(key ExternalKey, internalID string) {
	l.record(DummyLoggerEvent{Kind: "updated", Key: key, InternalID: internalID})
}

func (l *DummyLogger) OnDeleted(key ExternalKey, internalID string) {
	l.record(DummyLoggerEvent{Kind: "deleted", Key: key, InternalID: internalID})
}

func (l *DummyLogger) OnError(key ExternalKey, err error) {
	l.record(DummyLoggerEvent{Kind: "error", Key: key, Err: err})
}

// Snapshot returns a copy of the events recorded so far.
func (l *DummyLogger) Snapshot() []DummyLoggerEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]DummyLoggerEvent, len(l.Events))
	copy(out, l.Events)
	return out
}
