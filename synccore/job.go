package synccore

import "context"

// DefaultMaxAttempts is the attempt budget used when SyncJob.MaxAttempts is
// left at its zero value.
const DefaultMaxAttempts = 3

// DefaultCheckpointSaveEvery is the batch size used when
// SyncJob.CheckpointSaveEvery is left at its zero value: save after every
// successful item.
const DefaultCheckpointSaveEvery = 1

// SyncJob drives one run of one stream: it pulls items from Source, maps and
// upserts each through Mapper and Target, and persists enough state via
// State that the next run resumes correctly. A SyncJob is not safe for
// concurrent Run calls against the same Stream; running several streams
// concurrently is the runner package's job.
type SyncJob[TSource, TTarget any] struct {
	Stream string
	Source Source[TSource]
	Mapper Mapper[TSource, TTarget]
	Target Target[TTarget]
	State  StateStore
	Logger SyncLogger

	// MaxAttempts bounds retries of a temp_error item across runs. Once an
	// item has failed MaxAttempts times for the same version, it is
	// skipped (SkipReasonMaxAttempts) until a new version arrives.
	MaxAttempts int

	// CheckpointSaveEvery batches checkpoint persistence: the checkpoint
	// is saved after this many successful items, in addition to the save
	// attempted after the stream is exhausted. Every save is skipped while
	// a retryable temp error is outstanding or the checkpoint resolves to
	// no value.
	CheckpointSaveEvery int
}

// NewSyncJob builds a SyncJob with the default attempt budget and
// checkpoint batch size.
func NewSyncJob[TSource, TTarget any](stream string, source Source[TSource], mapper Mapper[TSource, TTarget], target Target[TTarget], state StateStore, logger SyncLogger) *SyncJob[TSource, TTarget] {
	return &SyncJob[TSource, TTarget]{
		Stream:              stream,
		Source:              source,
		Mapper:              mapper,
		Target:              target,
		State:               state,
		Logger:              logger,
		MaxAttempts:         DefaultMaxAttempts,
		CheckpointSaveEvery: DefaultCheckpointSaveEvery,
	}
}

func (j *SyncJob[TSource, TTarget]) maxAttempts() int {
	if j.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return j.MaxAttempts
}

func (j *SyncJob[TSource, TTarget]) checkpointSaveEvery() int {
	if j.CheckpointSaveEvery <= 0 {
		return DefaultCheckpointSaveEvery
	}
	return j.CheckpointSaveEvery
}

// Run executes one pass over Source's pending items. It returns a
// SyncResult of everything it did even when it returns early on a fetch or
// checkpoint-read error, since counters accumulated before the failure are
// still meaningful to a caller.
func (j *SyncJob[TSource, TTarget]) Run(ctx context.Context) (SyncResult, error) {
	result := NewSyncResult()

	token, hasCheckpoint, err := j.State.GetCheckpoint(ctx, j.Stream)
	if err != nil {
		j.Logger.OnError(fetchErrorKey(j.Stream), err)
		return result, err
	}
	var since *string
	if hasCheckpoint {
		since = &token
	}

	fetched, err := j.Source.Fetch(ctx, since)
	if err != nil {
		j.Logger.OnError(fetchErrorKey(j.Stream), err)
		return result, err
	}

	maxAttempts := j.maxAttempts()
	saveEvery := j.checkpointSaveEvery()
	hasRetryableTemp := false
	pendingSinceSave := 0

	for key, payload := range fetched.Items {
		prev, prevOK, err := j.State.GetItemState(ctx, key)
		if err != nil {
			j.Logger.OnError(key, err)
			return result, err
		}
		var prevState *SyncItemState
		if prevOK && prev.Version == payload.Version {
			p := prev
			prevState = &p
		}

		if prevState != nil {
			if prevState.Status == StatusPermError {
				j.Logger.OnSkipped(key, SkipReasonPermError)
				result = result.Inc(0, 0, 1, 0)
				continue
			}
			if prevState.Status == StatusTempError && prevState.Attempts >= maxAttempts {
				j.Logger.OnSkipped(key, SkipReasonMaxAttempts)
				result = result.Inc(0, 0, 1, 0)
				continue
			}
		}

		outcome, procErr := j.processItem(ctx, key, payload, prevState)
		if procErr != nil {
			status := StatusPermError
			if IsTemporary(procErr) {
				status = StatusTempError
				attemptsAfter := 1
				if prevState != nil {
					attemptsAfter = prevState.Attempts + 1
				}
				if attemptsAfter < maxAttempts {
					hasRetryableTemp = true
				}
			}
			j.saveFailedState(ctx, key, payload, prevState, status, procErr)
			j.Logger.OnError(key, procErr)
			result = result.Inc(0, 0, 0, 1)
			continue
		}

		result = result.Inc(outcome.created, outcome.updated, outcome.skipped, 0)

		pendingSinceSave++
		if pendingSinceSave >= saveEvery {
			if j.maybeSaveCheckpoint(ctx, fetched.Checkpoint, hasRetryableTemp) {
				pendingSinceSave = 0
			}
		}
	}

	// End-of-batch: flush whatever partial batch of successes remains
	// once the stream is exhausted, using the same gating as a mid-run
	// batch save.
	if pendingSinceSave > 0 {
		if j.maybeSaveCheckpoint(ctx, fetched.Checkpoint, hasRetryableTemp) {
			pendingSinceSave = 0
		}
	}

	// End-of-run: unconditionally attempt the final save, regardless of
	// whether a batch flush already happened above.
	j.maybeSaveCheckpoint(ctx, fetched.Checkpoint, hasRetryableTemp)

	return result, nil
}

// itemOutcome tracks which counter processItem's caller should credit.
type itemOutcome struct {
	created, updated, skipped int
}

// processItem runs validate -> binding lookup -> version short-circuit ->
// map -> upsert -> bind -> save-state for one already-admitted item. Errors
// returned here may originate from the source, the mapper, the target, or
// the state store; Run classifies them uniformly via IsTemporary/
// IsPermanent rather than switching on which component raised them.
func (j *SyncJob[TSource, TTarget]) processItem(ctx context.Context, key ExternalKey, payload Payload[TSource], prev *SyncItemState) (itemOutcome, error) {
	if err := j.Source.Validate(ctx, key, payload); err != nil {
		return itemOutcome{}, err
	}

	binding, boundOK, err := j.State.GetBinding(ctx, key)
	if err != nil {
		return itemOutcome{}, err
	}
	var boundPtr *Binding
	if boundOK {
		if err := j.State.ValidateBinding(ctx, key, binding); err != nil {
			return itemOutcome{}, err
		}
		b := binding
		boundPtr = &b
	}

	if boundPtr != nil && boundPtr.IsUpToDateFor(payload.Version) {
		j.Logger.OnSkipped(key, SkipReasonSameVersion)
		if err := j.saveSuccessState(ctx, key, payload, prev); err != nil {
			return itemOutcome{}, err
		}
		return itemOutcome{skipped: 1}, nil
	}

	if err := j.Mapper.Validate(ctx, key, payload); err != nil {
		return itemOutcome{}, err
	}
	projection := j.Mapper.Map(ctx, key, payload)

	if err := j.Target.Validate(ctx, key, projection); err != nil {
		return itemOutcome{}, err
	}
	internalID, err := j.Target.Upsert(ctx, key, projection, boundPtr)
	if err != nil {
		return itemOutcome{}, err
	}

	if err := j.State.Bind(ctx, key, internalID, payload.Version); err != nil {
		return itemOutcome{}, err
	}
	if err := j.saveSuccessState(ctx, key, payload, prev); err != nil {
		return itemOutcome{}, err
	}

	if boundPtr != nil {
		j.Logger.OnUpdated(key, internalID)
		return itemOutcome{updated: 1}, nil
	}
	j.Logger.OnCreated(key, internalID)
	return itemOutcome{created: 1}, nil
}

func (j *SyncJob[TSource, TTarget]) saveSuccessState(ctx context.Context, key ExternalKey, payload Payload[TSource], prev *SyncItemState) error {
	attempts := 1
	if prev != nil {
		attempts = prev.Attempts + 1
	}
	return j.State.SaveItemState(ctx, SyncItemState{
		Key:      key,
		Version:  payload.Version,
		Status:   StatusSuccess,
		Attempts: attempts,
	})
}

// saveFailedState best-effort persists a failed attempt; a failure to write
// the state itself is not escalated into the run's error, since the item
// has already been counted as failed and logged.
func (j *SyncJob[TSource, TTarget]) saveFailedState(ctx context.Context, key ExternalKey, payload Payload[TSource], prev *SyncItemState, status SyncItemStatus, cause error) {
	attempts := 1
	if prev != nil {
		attempts = prev.Attempts + 1
	}
	_ = j.State.SaveItemState(ctx, SyncItemState{
		Key:       key,
		Version:   payload.Version,
		Status:    status,
		Attempts:  attempts,
		LastError: cause.Error(),
	})
}

// maybeSaveCheckpoint resolves cp and, if it carries a value and no
// retryable temp error is outstanding for this run, persists it. It
// reports whether it actually saved, so Run can reset its batch counter
// only on a real save.
func (j *SyncJob[TSource, TTarget]) maybeSaveCheckpoint(ctx context.Context, cp CheckpointValue, hasRetryableTemp bool) bool {
	if hasRetryableTemp {
		return false
	}
	token, ok, err := cp.Resolve()
	if err != nil || !ok {
		return false
	}
	if err := j.State.SaveCheckpoint(ctx, j.Stream, token); err != nil {
		return false
	}
	return true
}
