package synccore

import (
	"context"
	"iter"
)

// FetchResult is what a Source's Fetch returns: a lazy sequence of items
// paired with the checkpoint the driver should persist once that sequence
// has been fully consumed (see CheckpointValue for the deferred form).
type FetchResult[TSource any] struct {
	Items      iter.Seq2[ExternalKey, Payload[TSource]]
	Checkpoint CheckpointValue
}

// Source produces a lazy stream of changes from one external system for one
// synchronized entity, and advances a checkpoint token as it does.
type Source[TSource any] interface {
	// Fetch returns items changed since the given checkpoint token (nil if
	// this is the stream's first run) and the checkpoint to persist once
	// the items have been consumed. Fetch errors should be classified with
	// NewTemporarySourceError / NewPermanentSourceError.
	Fetch(ctx context.Context, since *string) (FetchResult[TSource], error)

	// Validate performs per-item technical validation, raising a
	// *SyncError of origin OriginSource on failure.
	Validate(ctx context.Context, key ExternalKey, payload Payload[TSource]) error
}

// SnapshotSource is an optional capability a Source may implement in
// addition to Source: it reports the full set of keys currently present in
// the foreign system, which SyncJob.ReconcileDeletions uses to detect
// items removed upstream. Only full-snapshot Sources (CheckpointType ==
// CheckpointNone) typically implement this.
type SnapshotSource interface {
	SnapshotKeys(ctx context.Context) (map[ExternalKey]struct{}, error)
}

// Base is an embeddable helper that generalizes the checkpoint
// parse/format/require logic so concrete Source implementations don't each
// reimplement it. It mirrors the checkpoint handling the original
// implementation's BaseSource performed before delegating to a per-Source
// _fetch hook.
type Base struct {
	// CheckpointType selects which codec ParseToken/FormatToken apply.
	CheckpointType CheckpointType

	// CheckpointRequired, when true and CheckpointType is not
	// CheckpointNone, makes ParseToken return a PermanentSourceError when
	// called with a nil token — the Source is not allowed to run a full
	// scan implicitly.
	CheckpointRequired bool

	// Parser and Formatter optionally override the default codec behavior
	// for CheckpointType, e.g. to support a non-standard token shape used
	// by a particular foreign API.
	Parser    func(token string) (any, error)
	Formatter func(value any) (string, error)
}

// ParseToken parses the checkpoint persisted by the StateStore into a
// domain value suitable for the concrete Source's own fetch logic.
func (b Base) ParseToken(since *string) (any, error) {
	if since == nil {
		if b.CheckpointRequired && b.CheckpointType != CheckpointNone {
			return nil, NewPermanentSourceError("checkpoint required", nil)
		}
		return nil, nil
	}
	if b.Parser != nil {
		return b.Parser(*since)
	}
	return ParseCheckpoint(b.CheckpointType, *since)
}

// FormatToken formats the raw checkpoint value a concrete Source computed
// (a time.Time, int64, or string depending on CheckpointType) into the
// token string the StateStore persists. A nil value means "no new data was
// observed"; FormatToken returns ("", false, nil) in that case so the
// driver does not move the checkpoint.
func (b Base) FormatToken(value any) (string, bool, error) {
	if value == nil {
		return "", false, nil
	}
	if b.Formatter != nil {
		token, err := b.Formatter(value)
		return token, err == nil, err
	}
	token, err := FormatCheckpoint(b.CheckpointType, value)
	return token, err == nil, err
}

// PaginateEager walks a paginated API eagerly: it calls fetchPage
// repeatedly, starting from startToken, accumulating every page's items
// into memory until fetchPage reports no further page (a nil nextToken),
// then returns the full item list and the last non-nil token observed.
func PaginateEager[T any](startToken *string, fetchPage func(token *string) (items []T, nextToken *string, err error)) ([]T, *string, error) {
	var all []T
	token := startToken
	last := startToken
	for {
		items, next, err := fetchPage(token)
		if err != nil {
			return nil, nil, err
		}
		all = append(all, items...)
		if next == nil {
			break
		}
		last = next
		token = next
	}
	return all, last, nil
}

// PaginateLazy walks a paginated API lazily: it returns an iter.Seq that,
// when ranged over, advances page by page rather than eagerly collecting
// every item up front, and a lastToken callback that reports the final
// non-nil token observed — valid only once the sequence has been fully
// consumed. This is the Go rendering of the original implementation's
// generator-plus-nonlocal-cell pattern, expressed with a closure-captured
// variable instead of a Python nonlocal.
func PaginateLazy[T any](startToken *string, fetchPage func(token *string) (items []T, nextToken *string, err error)) (seq iter.Seq[T], lastToken func() *string, fetchErr func() error) {
	last := startToken
	var firstErr error

	seq = func(yield func(T) bool) {
		token := startToken
		for {
			items, next, err := fetchPage(token)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			for _, item := range items {
				if !yield(item) {
					return
				}
			}
			if next == nil {
				return
			}
			last = next
			token = next
		}
	}

	return seq, func() *string { return last }, func() error { return firstErr }
}
