package synccore

import (
	"errors"
	"fmt"
)

// Origin identifies which component produced a SyncError.
type Origin string

const (
	OriginSource  Origin = "source"
	OriginMapping Origin = "mapping"
	OriginTarget  Origin = "target"
	OriginState   Origin = "state"
)

// SyncError is the single concrete error type behind the taxonomy described
// in the component design: every failure the engine classifies is a
// SyncError carrying an Origin (which component raised it) and a Retryable
// flag (whether a future run might succeed). The two axes are orthogonal;
// Go has no multiple-inheritance diamond to express
// TemporarySourceError(SourceError, TemporaryError) the way the original
// implementation does, so the axes are modeled as struct fields instead and
// classified with IsTemporary/IsPermanent.
type SyncError struct {
	Origin    Origin
	Retryable bool
	Msg       string
	Err       error
}

func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Origin, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Origin, e.Msg)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func newSyncError(origin Origin, retryable bool, msg string, cause error) *SyncError {
	return &SyncError{Origin: origin, Retryable: retryable, Msg: msg, Err: cause}
}

// NewTemporarySourceError builds a retryable error raised by a Source
// (network failures, 5xx responses, timeouts).
func NewTemporarySourceError(msg string, cause error) *SyncError {
	return newSyncError(OriginSource, true, msg, cause)
}

// NewPermanentSourceError builds a non-retryable error raised by a Source
// (malformed data, a missing required checkpoint).
func NewPermanentSourceError(msg string, cause error) *SyncError {
	return newSyncError(OriginSource, false, msg, cause)
}

// NewTemporaryMappingError builds a retryable error raised while validating
// or mapping a payload (e.g. a transiently unavailable reference dataset).
func NewTemporaryMappingError(msg string, cause error) *SyncError {
	return newSyncError(OriginMapping, true, msg, cause)
}

// NewPermanentMappingError builds a non-retryable error raised while
// validating or mapping a payload (a business-rule violation).
func NewPermanentMappingError(msg string, cause error) *SyncError {
	return newSyncError(OriginMapping, false, msg, cause)
}

// NewTemporaryTargetError builds a retryable error raised by a Target
// (network failures, 5xx responses).
func NewTemporaryTargetError(msg string, cause error) *SyncError {
	return newSyncError(OriginTarget, true, msg, cause)
}

// NewPermanentTargetError builds a non-retryable error raised by a Target
// (validation failures, 4xx responses).
func NewPermanentTargetError(msg string, cause error) *SyncError {
	return newSyncError(OriginTarget, false, msg, cause)
}

// NewTemporaryStateError builds a retryable error raised by a StateStore.
func NewTemporaryStateError(msg string, cause error) *SyncError {
	return newSyncError(OriginState, true, msg, cause)
}

// NewPermanentStateError builds a non-retryable error raised by a
// StateStore (e.g. a structurally invalid binding).
func NewPermanentStateError(msg string, cause error) *SyncError {
	return newSyncError(OriginState, false, msg, cause)
}

// IsTemporary reports whether err is a SyncError marked retryable.
func IsTemporary(err error) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// IsPermanent reports whether err is a SyncError marked non-retryable, or
// any other error at all. Per the design notes, any error that is neither
// recognizably temporary nor a SyncError at all is treated as permanent —
// see the open question in DESIGN.md about whether this should instead
// abort the run.
func IsPermanent(err error) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return !se.Retryable
	}
	return true
}
