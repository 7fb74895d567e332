package synccore

// SyncLogger reports per-item lifecycle events. All methods must be total
// and must never panic — implementations are responsible for swallowing
// their own errors (e.g. a failed write to a downstream log sink must not
// abort the sync run).
type SyncLogger interface {
	OnSkipped(key ExternalKey, reason string)
	OnCreated(key ExternalKey, internalID string)
	OnUpdated(key ExternalKey, internalID string)
	OnDeleted(key ExternalKey, internalID string)
	OnError(key ExternalKey, err error)
}

// Skip reasons reported via SyncLogger.OnSkipped.
const (
	SkipReasonPermError   = "perm_error"
	SkipReasonMaxAttempts = "max_attempts"
	SkipReasonSameVersion = "same_version"
)
