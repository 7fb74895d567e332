package synclog

import "github.com/avk2it/synccore/synccore"

// NullLogger discards every event. Use it when per-item observability is
// not wanted but a SyncLogger is required to construct a SyncJob.
type NullLogger struct{}

// NewNullLogger returns a NullLogger.
func NewNullLogger() *NullLogger { return &NullLogger{} }

func (NullLogger) OnSkipped(synccore.ExternalKey, string) {}
func (NullLogger) OnCreated(synccore.ExternalKey, string) {}
func (NullLogger) OnUpdated(synccore.ExternalKey, string) {}
func (NullLogger) OnDeleted(synccore.ExternalKey, string) {}
func (NullLogger) OnError(synccore.ExternalKey, error)    {}

var _ synccore.SyncLogger = NullLogger{}
