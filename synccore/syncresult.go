package synccore

import "time"

// SyncResult holds the counters for one run of a SyncJob. It is immutable;
// operations return a new value with incremented counters so that a driver
// can hand out intermediate snapshots without aliasing bugs.
type SyncResult struct {
	Created   int
	Updated   int
	Skipped   int
	Failed    int
	StartedAt time.Time
}

// NewSyncResult returns a zeroed SyncResult stamped with the current time.
func NewSyncResult() SyncResult {
	return SyncResult{StartedAt: time.Now().UTC()}
}

// Inc returns a copy of r with the given counters added.
func (r SyncResult) Inc(created, updated, skipped, failed int) SyncResult {
	r.Created += created
	r.Updated += updated
	r.Skipped += skipped
	r.Failed += failed
	return r
}

// Total returns the sum of all four counters, which must equal the number
// of items the Source yielded for the run.
func (r SyncResult) Total() int {
	return r.Created + r.Updated + r.Skipped + r.Failed
}
