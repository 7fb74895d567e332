// Package synccore provides a generic incremental synchronization engine:
// a driver that pulls changes from an external system, transforms each
// change into a target-shaped record, upserts it into an internal system,
// and persists enough state that the next run resumes exactly where the
// previous one stopped.
package synccore
