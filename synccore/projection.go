package synccore

// Projection is the target-shaped record produced by a Mapper from a
// Payload. Kind discriminates the target entity type (e.g. "contact",
// "deal"); Data is the target-specific payload a Target knows how to
// upsert.
type Projection[TTarget any] struct {
	Kind string
	Data TTarget
}
