package synccore

import "context"

// Mapper transforms a validated Payload into a Projection for the internal
// system. Map must be a pure function of (key, payload); all business-rule
// enforcement belongs in Validate.
type Mapper[TSource, TTarget any] interface {
	// Validate checks business-rule correctness of payload, raising a
	// *SyncError of origin OriginMapping on failure. Temporary for
	// transient dependency failures (e.g. a reference dataset lookup),
	// permanent for malformed or rule-violating data.
	Validate(ctx context.Context, key ExternalKey, payload Payload[TSource]) error

	// Map projects payload into the target-shaped record. It is a pure
	// function: any failure mode belongs in Validate, which the driver
	// always calls first.
	Map(ctx context.Context, key ExternalKey, payload Payload[TSource]) Projection[TTarget]
}
