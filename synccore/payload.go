package synccore

// Payload is a normalized envelope for one item read from a Source.
//
// Version is the sole basis for idempotence: two payloads with an equal,
// non-empty Version for the same ExternalKey are defined to project to the
// same target record. Version is typically produced by the version codec
// (see VersionFromTimestamp, VersionFromMonotonic, VersionFromContentHash).
type Payload[TSource any] struct {
	Data    TSource
	Version string
}

// HasVersion reports whether the payload carries an explicit version.
func (p Payload[TSource]) HasVersion() bool {
	return p.Version != ""
}
