package synccore

// ExternalKey is the immutable identity of an item in a foreign system.
//
// System names the foreign system instance (e.g. "bitrix24-prod"); Key is
// the opaque, stable id of the item within that system. Equality is
// structural on both fields, so ExternalKey is safe to use as a map key.
type ExternalKey struct {
	System string
	Key    string
}

// fetchErrorKey is the synthetic key under which fetch-level errors are
// logged, since they are not tied to any single item.
func fetchErrorKey(stream string) ExternalKey {
	return ExternalKey{System: stream, Key: "__fetch__"}
}
