package synccore

// Binding is a durable record that a given ExternalKey has been
// materialized into the target system as InternalID at some Version.
// Version is the version last successfully written to the target, which is
// what lets the driver decide create-vs-update and short-circuit unchanged
// items.
type Binding struct {
	InternalID string
	Version    string
}

// IsUpToDateFor reports whether this binding's version already matches
// version — i.e. whether processing the corresponding payload would be a
// no-op.
func (b Binding) IsUpToDateFor(version string) bool {
	return b.Version != "" && version != "" && b.Version == version
}

// KeyBinding pairs an ExternalKey with its Binding, returned by
// StateStore.IterBindings for deletion reconciliation.
type KeyBinding struct {
	Key     ExternalKey
	Binding Binding
}
