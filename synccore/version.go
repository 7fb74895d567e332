package synccore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// VersionFromTimestamp normalizes a timestamp value (string, time.Time, or
// numeric epoch seconds) into a UTC ISO-8601 string suitable for
// Payload.Version.
func VersionFromTimestamp(value any) (string, error) {
	t, err := coerceTimestamp(value)
	if err != nil {
		return "", fmt.Errorf("version from timestamp: %w", err)
	}
	return formatTimestamp(t), nil
}

// VersionFromMonotonic formats a non-negative monotonic id into a decimal
// string suitable for Payload.Version.
func VersionFromMonotonic(value any) (string, error) {
	v, err := coerceMonotonic(value)
	if err != nil {
		return "", fmt.Errorf("version from monotonic id: %w", err)
	}
	return fmt.Sprintf("%d", v), nil
}

// VersionFromContentHash computes a version string by canonically
// serializing payload to JSON (UTF-8, sorted keys, no insignificant
// whitespace) and hashing it with SHA-256. Two payloads that are
// structurally equal always hash identically, regardless of field
// insertion order, across runs and implementations.
//
// Go's encoding/json already serializes map keys in sorted order, which is
// what makes this canonical without a dedicated canonicalizing JSON library
// — see DESIGN.md for why no third-party canonical-JSON package is used
// here. Non-serializable payloads produce an error rather than silently
// falling back to some other representation.
func VersionFromContentHash(payload any) (string, error) {
	canonical, err := canonicalJSON(payload)
	if err != nil {
		return "", fmt.Errorf("cannot hash payload: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON marshals v into JSON with map keys sorted and no
// insignificant whitespace. json.Marshal already sorts map[string]any keys
// and produces compact output with no extra whitespace, so this is a thin,
// documented entry point rather than a reimplementation.
func canonicalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
