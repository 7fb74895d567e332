package synccore

import "testing"

func TestParseFormatCheckpointRoundTrip(t *testing.T) {
	cases := []struct {
		typ   CheckpointType
		token string
	}{
		{CheckpointUpdatedAt, "2026-07-31T12:00:00Z"},
		{CheckpointMonotonicID, "42"},
		{CheckpointCursor, "opaque-cursor-abc"},
	}
	for _, c := range cases {
		value, err := ParseCheckpoint(c.typ, c.token)
		if err != nil {
			t.Fatalf("ParseCheckpoint(%v, %q): %v", c.typ, c.token, err)
		}
		token, err := FormatCheckpoint(c.typ, value)
		if err != nil {
			t.Fatalf("FormatCheckpoint(%v, %v): %v", c.typ, value, err)
		}
		roundTripped, err := ParseCheckpoint(c.typ, token)
		if err != nil {
			t.Fatalf("ParseCheckpoint round trip: %v", err)
		}
		reformatted, err := FormatCheckpoint(c.typ, roundTripped)
		if err != nil {
			t.Fatalf("FormatCheckpoint round trip: %v", err)
		}
		if reformatted != token {
			t.Fatalf("parse/format not idempotent for %v: %q != %q", c.typ, token, reformatted)
		}
	}
}

func TestParseCheckpointNoneIsAlwaysNil(t *testing.T) {
	v, err := ParseCheckpoint(CheckpointNone, "anything")
	if err != nil || v != nil {
		t.Fatalf("ParseCheckpoint(none, ...) = (%v, %v), want (nil, nil)", v, err)
	}
}

func TestFormatCheckpointNoneRejectsValue(t *testing.T) {
	if _, err := FormatCheckpoint(CheckpointNone, "x"); err == nil || !IsPermanent(err) {
		t.Fatalf("FormatCheckpoint(none, x) error = %v, want a permanent error", err)
	}
}

func TestParseCheckpointInvalidMonotonicIsPermanent(t *testing.T) {
	_, err := ParseCheckpoint(CheckpointMonotonicID, "-5")
	if err == nil || !IsPermanent(err) {
		t.Fatalf("expected a permanent error for negative monotonic id, got %v", err)
	}
}

func TestParseCheckpointEmptyCursorIsPermanent(t *testing.T) {
	_, err := ParseCheckpoint(CheckpointCursor, "   ")
	if err == nil || !IsPermanent(err) {
		t.Fatalf("expected a permanent error for empty cursor, got %v", err)
	}
}

func TestVersionFromContentHashStableAcrossKeyOrder(t *testing.T) {
	a := map[string]any{"name": "alice", "age": 30}
	b := map[string]any{"age": 30, "name": "alice"}
	va, err := VersionFromContentHash(a)
	if err != nil {
		t.Fatalf("VersionFromContentHash(a): %v", err)
	}
	vb, err := VersionFromContentHash(b)
	if err != nil {
		t.Fatalf("VersionFromContentHash(b): %v", err)
	}
	if va != vb {
		t.Fatalf("hashes differ across key order: %q != %q", va, vb)
	}
}

func TestVersionFromContentHashDiffersOnContent(t *testing.T) {
	va, _ := VersionFromContentHash(map[string]any{"name": "alice"})
	vb, _ := VersionFromContentHash(map[string]any{"name": "bob"})
	if va == vb {
		t.Fatalf("distinct payloads hashed to the same version %q", va)
	}
}

func TestVersionFromMonotonicRoundTrip(t *testing.T) {
	v, err := VersionFromMonotonic(int64(17))
	if err != nil {
		t.Fatalf("VersionFromMonotonic: %v", err)
	}
	if v != "17" {
		t.Fatalf("VersionFromMonotonic(17) = %q, want %q", v, "17")
	}
}
