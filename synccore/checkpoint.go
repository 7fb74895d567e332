package synccore

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CheckpointType identifies the shape of the checkpoint token a Source
// emits and consumes.
type CheckpointType string

const (
	// CheckpointUpdatedAt tokens are RFC3339/ISO-8601 UTC timestamps.
	CheckpointUpdatedAt CheckpointType = "updated_at"
	// CheckpointMonotonicID tokens are non-negative decimal integers.
	CheckpointMonotonicID CheckpointType = "monotonic_id"
	// CheckpointCursor tokens are opaque non-empty strings issued by the
	// foreign API.
	CheckpointCursor CheckpointType = "cursor"
	// CheckpointNone means the stream never has a checkpoint; used only by
	// full-snapshot Sources.
	CheckpointNone CheckpointType = "none"
)

// fallbackDatetimeLayouts mirrors the original implementation's fallback
// parse formats so operators migrating checkpoints from the prior system
// keep working.
var fallbackDatetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05.999999Z0700",
}

// ParseCheckpoint parses a token string persisted in a StateStore into a
// domain value appropriate for typ:
//
//   - CheckpointNone always returns nil.
//   - CheckpointUpdatedAt returns a time.Time in UTC.
//   - CheckpointMonotonicID returns an int64.
//   - CheckpointCursor returns the trimmed string.
//
// An invalid token returns a PermanentSourceError: the stream cannot
// progress until the Source or persisted state is repaired.
func ParseCheckpoint(typ CheckpointType, token string) (any, error) {
	switch typ {
	case CheckpointNone:
		return nil, nil
	case CheckpointUpdatedAt:
		t, err := parseCheckpointTimestamp(token)
		if err != nil {
			return nil, NewPermanentSourceError(fmt.Sprintf("invalid checkpoint %q", token), err)
		}
		return t, nil
	case CheckpointMonotonicID:
		v, err := parseMonotonicToken(token)
		if err != nil {
			return nil, NewPermanentSourceError(fmt.Sprintf("invalid checkpoint %q", token), err)
		}
		return v, nil
	case CheckpointCursor:
		v, err := parseCursorToken(token)
		if err != nil {
			return nil, NewPermanentSourceError(fmt.Sprintf("invalid checkpoint %q", token), err)
		}
		return v, nil
	default:
		return nil, NewPermanentSourceError(fmt.Sprintf("unsupported checkpoint type %q", typ), nil)
	}
}

// FormatCheckpoint formats a domain value produced by a Source's fetch into
// the token string a StateStore persists. CheckpointNone must not produce a
// token; doing so is an error.
func FormatCheckpoint(typ CheckpointType, value any) (string, error) {
	switch typ {
	case CheckpointNone:
		return "", NewPermanentSourceError("checkpoint type 'none' must not produce a checkpoint", nil)
	case CheckpointUpdatedAt:
		t, err := coerceTimestamp(value)
		if err != nil {
			return "", NewPermanentSourceError(fmt.Sprintf("invalid checkpoint value %v", value), err)
		}
		return formatTimestamp(t), nil
	case CheckpointMonotonicID:
		v, err := coerceMonotonic(value)
		if err != nil {
			return "", NewPermanentSourceError(fmt.Sprintf("invalid checkpoint value %v", value), err)
		}
		return strconv.FormatInt(v, 10), nil
	case CheckpointCursor:
		v, err := coerceCursor(value)
		if err != nil {
			return "", NewPermanentSourceError(fmt.Sprintf("invalid checkpoint value %v", value), err)
		}
		return v, nil
	default:
		return "", NewPermanentSourceError(fmt.Sprintf("unsupported checkpoint type %q", typ), nil)
	}
}

func parseCheckpointTimestamp(token string) (time.Time, error) {
	cleaned := strings.TrimSpace(token)
	if strings.HasSuffix(cleaned, "Z") {
		cleaned = cleaned[:len(cleaned)-1] + "+00:00"
	}

	if t, err := time.Parse(time.RFC3339Nano, cleaned); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05Z07:00", cleaned); err == nil {
		return t.UTC(), nil
	}
	if secs, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return time.Unix(0, int64(secs*float64(time.Second))).UTC(), nil
	}
	for _, layout := range fallbackDatetimeLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse datetime %q", token)
}

func parseMonotonicToken(token string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("monotonic id must be an integer: %w", err)
	}
	if v < 0 {
		return 0, fmt.Errorf("monotonic id must be non-negative")
	}
	return v, nil
}

func parseCursorToken(token string) (string, error) {
	cleaned := strings.TrimSpace(token)
	if cleaned == "" {
		return "", fmt.Errorf("cursor cannot be empty")
	}
	return cleaned, nil
}

func coerceTimestamp(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		return parseCheckpointTimestamp(v)
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case int:
		return time.Unix(int64(v), 0).UTC(), nil
	case float64:
		return time.Unix(0, int64(v*float64(time.Second))).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("expected time.Time/string/numeric epoch, got %T", value)
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func coerceMonotonic(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return requireNonNegative(v)
	case int:
		return requireNonNegative(int64(v))
	case string:
		return parseMonotonicToken(v)
	default:
		return 0, fmt.Errorf("expected integer or numeric string, got %T", value)
	}
}

func requireNonNegative(v int64) (int64, error) {
	if v < 0 {
		return 0, fmt.Errorf("monotonic id must be non-negative")
	}
	return v, nil
}

func coerceCursor(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprintf("%v", value)
	}
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return "", fmt.Errorf("cursor cannot be empty")
	}
	return cleaned, nil
}
