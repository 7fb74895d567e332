// Package synclog provides synccore.SyncLogger implementations: a
// human-readable text logger, a JSONL logger, a no-op logger, an
// OpenTelemetry span logger, and a Prometheus metrics decorator.
package synclog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/avk2it/synccore/synccore"
)

// TextLogger writes one human-readable line per event to an io.Writer.
//
// Example lines:
//
//	[created] system=crm key=123 internal_id=rec-456
//	[skipped] system=crm key=789 reason=same_version
//	[error] system=crm key=123 err=target error: unavailable
type TextLogger struct {
	writer io.Writer
}

// NewTextLogger creates a TextLogger writing to writer. A nil writer
// defaults to os.Stdout.
func NewTextLogger(writer io.Writer) *TextLogger {
	if writer == nil {
		writer = os.Stdout
	}
	return &TextLogger{writer: writer}
}

func (l *TextLogger) OnSkipped(key synccore.ExternalKey, reason string) {
	_, _ = fmt.Fprintf(l.writer, "[skipped] system=%s key=%s reason=%s\n", key.System, key.Key, reason)
}

func (l *TextLogger) OnCreated(key synccore.ExternalKey, internalID string) {
	_, _ = fmt.Fprintf(l.writer, "[created] system=%s key=%s internal_id=%s\n", key.System, key.Key, internalID)
}

func (l *TextLogger) OnUpdated(key synccore.ExternalKey, internalID string) {
	_, _ = fmt.Fprintf(l.writer, "[updated] system=%s key=%s internal_id=%s\n", key.System, key.Key, internalID)
}

func (l *TextLogger) OnDeleted(key synccore.ExternalKey, internalID string) {
	_, _ = fmt.Fprintf(l.writer, "[deleted] system=%s key=%s internal_id=%s\n", key.System, key.Key, internalID)
}

func (l *TextLogger) OnError(key synccore.ExternalKey, err error) {
	_, _ = fmt.Fprintf(l.writer, "[error] system=%s key=%s err=%v\n", key.System, key.Key, err)
}

var _ synccore.SyncLogger = (*TextLogger)(nil)

// JSONLogger writes one JSON object per event to an io.Writer (JSONL).
type JSONLogger struct {
	writer io.Writer
}

// NewJSONLogger creates a JSONLogger writing to writer. A nil writer
// defaults to os.Stdout.
func NewJSONLogger(writer io.Writer) *JSONLogger {
	if writer == nil {
		writer = os.Stdout
	}
	return &JSONLogger{writer: writer}
}

type jsonEvent struct {
	Event      string `json:"event"`
	System     string `json:"system"`
	Key        string `json:"key"`
	InternalID string `json:"internal_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Err        string `json:"err,omitempty"`
}

func (l *JSONLogger) write(e jsonEvent) {
	data, err := json.Marshal(e)
	if err != nil {
		_, _ = fmt.Fprintf(l.writer, "{\"event\":\"marshal_error\",\"err\":%q}\n", err.Error())
		return
	}
	_, _ = fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *JSONLogger) OnSkipped(key synccore.ExternalKey, reason string) {
	l.write(jsonEvent{Event: "skipped", System: key.System, Key: key.Key, Reason: reason})
}

func (l *JSONLogger) OnCreated(key synccore.ExternalKey, internalID string) {
	l.write(jsonEvent{Event: "created", System: key.System, Key: key.Key, InternalID: internalID})
}

func (l *JSONLogger) OnUpdated(key synccore.ExternalKey, internalID string) {
	l.write(jsonEvent{Event: "updated", System: key.System, Key: key.Key, InternalID: internalID})
}

func (l *JSONLogger) OnDeleted(key synccore.ExternalKey, internalID string) {
	l.write(jsonEvent{Event: "deleted", System: key.System, Key: key.Key, InternalID: internalID})
}

func (l *JSONLogger) OnError(key synccore.ExternalKey, err error) {
	l.write(jsonEvent{Event: "error", System: key.System, Key: key.Key, Err: err.Error()})
}

var _ synccore.SyncLogger = (*JSONLogger)(nil)
