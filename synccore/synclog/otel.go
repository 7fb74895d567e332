package synclog

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/avk2it/synccore/synccore"
)

// OTelLogger reports each per-item event as a zero-duration OpenTelemetry
// span, named after the event kind and carrying system/key/internal-id
// attributes. Errors mark the span as failed and record the error.
type OTelLogger struct {
	tracer trace.Tracer
}

// NewOTelLogger creates an OTelLogger from an OpenTelemetry tracer, e.g.
// otel.Tracer("synccore").
func NewOTelLogger(tracer trace.Tracer) *OTelLogger {
	return &OTelLogger{tracer: tracer}
}

func (l *OTelLogger) emit(name string, key synccore.ExternalKey, extra ...attribute.KeyValue) trace.Span {
	_, span := l.tracer.Start(context.Background(), name)
	attrs := append([]attribute.KeyValue{
		attribute.String("synccore.system", key.System),
		attribute.String("synccore.key", key.Key),
	}, extra...)
	span.SetAttributes(attrs...)
	return span
}

func (l *OTelLogger) OnSkipped(key synccore.ExternalKey, reason string) {
	span := l.emit("synccore.skipped", key, attribute.String("synccore.reason", reason))
	span.End()
}

func (l *OTelLogger) OnCreated(key synccore.ExternalKey, internalID string) {
	span := l.emit("synccore.created", key, attribute.String("synccore.internal_id", internalID))
	span.End()
}

func (l *OTelLogger) OnUpdated(key synccore.ExternalKey, internalID string) {
	span := l.emit("synccore.updated", key, attribute.String("synccore.internal_id", internalID))
	span.End()
}

func (l *OTelLogger) OnDeleted(key synccore.ExternalKey, internalID string) {
	span := l.emit("synccore.deleted", key, attribute.String("synccore.internal_id", internalID))
	span.End()
}

func (l *OTelLogger) OnError(key synccore.ExternalKey, err error) {
	span := l.emit("synccore.error", key)
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(fmt.Errorf("%w", err))
	span.End()
}

var _ synccore.SyncLogger = (*OTelLogger)(nil)
