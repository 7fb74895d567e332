package synclog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/avk2it/synccore/synccore"
)

// PromLogger decorates another synccore.SyncLogger, recording Prometheus
// counters for every event before forwarding it. Metrics are namespaced
// "synccore_" and labeled by system.
//
//   - synccore_items_created_total{system}
//   - synccore_items_updated_total{system}
//   - synccore_items_skipped_total{system,reason}
//   - synccore_items_deleted_total{system}
//   - synccore_item_errors_total{system}
type PromLogger struct {
	next synccore.SyncLogger

	created *prometheus.CounterVec
	updated *prometheus.CounterVec
	skipped *prometheus.CounterVec
	deleted *prometheus.CounterVec
	errors  *prometheus.CounterVec
}

// NewPromLogger wraps next, registering its counters with registry. A nil
// registry uses prometheus.DefaultRegisterer.
func NewPromLogger(registry prometheus.Registerer, next synccore.SyncLogger) *PromLogger {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PromLogger{
		next: next,
		created: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synccore",
			Name:      "items_created_total",
			Help:      "Items newly created in the target system.",
		}, []string{"system"}),
		updated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synccore",
			Name:      "items_updated_total",
			Help:      "Items updated in the target system.",
		}, []string{"system"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synccore",
			Name:      "items_skipped_total",
			Help:      "Items skipped without reaching the target.",
		}, []string{"system", "reason"}),
		deleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synccore",
			Name:      "items_deleted_total",
			Help:      "Items deleted during deletion reconciliation.",
		}, []string{"system"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synccore",
			Name:      "item_errors_total",
			Help:      "Per-item processing errors, temporary and permanent alike.",
		}, []string{"system"}),
	}
}

func (p *PromLogger) OnSkipped(key synccore.ExternalKey, reason string) {
	p.skipped.WithLabelValues(key.System, reason).Inc()
	p.next.OnSkipped(key, reason)
}

func (p *PromLogger) OnCreated(key synccore.ExternalKey, internalID string) {
	p.created.WithLabelValues(key.System).Inc()
	p.next.OnCreated(key, internalID)
}

func (p *PromLogger) OnUpdated(key synccore.ExternalKey, internalID string) {
	p.updated.WithLabelValues(key.System).Inc()
	p.next.OnUpdated(key, internalID)
}

func (p *PromLogger) OnDeleted(key synccore.ExternalKey, internalID string) {
	p.deleted.WithLabelValues(key.System).Inc()
	p.next.OnDeleted(key, internalID)
}

func (p *PromLogger) OnError(key synccore.ExternalKey, err error) {
	p.errors.WithLabelValues(key.System).Inc()
	p.next.OnError(key, err)
}

var _ synccore.SyncLogger = (*PromLogger)(nil)
