package observability

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"mvxlend/native/lending"
)

type lendingMetrics struct {
	events *prometheus.CounterVec
}

var (
	lendingMetricsOnce sync.Once
	lendingRegistry    *lendingMetrics
)

// Lending returns the metrics registry tracking ledger lifecycle events.
func Lending() *lendingMetrics {
	lendingMetricsOnce.Do(func() {
		lendingRegistry = &lendingMetrics{
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "mvxlend",
				Subsystem: "lending",
				Name:      "events_total",
				Help:      "Count of committed lending ledger transitions by event type.",
			}, []string{"event"}),
		}
		prometheus.MustRegister(lendingRegistry.events)
	})
	return lendingRegistry
}

// RecordEvent increments the counter for the supplied event type.
func (m *lendingMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
}

// Emitter bridges committed ledger events into metrics and structured logs.
// It satisfies lending.Emitter.
type Emitter struct {
	log *slog.Logger
}

func NewEmitter(log *slog.Logger) *Emitter {
	return &Emitter{log: log}
}

func (e *Emitter) Emit(ev lending.Event) {
	if e == nil || ev == nil {
		return
	}
	Lending().RecordEvent(ev.EventType())
	if e.log != nil {
		e.log.Info("ledger event", slog.String("event", ev.EventType()))
	}
}
