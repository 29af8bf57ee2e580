package observability

import (
	"math/big"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"launchpad/core/events"
	"launchpad/native/sale"
)

type eventMetrics struct {
	emitted   *prometheus.CounterVec
	settled   *prometheus.CounterVec
	transfers prometheus.Counter
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking committed launchpad events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Committed events segmented by type.",
			}, []string{"type"}),
			settled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "events",
				Name:      "settled_value_total",
				Help:      "Value paid out by settled bids segmented by beneficiary share.",
			}, []string{"share"}),
			transfers: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "events",
				Name:      "asset_transfers_total",
				Help:      "Count of asset custody changes.",
			}),
		}
		prometheus.MustRegister(eventRegistry.emitted, eventRegistry.settled, eventRegistry.transfers)
	})
	return eventRegistry
}

// Emit implements events.Emitter so the registry can subscribe to committed
// events.
func (m *eventMetrics) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	eventType := strings.TrimSpace(evt.EventType())
	if eventType == "" {
		eventType = "unknown"
	}
	m.emitted.WithLabelValues(eventType).Inc()
	if eventType == events.TypeAssetTransfer {
		m.transfers.Inc()
	}
	payload := events.Unwrap(evt)
	if payload == nil || eventType != sale.EventTypeBidSettled {
		return
	}
	for _, share := range []string{"platformShare", "sellerShare", "royaltyShare"} {
		if v, ok := new(big.Int).SetString(payload.Attribute(share), 10); ok {
			f, _ := new(big.Float).SetInt(v).Float64()
			m.settled.WithLabelValues(share).Add(f)
		}
	}
}
