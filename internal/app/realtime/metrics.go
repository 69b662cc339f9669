package realtime

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the prometheus collectors fed by the hub and broadcaster.
// They back the monitoring counts named by the connection registry contract.
type Metrics struct {
	ConnectedClients  prometheus.Gauge
	AdminClients      prometheus.Gauge
	EventsEmitted     *prometheus.CounterVec
	DeliveriesDropped prometheus.Counter
}

// NewMetrics creates and registers the realtime collectors on the given
// registerer. Tests pass a throwaway registry so multiple hubs can coexist.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shopstream",
			Subsystem: "realtime",
			Name:      "connected_clients",
			Help:      "Number of live transport connections.",
		}),
		AdminClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shopstream",
			Subsystem: "realtime",
			Name:      "admin_clients",
			Help:      "Number of authenticated admin connections.",
		}),
		EventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopstream",
			Subsystem: "realtime",
			Name:      "events_emitted_total",
			Help:      "Outbound envelopes emitted, by event type.",
		}, []string{"type"}),
		DeliveriesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shopstream",
			Subsystem: "realtime",
			Name:      "deliveries_dropped_total",
			Help:      "Envelopes dropped because a connection's send queue was full.",
		}),
	}

	reg.MustRegister(m.ConnectedClients, m.AdminClients, m.EventsEmitted, m.DeliveriesDropped)

	return m
}
