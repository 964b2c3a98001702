package relay

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "nexus_relay"

// Metrics holds the relay's Prometheus collectors.
type Metrics struct {
	rooms        prometheus.Gauge
	sessions     prometheus.Gauge
	connections  prometheus.Gauge
	inbound      *prometheus.CounterVec
	outbound     prometheus.Counter
	rejected     *prometheus.CounterVec
	sendFailures prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg. A nil
// Registerer leaves them unregistered, which is what tests use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "rooms",
			Help:      "Number of rooms with at least one member.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions",
			Help:      "Number of connections that have joined a room.",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "connections",
			Help:      "Number of open websocket connections.",
		}),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "inbound_messages_total",
			Help:      "Decoded client messages processed, by type.",
		}, []string{"type"}),
		outbound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "outbound_frames_total",
			Help:      "Frames queued to clients.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rejected_frames_total",
			Help:      "Client frames discarded before dispatch, by reason.",
		}, []string{"reason"}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "send_failures_total",
			Help:      "Recipients dropped because their send queue was full.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.rooms,
			m.sessions,
			m.connections,
			m.inbound,
			m.outbound,
			m.rejected,
			m.sendFailures,
		)
	}
	return m
}

func (m *Metrics) observe(rooms, sessions, connections int) {
	m.rooms.Set(float64(rooms))
	m.sessions.Set(float64(sessions))
	m.connections.Set(float64(connections))
}
