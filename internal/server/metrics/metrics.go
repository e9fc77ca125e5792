// Package metrics exposes Prometheus collectors for the protocol server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "obsidian"

// Metrics holds the server collectors. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	connectionsTotal prometheus.Counter
	sessionsActive   prometheus.Gauge
	playersOnline    prometheus.Gauge
	packetsReceived  *prometheus.CounterVec
	packetsSent      *prometheus.CounterVec
	unknownPackets   *prometheus.CounterVec
	disconnectsTotal *prometheus.CounterVec
	loginFailures    prometheus.Counter
	keepAliveMissed  prometheus.Counter
}

// New registers all collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted TCP connections",
		}),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Connections currently being served",
		}),
		playersOnline: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "players_online",
			Help:      "Players in the online registry",
		}),
		packetsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_received_total",
			Help:      "Packets read from clients by protocol state",
		}, []string{"state"}),
		packetsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_sent_total",
			Help:      "Packets written to clients by protocol state",
		}, []string{"state"}),
		unknownPackets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_packets_total",
			Help:      "Packets with no handler for the current state",
		}, []string{"state"}),
		disconnectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disconnects_total",
			Help:      "Server-initiated disconnects by reason",
		}, []string{"reason"}),
		loginFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_failures_total",
			Help:      "Logins rejected by identity lookup or duplicate session",
		}),
		keepAliveMissed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keepalive_missed_total",
			Help:      "Keep-alive probes sent while a previous one was unanswered",
		}),
	}
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connectionsTotal.Inc()
	m.sessionsActive.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

func (m *Metrics) SetPlayersOnline(n int) {
	if m == nil {
		return
	}
	m.playersOnline.Set(float64(n))
}

func (m *Metrics) PacketReceived(state string) {
	if m == nil {
		return
	}
	m.packetsReceived.WithLabelValues(state).Inc()
}

func (m *Metrics) PacketSent(state string) {
	if m == nil {
		return
	}
	m.packetsSent.WithLabelValues(state).Inc()
}

func (m *Metrics) UnknownPacket(state string) {
	if m == nil {
		return
	}
	m.unknownPackets.WithLabelValues(state).Inc()
}

func (m *Metrics) Disconnect(reason string) {
	if m == nil {
		return
	}
	m.disconnectsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) LoginFailed() {
	if m == nil {
		return
	}
	m.loginFailures.Inc()
}

func (m *Metrics) KeepAliveMissed() {
	if m == nil {
		return
	}
	m.keepAliveMissed.Inc()
}
