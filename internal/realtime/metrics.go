package realtime

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics метрики push-доставки
type Metrics struct {
	openChannels *prometheus.GaugeVec
	frames       *prometheus.CounterVec
	failed       *prometheus.CounterVec
	transitions  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		openChannels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mentorship",
			Name:      "ws_open_channels",
			Help:      "Open websocket channels by kind.",
		}, []string{"kind"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorship",
			Name:      "ws_frames_delivered_total",
			Help:      "Frames written to subscriber queues by kind.",
		}, []string{"kind"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorship",
			Name:      "ws_frames_failed_total",
			Help:      "Frames that could not be queued for a subscriber.",
		}, []string{"kind"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorship",
			Name:      "status_transitions_total",
			Help:      "Applied lifecycle transitions by entity and target status.",
		}, []string{"entity", "status"}),
	}

	if reg != nil {
		reg.MustRegister(m.openChannels, m.frames, m.failed, m.transitions)
	}
	return m
}

// topicKind chat_1_2 -> chat, status_booking_5 -> status, notifications_3 -> notifications
func topicKind(topic string) string {
	kind, _, _ := strings.Cut(topic, "_")
	return kind
}

func (m *Metrics) channelOpened(topic string) {
	if m != nil {
		m.openChannels.WithLabelValues(topicKind(topic)).Inc()
	}
}

func (m *Metrics) channelClosed(topic string) {
	if m != nil {
		m.openChannels.WithLabelValues(topicKind(topic)).Dec()
	}
}

func (m *Metrics) delivered(topic string, n int) {
	if m != nil && n > 0 {
		m.frames.WithLabelValues(topicKind(topic)).Add(float64(n))
	}
}

func (m *Metrics) deliveryFailed(topic string) {
	if m != nil {
		m.failed.WithLabelValues(topicKind(topic)).Inc()
	}
}

func (m *Metrics) transition(entity, status string) {
	if m != nil {
		m.transitions.WithLabelValues(entity, status).Inc()
	}
}
