package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "huddle"

// Result labels shared by the counters.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Deletion reasons for RoomsDeleted.
const (
	DeletedEmpty    = "empty"
	DeletedExplicit = "explicit"
)

type Metrics struct {
	RoomsActive   prometheus.Gauge
	RoomMembers   prometheus.Gauge
	JoinAttempts  *prometheus.CounterVec
	Messages      *prometheus.CounterVec
	RoomsDeleted  *prometheus.CounterVec
	WSConnections prometheus.Gauge
	HTTPDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. A nil reg leaves them
// unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RoomsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Number of rooms currently registered.",
		}),
		RoomMembers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "room_members",
			Help:      "Number of connections bound to a room.",
		}),
		JoinAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "join_attempts_total",
			Help:      "Join attempts by result.",
		}, []string{"result"}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Chat messages processed by result.",
		}, []string{"result"}),
		RoomsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_deleted_total",
			Help:      "Rooms deleted by reason.",
		}, []string{"reason"}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Open websocket connections.",
		}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.RoomsActive,
			m.RoomMembers,
			m.JoinAttempts,
			m.Messages,
			m.RoomsDeleted,
			m.WSConnections,
			m.HTTPDuration,
		)
	}

	return m
}

// Discard returns unregistered collectors for tests and tools.
func Discard() *Metrics {
	return New(nil)
}

// ObserveRegistry sets the room and member gauges from a registry count.
func (m *Metrics) ObserveRegistry(rooms, members int) {
	m.RoomsActive.Set(float64(rooms))
	m.RoomMembers.Set(float64(members))
}

func Result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}
