package realtime

import "github.com/prometheus/client_golang/prometheus"

var (
	roomsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "collab_rooms_active",
		Help: "Rooms with at least one participant.",
	})
	sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "collab_sessions_active",
		Help: "Authenticated realtime connections.",
	})
	eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "collab_events_total",
		Help: "Inbound realtime events by type.",
	}, []string{"type"})
	sessionsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "collab_sessions_evicted_total",
		Help: "Sessions dropped because their send buffer was full.",
	})
	cursorsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "collab_cursor_updates_dropped_total",
		Help: "Cursor updates discarded by the per-connection throttle.",
	})
)

func init() {
	prometheus.MustRegister(roomsActive, sessionsActive, eventsTotal, sessionsEvicted, cursorsDropped)
}
