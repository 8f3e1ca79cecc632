package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cowrite_active_connections",
		Help: "Number of live websocket connections.",
	})
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cowrite_active_rooms",
		Help: "Number of document rooms with at least one member.",
	})
	RelayedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cowrite_relayed_frames_total",
		Help: "Frames fanned out to room members, by frame type.",
	}, []string{"type"})
	SaveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cowrite_save_failures_total",
		Help: "Document saves that failed at the persistence layer.",
	})
)
