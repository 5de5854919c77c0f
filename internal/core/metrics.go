package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricFramesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audiofork_frames_relayed_total",
		Help: "Audio frames written to remote endpoints.",
	})
	metricBytesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audiofork_bytes_relayed_total",
		Help: "Audio payload bytes written to remote endpoints.",
	})
	metricReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audiofork_reconnect_attempts_total",
		Help: "Mid-stream reconnect attempts.",
	})
	metricActiveForks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "audiofork_active_forks",
		Help: "Relay workers currently streaming.",
	})
)
