package metrics

import "github.com/prometheus/client_golang/prometheus"

// Topic monitor Prometheus metrics.
var (
	MonitorHitsScannedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "capitolwords",
			Name:      "monitor_hits_scanned_total",
			Help:      "Total index hits scanned during topic runs",
		},
		[]string{"topic"},
	)

	MonitorResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "capitolwords",
			Name:      "monitor_results_total",
			Help:      "Found results by persistence outcome",
		},
		[]string{"topic", "outcome"}, // "inserted" / "duplicate"
	)

	MonitorUnresolvedSpeakersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "capitolwords",
			Name:      "monitor_unresolved_speakers_total",
			Help:      "Hit speakers that did not resolve to a canonical member",
		},
		[]string{"topic"},
	)

	MonitorRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "capitolwords",
			Name:      "monitor_run_duration_seconds",
			Help:      "Topic run duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"topic"},
	)
)

var monitorMetricsRegistered bool

// RegisterMonitorMetrics registers Prometheus monitor metrics. Must be called once from main.
func RegisterMonitorMetrics() {
	if monitorMetricsRegistered {
		return
	}
	prometheus.MustRegister(MonitorHitsScannedTotal)
	prometheus.MustRegister(MonitorResultsTotal)
	prometheus.MustRegister(MonitorUnresolvedSpeakersTotal)
	prometheus.MustRegister(MonitorRunDuration)
	monitorMetricsRegistered = true
}
