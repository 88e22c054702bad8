package metrics

import "github.com/prometheus/client_golang/prometheus"

// PersistenceMetrics holds Prometheus metrics for snapshot saves and loads.
type PersistenceMetrics struct {
	SaveDuration  prometheus.Histogram
	SaveErrors    prometheus.Counter
	LastSuccess   prometheus.Gauge
	OwnersLoaded  prometheus.Gauge
	OwnersSkipped prometheus.Counter
}

// NewPersistenceMetrics creates and registers persistence metrics on the given registry.
func NewPersistenceMetrics(reg prometheus.Registerer) *PersistenceMetrics {
	m := &PersistenceMetrics{
		SaveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "save_duration_seconds",
			Help:      "Duration of full registry saves in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		SaveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "save_errors_total",
			Help:      "Total number of saves that failed for at least one owner.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last fully successful save.",
		}),
		OwnersLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "owners_loaded",
			Help:      "Number of owners restored by the last load.",
		}),
		OwnersSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "owners_skipped_total",
			Help:      "Total number of owner documents skipped as unreadable or corrupt.",
		}),
	}

	reg.MustRegister(m.SaveDuration, m.SaveErrors, m.LastSuccess, m.OwnersLoaded, m.OwnersSkipped)
	return m
}
