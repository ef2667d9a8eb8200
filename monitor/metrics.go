package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysisRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocpp_analysis_runs_total",
			Help: "Analysis passes by outcome",
		},
		[]string{"result"},
	)

	analysisDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ocpp_analysis_duration_seconds",
			Help:    "Time spent analyzing one log batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	anomaliesDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocpp_anomalies_detected_total",
			Help: "Total number of anomalies detected in committed snapshots",
		},
		[]string{"charger_id"},
	)

	malformedFragmentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ocpp_malformed_fragments_total",
			Help: "MeterValues payloads that could not be decoded",
		},
	)

	healthScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ocpp_health_score",
		Help: "Health score of the current snapshot",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ocpp_active_sessions",
		Help: "Active sessions in the current snapshot",
	})

	onlineChargers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ocpp_online_chargers",
		Help: "Distinct chargers seen in the current snapshot",
	})

	publishErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ocpp_publish_errors_total",
			Help: "Snapshot publishes that failed on at least one publisher",
		},
	)
)
