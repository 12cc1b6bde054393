package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "outbreak_sim"

// Metrics holds the Prometheus counters, histograms, and gauges for simulation runs.
type Metrics struct {
	Runs            *prometheus.CounterVec // labels: outcome={success,invalid,error}
	EventsGenerated *prometheus.CounterVec // labels: source={CBS,EMR}
	PipelineRunning prometheus.Gauge

	// Latest-run outcome gauges.
	MaxZScore      prometheus.Gauge
	PeakAlertLevel prometheus.Gauge // AlertLevel.Rank of the peak hour
	PayoutReleased prometheus.Gauge

	RunDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Simulation runs by outcome.",
		}, []string{"outcome"}),
		EventsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_generated_total",
			Help:      "Synthetic surveillance events generated by source.",
		}, []string{"source"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the oracle loop is active, 0 when shut down.",
		}),
		MaxZScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "max_z_score",
			Help:      "Highest hourly z-score of the latest run.",
		}),
		PeakAlertLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peak_alert_level",
			Help:      "Peak alert level of the latest run (0=GREEN .. 4=CRITICAL).",
		}),
		PayoutReleased: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "payout_released",
			Help:      "1 when the latest run released the parametric bond payout.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete simulate-and-load cycle.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// NewMetrics creates and registers all simulation metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Runs,
		m.EventsGenerated,
		m.PipelineRunning,
		m.MaxZScore,
		m.PeakAlertLevel,
		m.PayoutReleased,
		m.RunDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
