package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "radar_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the radar collector.
type Metrics struct {
	RoundsCompleted  prometheus.Counter
	RoundsFailed     prometheus.Counter
	RoundDuration    prometheus.Histogram
	CollectorRunning prometheus.Gauge

	// Per-site acquisition metrics.
	SiteErrors    *prometheus.CounterVec // labels: kind={fetch,decode,processing,other}
	FetchDuration prometheus.Histogram
	FetchCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Output metrics.
	RainPixels       *prometheus.GaugeVec // labels: site, category
	HistoryColumns   prometheus.Gauge
	SnapshotErrors   prometheus.Counter
	SamplesPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all collector metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewUnregisteredMetrics()

	prometheus.MustRegister(
		m.RoundsCompleted,
		m.RoundsFailed,
		m.RoundDuration,
		m.CollectorRunning,
		m.SiteErrors,
		m.FetchDuration,
		m.FetchCache,
		m.RainPixels,
		m.HistoryColumns,
		m.SnapshotErrors,
		m.SamplesPublished,
		m.PublishErrors,
	)

	return m
}

// NewUnregisteredMetrics creates Metrics without registering them. Tests use
// it to avoid "already registered" panics; one-shot commands use it because
// they have no /metrics endpoint.
func NewUnregisteredMetrics() *Metrics {
	return &Metrics{
		RoundsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_completed_total",
			Help:      "Rounds accumulated into the history table.",
		}),
		RoundsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_failed_total",
			Help:      "Rounds aborted before accumulation.",
		}),
		RoundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_duration_seconds",
			Help:      "Duration of one pass over every configured site.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		CollectorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collector_running",
			Help:      "1 when the collector loop is active, 0 when shut down.",
		}),
		SiteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "site_errors_total",
			Help:      "Per-site sampling failures by error kind.",
		}, []string{"kind"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Radar image download and decode duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cache_total",
			Help:      "Radar image cache lookups by result.",
		}, []string{"result"}),
		RainPixels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rain_pixels",
			Help:      "Latest noise-adjusted pixel count per site and rain category.",
		}, []string{"site", "category"}),
		HistoryColumns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_columns",
			Help:      "Number of rounds held in the history table.",
		}),
		SnapshotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_errors_total",
			Help:      "Failures persisting the history table.",
		}),
		SamplesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_published_total",
			Help:      "Site samples written to the Kafka topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Rounds whose samples could not be published.",
		}),
	}
}
