package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// fetch and archive pipelines.
type Metrics struct {
	// Fetch run metrics.
	CatalogRequests  *prometheus.CounterVec   // labels: outcome={success,error}
	RequestDuration  *prometheus.HistogramVec // labels: kind={catalog,document}
	DocumentsLocated prometheus.Counter
	DocumentsFetched prometheus.Counter
	DocumentsStored  prometheus.Counter
	FetchErrors      prometheus.Counter
	DocumentCache    *prometheus.CounterVec // labels: result={hit,miss}
	FetchRunsTotal   *prometheus.CounterVec // labels: outcome={success,error}
	FetchDuration    prometheus.Histogram

	// Archive metrics.
	ArchiveLoadRuns     prometheus.Counter
	DocumentsParsed     prometheus.Counter
	ParseErrors         prometheus.Counter
	DuplicateRecords    prometheus.Counter
	ArchiveRecords      prometheus.Gauge
	ArchiveLoadDuration prometheus.Histogram

	// Sink metrics.
	RecordsPublished prometheus.Counter
	RecordsIndexed   prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CatalogRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mt_etl",
			Name:      "catalog_requests_total",
			Help:      "Catalog list requests by outcome.",
		}, []string{"outcome"}),
		DocumentsLocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mt_etl",
			Name:      "documents_located_total",
			Help:      "Bulletin links found in catalog pages.",
		}),
		DocumentsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mt_etl",
			Name:      "documents_fetched_total",
			Help:      "Bulletins downloaded.",
		}),
		DocumentsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mt_etl",
			Name:      "documents_stored_total",
			Help:      "Bulletins written to the document store.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mt_etl",
			Name:      "fetch_errors_total",
			Help:      "Bulletin downloads or writes that aborted a fetch run.",
		}),
		DocumentCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mt_etl",
			Name:      "document_cache_total",
			Help:      "Bulletin cache lookups by result.",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mt_etl",
			Name:      "fetch_run_duration_seconds",
			Help:      "Duration of a complete fetch run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		FetchRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mt_etl",
			Name:      "fetch_runs_total",
			Help:      "Fetch runs by outcome.",
		}, []string{"outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mt_etl",
			Name:      "catalog_request_duration_seconds",
			Help:      "GEOFON HTTP request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		ArchiveLoadRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mt_etl",
			Name:      "archive_loads_total",
			Help:      "Archive directory scans.",
		}),
		DocumentsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mt_etl",
			Name:      "documents_parsed_total",
			Help:      "Bulletins decoded into records.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mt_etl",
			Name:      "parse_errors_total",
			Help:      "Bulletins skipped because they could not be read or decoded.",
		}),
		DuplicateRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mt_etl",
			Name:      "duplicate_timestamps_total",
			Help:      "Records that replaced an archive entry with the same timestamp.",
		}),
		ArchiveRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mt_etl",
			Name:      "archive_records",
			Help:      "Records in the most recently loaded archive.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mt_etl",
			Name:      "records_published_total",
			Help:      "Records written to the Kafka topic.",
		}),
		RecordsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mt_etl",
			Name:      "records_indexed_total",
			Help:      "Records upserted into the SQLite index.",
		}),
		ArchiveLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mt_etl",
			Name:      "archive_load_duration_seconds",
			Help:      "Duration of a complete archive scan.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CatalogRequests,
		m.DocumentsLocated,
		m.DocumentsFetched,
		m.DocumentsStored,
		m.FetchErrors,
		m.DocumentCache,
		m.FetchDuration,
		m.FetchRunsTotal,
		m.RequestDuration,
		m.ArchiveLoadRuns,
		m.DocumentsParsed,
		m.ParseErrors,
		m.DuplicateRecords,
		m.ArchiveRecords,
		m.RecordsPublished,
		m.RecordsIndexed,
		m.ArchiveLoadDuration,
	}
}
