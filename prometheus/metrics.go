// Package prometheus records sync metrics with the Prometheus client. A sync
// is a batch job, so metrics are written to a file in the text exposition
// format for the node_exporter textfile collector rather than served.
package prometheus

import (
	"time"

	"github.com/fwojciec/docindex"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "docindex"

// Metrics holds the collectors of one process and the registry they are
// registered with.
type Metrics struct {
	registry *prometheus.Registry

	fetches        *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	indexOps       *prometheus.CounterVec
	indexDocuments *prometheus.CounterVec

	lastSuccess   prometheus.Gauge
	lastTimestamp prometheus.Gauge
	lastDuration  prometheus.Gauge
	lastRecords   *prometheus.GaugeVec
	lastPages     *prometheus.GaugeVec
}

// NewMetrics creates the collectors on a fresh registry labelled with the
// index name.
func NewMetrics(index string) *Metrics {
	labels := prometheus.Labels{"index": index}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "page_fetches_total",
			Help:        "Page fetch attempts by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "page_fetch_duration_seconds",
			Help:        "Duration of page fetches.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		indexOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "index_requests_total",
			Help:        "Search index requests by operation and result.",
			ConstLabels: labels,
		}, []string{"op", "result"}),
		indexDocuments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "index_documents_total",
			Help:        "Records or IDs sent to or listed from the search index, by operation.",
			ConstLabels: labels,
		}, []string{"op"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_sync_success",
			Help:        "1 if the last sync succeeded, 0 otherwise.",
			ConstLabels: labels,
		}),
		lastTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_sync_timestamp_seconds",
			Help:        "Unix time the last sync finished.",
			ConstLabels: labels,
		}),
		lastDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_sync_duration_seconds",
			Help:        "Wall time of the last sync.",
			ConstLabels: labels,
		}),
		lastRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_sync_records",
			Help:        "Records of the last sync by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		lastPages: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_sync_pages",
			Help:        "Pages of the last sync by state.",
			ConstLabels: labels,
		}, []string{"state"}),
	}

	m.registry.MustRegister(
		m.fetches,
		m.fetchDuration,
		m.indexOps,
		m.indexDocuments,
		m.lastSuccess,
		m.lastTimestamp,
		m.lastDuration,
		m.lastRecords,
		m.lastPages,
	)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveResult records the outcome of a sync that started at begin and
// finished at end.
func (m *Metrics) ObserveResult(result *docindex.Result, begin, end time.Time) {
	if result == nil {
		return
	}
	if result.Success {
		m.lastSuccess.Set(1)
	} else {
		m.lastSuccess.Set(0)
	}
	m.lastTimestamp.Set(float64(end.Unix()))
	m.lastDuration.Set(end.Sub(begin).Seconds())

	m.lastRecords.WithLabelValues("new").Set(float64(result.NewRecordsCount))
	m.lastRecords.WithLabelValues("deleted").Set(float64(result.DeletedRecordsCount))
	m.lastRecords.WithLabelValues("total").Set(float64(result.TotalRecordsCount))

	m.lastPages.WithLabelValues("crawled").Set(float64(result.PagesCrawled))
	m.lastPages.WithLabelValues("skipped").Set(float64(len(result.SkippedPages)))
}

// WriteFile writes every metric to path in the text exposition format. The
// file is replaced atomically.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return docindex.Wrapf(docindex.EINTERNAL, err, "writing metrics to %s", path)
	}
	return nil
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
