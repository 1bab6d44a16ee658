// Package metrics defines the Prometheus collectors for a dictionary build
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the builder. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	FilesScannedTotal    *prometheus.CounterVec
	RecordsTotal         *prometheus.CounterVec
	TokensTotal          prometheus.Counter
	DuplicateDocIDsTotal prometheus.Counter
	ActiveWorkers        prometheus.Gauge
	DictionarySize       *prometheus.GaugeVec
	StageDuration        *prometheus.HistogramVec
	SinkDeliveriesTotal  *prometheus.CounterVec
	BuildsTotal          *prometheus.CounterVec
}

// New creates all collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FilesScannedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_files_scanned_total",
				Help: "Corpus files scanned by status (ok, failed).",
			},
			[]string{"status"},
		),
		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corpus_records_total",
				Help: "Document records seen by outcome (indexed, skipped).",
			},
			[]string{"outcome"},
		),
		TokensTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "corpus_tokens_total",
				Help: "Tokens counted after stopword filtering.",
			},
		),
		DuplicateDocIDsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "corpus_duplicate_doc_ids_total",
				Help: "Document id sightings collapsed into an existing id.",
			},
		),
		ActiveWorkers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scan_workers_active",
				Help: "Scan workers currently running.",
			},
		),
		DictionarySize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dictionary_entries",
				Help: "Entries in the last built dictionary by kind (terms, raw_terms, documents).",
			},
			[]string{"kind"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "build_stage_duration_seconds",
				Help:    "Duration of each build stage in seconds.",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"stage"},
		),
		SinkDeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sink_deliveries_total",
				Help: "Dictionary deliveries by sink and status.",
			},
			[]string{"sink", "status"},
		),
		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dictionary_builds_total",
				Help: "Dictionary builds by status.",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.FilesScannedTotal,
		m.RecordsTotal,
		m.TokensTotal,
		m.DuplicateDocIDsTotal,
		m.ActiveWorkers,
		m.DictionarySize,
		m.StageDuration,
		m.SinkDeliveriesTotal,
		m.BuildsTotal,
	)

	return m
}

// ObserveFile records one scanned file.
func (m *Metrics) ObserveFile(failed bool, records, skipped, tokens int) {
	if m == nil {
		return
	}
	if failed {
		m.FilesScannedTotal.WithLabelValues("failed").Inc()
		return
	}
	m.FilesScannedTotal.WithLabelValues("ok").Inc()
	m.RecordsTotal.WithLabelValues("indexed").Add(float64(records))
	m.RecordsTotal.WithLabelValues("skipped").Add(float64(skipped))
	m.TokensTotal.Add(float64(tokens))
}

// WorkerStarted and WorkerDone track the scan pool size.
func (m *Metrics) WorkerStarted() {
	if m != nil {
		m.ActiveWorkers.Inc()
	}
}

func (m *Metrics) WorkerDone() {
	if m != nil {
		m.ActiveWorkers.Dec()
	}
}

func (m *Metrics) ObserveDuplicates(n int) {
	if m != nil {
		m.DuplicateDocIDsTotal.Add(float64(n))
	}
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

func (m *Metrics) SetDictionarySize(kind string, n int) {
	if m != nil {
		m.DictionarySize.WithLabelValues(kind).Set(float64(n))
	}
}

func (m *Metrics) ObserveSink(sink string, err error) {
	if m == nil {
		return
	}
	m.SinkDeliveriesTotal.WithLabelValues(sink, status(err)).Inc()
}

func (m *Metrics) ObserveBuild(err error) {
	if m != nil {
		m.BuildsTotal.WithLabelValues(status(err)).Inc()
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Handler returns the Prometheus scrape HTTP handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
