package prometheus

import (
	"time"
)

// CuratorMetrics holds the metric families of the curation pipeline.
type CuratorMetrics struct {
	// Data source layer
	ReactionsDownloadedTotal CounterVec
	DownloadDuration         HistogramVec
	DownloadErrorsTotal      CounterVec

	// Curation layer
	TemplatesExtractedTotal  CounterVec
	TemplateFailuresTotal    CounterVec
	BlueprintsGeneratedTotal CounterVec
	MappingsAppliedTotal     CounterVec

	// Search layer
	SearchQueriesTotal CounterVec
	SearchDuration     HistogramVec
	SearchHitCount     HistogramVec

	// Toolkit sidecar
	ToolkitRequestsTotal CounterVec
	ToolkitDuration      HistogramVec

	// Storage layer
	BlueprintsStored GaugeVec
	StoreDuration    HistogramVec

	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec

	// System
	ErrorsTotal CounterVec
}

var (
	defaultAPIDurationBuckets      = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	defaultDownloadDurationBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600}
	defaultHitCountBuckets         = []float64{0, 1, 5, 10, 50, 100, 500, 1000}
)

// NewCuratorMetrics registers the pipeline metric families on the collector.
func NewCuratorMetrics(collector MetricsCollector) *CuratorMetrics {
	m := &CuratorMetrics{}

	m.ReactionsDownloadedTotal = collector.RegisterCounter("reactions_downloaded_total", "Reactions fetched from a data source", "source", "package")
	m.DownloadDuration = collector.RegisterHistogram("download_duration_seconds", "Package download duration", defaultDownloadDurationBuckets, "source")
	m.DownloadErrorsTotal = collector.RegisterCounter("download_errors_total", "Data source request failures", "source", "reason")

	m.TemplatesExtractedTotal = collector.RegisterCounter("templates_extracted_total", "Templates extracted from curated reactions", "source")
	m.TemplateFailuresTotal = collector.RegisterCounter("template_failures_total", "Reactions that yielded no template", "source", "reason")
	m.BlueprintsGeneratedTotal = collector.RegisterCounter("blueprints_generated_total", "Blueprints assembled from curated reactions", "source")
	m.MappingsAppliedTotal = collector.RegisterCounter("mappings_applied_total", "Mapped reaction strings merged back into a dataset", "status")

	m.SearchQueriesTotal = collector.RegisterCounter("search_queries_total", "Substructure search queries", "status")
	m.SearchDuration = collector.RegisterHistogram("search_duration_seconds", "Substructure search duration", defaultAPIDurationBuckets, "role")
	m.SearchHitCount = collector.RegisterHistogram("search_hit_count", "Blueprints matched per search", defaultHitCountBuckets, "role")

	m.ToolkitRequestsTotal = collector.RegisterCounter("toolkit_requests_total", "Chemistry toolkit sidecar calls", "operation", "status")
	m.ToolkitDuration = collector.RegisterHistogram("toolkit_request_duration_seconds", "Chemistry toolkit sidecar call duration", defaultAPIDurationBuckets, "operation")

	m.BlueprintsStored = collector.RegisterGauge("blueprints_stored", "Blueprints currently persisted", "store")
	m.StoreDuration = collector.RegisterHistogram("store_duration_seconds", "Persistence operation duration", defaultAPIDurationBuckets, "store", "operation")

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "HTTP API requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP API request duration", defaultAPIDurationBuckets, "method", "path")

	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by component and code", "component", "code")

	return m
}

// RecordSearch observes one substructure search.
func (m *CuratorMetrics) RecordSearch(role string, hits int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.SearchQueriesTotal.WithLabelValues(status).Inc()
	m.SearchDuration.WithLabelValues(role).Observe(duration.Seconds())
	if err == nil {
		m.SearchHitCount.WithLabelValues(role).Observe(float64(hits))
	}
}

// RecordToolkitCall observes one sidecar round trip.
func (m *CuratorMetrics) RecordToolkitCall(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.ToolkitRequestsTotal.WithLabelValues(operation, status).Inc()
	m.ToolkitDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordError counts an error against a component.
func (m *CuratorMetrics) RecordError(component, code string) {
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}
