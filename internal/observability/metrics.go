package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "recruitment_office"

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	errors            *prometheus.CounterVec
	contractStatus    *prometheus.CounterVec
	backupDuration    *prometheus.HistogramVec
	jobRuns           *prometheus.CounterVec
	documentsRendered *prometheus.CounterVec
}

// NewMetrics registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Errors returned to clients by error code.",
		}, []string{"route", "method", "code"}),
		contractStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contract_transitions_total",
			Help:      "Contract status transitions.",
		}, []string{"from", "to"}),
		backupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backup_duration_seconds",
			Help:      "Duration of database backup and restore runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"operation", "outcome"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Background job executions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		documentsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_rendered_total",
			Help:      "Generated documents by kind and format.",
		}, []string{"kind", "format"}),
	}
	reg.MustRegister(m.requests, m.requestDuration, m.errors, m.contractStatus, m.backupDuration, m.jobRuns, m.documentsRendered)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordContractTransition counts a contract status change.
func (m *Metrics) RecordContractTransition(from, to string) {
	if m == nil {
		return
	}
	m.contractStatus.WithLabelValues(from, to).Inc()
}

// ObserveBackup records a backup or restore run.
func (m *Metrics) ObserveBackup(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.backupDuration.WithLabelValues(operation, outcome(err)).Observe(duration.Seconds())
}

// RecordJob counts a background job execution.
func (m *Metrics) RecordJob(kind string, err error) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(kind, outcome(err)).Inc()
}

// RecordDocument counts a rendered document.
func (m *Metrics) RecordDocument(kind, format string) {
	if m == nil {
		return
	}
	m.documentsRendered.WithLabelValues(kind, format).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
