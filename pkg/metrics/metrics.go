package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metrics for the patchbay server.
type Registry struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Patch graph metrics
	GraphDevicesTotal prometheus.Gauge
	GraphCablesTotal  prometheus.Gauge
	GraphPortsTotal   prometheus.Gauge

	// Validation metrics
	ValidationsTotal  *prometheus.CounterVec
	CycleChecksTotal  *prometheus.CounterVec
	AuditRunsTotal    prometheus.Counter
	AuditIssuesByKind *prometheus.GaugeVec

	// Project metrics
	ProjectSavesTotal *prometheus.CounterVec
	ProjectLoadsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a metrics registry with all metrics initialized.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}

	r.HTTPRequestsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchbay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	r.HTTPRequestDuration = promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "patchbay_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	r.HTTPRequestsInFlight = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "patchbay_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	r.GraphDevicesTotal = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "patchbay_graph_devices",
			Help: "Devices currently placed in the patch",
		},
	)
	r.GraphCablesTotal = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "patchbay_graph_cables",
			Help: "Cables currently in the patch",
		},
	)
	r.GraphPortsTotal = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "patchbay_graph_ports",
			Help: "Ports across all placed devices",
		},
	)

	r.ValidationsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchbay_validations_total",
			Help: "Connection validation attempts by outcome",
		},
		[]string{"outcome"}, // valid, warning, invalid
	)
	r.CycleChecksTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchbay_cycle_checks_total",
			Help: "Cycle checks by result",
		},
		[]string{"result"}, // cycle, acyclic
	)
	r.AuditRunsTotal = promauto.With(reg).NewCounter(
		prometheus.CounterOpts{
			Name: "patchbay_audit_runs_total",
			Help: "Setup audit executions",
		},
	)
	r.AuditIssuesByKind = promauto.With(reg).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "patchbay_audit_issues",
			Help: "Issues found by the most recent audit, by severity",
		},
		[]string{"severity"},
	)

	r.ProjectSavesTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchbay_project_saves_total",
			Help: "Project save operations by status",
		},
		[]string{"status"},
	)
	r.ProjectLoadsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchbay_project_loads_total",
			Help: "Project load operations by status",
		},
		[]string{"status"},
	)

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// RecordHTTPRequest records an HTTP request with its duration.
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordValidation records a connection validation outcome.
func (r *Registry) RecordValidation(valid, warning bool) {
	switch {
	case !valid:
		r.ValidationsTotal.WithLabelValues("invalid").Inc()
	case warning:
		r.ValidationsTotal.WithLabelValues("warning").Inc()
	default:
		r.ValidationsTotal.WithLabelValues("valid").Inc()
	}
}

// RecordCycleCheck records a cycle check result.
func (r *Registry) RecordCycleCheck(wouldCycle bool) {
	if wouldCycle {
		r.CycleChecksTotal.WithLabelValues("cycle").Inc()
	} else {
		r.CycleChecksTotal.WithLabelValues("acyclic").Inc()
	}
}

// RecordAudit records an audit run and its per-severity issue counts.
func (r *Registry) RecordAudit(bySeverity map[string]int) {
	r.AuditRunsTotal.Inc()
	for _, sev := range []string{"Info", "Warning", "Error"} {
		r.AuditIssuesByKind.WithLabelValues(sev).Set(float64(bySeverity[sev]))
	}
}

// RecordProjectSave records a project save by status ("ok" or "error").
func (r *Registry) RecordProjectSave(status string) {
	r.ProjectSavesTotal.WithLabelValues(status).Inc()
}

// RecordProjectLoad records a project load by status ("ok" or "error").
func (r *Registry) RecordProjectLoad(status string) {
	r.ProjectLoadsTotal.WithLabelValues(status).Inc()
}

// UpdateGraphSize updates the patch graph size gauges.
func (r *Registry) UpdateGraphSize(devices, cables, ports int) {
	r.GraphDevicesTotal.Set(float64(devices))
	r.GraphCablesTotal.Set(float64(cables))
	r.GraphPortsTotal.Set(float64(ports))
}
