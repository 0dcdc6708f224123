// Package metrics provides Prometheus instrumentation for recordlink.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics holds the recordlink collectors.
type Metrics struct {
	Scans             prometheus.Counter
	ScanCandidates    prometheus.Histogram
	Enrichments       *prometheus.CounterVec
	EnrichedFields    *prometheus.CounterVec
	Conflicts         *prometheus.CounterVec
	Promotions        *prometheus.CounterVec
	ReferenceOps      *prometheus.CounterVec
	AuditFailures     *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New registers the collectors on reg. Use prometheus.NewRegistry() in tests
// to avoid clashing with the global registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Scans: f.NewCounter(prometheus.CounterOpts{
			Name: "recordlink_scans_total",
			Help: "Total number of candidate scans",
		}),
		ScanCandidates: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "recordlink_scan_candidates",
			Help:    "Number of candidates returned per scan",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		Enrichments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recordlink_enrichments_total",
			Help: "Enrichment attempts by outcome (enriched, unchanged, low_confidence, failed)",
		}, []string{"outcome"}),
		EnrichedFields: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recordlink_enriched_fields_total",
			Help: "Fields written by enrichment by change type (added, updated)",
		}, []string{"change"}),
		Conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recordlink_conflicts_total",
			Help: "Field conflicts by resolution action",
		}, []string{"action"}),
		Promotions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recordlink_promotions_total",
			Help: "Records promoted to the global catalog by mode (draft, live)",
		}, []string{"mode"}),
		ReferenceOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recordlink_reference_ops_total",
			Help: "Reference mutations by operation (create, delete)",
		}, []string{"op"}),
		AuditFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recordlink_audit_failures_total",
			Help: "Swallowed trail write failures by sink",
		}, []string{"sink"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recordlink_operation_duration_seconds",
			Help:    "Duration of core operations",
			Buckets: durationBuckets,
		}, []string{"operation"}),
	}
}

// ObserveScan records one scan and its candidate count.
func (m *Metrics) ObserveScan(candidates int) {
	if m == nil {
		return
	}
	m.Scans.Inc()
	m.ScanCandidates.Observe(float64(candidates))
}

// ObserveEnrichment records an enrichment outcome and the fields it wrote.
func (m *Metrics) ObserveEnrichment(outcome string, added, updated int) {
	if m == nil {
		return
	}
	m.Enrichments.WithLabelValues(outcome).Inc()
	if added > 0 {
		m.EnrichedFields.WithLabelValues("added").Add(float64(added))
	}
	if updated > 0 {
		m.EnrichedFields.WithLabelValues("updated").Add(float64(updated))
	}
}

// ObserveConflict records one conflict resolution.
func (m *Metrics) ObserveConflict(action string) {
	if m == nil {
		return
	}
	m.Conflicts.WithLabelValues(action).Inc()
}

// ObservePromotion records one promotion.
func (m *Metrics) ObservePromotion(live bool) {
	if m == nil {
		return
	}
	mode := "draft"
	if live {
		mode = "live"
	}
	m.Promotions.WithLabelValues(mode).Inc()
}

// ObserveReferenceOp records a reference mutation.
func (m *Metrics) ObserveReferenceOp(op string) {
	if m == nil {
		return
	}
	m.ReferenceOps.WithLabelValues(op).Inc()
}

// ObserveAuditFailure records a swallowed trail write failure.
func (m *Metrics) ObserveAuditFailure(sink string) {
	if m == nil {
		return
	}
	m.AuditFailures.WithLabelValues(sink).Inc()
}

// ObserveDuration records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveDuration(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
