package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/recordlink/pkg/metrics"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveScan(3)
	m.ObserveEnrichment("enriched", 2, 1)
	m.ObserveEnrichment("low_confidence", 0, 0)
	m.ObserveConflict("kept_existing")
	m.ObservePromotion(false)
	m.ObservePromotion(true)
	m.ObserveReferenceOp("create")
	m.ObserveAuditFailure("audit_log")
	m.ObserveDuration("analyze", time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Scans))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Enrichments.WithLabelValues("enriched")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EnrichedFields.WithLabelValues("added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnrichedFields.WithLabelValues("updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Conflicts.WithLabelValues("kept_existing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Promotions.WithLabelValues("live")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReferenceOps.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditFailures.WithLabelValues("audit_log")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveScan(1)
		m.ObserveEnrichment("enriched", 1, 1)
		m.ObserveConflict("kept_existing")
		m.ObservePromotion(true)
		m.ObserveReferenceOp("delete")
		m.ObserveAuditFailure("enrichment_logs")
		m.ObserveDuration("scan", time.Now())
	})
}
