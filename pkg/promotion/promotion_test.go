package promotion_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/recordlink/pkg/audit"
	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/metrics"
	"github.com/agentstation/recordlink/pkg/promotion"
	"github.com/agentstation/recordlink/pkg/records"
	"github.com/agentstation/recordlink/pkg/store/memory"
)

var at = time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)

func newInterceptor(t *testing.T, opts ...promotion.Option) (*promotion.Interceptor, *audit.Log) {
	t.Helper()
	trail := audit.New(memory.New())
	opts = append([]promotion.Option{promotion.WithClock(func() time.Time { return at })}, opts...)
	return promotion.New(trail, opts...), trail
}

func contact() records.Record {
	return records.Record{
		ID:        "c1",
		TenantID:  "t1",
		Kind:      records.KindContact,
		Name:      "Anna Meyer",
		Emails:    []string{"anna@spiegel.de"},
		Position:  "Editor",
		CreatedAt: at.Add(-time.Hour),
		UpdatedAt: at.Add(-time.Hour),
	}
}

var (
	member  = records.ActorContext{ActorID: "u1", TenantID: "t1"}
	curator = records.ActorContext{ActorID: "su", TenantID: "t1", AutoGlobalEligible: true}
)

func testContext(t *testing.T) context.Context {
	return logging.NewTestLogger(t).WithContext(context.Background())
}

func TestScenarioDPassthrough(t *testing.T) {
	ctx := testContext(t)
	ic, trail := newInterceptor(t)
	in := contact()

	out, err := ic.Intercept(ctx, in, member, promotion.Options{})
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.False(t, out.IsGlobal)
	assert.Nil(t, out.GlobalMetadata)

	ic.Commit(ctx, out, member, promotion.Options{})
	entries, err := trail.List(ctx, audit.Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInterceptStampsMetadata(t *testing.T) {
	tests := []struct {
		name    string
		actor   records.ActorContext
		opts    promotion.Options
		context string
		auto    bool
		draft   bool
		live    bool
	}{
		{"forced draft", member, promotion.Options{ForceGlobal: true}, promotion.ContextForceGlobal, false, true, false},
		{"auto draft", curator, promotion.Options{}, promotion.ContextAutoGlobal, true, true, false},
		{"forced live", curator, promotion.Options{ForceGlobal: true, LiveMode: true}, promotion.ContextForceGlobal, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			ic, trail := newInterceptor(t)
			out, err := ic.Intercept(ctx, contact(), tt.actor, tt.opts)
			require.NoError(t, err)

			assert.True(t, out.IsGlobal)
			meta := out.GlobalMetadata
			require.NotNil(t, meta)
			assert.Equal(t, tt.actor.ActorID, meta.AddedBy)
			assert.True(t, meta.AddedAt.Equal(at))
			assert.Equal(t, tt.auto, meta.AutoPromoted)
			assert.Equal(t, tt.context, meta.Context)
			assert.Equal(t, 1, meta.Version)
			assert.Equal(t, tt.draft, meta.IsDraft)
			assert.Equal(t, tt.live, meta.PublishedAt != nil)
			assert.Empty(t, meta.BatchID)
			// name 15 + email 15 + position 10
			assert.Equal(t, 40, meta.QualityScore)

			entries, err := trail.List(ctx, audit.Filter{EntityID: "c1"})
			require.NoError(t, err)
			assert.Empty(t, entries, "nothing is recorded before the record is stored")

			ic.Commit(ctx, out, tt.actor, tt.opts)
			entries, err = trail.List(ctx, audit.Filter{EntityID: "c1"})
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, records.ActionPromote, entries[0].Action)
			assert.Equal(t, tt.live, entries[0].IsLive)
			assert.Equal(t, tt.actor.ActorID, entries[0].PerformedBy)
			assert.True(t, entries[0].Timestamp.Equal(at))
			assert.Equal(t, 1, toInt(entries[0].Changes["version"]))
		})
	}
}

func TestInterceptIncrementsVersion(t *testing.T) {
	ctx := testContext(t)
	ic, _ := newInterceptor(t)
	rec := contact()
	for want := 1; want <= 3; want++ {
		var err error
		rec, err = ic.Intercept(ctx, rec, curator, promotion.Options{})
		require.NoError(t, err)
		assert.Equal(t, want, rec.Version())
	}
}

func TestInterceptCopiesSourceTypeWithoutMutatingInput(t *testing.T) {
	ctx := testContext(t)
	ic, _ := newInterceptor(t)
	in := contact()
	out, err := ic.Intercept(ctx, in, curator, promotion.Options{SourceType: "import"})
	require.NoError(t, err)
	assert.Equal(t, "import", out.SourceType)
	assert.Empty(t, in.SourceType)
	assert.False(t, in.IsGlobal)
	assert.Nil(t, in.GlobalMetadata)
}

func TestInterceptValidation(t *testing.T) {
	ctx := testContext(t)
	ic, _ := newInterceptor(t)
	rec := contact()
	rec.Kind = ""
	_, err := ic.Intercept(ctx, rec, curator, promotion.Options{})
	assert.True(t, errors.IsValidationError(err))

	_, err = ic.Intercept(ctx, contact(), records.ActorContext{}, promotion.Options{ForceGlobal: true})
	assert.True(t, errors.IsValidationError(err))
}

func TestInterceptBatchSharesBatchID(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	ctx := testContext(t)
	ic, trail := newInterceptor(t, promotion.WithMetrics(m))

	in := []records.Record{contact(), contact(), contact()}
	in[1].ID, in[2].ID = "c2", "c3"

	out, batchID, err := ic.InterceptBatch(ctx, in, curator, promotion.Options{LiveMode: true})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^batch_\d{13}_[0-9a-z]{9}$`), batchID)
	require.Len(t, out, 3)
	opts := promotion.Options{LiveMode: true}
	for _, rec := range out {
		require.NotNil(t, rec.GlobalMetadata)
		assert.Equal(t, batchID, rec.GlobalMetadata.BatchID)
	}
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Promotions.WithLabelValues("live")))

	for _, rec := range out[:2] {
		ic.Commit(ctx, rec, curator, opts)
	}
	entries, err := trail.List(ctx, audit.Filter{Action: records.ActionPromote})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, batchID, entries[0].Changes["batchId"])

	ic.Commit(ctx, out[2], curator, opts)
	entries, err = trail.List(ctx, audit.Filter{Action: records.ActionPromote})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Promotions.WithLabelValues("live")))
}

func TestInterceptBatchPassthrough(t *testing.T) {
	ctx := testContext(t)
	ic, _ := newInterceptor(t)
	in := []records.Record{contact()}
	out, batchID, err := ic.InterceptBatch(ctx, in, member, promotion.Options{})
	require.NoError(t, err)
	assert.Empty(t, batchID)
	assert.Equal(t, in, out)
}

func TestCommitIgnoresRecordsNotPromoted(t *testing.T) {
	ctx := testContext(t)
	ic, trail := newInterceptor(t)

	stamped := contact()
	stamped.IsGlobal = true
	stamped.GlobalMetadata = &records.GlobalMetadata{AddedBy: "earlier", Version: 2}
	ic.Commit(ctx, stamped, member, promotion.Options{})
	ic.Commit(ctx, contact(), curator, promotion.Options{})

	entries, err := trail.List(ctx, audit.Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return -1
}

func TestNewBatchIDDiffers(t *testing.T) {
	a := promotion.NewBatchID(at)
	b := promotion.NewBatchID(at)
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "_1788255000000_")
}
