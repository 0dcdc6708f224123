package recordlink_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/recordlink"
	"github.com/agentstation/recordlink/pkg/audit"
	"github.com/agentstation/recordlink/pkg/enrich"
	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/metrics"
	"github.com/agentstation/recordlink/pkg/promotion"
	"github.com/agentstation/recordlink/pkg/records"
	"github.com/agentstation/recordlink/pkg/store/memory"
)

var (
	now    = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	editor = records.ActorContext{ActorID: "u1", TenantID: "t1"}
	admin  = records.ActorContext{ActorID: "admin", TenantID: "platform", AutoGlobalEligible: true}
)

func newLinker(t *testing.T, opts ...recordlink.Option) recordlink.Linker {
	t.Helper()
	opts = append([]recordlink.Option{
		recordlink.WithClock(func() time.Time { return now }),
		recordlink.WithLogger(logging.NewTestLogger(t).Logger),
	}, opts...)
	l, err := recordlink.New(memory.New(), opts...)
	require.NoError(t, err)
	return l
}

func save(t *testing.T, l recordlink.Linker, actor records.ActorContext, rec records.Record, opts promotion.Options) records.Record {
	t.Helper()
	out, err := l.Save(context.Background(), actor, rec, opts)
	require.NoError(t, err)
	return out
}

func scenarioVariants() []records.Record {
	return []records.Record{
		{Kind: records.KindContact, Name: "Anna Meyer", Emails: []string{"anna@spiegel.de"}, CompanyID: "co-1", Phones: []string{"+49 40 3007 0"}},
		{Kind: records.KindContact, Name: "A. Meyer", Emails: []string{"a.meyer@spiegel.de"}, CompanyID: "co-1", Phones: []string{"+49 40 3007 0"}, Website: "spiegel.de"},
		{Kind: records.KindContact, Name: "Meyer", Emails: []string{"meyer@spiegel.de"}},
	}
}

func TestNewOptionErrors(t *testing.T) {
	_, err := recordlink.New(nil)
	assert.Error(t, err)

	for name, opt := range map[string]recordlink.Option{
		"zero workers":    recordlink.WithWorkers(0),
		"too many":        recordlink.WithWorkers(1000),
		"negative rate":   recordlink.WithRateLimit(-1, 1),
		"nil clock":       recordlink.WithClock(nil),
		"invalid pattern": recordlink.WithIgnoredDomains("re:("),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := recordlink.New(memory.New(), opt)
			assert.Error(t, err)
		})
	}
}

func TestAnalyzeScenarioB(t *testing.T) {
	ctx := context.Background()
	l := newLinker(t)
	save(t, l, editor, records.Record{ID: "c1", Kind: records.KindContact, Name: "Anna Meyer",
		Emails: []string{"anna@spiegel.de"}, CompanyID: "co-1"}, promotion.Options{})
	save(t, l, editor, records.Record{ID: "c2", Kind: records.KindContact, Name: "Ben Otto",
		Emails: []string{"ben@spiegel.de"}}, promotion.Options{})

	var enriched atomic.Int32
	l.OnRecordEnriched(func(rec records.Record, res enrich.Result) {
		enriched.Add(1)
		assert.Equal(t, "c1", rec.ID)
	})

	analysis, err := l.Analyze(ctx, editor, scenarioVariants(), nil)
	require.NoError(t, err)
	require.NotNil(t, analysis.Best)
	assert.Equal(t, "c1", analysis.Best.RecordID)
	assert.InDelta(t, 7.0, analysis.Best.WeightedScore, 1e-9)
	assert.InDelta(t, 0.7, analysis.Confidence, 1e-9)
	assert.Len(t, analysis.Candidates, 2)

	require.NotNil(t, analysis.Enrichment)
	assert.True(t, analysis.Enrichment.Enriched)
	assert.Equal(t, []string{"phone"}, analysis.Enrichment.FieldsAdded)
	assert.Equal(t, int32(1), enriched.Load())

	rec, err := l.Record(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"+49 40 3007 0"}, rec.Phones)
	assert.Empty(t, rec.Website)

	history, err := l.EnrichmentHistory(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestAnalyzeScenarioA(t *testing.T) {
	l := newLinker(t)
	save(t, l, editor, records.Record{ID: "c1", Kind: records.KindContact, Emails: []string{"x@spiegel.de"}}, promotion.Options{})

	variants := scenarioVariants()
	for i := range variants {
		variants[i].CompanyID = ""
	}
	analysis, err := l.Analyze(context.Background(), editor, variants, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, analysis.Confidence, 1e-9)
	assert.False(t, analysis.Enrichment.Enriched)
	require.NotNil(t, analysis.Enrichment.Skipped)
	assert.Equal(t, enrich.LowConfidenceSkip, *analysis.Enrichment.Skipped)
}

func TestAnalyzeNoCandidates(t *testing.T) {
	l := newLinker(t)
	analysis, err := l.Analyze(context.Background(), editor, scenarioVariants(), nil)
	require.NoError(t, err)
	assert.Nil(t, analysis.Best)
	assert.Nil(t, analysis.Enrichment)
	assert.Len(t, analysis.Signals, 6)
}

func TestAnalyzeIgnoredDomains(t *testing.T) {
	l := newLinker(t, recordlink.WithIgnoredDomains("gmail.com", "*.mail.example"))
	save(t, l, editor, records.Record{ID: "c1", Kind: records.KindContact, Emails: []string{"a@gmail.com"}}, promotion.Options{})
	analysis, err := l.Analyze(context.Background(), editor, []records.Record{{Emails: []string{"b@gmail.com", "c@eu.mail.example"}}}, nil)
	require.NoError(t, err)
	assert.Empty(t, analysis.Signals)
	assert.Nil(t, analysis.Best)
}

func TestAnalyzeRequiresTenant(t *testing.T) {
	_, err := newLinker(t).Analyze(context.Background(), records.ActorContext{ActorID: "u1"}, nil, nil)
	assert.True(t, errors.IsValidationError(err))
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	l := newLinker(t, recordlink.WithMetrics(m))

	var saved []string
	l.OnRecordSaved(func(rec records.Record) { saved = append(saved, rec.ID) })

	private := save(t, l, editor, records.Record{Kind: records.KindCompany, Name: "Zeit"}, promotion.Options{})
	assert.NotEmpty(t, private.ID)
	assert.Equal(t, "t1", private.TenantID)
	assert.Equal(t, "u1", private.CreatedBy)
	assert.True(t, private.CreatedAt.Equal(now))
	assert.False(t, private.IsGlobal)

	global := save(t, l, admin, records.Record{Kind: records.KindCompany, Name: "Spiegel", Website: "spiegel.de"},
		promotion.Options{LiveMode: true})
	assert.True(t, global.IsGlobal)
	require.NotNil(t, global.GlobalMetadata)
	assert.True(t, global.GlobalMetadata.AutoPromoted)
	assert.False(t, global.GlobalMetadata.IsDraft)
	assert.Equal(t, 30, global.GlobalMetadata.QualityScore)

	stored, err := l.Record(ctx, global.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsGlobal)
	assert.Equal(t, 1, stored.Version())

	trail, err := l.AuditTrail(ctx, audit.Filter{Action: records.ActionPromote})
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, global.ID, trail[0].EntityID)

	assert.Equal(t, []string{private.ID, global.ID}, saved)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Promotions.WithLabelValues("live")))

	_, err = l.Save(ctx, editor, records.Record{Name: "no kind"}, promotion.Options{})
	assert.True(t, errors.IsValidationError(err))
	_, err = l.Save(ctx, editor, records.Record{ID: private.ID, Kind: records.KindCompany}, promotion.Options{})
	assert.True(t, errors.IsAlreadyExists(err))
}

func TestSaveBatch(t *testing.T) {
	ctx := context.Background()
	l := newLinker(t)
	out, batchID, err := l.SaveBatch(ctx, editor, []records.Record{
		{Kind: records.KindPublication, Name: "Spiegel"},
		{Kind: records.KindPublication, Name: "Zeit"},
	}, promotion.Options{ForceGlobal: true})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.NotEmpty(t, batchID)
	for _, rec := range out {
		stored, err := l.Record(ctx, rec.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.GlobalMetadata)
		assert.Equal(t, batchID, stored.GlobalMetadata.BatchID)
		assert.Equal(t, promotion.ContextForceGlobal, stored.GlobalMetadata.Context)
	}

	_, _, err = l.SaveBatch(ctx, editor, []records.Record{{Kind: records.KindContact}, {}}, promotion.Options{})
	assert.True(t, errors.IsValidationError(err))
}

func TestSaveRejectsForeignTenant(t *testing.T) {
	ctx := context.Background()
	l := newLinker(t)

	_, err := l.Save(ctx, editor, records.Record{TenantID: "t2", Kind: records.KindContact, Name: "Intruder"}, promotion.Options{})
	assert.True(t, errors.IsValidationError(err), "t1 must not write into t2")

	_, _, err = l.SaveBatch(ctx, editor, []records.Record{
		{Kind: records.KindContact, Name: "Own"},
		{TenantID: "t2", Kind: records.KindContact, Name: "Intruder"},
	}, promotion.Options{})
	assert.True(t, errors.IsValidationError(err))

	_, err = l.Save(ctx, records.ActorContext{ActorID: "u1"}, records.Record{Kind: records.KindContact}, promotion.Options{})
	assert.True(t, errors.IsValidationError(err))

	for _, tenant := range []string{"t1", "t2"} {
		visible, err := l.Visible(ctx, tenant)
		require.NoError(t, err)
		assert.Empty(t, visible, tenant)
	}

	own := save(t, l, editor, records.Record{TenantID: "t1", Kind: records.KindContact, Name: "Own"}, promotion.Options{})
	assert.Equal(t, "t1", own.TenantID)
}

func TestFailedPromotedSaveRecordsNothing(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	l := newLinker(t, recordlink.WithMetrics(m))
	save(t, l, editor, records.Record{ID: "dup", Kind: records.KindCompany, Name: "Zeit"}, promotion.Options{})

	_, err := l.Save(ctx, admin, records.Record{ID: "dup", Kind: records.KindCompany, Name: "Zeit"}, promotion.Options{})
	require.True(t, errors.IsAlreadyExists(err))

	trail, err := l.AuditTrail(ctx, audit.Filter{Action: records.ActionPromote})
	require.NoError(t, err)
	assert.Empty(t, trail)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Promotions.WithLabelValues("draft")))

	stored, err := l.Record(ctx, "dup")
	require.NoError(t, err)
	assert.False(t, stored.IsGlobal)
}

func TestSaveBatchRecordsOnlyStoredPromotions(t *testing.T) {
	ctx := context.Background()
	l := newLinker(t)
	save(t, l, admin, records.Record{ID: "dup", Kind: records.KindPublication, Name: "Zeit"}, promotion.Options{})

	out, batchID, err := l.SaveBatch(ctx, admin, []records.Record{
		{ID: "first", Kind: records.KindPublication, Name: "Spiegel"},
		{ID: "dup", Kind: records.KindPublication, Name: "Zeit"},
		{ID: "never", Kind: records.KindPublication, Name: "Stern"},
	}, promotion.Options{})
	require.Error(t, err)
	assert.True(t, errors.IsAlreadyExists(err))
	require.Len(t, out, 1)
	assert.NotEmpty(t, batchID)

	trail, err := l.AuditTrail(ctx, audit.Filter{Action: records.ActionPromote})
	require.NoError(t, err)
	var ids []string
	for _, e := range trail {
		ids = append(ids, e.EntityID)
	}
	assert.ElementsMatch(t, []string{"dup", "first"}, ids)

	_, err = l.Record(ctx, "never")
	assert.True(t, errors.IsNotFound(err))
}

func TestSubscribeAndVisible(t *testing.T) {
	ctx := context.Background()
	l := newLinker(t)
	global := save(t, l, admin, records.Record{Kind: records.KindPublication, Name: "Der Spiegel"}, promotion.Options{LiveMode: true})
	save(t, l, editor, records.Record{ID: "mine", Kind: records.KindContact, Name: "Anna"}, promotion.Options{})

	ref, err := l.Subscribe(ctx, editor, global.ID, "")
	require.NoError(t, err)

	visible, err := l.Visible(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, "mine", visible[0].Record.ID)
	assert.Equal(t, global.ID, visible[1].Record.ID)

	refs, err := l.References(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, refs, 1)

	require.NoError(t, l.Unsubscribe(ctx, editor, ref.ID))
	visible, err = l.Visible(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	_, err = l.Subscribe(ctx, editor, "mine", "")
	assert.True(t, errors.IsNotGlobal(err))
}

func TestSuggest(t *testing.T) {
	l := newLinker(t)
	save(t, l, editor, records.Record{ID: "a", Kind: records.KindCompany, Name: "Süddeutsche Zeitung"}, promotion.Options{})
	save(t, l, editor, records.Record{ID: "b", Kind: records.KindCompany, Name: "Other", OfficialName: "SUDDEUTSCHE  zeitung"}, promotion.Options{})
	save(t, l, records.ActorContext{ActorID: "u2", TenantID: "t2"},
		records.Record{ID: "c", Kind: records.KindCompany, Name: "Süddeutsche Zeitung"}, promotion.Options{})

	got, err := l.Suggest(context.Background(), "t1", "suddeutsche-zeitung")
	require.NoError(t, err)
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)

	got, err = l.Suggest(context.Background(), "t1", "  ")
	require.NoError(t, err)
	assert.Empty(t, got)
}
