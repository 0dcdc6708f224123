package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/agentstation/recordlink/pkg/audit"
	pkgerrors "github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/metrics"
	"github.com/agentstation/recordlink/pkg/records"
	"github.com/agentstation/recordlink/pkg/store/memory"
	"github.com/agentstation/recordlink/pkg/store/mock"
)

func TestAppendAndList(t *testing.T) {
	ctx := context.Background()
	tick := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	log := audit.New(memory.New(), audit.WithClock(func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}))

	for _, e := range []records.AuditEntry{
		{Action: records.ActionPromote, EntityID: "c1", TenantID: "t1", PerformedBy: "u1"},
		{Action: records.ActionReferenceCreate, EntityID: "c1", TenantID: "t2", PerformedBy: "u2"},
		{Action: records.ActionReferenceDelete, EntityID: "c1", TenantID: "t2", PerformedBy: "u2"},
	} {
		got, err := log.Append(ctx, e)
		require.NoError(t, err)
		assert.NotEmpty(t, got.ID)
		assert.False(t, got.Timestamp.IsZero())
	}

	all, err := log.List(ctx, audit.Filter{EntityID: "c1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, records.ActionPromote, all[0].Action)
	assert.Equal(t, records.ActionReferenceDelete, all[2].Action)

	t2, err := log.List(ctx, audit.Filter{TenantID: "t2", Action: records.ActionReferenceCreate})
	require.NoError(t, err)
	require.Len(t, t2, 1)
	assert.Equal(t, "u2", t2[0].PerformedBy)
}

func TestRecordSwallowsFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mock.NewMockStore(ctrl)
	s.EXPECT().Add(gomock.Any(), "audit_log", gomock.Any()).Return("", errors.New("disk full"))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	log := audit.New(s, audit.WithMetrics(m))

	assert.NotPanics(t, func() {
		log.Record(ctx, records.AuditEntry{Action: records.ActionPromote, EntityID: "c1"})
	})
	tl.AssertContains(t, "Audit entry lost")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditFailures.WithLabelValues("audit_log")))
}

func TestAppendReturnsAuditWriteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mock.NewMockStore(ctrl)
	s.EXPECT().Add(gomock.Any(), "audit_log", gomock.Any()).Return("", errors.New("disk full"))

	_, err := audit.New(s).Append(context.Background(), records.AuditEntry{Action: "promote", EntityID: "c1"})
	assert.True(t, pkgerrors.IsAuditWrite(err))
	assert.True(t, pkgerrors.IsStoreIO(err))
}
