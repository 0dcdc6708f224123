package recordlink_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/recordlink"
	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/promotion"
	"github.com/agentstation/recordlink/pkg/records"
)

func TestAnalyzeBatch(t *testing.T) {
	l := newLinker(t, recordlink.WithWorkers(3), recordlink.WithRateLimit(1000, 5))
	save(t, l, editor, records.Record{ID: "c1", Kind: records.KindContact, Emails: []string{"a@spiegel.de"}, CompanyID: "co-1"}, promotion.Options{})
	save(t, l, editor, records.Record{ID: "c2", Kind: records.KindContact, Emails: []string{"b@zeit.de"}}, promotion.Options{})

	rows := []recordlink.Row{
		{Variants: scenarioVariants()},
		{Variants: []records.Record{{Emails: []string{"x@zeit.de"}}}},
		{Variants: []records.Record{{Emails: []string{"nobody@faz.net"}}}},
		{Variants: scenarioVariants(), OwnRecordIDs: []string{"c2"}},
	}
	results, err := l.AnalyzeBatch(context.Background(), editor, rows)
	require.NoError(t, err)
	require.Len(t, results, len(rows))

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		require.NoError(t, r.Err)
		require.NotNil(t, r.Analysis)
	}
	assert.Equal(t, "c1", results[0].Analysis.Best.RecordID)
	assert.Equal(t, "c2", results[1].Analysis.Best.RecordID)
	assert.Nil(t, results[2].Analysis.Best)
	assert.Nil(t, results[3].Analysis.Best)
}

func TestAnalyzeBatchCapturesRowErrors(t *testing.T) {
	l := newLinker(t)
	save(t, l, editor, records.Record{ID: "c1", Kind: records.KindContact, Emails: []string{"a@spiegel.de"}}, promotion.Options{})

	rows := []recordlink.Row{
		{Variants: []records.Record{{Emails: []string{"x@spiegel.de"}}}},
		{Variants: []records.Record{{Emails: []string{"y@spiegel.de"}}}},
	}
	bad := records.ActorContext{ActorID: "u1"}
	results, err := l.AnalyzeBatch(context.Background(), bad, rows)
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, errors.IsValidationError(r.Err))
	}

	results, err = l.AnalyzeBatch(context.Background(), editor, rows)
	require.NoError(t, err)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
}

func TestAnalyzeBatchCancelled(t *testing.T) {
	l := newLinker(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.AnalyzeBatch(ctx, editor, []recordlink.Row{{Variants: []records.Record{{Emails: []string{"a@b.de"}}}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeBatchEmpty(t *testing.T) {
	results, err := newLinker(t).AnalyzeBatch(context.Background(), editor, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
