package recordlink

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/records"
)

// Row is one independent unit of a batch analysis.
type Row struct {
	Variants     []records.Record `json:"variants" yaml:"variants"`
	OwnRecordIDs []string         `json:"ownRecordIds,omitempty" yaml:"ownRecordIds,omitempty"`
}

// RowResult is the outcome of one row. Err is set when that row failed;
// other rows are unaffected.
type RowResult struct {
	Index    int       `json:"index" yaml:"index"`
	Analysis *Analysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Err      error     `json:"-" yaml:"-"`
}

// AnalyzeBatch analyzes rows concurrently with at most the configured
// number of workers, optionally rate limited. Results are returned in row
// order. Only context cancellation aborts the batch.
func (l *linker) AnalyzeBatch(ctx context.Context, actor records.ActorContext, rows []Row) ([]RowResult, error) {
	ctx = l.withLogger(ctx)
	start := time.Now()
	results := make([]RowResult, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.config.workers)

	for i, row := range rows {
		if l.config.limiter != nil {
			if err := l.config.limiter.Wait(gctx); err != nil {
				break
			}
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			analysis, err := l.Analyze(gctx, actor, row.Variants, row.OwnRecordIDs)
			results[i] = RowResult{Index: i, Analysis: analysis, Err: err}
			if err != nil {
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				logging.Ctx(gctx).Warn().Err(err).Int("row", i).Msg("Batch row failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	l.config.metrics.ObserveDuration("analyze_batch", start)
	logging.Ctx(ctx).Info().
		Int("rows", len(rows)).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("Analyzed batch")
	return results, nil
}
