// Package analyze implements the analyze command, which matches variant
// rows against the tenant's records and enriches the best candidates.
package analyze

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/recordlink"
	"github.com/agentstation/recordlink/internal/appcontext"
	"github.com/agentstation/recordlink/internal/cmd/input"
	"github.com/agentstation/recordlink/internal/cmd/output"
	"github.com/agentstation/recordlink/internal/cmd/table"
	"github.com/agentstation/recordlink/pkg/enrich"
	"github.com/agentstation/recordlink/pkg/records"
)

// File is the analyze document. A file holds either a list of rows or a
// single row's variants at the top level.
type File struct {
	Rows         []recordlink.Row `yaml:"rows"`
	Variants     []records.Record `yaml:"variants"`
	OwnRecordIDs []string         `yaml:"ownRecordIds"`
}

// RowsToAnalyze flattens the file into rows.
func (f File) RowsToAnalyze() []recordlink.Row {
	rows := f.Rows
	if len(f.Variants) > 0 {
		rows = append(rows, recordlink.Row{Variants: f.Variants, OwnRecordIDs: f.OwnRecordIDs})
	}
	return rows
}

// Result is one printed row. Error carries a row failure so it survives
// JSON and YAML encoding.
type Result struct {
	Index    int                  `json:"index" yaml:"index"`
	Analysis *recordlink.Analysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Error    string               `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewCommand creates the analyze command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyze <file>",
		GroupID: "core",
		Short:   "Match variant rows and enrich the best candidates",
		Long: `Analyze extracts matching signals from each row's variants, ranks the
acting tenant's records against them, and merges corroborated values into
the best candidate when confidence reaches the enrichment threshold.

Rows are analyzed concurrently. A failing row is reported without
stopping the others.`,
		Example: `  recordlink analyze rows.yaml --tenant acme --actor alice
  recordlink analyze rows.yaml -o json | jq '.[].analysis.confidence'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file File
			if err := input.Load(args[0], cmd.InOrStdin(), &file); err != nil {
				return err
			}
			linker, err := app.Linker(cmd.Context())
			if err != nil {
				return err
			}

			rowResults, err := linker.AnalyzeBatch(cmd.Context(), app.Actor(), file.RowsToAnalyze())
			if err != nil {
				return err
			}

			results := make([]Result, len(rowResults))
			failed := 0
			for i, rr := range rowResults {
				results[i] = Result{Index: rr.Index, Analysis: rr.Analysis}
				if rr.Err != nil {
					results[i].Error = rr.Err.Error()
					failed++
				}
			}
			app.Logger().Info().Int("rows", len(results)).Int("failed", failed).Msg("Analyzed rows")

			td := ToTableData(results)
			return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), results, &td)
		},
	}
	return cmd
}

// ToTableData summarizes analysis results, one line per row.
func ToTableData(results []Result) table.Data {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		row := []string{strconv.Itoa(r.Index), "-", "-", "-", "-", "-", "-"}
		if a := r.Analysis; a != nil {
			row[1] = strconv.Itoa(len(a.Signals))
			if a.Best != nil {
				row[2] = a.Best.RecordID
				row[3] = strconv.FormatFloat(a.Best.WeightedScore, 'f', 1, 64)
			}
			row[4] = strconv.FormatFloat(a.Confidence, 'f', 2, 64)
			if e := a.Enrichment; e != nil {
				row[5] = enrichmentStatus(e.Enriched, e.Skipped)
				if len(e.FieldsAdded) > 0 {
					row[6] = strings.Join(e.FieldsAdded, ", ")
				}
			}
		}
		if r.Error != "" {
			row[5] = "error: " + r.Error
		}
		rows = append(rows, row)
	}
	return table.Data{
		Headers: []string{"Row", "Signals", "Best", "Score", "Confidence", "Enrichment", "Added"},
		Rows:    rows,
		ColumnAlignment: []table.Align{
			table.AlignRight, table.AlignRight, table.AlignDefault, table.AlignRight,
			table.AlignRight, table.AlignDefault, table.AlignDefault,
		},
	}
}

func enrichmentStatus(enriched bool, skipped *enrich.SkipReason) string {
	switch {
	case enriched:
		return "enriched"
	case skipped != nil:
		return "skipped (" + string(*skipped) + ")"
	}
	return "-"
}
