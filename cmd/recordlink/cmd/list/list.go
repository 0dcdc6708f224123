// Package list implements the list command group for reading records,
// suggestions and enrichment history.
package list

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/recordlink/internal/appcontext"
	"github.com/agentstation/recordlink/internal/cmd/output"
	"github.com/agentstation/recordlink/internal/cmd/table"
	"github.com/agentstation/recordlink/pkg/records"
	"github.com/agentstation/recordlink/pkg/references"
)

// NewCommand creates the list command with app dependencies.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list [resource]",
		GroupID: "core",
		Short:   "List records visible to the tenant",
		Long: `List displays what the acting tenant can see.

Available subcommands:
  visible     - private records plus subscribed global records
  record      - one record in full
  suggest     - records whose name folds to the same key
  history     - enrichment log of a record`,
		Example: `  recordlink list visible --tenant acme
  recordlink list suggest "Müller GmbH"
  recordlink list history 7b1c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return fmt.Errorf("unknown resource: %s", args[0])
		},
	}
	cmd.AddCommand(newVisibleCommand(app))
	cmd.AddCommand(newRecordCommand(app))
	cmd.AddCommand(newSuggestCommand(app))
	cmd.AddCommand(newHistoryCommand(app))
	return cmd
}

func newVisibleCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "visible",
		Short: "List private and subscribed records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			linker, err := app.Linker(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := linker.Visible(cmd.Context(), app.Actor().TenantID)
			if err != nil {
				return err
			}
			td := EntriesToTableData(entries)
			return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), entries, &td)
		},
	}
}

func newRecordCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "record <record-id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			linker, err := app.Linker(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := linker.Record(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			td := RecordDetails(rec)
			return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), rec, &td)
		},
	}
}

func newSuggestCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <name>",
		Short: "Suggest records with a similar name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			linker, err := app.Linker(cmd.Context())
			if err != nil {
				return err
			}
			recs, err := linker.Suggest(cmd.Context(), app.Actor().TenantID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			format := output.DetectFormat(app.OutputFormat())
			td := table.RecordsToTableData(recs, format == output.FormatWide)
			return output.Write(cmd.OutOrStdout(), format, recs, &td)
		},
	}
}

func newHistoryCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "history <record-id>",
		Short: "Show the enrichment log of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			linker, err := app.Linker(cmd.Context())
			if err != nil {
				return err
			}
			logs, err := linker.EnrichmentHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			td := table.EnrichmentLogsToTableData(logs)
			return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), logs, &td)
		},
	}
}

// EntriesToTableData lists visible entries, marking subscribed ones with
// their local reference id.
func EntriesToTableData(entries []references.Entry) table.Data {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		name := e.Record.Name
		if name == "" {
			name = e.Record.OfficialName
		}
		via := "private"
		if e.Subscribed() {
			via = e.Reference.LocalID
		}
		rows = append(rows, []string{e.Record.ID, string(e.Record.Kind), name, via})
	}
	return table.Data{Headers: []string{"ID", "Kind", "Name", "Source"}, Rows: rows}
}

// RecordDetails renders one record as a property table.
func RecordDetails(rec *records.Record) table.Data {
	pairs := [][2]string{
		{output.Title("id"), rec.ID},
		{output.Title("tenantId"), rec.TenantID},
		{output.Title("kind"), string(rec.Kind)},
		{output.Title("name"), rec.Name},
		{output.Title("officialName"), rec.OfficialName},
		{output.Title("emails"), strings.Join(rec.Emails, ", ")},
		{output.Title("phones"), strings.Join(rec.Phones, ", ")},
		{output.Title("website"), rec.Website},
		{output.Title("address"), rec.Address},
		{output.Title("companyId"), rec.CompanyID},
		{output.Title("isGlobal"), strconv.FormatBool(rec.IsGlobal)},
	}
	if meta := rec.GlobalMetadata; meta != nil {
		pairs = append(pairs,
			[2]string{output.Title("version"), strconv.Itoa(meta.Version)},
			[2]string{output.Title("qualityScore"), strconv.Itoa(meta.QualityScore)},
			[2]string{output.Title("isDraft"), strconv.FormatBool(meta.IsDraft)},
			[2]string{output.Title("batchId"), meta.BatchID},
		)
	}
	if rec.EnrichedBy != "" {
		pairs = append(pairs, [2]string{output.Title("enrichedBy"), rec.EnrichedBy})
	}
	return table.KeyValue(pairs...)
}
