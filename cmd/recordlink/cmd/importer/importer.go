// Package importer implements the import command, which stores records
// from a YAML file and promotes them to the global catalog when asked.
package importer

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/recordlink/internal/appcontext"
	"github.com/agentstation/recordlink/internal/cmd/input"
	"github.com/agentstation/recordlink/internal/cmd/output"
	"github.com/agentstation/recordlink/internal/cmd/table"
	"github.com/agentstation/recordlink/pkg/promotion"
	"github.com/agentstation/recordlink/pkg/records"
)

// File is the import document.
type File struct {
	Records []records.Record `yaml:"records"`
}

// Result is what import prints.
type Result struct {
	BatchID string           `json:"batchId,omitempty" yaml:"batchId,omitempty"`
	Records []records.Record `json:"records" yaml:"records"`
}

// NewCommand creates the import command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var (
		opts       promotion.Options
		autoGlobal bool
	)
	cmd := &cobra.Command{
		Use:     "import <file>",
		GroupID: "core",
		Short:   "Store records from a YAML file",
		Long: `Import stores every record in the file for the acting tenant.

Records are promoted to the global catalog when --force-global is set or
the actor is auto-global eligible. All records promoted by one import
share a batch id.`,
		Example: `  recordlink import contacts.yaml --tenant acme --actor alice
  recordlink import - --force-global --live < publications.yaml`,
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

			actor := app.Actor()
			actor.AutoGlobalEligible = autoGlobal
			saved, batchID, err := linker.SaveBatch(cmd.Context(), actor, file.Records, opts)
			if err != nil {
				app.Logger().Error().Err(err).Int("saved", len(saved)).Msg("Import stopped early")
				return err
			}

			app.Logger().Info().
				Int("records", len(saved)).
				Str("batch_id", batchID).
				Msg("Imported records")

			format := output.DetectFormat(app.OutputFormat())
			td := table.RecordsToTableData(saved, format == output.FormatWide)
			return output.Write(cmd.OutOrStdout(), format, Result{BatchID: batchID, Records: saved}, &td)
		},
	}

	cmd.Flags().BoolVar(&opts.ForceGlobal, "force-global", false, "promote every record to the global catalog")
	cmd.Flags().BoolVar(&opts.LiveMode, "live", false, "publish promoted records immediately instead of as drafts")
	cmd.Flags().StringVar(&opts.SourceType, "source-type", "", "source type stamped on promoted records")
	cmd.Flags().BoolVar(&autoGlobal, "auto-global", false, "treat the actor as auto-global eligible")
	return cmd
}
