// Package reference implements the reference command group, which
// subscribes the acting tenant to global records.
package reference

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/recordlink/internal/appcontext"
	"github.com/agentstation/recordlink/internal/cmd/output"
	"github.com/agentstation/recordlink/internal/cmd/table"
	"github.com/agentstation/recordlink/pkg/records"
)

// NewCommand creates the reference command with its subcommands.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reference",
		Aliases: []string{"ref"},
		GroupID: "management",
		Short:   "Manage references to global records",
		Long: `A reference links the acting tenant to a record in the global catalog.
The record is resolved on every read, so the tenant always sees the
current global version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newAddCommand(app))
	cmd.AddCommand(newRemoveCommand(app))
	cmd.AddCommand(newListCommand(app))
	return cmd
}

func newAddCommand(app appcontext.Interface) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:     "add <global-record-id>",
		Short:   "Subscribe to a global record",
		Example: `  recordlink reference add 7b1c... --notes "press contact for Q3"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			linker, err := app.Linker(cmd.Context())
			if err != nil {
				return err
			}
			ref, err := linker.Subscribe(cmd.Context(), app.Actor(), args[0], notes)
			if err != nil {
				return err
			}
			td := table.ReferencesToTableData([]records.Reference{*ref})
			return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), ref, &td)
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "tenant-local notes stored on the reference")
	return cmd
}

func newRemoveCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <reference-id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove one of the tenant's references",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			linker, err := app.Linker(cmd.Context())
			if err != nil {
				return err
			}
			if err := linker.Unsubscribe(cmd.Context(), app.Actor(), args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed reference %s\n", args[0])
			return err
		},
	}
}

func newListCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the tenant's references",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			linker, err := app.Linker(cmd.Context())
			if err != nil {
				return err
			}
			refs, err := linker.References(cmd.Context(), app.Actor().TenantID)
			if err != nil {
				return err
			}
			td := table.ReferencesToTableData(refs)
			return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), refs, &td)
		},
	}
}
