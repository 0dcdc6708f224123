// Package audit implements the audit command, which prints the promotion
// and reference audit trail.
package audit

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/recordlink/internal/appcontext"
	"github.com/agentstation/recordlink/internal/cmd/output"
	"github.com/agentstation/recordlink/internal/cmd/table"
	pkgaudit "github.com/agentstation/recordlink/pkg/audit"
)

// NewCommand creates the audit command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var (
		filter     pkgaudit.Filter
		allTenants bool
	)
	cmd := &cobra.Command{
		Use:     "audit",
		GroupID: "management",
		Short:   "Show the audit trail",
		Long: `Audit lists promotion and reference audit entries, oldest first.
Entries are limited to the acting tenant unless --all-tenants is set.`,
		Example: `  recordlink audit --action promote
  recordlink audit --entity 7b1c... --all-tenants -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !allTenants {
				filter.TenantID = app.Actor().TenantID
			}
			linker, err := app.Linker(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := linker.AuditTrail(cmd.Context(), filter)
			if err != nil {
				return err
			}
			td := table.AuditToTableData(entries)
			return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), entries, &td)
		},
	}
	cmd.Flags().StringVar(&filter.EntityID, "entity", "", "only entries for this entity id")
	cmd.Flags().StringVar(&filter.Action, "action", "", "only entries with this action (promote, reference.create, reference.delete)")
	cmd.Flags().StringVar(&filter.PerformedBy, "by", "", "only entries performed by this actor")
	cmd.Flags().BoolVar(&allTenants, "all-tenants", false, "do not restrict entries to the acting tenant")
	return cmd
}
