package reconcile

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stokaro/tenantprov/cmd/internal/settings"
	"github.com/stokaro/tenantprov/provision"
)

const seedFlag = "seed"

func NewReconcileCommand() *cobra.Command {
	flags := settings.Flags()
	flags[seedFlag] = &cobraflags.StringFlag{
		Name:  seedFlag,
		Value: "",
		Usage: "Seed scope after reconciliation (none, master, tenants, all). Overrides seed.scope",
	}

	var dryRun, strict bool

	cmd := &cobra.Command{
		Use:   "reconcile [master|tenants|all]",
		Short: "Create or upgrade the Tenants table in the master and tenant databases",
		Long: `Ensure the Tenants table exists with every canonical column.

Missing tables are created and missing columns are added; nothing is ever
dropped or retyped. Tenant databases are discovered from the ConnectionString
column of the master Tenants table. A failing tenant is logged and skipped.

Examples:
  tenantprov reconcile                      # master, then every tenant
  tenantprov reconcile master --seed master # master only, then seed the default tenant
  tenantprov reconcile tenants --dry-run    # print the statements without running them`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(provision.ModeMaster), string(provision.ModeTenants), string(provision.ModeAll)},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := provision.ModeAll
			if len(args) == 1 {
				m, err := provision.ParseMode(args[0])
				if err != nil {
					return err
				}
				mode = m
			}

			cfg, err := settings.Load(flags)
			if err != nil {
				return err
			}
			if scope := flags[seedFlag].GetString(); scope != "" {
				cfg.SeedScope = strings.ToLower(strings.TrimSpace(scope))
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logger, err := settings.NewLogger(cmd.ErrOrStderr(), flags)
			if err != nil {
				return err
			}

			report, err := provision.Run(cmd.Context(), cfg, mode, provision.RunOptions{
				Logger: logger,
				DryRun: dryRun,
				Opener: settings.Opener(cfg),
			})
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return err
			}
			if strict {
				return report.Err()
			}
			return nil
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the statements that would run without executing them")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when any target fails")
	return cmd
}

func printReport(w io.Writer, report *provision.Report) {
	for _, res := range report.Results {
		status := "ok"
		switch {
		case res.Failed():
			status = "FAILED"
		case res.DryRun && len(res.Statements) > 0:
			status = "pending"
		case res.Created:
			status = "created"
		case len(res.AddedColumns) > 0:
			status = "upgraded"
		}
		fmt.Fprintf(w, "%-9s %s\n", status, res.Target)
		if res.DryRun {
			for _, stmt := range res.Statements {
				fmt.Fprintf(w, "          %s\n", stmt)
			}
		}
	}
	fmt.Fprintf(w, "\n%d succeeded, %d failed\n", report.Succeeded(), report.Failed())
}
