package seed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stokaro/tenantprov/cmd/internal/settings"
	"github.com/stokaro/tenantprov/provision"
	seeder "github.com/stokaro/tenantprov/seed"
)

func NewSeedCommand() *cobra.Command {
	flags := settings.Flags()

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the default tenant into the master database",
		Long: `Insert the default tenant row into the master Tenants table unless a
row with the same Name already exists. Run "tenantprov reconcile master"
first; seeding does not create the table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := settings.Load(flags)
			if err != nil {
				return err
			}
			logger, err := settings.NewLogger(cmd.ErrOrStderr(), flags)
			if err != nil {
				return err
			}
			if cfg.MasterConnection == "" {
				return provision.ErrMasterConnectionMissing
			}

			n, err := seeder.New(settings.Opener(cfg), cfg.Schema).
				WithLogger(logger).
				SeedDefault(cmd.Context(), cfg.MasterConnection)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) inserted\n", n)
			return nil
		},
	}

	return settings.Register(cmd, flags)
}
