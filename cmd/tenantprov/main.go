package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stokaro/tenantprov/cmd/reconcile"
	"github.com/stokaro/tenantprov/cmd/seed"
	"github.com/stokaro/tenantprov/cmd/tenants"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tenantprov",
		Short: "Provision the Tenants table across the master and tenant databases",
		Long: `tenantprov keeps the Tenants table of a multi-tenant application in shape.

The master connection string is read from ConnectionStrings.DefaultConnection
in appsettings.json (or yaml/toml), or from the
TENANTPROV_CONNECTIONSTRINGS_DEFAULTCONNECTION environment variable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(reconcile.NewReconcileCommand())
	root.AddCommand(seed.NewSeedCommand())
	root.AddCommand(tenants.NewTenantsCommand())
	return root
}
