package tenants

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stokaro/tenantprov/cmd/internal/settings"
	"github.com/stokaro/tenantprov/provision"
	"github.com/stokaro/tenantprov/redact"
	"github.com/stokaro/tenantprov/repository"
)

const (
	searchFlag      = "search"
	searchFieldFlag = "search-field"
	sortFlag        = "sort"
	tenantFlag      = "tenant"
)

func NewTenantsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "Inspect tenant records",
	}
	cmd.AddCommand(newListCommand())
	return cmd
}

func newListCommand() *cobra.Command {
	flags := settings.Flags()
	flags[searchFlag] = &cobraflags.StringFlag{
		Name:  searchFlag,
		Value: "",
		Usage: "Only list tenants whose search field contains this text",
	}
	flags[searchFieldFlag] = &cobraflags.StringFlag{
		Name:  searchFieldFlag,
		Value: "Name",
		Usage: "Text column to search",
	}
	flags[sortFlag] = &cobraflags.StringFlag{
		Name:  sortFlag,
		Value: "",
		Usage: `Sort column, optionally suffixed with "Desc" (default: newest first)`,
	}
	flags[tenantFlag] = &cobraflags.StringFlag{
		Name:  tenantFlag,
		Value: "",
		Usage: "Read the Tenants table of this database instead of the master",
	}

	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tenants one page at a time",
		Long: `List rows of the Tenants table. Connection strings are shown redacted.

Examples:
  tenantprov tenants list
  tenantprov tenants list --search contoso --sort NameDesc
  tenantprov tenants list --page 2 --page-size 50`,
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

			repo := repository.NewSQL(settings.Opener(cfg), cfg.MasterConnection, cfg.Schema).WithLogger(logger)
			set, err := repo.GetArticles(cmd.Context(), page-1, pageSize,
				flags[searchFieldFlag].GetString(), flags[searchFlag].GetString(), flags[sortFlag].GetString(),
				repository.WithConnectionString(flags[tenantFlag].GetString()))
			if err != nil {
				return err
			}

			printTenants(cmd.OutOrStdout(), set, page)
			return nil
		},
	}

	settings.Register(cmd, flags)
	cmd.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&pageSize, "page-size", repository.DefaultPageSize, "Rows per page")
	return cmd
}

func printTenants(w io.Writer, set *repository.ArticleSet, page int) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPORTAL\tACCOUNT\tDATABASE")
	for _, t := range set.Items {
		db := ""
		if t.ConnectionString != "" {
			db = redact.Redact(t.ConnectionString)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.PortalName, t.AccountID, db)
	}
	tw.Flush()

	fmt.Fprintf(w, "\npage %d, %d of %d tenant(s)\n", max(page, 1), len(set.Items), set.TotalCount)
}
