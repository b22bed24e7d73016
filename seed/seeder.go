// Package seed inserts baseline rows into a freshly reconciled Tenants table.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stokaro/tenantprov/core/renderer"
	"github.com/stokaro/tenantprov/core/tenantschema"
	"github.com/stokaro/tenantprov/dbschema"
	"github.com/stokaro/tenantprov/redact"
	"github.com/stokaro/tenantprov/tenant"
)

const (
	// DefaultAccountID is the account of the baseline tenant.
	DefaultAccountID = "7777777"
	// DefaultConnectionString is the connection string stored in the baseline row.
	DefaultConnectionString = `Server=(localdb)\mssqllocaldb;Database=Azunt;Trusted_Connection=True;`
)

// DefaultTenant returns the baseline row for brand. Its Name is the brand and
// serves as the sentinel the seeder checks before inserting.
func DefaultTenant(brand string) tenant.Tenant {
	t := tenant.New(brand)
	t.Name = t.PortalName
	t.ConnectionString = DefaultConnectionString
	t.AccountID = DefaultAccountID
	return t
}

// Seeder inserts baseline rows that are absent by Name. It assumes the
// Tenants table and its columns already exist.
type Seeder struct {
	open     dbschema.Opener
	opts     tenantschema.Options
	tokens   TokenGenerator
	baseline []tenant.Tenant
	logger   *slog.Logger
}

// New creates a Seeder seeding DefaultTenant(opts.Brand).
func New(open dbschema.Opener, opts tenantschema.Options) *Seeder {
	return &Seeder{
		open:     open,
		opts:     opts,
		tokens:   UUIDTokens{},
		baseline: []tenant.Tenant{DefaultTenant(opts.Brand)},
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger for the seeder
func (s *Seeder) WithLogger(l *slog.Logger) *Seeder {
	tmp := *s
	tmp.logger = l
	return &tmp
}

// WithTokenGenerator replaces the AuthenticationHeader generator
func (s *Seeder) WithTokenGenerator(g TokenGenerator) *Seeder {
	tmp := *s
	tmp.tokens = g
	return &tmp
}

// WithBaseline replaces the rows to seed. Rows are matched by Name.
func (s *Seeder) WithBaseline(rows ...tenant.Tenant) *Seeder {
	tmp := *s
	tmp.baseline = rows
	return &tmp
}

// SeedDefault opens the target and seeds every baseline row that is not
// present yet. It returns the number of inserted rows.
func (s *Seeder) SeedDefault(ctx context.Context, connString string) (int, error) {
	conn, err := s.open(ctx, connString)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Debug("Failed to close connection", "target", redact.Redact(connString), "error", err)
		}
	}()

	return s.SeedConn(ctx, conn)
}

// SeedConn seeds through an already open connection. The caller owns conn.
func (s *Seeder) SeedConn(ctx context.Context, conn *dbschema.DatabaseConnection) (int, error) {
	d := conn.Dialect()
	target := conn.Info().Target
	countSQL := renderer.CountWhere(d, s.opts.Schema, tenantschema.ColName)
	columns := tenantschema.ColumnNames(s.opts)
	insertSQL := renderer.Insert(d, s.opts.Schema, columns)

	inserted := 0
	for _, row := range s.baseline {
		var count int
		if err := conn.QueryRowContext(ctx, countSQL, row.Name).Scan(&count); err != nil {
			return inserted, fmt.Errorf("failed to look up tenant %q on %s: %w", row.Name, target, err)
		}
		if count > 0 {
			s.logger.Info("Default tenant already exists", "target", target, "name", row.Name)
			continue
		}

		if row.AuthenticationHeader == "" {
			token, err := s.tokens.NewToken()
			if err != nil {
				return inserted, fmt.Errorf("failed to generate authentication header: %w", err)
			}
			row.AuthenticationHeader = token
		}

		res, err := conn.ExecContext(ctx, insertSQL, row.Values(columns)...)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert tenant %q on %s: %w", row.Name, target, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			affected = 1
		}
		inserted += int(affected)
		s.logger.Info("Default tenant inserted", "target", target, "name", row.Name, "rows", affected)
	}

	return inserted, nil
}
