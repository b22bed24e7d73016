// Package registry reads the list of tenant databases from the master
// database's Tenants table.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/stokaro/tenantprov/core/renderer"
	"github.com/stokaro/tenantprov/core/tenantschema"
	"github.com/stokaro/tenantprov/dbschema"
)

// Reader lists tenant connection strings.
type Reader struct {
	open   dbschema.Opener
	schema string
}

// NewReader creates a registry reader. schema selects the namespace of the
// Tenants table; empty means the dialect default.
func NewReader(open dbschema.Opener, schema string) *Reader {
	return &Reader{open: open, schema: schema}
}

// ListTenantConnectionStrings returns every non-blank ConnectionString in the
// master Tenants table, in the order the database returns them. Blank and
// NULL values belong to tenants that are not configured yet and are skipped.
func (r *Reader) ListTenantConnectionStrings(ctx context.Context, masterConnection string) ([]string, error) {
	conn, err := r.open(ctx, masterConnection)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return r.List(ctx, conn)
}

// List reads from an already open master connection. The caller owns conn.
func (r *Reader) List(ctx context.Context, conn *dbschema.DatabaseConnection) ([]string, error) {
	query := renderer.Select(conn.Dialect(), r.schema, []string{tenantschema.ColConnectionString})

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenant registry on %s: %w", conn.Info().Target, err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var cs sql.NullString
		if err := rows.Scan(&cs); err != nil {
			return nil, fmt.Errorf("failed to scan tenant connection string: %w", err)
		}
		if !cs.Valid || strings.TrimSpace(cs.String) == "" {
			continue
		}
		result = append(result, cs.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tenant registry rows: %w", err)
	}

	return result, nil
}
