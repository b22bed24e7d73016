// Package renderer turns the canonical Tenants schema into SQL for a given
// database dialect.
package renderer

import (
	"fmt"
	"strings"

	"github.com/stokaro/tenantprov/core/platform"
	"github.com/stokaro/tenantprov/core/renderer/dialects/mariadb"
	"github.com/stokaro/tenantprov/core/renderer/dialects/mysql"
	"github.com/stokaro/tenantprov/core/renderer/dialects/postgres"
	"github.com/stokaro/tenantprov/core/renderer/dialects/sqlserver"
	"github.com/stokaro/tenantprov/core/renderer/types"
	"github.com/stokaro/tenantprov/core/tenantschema"
)

// ForDialect returns the Dialect for a platform name. Aliases accepted by
// platform.NormalizeDialect are allowed.
func ForDialect(dialect string) (types.Dialect, error) {
	switch platform.NormalizeDialect(dialect) {
	case platform.SQLServer:
		return sqlserver.New(), nil
	case platform.Postgres:
		return postgres.New(), nil
	case platform.MySQL:
		return mysql.New(), nil
	case platform.MariaDB:
		return mariadb.New(), nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %q", dialect)
	}
}

// CreateStatement renders CREATE TABLE for the canonical schema.
func CreateStatement(d types.Dialect, opts tenantschema.Options) string {
	return d.CreateTable(opts.Schema, tenantschema.TableName, tenantschema.Columns(opts))
}

// BackfillStatements renders one ADD COLUMN statement for every canonical
// column whose folded name is not in existing. The result follows the
// canonical column order.
func BackfillStatements(d types.Dialect, opts tenantschema.Options, existing []string) []Statement {
	have := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		have[d.FoldIdent(name)] = struct{}{}
	}

	var out []Statement
	for _, col := range tenantschema.Columns(opts) {
		if _, ok := have[d.FoldIdent(col.Name)]; ok {
			continue
		}
		out = append(out, Statement{
			Column: col,
			SQL:    d.AddColumn(opts.Schema, tenantschema.TableName, col),
		})
	}
	return out
}

// Statement is a rendered column addition.
type Statement struct {
	Column tenantschema.ColumnSpec
	SQL    string
}

// Select renders SELECT cols FROM table. Each column is quoted and aliased
// to its unquoted name so that scanners can rely on the canonical spelling.
func Select(d types.Dialect, schema string, cols []string) string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = d.QuoteIdent(col) + " AS " + d.QuoteIdent(col)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), d.QualifiedTable(schema, tenantschema.TableName))
}

// Insert renders a single-row INSERT into the Tenants table with bind
// parameters for cols, in order.
func Insert(d types.Dialect, schema string, cols []string) string {
	quoted, params := quoteAndBind(d, cols)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QualifiedTable(schema, tenantschema.TableName), quoted, params)
}

// InsertReturningID renders an INSERT that yields the new ID as a single
// row. When returning is false the engine has no such clause and the caller
// reads LastInsertId from the exec result instead.
func InsertReturningID(d types.Dialect, schema string, cols []string) (query string, returning bool) {
	id := d.QuoteIdent(tenantschema.IDColumn)
	switch d.Dialect() {
	case platform.SQLServer:
		quoted, params := quoteAndBind(d, cols)
		return fmt.Sprintf("INSERT INTO %s (%s) OUTPUT INSERTED.%s VALUES (%s)",
			d.QualifiedTable(schema, tenantschema.TableName), quoted, id, params), true
	case platform.Postgres:
		return Insert(d, schema, cols) + " RETURNING " + id, true
	default:
		return Insert(d, schema, cols), false
	}
}

// UpdateByID renders an UPDATE of cols for one row. The column values bind
// to parameters 1..len(cols) and the ID to the last parameter.
func UpdateByID(d types.Dialect, schema string, cols []string) string {
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = d.QuoteIdent(col) + " = " + d.Placeholder(i+1)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		d.QualifiedTable(schema, tenantschema.TableName), strings.Join(sets, ", "),
		d.QuoteIdent(tenantschema.IDColumn), d.Placeholder(len(cols)+1))
}

// DeleteByID renders a DELETE of one row by ID.
func DeleteByID(d types.Dialect, schema string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		d.QualifiedTable(schema, tenantschema.TableName), d.QuoteIdent(tenantschema.IDColumn), d.Placeholder(1))
}

// CountWhere renders SELECT COUNT(*) with an equality filter on col bound
// to the first parameter.
func CountWhere(d types.Dialect, schema, col string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = %s",
		d.QualifiedTable(schema, tenantschema.TableName), d.QuoteIdent(col), d.Placeholder(1))
}

func quoteAndBind(d types.Dialect, cols []string) (quoted, params string) {
	q := make([]string, len(cols))
	p := make([]string, len(cols))
	for i, col := range cols {
		q[i] = d.QuoteIdent(col)
		p[i] = d.Placeholder(i + 1)
	}
	return strings.Join(q, ", "), strings.Join(p, ", ")
}
