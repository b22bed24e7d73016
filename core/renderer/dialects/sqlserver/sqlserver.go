// Package sqlserver renders Tenants table statements for Microsoft SQL Server
// and Azure SQL.
package sqlserver

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/stokaro/tenantprov/core/platform"
	"github.com/stokaro/tenantprov/core/renderer/dialects/internal/bufwriter"
	"github.com/stokaro/tenantprov/core/renderer/types"
	"github.com/stokaro/tenantprov/core/tenantschema"
)

var (
	_ types.Dialect = (*Dialect)(nil)
)

// Dialect renders T-SQL.
type Dialect struct{}

// New creates a new SQL Server dialect
func New() *Dialect {
	return &Dialect{}
}

func (d *Dialect) Dialect() string {
	return platform.SQLServer
}

func (d *Dialect) DefaultSchema() string {
	return "dbo"
}

func (d *Dialect) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d *Dialect) QualifiedTable(schema, table string) string {
	if schema == "" {
		schema = d.DefaultSchema()
	}
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (d *Dialect) Placeholder(n int) string {
	return fmt.Sprintf("@p%d", n)
}

// FoldIdent folds case: default SQL Server collations compare identifiers
// case-insensitively, so "name" and "Name" would collide on ADD.
func (d *Dialect) FoldIdent(name string) string {
	return cases.Fold().String(name)
}

func (d *Dialect) TableExistsQuery(schema, table string) (string, []any) {
	if schema == "" {
		schema = d.DefaultSchema()
	}
	return `SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2`,
		[]any{schema, table}
}

func (d *Dialect) ColumnsQuery(schema, table string) (string, []any) {
	if schema == "" {
		schema = d.DefaultSchema()
	}
	return `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT, ORDINAL_POSITION
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
ORDER BY ORDINAL_POSITION`, []any{schema, table}
}

func (d *Dialect) CreateTable(schema, table string, cols []tenantschema.ColumnSpec) string {
	defs := make([]string, 0, len(cols)+1)
	defs = append(defs, d.QuoteIdent(tenantschema.IDColumn)+" BIGINT IDENTITY(1,1) NOT NULL PRIMARY KEY")
	for _, col := range cols {
		defs = append(defs, d.ColumnDefinition(table, col))
	}

	var w bufwriter.Writer
	w.WriteLinef("CREATE TABLE %s (", d.QualifiedTable(schema, table))
	w.WriteColumns(defs)
	w.WriteString(");")
	return w.String()
}

// AddColumn appends WITH VALUES for NOT NULL columns with a default so that
// existing rows receive the default instead of failing the constraint.
func (d *Dialect) AddColumn(schema, table string, col tenantschema.ColumnSpec) string {
	var w bufwriter.Writer
	w.WriteStringf("ALTER TABLE %s ADD %s", d.QualifiedTable(schema, table), d.ColumnDefinition(table, col))
	if col.RequiresBackfill() {
		w.WriteString(" WITH VALUES")
	}
	w.WriteString(";")
	return w.String()
}

func (d *Dialect) ColumnDefinition(table string, col tenantschema.ColumnSpec) string {
	var w bufwriter.Writer
	w.WriteStringf("%s %s", d.QuoteIdent(col.Name), d.columnType(col.Type))
	if col.Nullable {
		w.WriteString(" NULL")
	} else {
		w.WriteString(" NOT NULL")
	}
	if col.Default != nil {
		w.WriteStringf(" CONSTRAINT %s DEFAULT (%s)",
			d.QuoteIdent(fmt.Sprintf("DF_%s_%s", table, col.Name)), d.literal(col.Default))
	}
	return w.String()
}

func (d *Dialect) Paginate(limit, offset int) string {
	return fmt.Sprintf("OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", offset, limit)
}

func (d *Dialect) columnType(t tenantschema.LogicalType) string {
	switch t.Kind {
	case tenantschema.KindBool:
		return "BIT"
	default:
		if t.Length > 0 {
			return fmt.Sprintf("NVARCHAR(%d)", t.Length)
		}
		return "NVARCHAR(MAX)"
	}
}

func (d *Dialect) literal(v *tenantschema.Value) string {
	if v.Kind == tenantschema.KindBool {
		if v.Bool {
			return "1"
		}
		return "0"
	}
	return "N'" + strings.ReplaceAll(v.Str, "'", "''") + "'"
}
