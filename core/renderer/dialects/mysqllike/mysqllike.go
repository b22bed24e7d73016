// Package mysqllike holds the rendering shared by MySQL and MariaDB.
package mysqllike

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/stokaro/tenantprov/core/renderer/dialects/internal/bufwriter"
	"github.com/stokaro/tenantprov/core/renderer/types"
	"github.com/stokaro/tenantprov/core/tenantschema"
)

var (
	_ types.Dialect = (*Dialect)(nil)
)

// Dialect renders MySQL-family SQL. The table lives in the database named in
// the connection string unless a schema is given explicitly.
type Dialect struct {
	dialect string
}

// New creates a MySQL-family dialect reporting the given platform name.
func New(dialect string) *Dialect {
	return &Dialect{dialect: dialect}
}

func (d *Dialect) Dialect() string {
	return d.dialect
}

func (d *Dialect) DefaultSchema() string {
	return ""
}

func (d *Dialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d *Dialect) QualifiedTable(schema, table string) string {
	if schema == "" {
		return d.QuoteIdent(table)
	}
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (d *Dialect) Placeholder(int) string {
	return "?"
}

// FoldIdent folds case: column names are case-insensitive on every platform.
func (d *Dialect) FoldIdent(name string) string {
	return cases.Fold().String(name)
}

func (d *Dialect) TableExistsQuery(schema, table string) (string, []any) {
	if schema == "" {
		return "SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?",
			[]any{table}
	}
	return "SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?",
		[]any{schema, table}
}

func (d *Dialect) ColumnsQuery(schema, table string) (string, []any) {
	const cols = `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT, ORDINAL_POSITION
FROM information_schema.COLUMNS
`
	if schema == "" {
		return cols + "WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?\nORDER BY ORDINAL_POSITION", []any{table}
	}
	return cols + "WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?\nORDER BY ORDINAL_POSITION", []any{schema, table}
}

func (d *Dialect) CreateTable(schema, table string, cols []tenantschema.ColumnSpec) string {
	defs := make([]string, 0, len(cols)+1)
	defs = append(defs, d.QuoteIdent(tenantschema.IDColumn)+" BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY")
	for _, col := range cols {
		defs = append(defs, d.ColumnDefinition(table, col))
	}

	var w bufwriter.Writer
	w.WriteLinef("CREATE TABLE %s (", d.QualifiedTable(schema, table))
	w.WriteColumns(defs)
	w.WriteString(");")
	return w.String()
}

// AddColumn relies on MySQL populating existing rows with the default for a
// NOT NULL column added with ADD COLUMN.
func (d *Dialect) AddColumn(schema, table string, col tenantschema.ColumnSpec) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", d.QualifiedTable(schema, table), d.ColumnDefinition(table, col))
}

func (d *Dialect) ColumnDefinition(_ string, col tenantschema.ColumnSpec) string {
	var w bufwriter.Writer
	w.WriteStringf("%s %s", d.QuoteIdent(col.Name), d.columnType(col.Type))
	if col.Nullable {
		w.WriteString(" NULL")
	} else {
		w.WriteString(" NOT NULL")
	}
	if col.Default != nil {
		w.WriteStringf(" DEFAULT %s", d.defaultClause(col))
	}
	return w.String()
}

func (d *Dialect) Paginate(limit, offset int) string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
}

func (d *Dialect) columnType(t tenantschema.LogicalType) string {
	switch t.Kind {
	case tenantschema.KindBool:
		return "TINYINT(1)"
	default:
		if t.Length > 0 {
			return fmt.Sprintf("VARCHAR(%d)", t.Length)
		}
		return "LONGTEXT"
	}
}

// defaultClause wraps defaults of unbounded text columns in parentheses:
// TEXT/BLOB columns only accept expression defaults (MySQL 8.0.13+, MariaDB 10.2+).
func (d *Dialect) defaultClause(col tenantschema.ColumnSpec) string {
	v := col.Default
	if v.Kind == tenantschema.KindBool {
		if v.Bool {
			return "1"
		}
		return "0"
	}
	lit := quoteLiteral(v.Str)
	if col.Type.Length == 0 {
		return "(" + lit + ")"
	}
	return lit
}

func quoteLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return "'" + s + "'"
}
