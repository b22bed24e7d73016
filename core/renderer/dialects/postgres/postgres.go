package postgres

import (
	"fmt"

	"github.com/lib/pq"

	"github.com/stokaro/tenantprov/core/platform"
	"github.com/stokaro/tenantprov/core/renderer/dialects/internal/bufwriter"
	"github.com/stokaro/tenantprov/core/renderer/types"
	"github.com/stokaro/tenantprov/core/tenantschema"
)

var (
	_ types.Dialect = (*Dialect)(nil)
)

// Dialect provides PostgreSQL-specific SQL rendering.
// Identifiers are always quoted, so the mixed-case canonical names are kept
// verbatim and compared case-sensitively.
type Dialect struct{}

// New creates a new PostgreSQL dialect
func New() *Dialect {
	return &Dialect{}
}

func (d *Dialect) Dialect() string {
	return platform.Postgres
}

func (d *Dialect) DefaultSchema() string {
	return "public"
}

func (d *Dialect) QuoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

func (d *Dialect) QualifiedTable(schema, table string) string {
	if schema == "" {
		schema = d.DefaultSchema()
	}
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (d *Dialect) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (d *Dialect) FoldIdent(name string) string {
	return name
}

func (d *Dialect) TableExistsQuery(schema, table string) (string, []any) {
	if schema == "" {
		schema = d.DefaultSchema()
	}
	return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2`,
		[]any{schema, table}
}

func (d *Dialect) ColumnsQuery(schema, table string) (string, []any) {
	if schema == "" {
		schema = d.DefaultSchema()
	}
	return `SELECT column_name, data_type, is_nullable, column_default, ordinal_position
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`, []any{schema, table}
}

func (d *Dialect) CreateTable(schema, table string, cols []tenantschema.ColumnSpec) string {
	defs := make([]string, 0, len(cols)+1)
	defs = append(defs, d.QuoteIdent(tenantschema.IDColumn)+" BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY")
	for _, col := range cols {
		defs = append(defs, d.ColumnDefinition(table, col))
	}

	var w bufwriter.Writer
	w.WriteLinef("CREATE TABLE %s (", d.QualifiedTable(schema, table))
	w.WriteColumns(defs)
	w.WriteString(");")
	return w.String()
}

// AddColumn relies on PostgreSQL filling existing rows with the column
// default when a column is added, which keeps NOT NULL additions valid.
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
		w.WriteStringf(" DEFAULT %s", d.literal(col.Default))
	}
	return w.String()
}

func (d *Dialect) Paginate(limit, offset int) string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
}

func (d *Dialect) columnType(t tenantschema.LogicalType) string {
	switch t.Kind {
	case tenantschema.KindBool:
		return "BOOLEAN"
	default:
		if t.Length > 0 {
			return fmt.Sprintf("VARCHAR(%d)", t.Length)
		}
		return "TEXT"
	}
}

func (d *Dialect) literal(v *tenantschema.Value) string {
	if v.Kind == tenantschema.KindBool {
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	}
	return pq.QuoteLiteral(v.Str)
}
