package types

import "github.com/stokaro/tenantprov/core/tenantschema"

// Dialect renders the statements the provisioning code runs against one
// database engine. Implementations are stateless and safe to share.
type Dialect interface {
	// Dialect returns the platform name (see core/platform).
	Dialect() string

	// DefaultSchema is the namespace used when none is configured. An empty
	// result means "the current database".
	DefaultSchema() string

	// QuoteIdent quotes a single identifier.
	QuoteIdent(name string) string

	// QualifiedTable returns the schema-qualified, quoted table name.
	QualifiedTable(schema, table string) string

	// Placeholder returns the bind parameter marker for the n-th argument (1-based).
	Placeholder(n int) string

	// FoldIdent normalises an identifier for comparison according to the
	// engine's identifier case rules.
	FoldIdent(name string) string

	// TableExistsQuery returns a query yielding a single COUNT(*) for the table.
	TableExistsQuery(schema, table string) (string, []any)

	// ColumnsQuery returns a query yielding column_name, data_type,
	// is_nullable, column_default and ordinal_position for the table.
	ColumnsQuery(schema, table string) (string, []any)

	// CreateTable renders the CREATE TABLE statement with the identity
	// column followed by cols.
	CreateTable(schema, table string, cols []tenantschema.ColumnSpec) string

	// AddColumn renders an additive ALTER TABLE for one column. NOT NULL
	// columns with a default must have the default applied to existing rows.
	AddColumn(schema, table string, col tenantschema.ColumnSpec) string

	// ColumnDefinition renders the column clause shared by CreateTable and
	// AddColumn (name, type, nullability, default).
	ColumnDefinition(table string, col tenantschema.ColumnSpec) string

	// Paginate renders the clause appended after ORDER BY to page results.
	Paginate(limit, offset int) string
}
