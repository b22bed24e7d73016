package dbschema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stokaro/tenantprov/dbschema/types"
)

// Reader reads table metadata from information_schema
type Reader struct {
	conn   *DatabaseConnection
	schema string
}

// NewReader creates a reader for tables in schema. An empty schema selects
// the dialect default.
func NewReader(conn *DatabaseConnection, schema string) *Reader {
	return &Reader{
		conn:   conn,
		schema: schema,
	}
}

// TableExists reports whether table exists in the reader's schema. The check
// is schema-qualified so a same-named table in another namespace is ignored.
func (r *Reader) TableExists(ctx context.Context, table string) (bool, error) {
	query, args := r.conn.Dialect().TableExistsQuery(r.schema, table)

	var count int
	if err := r.conn.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return count > 0, nil
}

// ReadTable returns the table with its columns, or nil when it does not exist.
func (r *Reader) ReadTable(ctx context.Context, table string) (*types.DBTable, error) {
	exists, err := r.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	columns, err := r.readColumns(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns for table %s: %w", table, err)
	}

	schema := r.schema
	if schema == "" {
		schema = r.conn.Dialect().DefaultSchema()
	}
	return &types.DBTable{
		Schema:  schema,
		Name:    table,
		Columns: columns,
	}, nil
}

func (r *Reader) readColumns(ctx context.Context, table string) ([]types.DBColumn, error) {
	query, args := r.conn.Dialect().ColumnsQuery(r.schema, table)

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []types.DBColumn
	for rows.Next() {
		var (
			col        types.DBColumn
			colDefault sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.DataType, &col.IsNullable, &colDefault, &col.OrdinalPosition); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		if colDefault.Valid {
			col.ColumnDefault = &colDefault.String
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}

	return columns, nil
}
