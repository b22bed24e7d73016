// Package dbtest provides go-sqlmock backed connections for tests that need
// a dbschema.DatabaseConnection without a running database.
package dbtest

import (
	"context"
	"database/sql/driver"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/stokaro/tenantprov/core/tenantschema"
	"github.com/stokaro/tenantprov/dbschema"
	"github.com/stokaro/tenantprov/redact"
)

// NewMock returns a connection for dialect backed by go-sqlmock. Queries are
// matched exactly (modulo whitespace) and in order.
func NewMock(t testing.TB, dialect, target string) (*dbschema.DatabaseConnection, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	conn, err := dbschema.NewDatabaseConnection(db, dialect, target)
	if err != nil {
		t.Fatalf("failed to wrap sqlmock: %v", err)
	}
	return conn, mock
}

// ExpectTableExists registers the schema-qualified existence check.
func ExpectTableExists(mock sqlmock.Sqlmock, conn *dbschema.DatabaseConnection, schema string, exists bool) {
	query, args := conn.Dialect().TableExistsQuery(schema, tenantschema.TableName)
	count := 0
	if exists {
		count = 1
	}
	mock.ExpectQuery(query).
		WithArgs(values(args)...).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(count))
}

// ExpectColumns registers the information_schema column listing, returning
// one row per name.
func ExpectColumns(mock sqlmock.Sqlmock, conn *dbschema.DatabaseConnection, schema string, names ...string) {
	query, args := conn.Dialect().ColumnsQuery(schema, tenantschema.TableName)
	rows := sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default", "ordinal_position"})
	for i, name := range names {
		rows.AddRow(name, "nvarchar", "YES", nil, i+1)
	}
	mock.ExpectQuery(query).WithArgs(values(args)...).WillReturnRows(rows)
}

// Opener serves pre-built connections keyed by raw connection string.
// Unknown strings fail the way an unreachable server would.
type Opener map[string]*dbschema.DatabaseConnection

func (o Opener) Open(_ context.Context, connString string) (*dbschema.DatabaseConnection, error) {
	conn, ok := o[connString]
	if !ok {
		return nil, fmt.Errorf("failed to connect to %s: connection refused", redact.Redact(connString))
	}
	return conn, nil
}

func values(args []any) []driver.Value {
	out := make([]driver.Value, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

// Sequence serves a fresh connection for every Open of the same connection
// string, in the order given. Use it when the code under test closes the
// connection between steps.
type Sequence map[string][]*dbschema.DatabaseConnection

func (s Sequence) Open(_ context.Context, connString string) (*dbschema.DatabaseConnection, error) {
	queue := s[connString]
	if len(queue) == 0 {
		return nil, fmt.Errorf("failed to connect to %s: connection refused", redact.Redact(connString))
	}
	s[connString] = queue[1:]
	return queue[0], nil
}
