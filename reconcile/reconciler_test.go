package reconcile_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	qt "github.com/frankban/quicktest"

	"github.com/stokaro/tenantprov/core/platform"
	"github.com/stokaro/tenantprov/core/renderer"
	"github.com/stokaro/tenantprov/core/tenantschema"
	"github.com/stokaro/tenantprov/dbschema"
	"github.com/stokaro/tenantprov/dbschema/dbtest"
	"github.com/stokaro/tenantprov/reconcile"
)

const target = "Server=sql1;Database=Tenant1Db;User Id=admin;Password=s3cret-pw;"

func newLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestEnsure_CreatesMissingTable(t *testing.T) {
	c := qt.New(t)

	conn, mock := dbtest.NewMock(t, platform.SQLServer, target)
	opts := tenantschema.DefaultOptions()
	create := renderer.CreateStatement(conn.Dialect(), opts)

	dbtest.ExpectTableExists(mock, conn, "", false)
	mock.ExpectExec(create).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	logger, logs := newLogger()
	r := reconcile.New(dbtest.Opener{target: conn}.Open, opts).WithLogger(logger)

	res := r.Ensure(context.Background(), target)
	c.Assert(res.Err, qt.IsNil)
	c.Assert(res.OK(), qt.IsTrue)
	c.Assert(res.Created, qt.IsTrue)
	c.Assert(res.AddedColumns, qt.HasLen, 0)
	c.Assert(res.Statements, qt.DeepEquals, []string{create})
	c.Assert(res.Target, qt.Equals, "Server=sql1; Database=Tenant1Db")
	c.Assert(mock.ExpectationsWereMet(), qt.IsNil)

	c.Assert(logs.String(), qt.Contains, "Tenants table created")
	c.Assert(logs.String(), qt.Not(qt.Contains), "s3cret-pw")
}

func TestEnsureConn_SecondRunIsNoop(t *testing.T) {
	c := qt.New(t)

	conn, mock := dbtest.NewMock(t, platform.SQLServer, target)
	opts := tenantschema.DefaultOptions()

	// first run creates the table
	dbtest.ExpectTableExists(mock, conn, "", false)
	mock.ExpectExec(renderer.CreateStatement(conn.Dialect(), opts)).WillReturnResult(sqlmock.NewResult(0, 0))

	// second run sees every canonical column and must not run any DDL
	dbtest.ExpectTableExists(mock, conn, "", true)
	dbtest.ExpectColumns(mock, conn, "", append([]string{tenantschema.IDColumn}, tenantschema.ColumnNames(opts)...)...)

	logger, _ := newLogger()
	r := reconcile.New(nil, opts).WithLogger(logger)

	first := r.EnsureConn(context.Background(), conn)
	c.Assert(first.Err, qt.IsNil)
	c.Assert(first.Changed(), qt.IsTrue)

	second := r.EnsureConn(context.Background(), conn)
	c.Assert(second.Err, qt.IsNil)
	c.Assert(second.Changed(), qt.IsFalse)
	c.Assert(second.Created, qt.IsFalse)
	c.Assert(second.Statements, qt.HasLen, 0)

	c.Assert(mock.ExpectationsWereMet(), qt.IsNil)
}

func TestEnsureConn_AddsOnlyMissingColumns(t *testing.T) {
	c := qt.New(t)

	conn, mock := dbtest.NewMock(t, platform.SQLServer, target)
	opts := tenantschema.DefaultOptions()

	// a table created by an early version of the schema
	existing := []string{"ID", "ConnectionString", "Name", "AuthenticationHeader", "AccountID",
		"GSConnectionString", "ReportWriterURL", "BadgePhotoType"}
	dbtest.ExpectTableExists(mock, conn, "", true)
	dbtest.ExpectColumns(mock, conn, "", existing...)

	missing := []string{"EmployeeURL", "VendorURL", "InternalAuditURL", "PortalName",
		"ScreeningPartnerName", "IsMultiPortalEnabled", "IsNewPortalOnly"}
	for _, s := range renderer.BackfillStatements(conn.Dialect(), opts, existing) {
		mock.ExpectExec(s.SQL).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	logger, logs := newLogger()
	res := reconcile.New(nil, opts).WithLogger(logger).EnsureConn(context.Background(), conn)
	c.Assert(res.Err, qt.IsNil)
	c.Assert(res.Created, qt.IsFalse)
	c.Assert(res.AddedColumns, qt.DeepEquals, missing)
	c.Assert(mock.ExpectationsWereMet(), qt.IsNil)

	c.Assert(bytes.Count(logs.Bytes(), []byte("Column added")), qt.Equals, len(missing))
}

func TestEnsureConn_NotNullColumnsBackfillExistingRows(t *testing.T) {
	c := qt.New(t)

	conn, mock := dbtest.NewMock(t, platform.SQLServer, target)
	opts := tenantschema.DefaultOptions()

	existing := append([]string{"ID"}, tenantschema.ColumnNames(opts)[:12]...)
	dbtest.ExpectTableExists(mock, conn, "", true)
	dbtest.ExpectColumns(mock, conn, "", existing...)
	mock.ExpectExec("ALTER TABLE [dbo].[Tenants] ADD [IsMultiPortalEnabled] BIT NOT NULL CONSTRAINT [DF_Tenants_IsMultiPortalEnabled] DEFAULT (0) WITH VALUES;").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("ALTER TABLE [dbo].[Tenants] ADD [IsNewPortalOnly] BIT NOT NULL CONSTRAINT [DF_Tenants_IsNewPortalOnly] DEFAULT (0) WITH VALUES;").
		WillReturnResult(sqlmock.NewResult(0, 3))

	res := reconcile.New(nil, opts).EnsureConn(context.Background(), conn)
	c.Assert(res.Err, qt.IsNil)
	c.Assert(res.AddedColumns, qt.DeepEquals, []string{"IsMultiPortalEnabled", "IsNewPortalOnly"})
	c.Assert(mock.ExpectationsWereMet(), qt.IsNil)
}

func TestEnsureConn_Postgres(t *testing.T) {
	c := qt.New(t)

	conn, mock := dbtest.NewMock(t, platform.Postgres, "postgres://u:p@pg/tenant2")
	opts := tenantschema.Options{Schema: "tenancy"}

	dbtest.ExpectTableExists(mock, conn, "tenancy", true)
	dbtest.ExpectColumns(mock, conn, "tenancy", append([]string{"ID"}, tenantschema.ColumnNames(opts)[:13]...)...)
	mock.ExpectExec(`ALTER TABLE "tenancy"."Tenants" ADD COLUMN "IsNewPortalOnly" BOOLEAN NOT NULL DEFAULT FALSE;`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	res := reconcile.New(nil, opts).EnsureConn(context.Background(), conn)
	c.Assert(res.Err, qt.IsNil)
	c.Assert(res.AddedColumns, qt.DeepEquals, []string{"IsNewPortalOnly"})
	c.Assert(mock.ExpectationsWereMet(), qt.IsNil)
}

func TestEnsureConn_DryRun(t *testing.T) {
	c := qt.New(t)

	conn, mock := dbtest.NewMock(t, platform.SQLServer, target)
	opts := tenantschema.DefaultOptions()
	dbtest.ExpectTableExists(mock, conn, "", false)

	res := reconcile.New(nil, opts).WithDryRun(true).EnsureConn(context.Background(), conn)
	c.Assert(res.Err, qt.IsNil)
	c.Assert(res.DryRun, qt.IsTrue)
	c.Assert(res.Created, qt.IsFalse)
	c.Assert(res.Statements, qt.DeepEquals, []string{renderer.CreateStatement(conn.Dialect(), opts)})
	c.Assert(mock.ExpectationsWereMet(), qt.IsNil)
}

func TestEnsureConn_AlterFailure(t *testing.T) {
	c := qt.New(t)

	conn, mock := dbtest.NewMock(t, platform.SQLServer, target)
	opts := tenantschema.DefaultOptions()

	existing := append([]string{"ID"}, tenantschema.ColumnNames(opts)[:13]...)
	dbtest.ExpectTableExists(mock, conn, "", true)
	dbtest.ExpectColumns(mock, conn, "", existing...)
	mock.ExpectExec(renderer.BackfillStatements(conn.Dialect(), opts, existing)[0].SQL).
		WillReturnError(errors.New("ALTER TABLE permission denied"))

	res := reconcile.New(nil, opts).EnsureConn(context.Background(), conn)
	c.Assert(res.OK(), qt.IsFalse)

	var te *reconcile.TargetError
	c.Assert(errors.As(res.Err, &te), qt.IsTrue)
	c.Assert(te.Op, qt.Equals, reconcile.OpAddColumn)
	c.Assert(te.Column, qt.Equals, "IsNewPortalOnly")
	c.Assert(te.Target, qt.Equals, "Server=sql1; Database=Tenant1Db")
	c.Assert(res.Err, qt.ErrorMatches, `Server=sql1; Database=Tenant1Db: add column IsNewPortalOnly failed: ALTER TABLE permission denied`)
}

func TestEnsureConn_InspectFailure(t *testing.T) {
	c := qt.New(t)

	conn, mock := dbtest.NewMock(t, platform.SQLServer, target)
	query, _ := conn.Dialect().TableExistsQuery("", tenantschema.TableName)
	mock.ExpectQuery(query).WillReturnError(errors.New("login failed"))

	res := reconcile.New(nil, tenantschema.DefaultOptions()).EnsureConn(context.Background(), conn)

	var te *reconcile.TargetError
	c.Assert(errors.As(res.Err, &te), qt.IsTrue)
	c.Assert(te.Op, qt.Equals, reconcile.OpInspect)
}

func TestEnsure_ConnectFailure(t *testing.T) {
	c := qt.New(t)

	logger, logs := newLogger()
	r := reconcile.New(dbtest.Opener{}.Open, tenantschema.DefaultOptions()).WithLogger(logger)

	res := r.Ensure(context.Background(), target)

	var te *reconcile.TargetError
	c.Assert(errors.As(res.Err, &te), qt.IsTrue)
	c.Assert(te.Op, qt.Equals, reconcile.OpConnect)
	c.Assert(res.Err.Error(), qt.Not(qt.Contains), "s3cret-pw")
	c.Assert(logs.String(), qt.Not(qt.Contains), "s3cret-pw")
}

func TestEnsure_RecoversFromPanic(t *testing.T) {
	c := qt.New(t)

	open := func(context.Context, string) (*dbschema.DatabaseConnection, error) {
		panic("driver exploded")
	}

	res := reconcile.New(open, tenantschema.DefaultOptions()).Ensure(context.Background(), target)
	c.Assert(res.Err, qt.ErrorMatches, `Server=sql1; Database=Tenant1Db: inspect failed: panic: driver exploded`)
}

func TestAction_String(t *testing.T) {
	c := qt.New(t)

	c.Assert(reconcile.ActionNone.String(), qt.Equals, "none")
	c.Assert(reconcile.ActionCreate.String(), qt.Equals, "create")
	c.Assert(reconcile.ActionBackfill.String(), qt.Equals, "backfill")
}
