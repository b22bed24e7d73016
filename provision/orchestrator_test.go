package provision_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	qt "github.com/frankban/quicktest"

	"github.com/stokaro/tenantprov/config"
	"github.com/stokaro/tenantprov/core/platform"
	"github.com/stokaro/tenantprov/core/renderer"
	"github.com/stokaro/tenantprov/core/tenantschema"
	"github.com/stokaro/tenantprov/dbschema"
	"github.com/stokaro/tenantprov/dbschema/dbtest"
	"github.com/stokaro/tenantprov/provision"
	"github.com/stokaro/tenantprov/seed"
)

const (
	master  = "Server=master;Database=Master;User Id=sa;Password=master-pw;"
	tenant1 = "Server=sql1;Database=Tenant1;User Id=t1;Password=pw-one;"
	tenant2 = "Server=sql2;Database=Tenant2;User Id=t2;Password=pw-two;"
	tenant3 = "Server=sql3;Database=Tenant3;User Id=t3;Password=pw-three;"
)

func newLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

// registryConn returns a master connection whose Tenants table lists rows.
func registryConn(t *testing.T, rows ...any) *dbschema.DatabaseConnection {
	conn, mock := dbtest.NewMock(t, platform.SQLServer, master)
	r := sqlmock.NewRows([]string{"ConnectionString"})
	for _, row := range rows {
		r.AddRow(row)
	}
	mock.ExpectQuery(renderer.Select(conn.Dialect(), "", []string{tenantschema.ColConnectionString})).WillReturnRows(r)
	mock.ExpectClose()
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("registry: %v", err)
		}
	})
	return conn
}

// upToDateConn returns a connection whose Tenants table already has every
// canonical column.
func upToDateConn(t *testing.T, cs string) *dbschema.DatabaseConnection {
	conn, mock := dbtest.NewMock(t, platform.SQLServer, cs)
	dbtest.ExpectTableExists(mock, conn, "", true)
	dbtest.ExpectColumns(mock, conn, "", append([]string{"ID"}, tenantschema.ColumnNames(tenantschema.DefaultOptions())...)...)
	mock.ExpectClose()
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("%s: %v", cs, err)
		}
	})
	return conn
}

func newConfig() *config.Config {
	cfg := config.Default()
	cfg.MasterConnection = master
	cfg.SeedScope = config.SeedNone
	return cfg
}

func TestReconcileTenants_IsolatesFailures(t *testing.T) {
	c := qt.New(t)

	open := dbtest.Sequence{
		master:  {registryConn(t, tenant1, tenant2, tenant3)},
		tenant1: {upToDateConn(t, tenant1)},
		// tenant2 is unreachable
		tenant3: {upToDateConn(t, tenant3)},
	}

	logger, logs := newLogger()
	o := provision.NewFromConfig(newConfig(), provision.RunOptions{Logger: logger, Opener: open.Open})

	report, err := o.ReconcileTenants(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(report.Results, qt.HasLen, 3)
	c.Assert(report.Succeeded(), qt.Equals, 2)
	c.Assert(report.Failed(), qt.Equals, 1)

	c.Assert(report.Results[0].OK(), qt.IsTrue)
	c.Assert(report.Results[1].OK(), qt.IsFalse)
	c.Assert(report.Results[1].Target, qt.Equals, "Server=sql2; Database=Tenant2")
	c.Assert(report.Results[2].OK(), qt.IsTrue)
	c.Assert(report.Err(), qt.ErrorMatches, `Server=sql2; Database=Tenant2: connect failed: .*`)

	out := logs.String()
	c.Assert(out, qt.Contains, "Error processing target")
	for _, secret := range []string{"master-pw", "pw-one", "pw-two", "pw-three"} {
		c.Assert(out, qt.Not(qt.Contains), secret)
	}
}

func TestReconcileTenants_SkipsBlankConnectionStrings(t *testing.T) {
	c := qt.New(t)

	open := dbtest.Sequence{
		master:  {registryConn(t, "", nil, "  ", tenant1)},
		tenant1: {upToDateConn(t, tenant1)},
	}

	o := provision.NewFromConfig(newConfig(), provision.RunOptions{Opener: open.Open})

	report, err := o.ReconcileTenants(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(report.Results, qt.HasLen, 1)
	c.Assert(report.Failed(), qt.Equals, 0)
	c.Assert(report.Err(), qt.IsNil)
}

func TestReconcileTenants_RegistryFailure(t *testing.T) {
	c := qt.New(t)

	logger, logs := newLogger()
	o := provision.NewFromConfig(newConfig(), provision.RunOptions{Logger: logger, Opener: dbtest.Sequence{}.Open})

	report, err := o.ReconcileTenants(context.Background())
	c.Assert(report, qt.IsNil)
	c.Assert(err, qt.ErrorMatches, "failed to list tenant databases: .*")
	c.Assert(logs.String(), qt.Not(qt.Contains), "master-pw")
}

func TestReconcileMaster_CreatesAndSeeds(t *testing.T) {
	c := qt.New(t)

	opts := tenantschema.DefaultOptions()

	ensureConn, ensureMock := dbtest.NewMock(t, platform.SQLServer, master)
	dbtest.ExpectTableExists(ensureMock, ensureConn, "", false)
	ensureMock.ExpectExec(renderer.CreateStatement(ensureConn.Dialect(), opts)).WillReturnResult(sqlmock.NewResult(0, 0))
	ensureMock.ExpectClose()

	seedConn, seedMock := dbtest.NewMock(t, platform.SQLServer, master)
	seedMock.ExpectQuery(renderer.CountWhere(seedConn.Dialect(), "", tenantschema.ColName)).WithArgs("Azunt").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	seedMock.ExpectExec(renderer.Insert(seedConn.Dialect(), "", tenantschema.ColumnNames(opts))).
		WillReturnResult(sqlmock.NewResult(1, 1))
	seedMock.ExpectClose()

	cfg := newConfig()
	cfg.SeedScope = config.SeedMaster

	open := dbtest.Sequence{master: {ensureConn, seedConn}}
	tokens := seed.TokenFunc(func() (string, error) { return "token", nil })
	o := provision.NewFromConfig(cfg, provision.RunOptions{Opener: open.Open, Tokens: tokens})

	res := o.ReconcileMaster(context.Background())
	c.Assert(res.Failed(), qt.IsFalse)
	c.Assert(res.Created, qt.IsTrue)
	c.Assert(res.Seeded, qt.Equals, 1)
	c.Assert(ensureMock.ExpectationsWereMet(), qt.IsNil)
	c.Assert(seedMock.ExpectationsWereMet(), qt.IsNil)
}

func TestReconcileMaster_SeedFailureIsReported(t *testing.T) {
	c := qt.New(t)

	cfg := newConfig()
	cfg.SeedScope = config.SeedAll

	// the seeder cannot open a second connection
	open := dbtest.Sequence{master: {upToDateConn(t, master)}}
	o := provision.NewFromConfig(cfg, provision.RunOptions{Opener: open.Open})

	res := o.ReconcileMaster(context.Background())
	c.Assert(res.OK(), qt.IsTrue)
	c.Assert(res.Failed(), qt.IsTrue)
	c.Assert(res.SeedErr, qt.ErrorMatches, "failed to connect to .*")

	report := &provision.Report{Results: []provision.TargetResult{res}}
	c.Assert(report.Err(), qt.ErrorMatches, `Server=master; Database=Master: seed failed: .*`)
}

func TestReconcileMaster_DryRunSkipsSeeding(t *testing.T) {
	c := qt.New(t)

	conn, mock := dbtest.NewMock(t, platform.SQLServer, master)
	dbtest.ExpectTableExists(mock, conn, "", false)
	mock.ExpectClose()

	cfg := newConfig()
	cfg.SeedScope = config.SeedAll

	open := dbtest.Sequence{master: {conn}}
	o := provision.NewFromConfig(cfg, provision.RunOptions{Opener: open.Open, DryRun: true})

	res := o.ReconcileMaster(context.Background())
	c.Assert(res.Failed(), qt.IsFalse)
	c.Assert(res.DryRun, qt.IsTrue)
	c.Assert(res.Statements, qt.HasLen, 1)
	c.Assert(res.Seeded, qt.Equals, 0)
	c.Assert(mock.ExpectationsWereMet(), qt.IsNil)
}

func TestRun_MissingMasterConnection(t *testing.T) {
	c := qt.New(t)

	for _, cs := range []string{"", "   "} {
		cfg := newConfig()
		cfg.MasterConnection = cs

		called := false
		open := func(context.Context, string) (*dbschema.DatabaseConnection, error) {
			called = true
			return nil, errors.New("unexpected")
		}

		report, err := provision.Run(context.Background(), cfg, provision.ModeAll, provision.RunOptions{Opener: open})
		c.Assert(report, qt.IsNil)
		c.Assert(errors.Is(err, provision.ErrMasterConnectionMissing), qt.IsTrue)
		c.Assert(called, qt.IsFalse)
	}
}

func TestRun_All(t *testing.T) {
	c := qt.New(t)

	open := dbtest.Sequence{
		master:  {upToDateConn(t, master), registryConn(t, tenant1)},
		tenant1: {upToDateConn(t, tenant1)},
	}

	report, err := provision.Run(context.Background(), newConfig(), provision.ModeAll, provision.RunOptions{Opener: open.Open})
	c.Assert(err, qt.IsNil)
	c.Assert(report.Results, qt.HasLen, 2)
	c.Assert(report.Results[0].Target, qt.Equals, "Server=master; Database=Master")
	c.Assert(report.Results[1].Target, qt.Equals, "Server=sql1; Database=Tenant1")
	c.Assert(report.Failed(), qt.Equals, 0)
}

func TestParseMode(t *testing.T) {
	c := qt.New(t)

	for in, want := range map[string]provision.Mode{
		"master":   provision.ModeMaster,
		" Tenants": provision.ModeTenants,
		"ALL":      provision.ModeAll,
	} {
		got, err := provision.ParseMode(in)
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, want)
	}

	_, err := provision.ParseMode("everything")
	c.Assert(err, qt.ErrorMatches, `unknown mode "everything".*`)
}
