package platform_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/tenantprov/core/platform"
)

func TestNormalizeDialect(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mssql", platform.SQLServer},
		{"SQLServer", platform.SQLServer},
		{"pgx", platform.Postgres},
		{"postgresql", platform.Postgres},
		{"MySQL", platform.MySQL},
		{"mariadb", platform.MariaDB},
		{"oracle", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(platform.NormalizeDialect(tt.in), qt.Equals, tt.want)
		})
	}
}

func TestDetectDialect(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ado string", "Server=.;Database=Tenant1Db;Trusted_Connection=True;", platform.SQLServer},
		{"ado without trailing semicolon", "Server=db1", platform.SQLServer},
		{"sqlserver url", "sqlserver://sa:pw@localhost:1433?database=master", platform.SQLServer},
		{"postgres url", "postgres://u:p@localhost:5432/app", platform.Postgres},
		{"postgresql url", "postgresql://localhost/app", platform.Postgres},
		{"postgres keyword form", "host=localhost dbname=app user=u", platform.Postgres},
		{"mysql dsn", "u:p@tcp(localhost:3306)/app", platform.MySQL},
		{"mysql url", "mysql://u:p@localhost/app", platform.MySQL},
		{"empty", "   ", ""},
		{"garbage", "not-a-connection-string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(platform.DetectDialect(tt.in), qt.Equals, tt.want)
		})
	}
}
