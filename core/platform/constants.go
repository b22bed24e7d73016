package platform

import (
	"strings"
)

const (
	SQLServer = "sqlserver"
	Postgres  = "postgres"
	MySQL     = "mysql"
	MariaDB   = "mariadb"
)

func NormalizeDialect(dialect string) string {
	switch strings.ToLower(dialect) {
	case "sqlserver", "mssql", "azuresql":
		return SQLServer
	case "pgx", "postgresql", "postgres":
		return Postgres
	case "mysql":
		return MySQL
	case "mariadb":
		return MariaDB
	default:
		return ""
	}
}

// DetectDialect guesses the database engine from a connection string.
// URL forms are recognised by scheme. ADO.NET style "key=value;" strings,
// which is what the tenant registry usually holds, are treated as SQL Server.
// MySQL DSNs are recognised by the "@tcp(" / "@unix(" network marker.
// Returns an empty string when nothing matches.
func DetectDialect(connString string) string {
	s := strings.TrimSpace(connString)
	if s == "" {
		return ""
	}

	if i := strings.Index(s, "://"); i > 0 {
		return NormalizeDialect(s[:i])
	}

	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "@tcp(") || strings.Contains(lower, "@unix("):
		return MySQL
	case strings.Contains(s, ";"):
		return SQLServer
	case strings.Contains(lower, "dbname=") || strings.Contains(lower, "host="):
		return Postgres
	case strings.Contains(lower, "server=") || strings.Contains(lower, "data source="):
		return SQLServer
	default:
		return ""
	}
}
