package mariadb

import (
	"github.com/stokaro/tenantprov/core/platform"
	"github.com/stokaro/tenantprov/core/renderer/dialects/mysqllike"
)

// New creates a new MariaDB dialect
func New() *mysqllike.Dialect {
	return mysqllike.New(platform.MariaDB)
}
