package mysql

import (
	"github.com/stokaro/tenantprov/core/platform"
	"github.com/stokaro/tenantprov/core/renderer/dialects/mysqllike"
)

// New creates a new MySQL dialect
func New() *mysqllike.Dialect {
	return mysqllike.New(platform.MySQL)
}
