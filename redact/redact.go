// Package redact turns connection strings into descriptors that are safe to
// put in logs and error messages.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/stokaro/tenantprov/core/platform"
)

// HashPrefix tags descriptors derived from a hash of the raw string.
const HashPrefix = "Conn#"

const unknown = "(unknown)"

// Redact returns "Server=<host>; Database=<db>" when connString can be parsed,
// and otherwise HashPrefix followed by the first six hex digits of its
// SHA-256. Credentials never appear in the result and the same input always
// yields the same output. Redact does not panic.
func Redact(connString string) (descriptor string) {
	defer func() {
		if recover() != nil {
			descriptor = Hash(connString)
		}
	}()

	host, db, secret, ok := parse(connString)
	if !ok || (host == "" && db == "") {
		return Hash(connString)
	}
	if secret != "" && (strings.Contains(host, secret) || strings.Contains(db, secret)) {
		return Hash(connString)
	}

	return fmt.Sprintf("Server=%s; Database=%s", orUnknown(host), orUnknown(db))
}

// Hash returns the hash-only descriptor for connString.
func Hash(connString string) string {
	sum := sha256.Sum256([]byte(connString))
	return HashPrefix + strings.ToUpper(hex.EncodeToString(sum[:3]))
}

func parse(connString string) (host, db, secret string, ok bool) {
	switch platform.DetectDialect(connString) {
	case platform.SQLServer:
		// msdsn defaults a missing server to localhost.
		if !namesSQLServerHost(connString) {
			return "", "", "", false
		}
		cfg, err := msdsn.Parse(connString)
		if err != nil {
			return "", "", "", false
		}
		host = cfg.Host
		if cfg.Instance != "" {
			host += `\` + cfg.Instance
		}
		return host, cfg.Database, cfg.Password, true

	case platform.Postgres:
		cfg, err := pgconn.ParseConfig(connString)
		if err != nil {
			return "", "", "", false
		}
		return cfg.Host, cfg.Database, cfg.Password, true

	case platform.MySQL, platform.MariaDB:
		if strings.Contains(connString, "://") {
			u, err := url.Parse(connString)
			if err != nil {
				return "", "", "", false
			}
			pw, _ := u.User.Password()
			return u.Hostname(), strings.TrimPrefix(u.Path, "/"), pw, true
		}
		cfg, err := mysql.ParseDSN(connString)
		if err != nil {
			return "", "", "", false
		}
		return cfg.Addr, cfg.DBName, cfg.Passwd, true

	default:
		return "", "", "", false
	}
}

// serverKeys are the ADO.NET keywords that name the server.
var serverKeys = map[string]bool{
	"server":          true,
	"data source":     true,
	"address":         true,
	"addr":            true,
	"network address": true,
}

func namesSQLServerHost(connString string) bool {
	if strings.Contains(connString, "://") {
		u, err := url.Parse(connString)
		return err == nil && u.Hostname() != ""
	}
	for _, pair := range strings.Split(connString, ";") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if serverKeys[strings.ToLower(strings.TrimSpace(key))] && strings.TrimSpace(value) != "" {
			return true
		}
	}
	return false
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}
