// Package config provides configuration for the tenant provisioning tools.
//
// Library users can build a Config directly. The CLI loads it with Load,
// which reads an optional appsettings file and TENANTPROV_* environment
// variables through viper. The master connection string lives under
// ConnectionStrings.DefaultConnection, the same place the application's own
// appsettings keeps it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/stokaro/tenantprov/core/tenantschema"
)

// Configuration keys
const (
	KeyDefaultConnection = "connectionstrings.defaultconnection"
	KeyBrand             = "schema.brand"
	KeyNullableFlags     = "schema.nullable_flags"
	KeySchemaName        = "schema.name"
	KeyTimeout           = "reconcile.timeout"
	KeyConnectRetries    = "reconcile.connect_retries"
	KeyPingTimeout       = "reconcile.ping_timeout"
	KeySeedScope         = "seed.scope"
)

// EnvPrefix prefixes environment overrides, e.g.
// TENANTPROV_CONNECTIONSTRINGS_DEFAULTCONNECTION.
const EnvPrefix = "TENANTPROV"

// Seed scopes
const (
	SeedNone    = "none"
	SeedMaster  = "master"
	SeedTenants = "tenants"
	SeedAll     = "all"
)

// Config contains everything a provisioning run needs.
type Config struct {
	// MasterConnection is the connection string of the master database.
	MasterConnection string
	// Schema carries the canonical schema decisions (brand, flag nullability, namespace).
	Schema tenantschema.Options
	// Timeout bounds the reconciliation of one target.
	Timeout time.Duration
	// ConnectRetries is the number of extra ping attempts per target.
	ConnectRetries int
	// PingTimeout bounds each ping attempt.
	PingTimeout time.Duration
	// SeedScope selects which targets receive the baseline rows.
	SeedScope string
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Schema:         tenantschema.DefaultOptions(),
		Timeout:        30 * time.Second,
		ConnectRetries: 2,
		PingTimeout:    10 * time.Second,
		SeedScope:      SeedMaster,
	}
}

// SetDefaults registers the defaults of Default on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyBrand, d.Schema.Brand)
	v.SetDefault(KeyNullableFlags, d.Schema.NullableFlags)
	v.SetDefault(KeySchemaName, d.Schema.Schema)
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeyConnectRetries, d.ConnectRetries)
	v.SetDefault(KeyPingTimeout, d.PingTimeout)
	v.SetDefault(KeySeedScope, d.SeedScope)
}

// Load reads configuration into v and returns the resulting Config. When
// file is empty an appsettings.{json,yaml,toml} in the working directory is
// used if present. Environment variables override file values.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("appsettings")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from values already present in v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		MasterConnection: strings.TrimSpace(v.GetString(KeyDefaultConnection)),
		Schema: tenantschema.Options{
			Brand:         v.GetString(KeyBrand),
			NullableFlags: v.GetBool(KeyNullableFlags),
			Schema:        v.GetString(KeySchemaName),
		},
		Timeout:        v.GetDuration(KeyTimeout),
		ConnectRetries: v.GetInt(KeyConnectRetries),
		PingTimeout:    v.GetDuration(KeyPingTimeout),
		SeedScope:      strings.ToLower(v.GetString(KeySeedScope)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that do not depend on the run mode. A missing master
// connection is reported by the provisioning run itself.
func (c *Config) Validate() error {
	switch c.SeedScope {
	case SeedNone, SeedMaster, SeedTenants, SeedAll:
	default:
		return fmt.Errorf("invalid %s %q: want one of none, master, tenants, all", KeySeedScope, c.SeedScope)
	}
	if c.ConnectRetries < 0 {
		return fmt.Errorf("invalid %s %d: must not be negative", KeyConnectRetries, c.ConnectRetries)
	}
	return nil
}

// SeedsMaster reports whether the master database receives baseline rows.
func (c *Config) SeedsMaster() bool {
	return c.SeedScope == SeedMaster || c.SeedScope == SeedAll
}

// SeedsTenants reports whether tenant databases receive baseline rows.
func (c *Config) SeedsTenants() bool {
	return c.SeedScope == SeedTenants || c.SeedScope == SeedAll
}
