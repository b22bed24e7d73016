// Package settings holds the flags and configuration loading shared by the
// tenantprov commands.
package settings

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stokaro/tenantprov/config"
	"github.com/stokaro/tenantprov/dbschema"
)

const (
	ConfigFlag     = "config"
	ConnectionFlag = "connection"
	LogLevelFlag   = "log-level"
)

// Flags returns a fresh set of the common flags. Each command registers its
// own set.
func Flags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		ConfigFlag: &cobraflags.StringFlag{
			Name:  ConfigFlag,
			Value: "",
			Usage: "Configuration file (default: appsettings.{json,yaml,toml} in the working directory, if present)",
		},
		ConnectionFlag: &cobraflags.StringFlag{
			Name:  ConnectionFlag,
			Value: "",
			Usage: "Master connection string; overrides ConnectionStrings.DefaultConnection",
		},
		LogLevelFlag: &cobraflags.StringFlag{
			Name:  LogLevelFlag,
			Value: "info",
			Usage: "Log level (debug, info, warn, error)",
		},
	}
}

// Load reads the configuration file and TENANTPROV_* environment variables,
// then applies the command line overrides from flags.
func Load(flags map[string]cobraflags.Flag) (*config.Config, error) {
	cfg, err := config.Load(viper.New(), flags[ConfigFlag].GetString())
	if err != nil {
		return nil, err
	}
	if cs := strings.TrimSpace(flags[ConnectionFlag].GetString()); cs != "" {
		cfg.MasterConnection = cs
	}
	return cfg, nil
}

// NewLogger returns a text logger writing to w at the level named in flags.
func NewLogger(w io.Writer, flags map[string]cobraflags.Flag) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flags[LogLevelFlag].GetString())); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", LogLevelFlag, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// Opener returns the production database opener for cfg.
func Opener(cfg *config.Config) dbschema.Opener {
	return dbschema.NewOpener(dbschema.ConnectOptions{
		Retries:     cfg.ConnectRetries,
		PingTimeout: cfg.PingTimeout,
	})
}

// Register adds flags to cmd and returns cmd.
func Register(cmd *cobra.Command, flags map[string]cobraflags.Flag) *cobra.Command {
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}
