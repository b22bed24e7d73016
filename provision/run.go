package provision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stokaro/tenantprov/config"
	"github.com/stokaro/tenantprov/dbschema"
	"github.com/stokaro/tenantprov/reconcile"
	"github.com/stokaro/tenantprov/registry"
	"github.com/stokaro/tenantprov/seed"
)

// Mode selects which targets a run reconciles.
type Mode string

const (
	ModeMaster  Mode = "master"
	ModeTenants Mode = "tenants"
	ModeAll     Mode = "all"
)

// ParseMode parses a mode name
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeMaster, ModeTenants, ModeAll:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q: want master, tenants or all", s)
	}
}

// RunOptions adjusts how Run builds its collaborators. Zero values select
// the production defaults.
type RunOptions struct {
	Logger *slog.Logger
	DryRun bool
	// Opener overrides how target databases are opened.
	Opener dbschema.Opener
	// Tokens overrides the seeder's AuthenticationHeader generator.
	Tokens seed.TokenGenerator
}

// Run reconciles the targets selected by mode using cfg. It fails early with
// ErrMasterConnectionMissing when no master connection is configured, and
// returns an error when the tenant list cannot be read. Per-target failures
// are reported in the Report only.
func Run(ctx context.Context, cfg *config.Config, mode Mode, opts RunOptions) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if strings.TrimSpace(cfg.MasterConnection) == "" {
		logger.Error("Error while processing Tenants table", "error", ErrMasterConnectionMissing)
		return nil, ErrMasterConnectionMissing
	}

	o := NewFromConfig(cfg, opts)

	report := &Report{}
	if mode == ModeMaster || mode == ModeAll {
		report.add(o.ReconcileMaster(ctx))
	}
	if mode == ModeTenants || mode == ModeAll {
		tenants, err := o.ReconcileTenants(ctx)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, tenants.Results...)
	}
	return report, nil
}

// NewFromConfig builds an Orchestrator and its collaborators from cfg.
func NewFromConfig(cfg *config.Config, opts RunOptions) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	open := opts.Opener
	if open == nil {
		open = dbschema.NewOpener(dbschema.ConnectOptions{
			Retries:     cfg.ConnectRetries,
			PingTimeout: cfg.PingTimeout,
		})
	}

	rec := reconcile.New(open, cfg.Schema).
		WithLogger(logger).
		WithTimeout(cfg.Timeout).
		WithDryRun(opts.DryRun)

	s := seed.New(open, cfg.Schema).WithLogger(logger)
	if opts.Tokens != nil {
		s = s.WithTokenGenerator(opts.Tokens)
	}

	return New(cfg.MasterConnection, rec, registry.NewReader(open, cfg.Schema.Schema)).
		WithLogger(logger).
		WithSeeder(s, cfg.SeedsMaster(), cfg.SeedsTenants())
}
