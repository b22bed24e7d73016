// Package provision runs schema reconciliation and seeding across the master
// database and every tenant database listed in it.
//
// Targets are processed one at a time. A failing target is logged and
// recorded in the Report; it never stops the remaining targets.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stokaro/tenantprov/reconcile"
	"github.com/stokaro/tenantprov/redact"
	"github.com/stokaro/tenantprov/registry"
	"github.com/stokaro/tenantprov/seed"
)

// ErrMasterConnectionMissing is returned when no master connection string is
// configured. It is the only error that aborts a run before any target is
// touched.
var ErrMasterConnectionMissing = errors.New("master connection string (ConnectionStrings:DefaultConnection) is not configured")

// TargetResult is the outcome for one target.
type TargetResult struct {
	reconcile.Result
	Seeded  int   // rows inserted by the seeder
	SeedErr error // seeding failure, if any
}

// Failed reports whether reconciliation or seeding failed.
func (r TargetResult) Failed() bool {
	return r.Err != nil || r.SeedErr != nil
}

// Report collects the per-target results of a run.
type Report struct {
	Results []TargetResult
}

// Succeeded returns the number of targets without failures
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if !res.Failed() {
			n++
		}
	}
	return n
}

// Failed returns the number of targets with a failure
func (r *Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Err joins every per-target error, or returns nil when all targets succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
		if res.SeedErr != nil {
			errs = append(errs, fmt.Errorf("%s: seed failed: %w", res.Target, res.SeedErr))
		}
	}
	return errors.Join(errs...)
}

func (r *Report) add(res TargetResult) {
	r.Results = append(r.Results, res)
}

// Orchestrator drives reconciliation of the master and tenant databases.
type Orchestrator struct {
	master      string
	reconciler  *reconcile.Reconciler
	registry    *registry.Reader
	seeder      *seed.Seeder
	seedMaster  bool
	seedTenants bool
	logger      *slog.Logger
}

// New creates an Orchestrator for the master database at masterConnection.
func New(masterConnection string, rec *reconcile.Reconciler, reg *registry.Reader) *Orchestrator {
	return &Orchestrator{
		master:     masterConnection,
		reconciler: rec,
		registry:   reg,
		logger:     slog.Default(),
	}
}

// WithLogger sets the logger for the orchestrator
func (o *Orchestrator) WithLogger(l *slog.Logger) *Orchestrator {
	tmp := *o
	tmp.logger = l
	return &tmp
}

// WithSeeder enables seeding after successful reconciliation of the master
// and/or tenant databases.
func (o *Orchestrator) WithSeeder(s *seed.Seeder, master, tenants bool) *Orchestrator {
	tmp := *o
	tmp.seeder = s
	tmp.seedMaster = master
	tmp.seedTenants = tenants
	return &tmp
}

// ReconcileMaster reconciles the master database.
func (o *Orchestrator) ReconcileMaster(ctx context.Context) TargetResult {
	res := o.process(ctx, o.master, o.seedMaster)
	if !res.Failed() {
		o.logger.Info("Tenants table processed (master DB)", "target", res.Target)
	}
	return res
}

// ReconcileTenants reads the tenant list from the master database and
// reconciles every tenant. The returned error is non-nil only when the list
// itself cannot be read; per-tenant failures are in the Report.
func (o *Orchestrator) ReconcileTenants(ctx context.Context) (*Report, error) {
	targets, err := o.registry.ListTenantConnectionStrings(ctx, o.master)
	if err != nil {
		o.logger.Error("Failed to read tenant registry", "target", redact.Redact(o.master), "error", err)
		return nil, fmt.Errorf("failed to list tenant databases: %w", err)
	}

	o.logger.Info("Reconciling tenant databases", "count", len(targets))

	report := &Report{}
	for _, cs := range targets {
		res := o.process(ctx, cs, o.seedTenants)
		if !res.Failed() {
			o.logger.Info("Tenants table processed (tenant DB)", "target", res.Target)
		}
		report.add(res)
	}

	o.logger.Info("Tenant reconciliation finished", "succeeded", report.Succeeded(), "failed", report.Failed())
	return report, nil
}

// process reconciles and optionally seeds one target. Failures are logged
// here and returned in the result.
func (o *Orchestrator) process(ctx context.Context, connString string, seedIt bool) TargetResult {
	res := TargetResult{Result: o.reconciler.Ensure(ctx, connString)}
	if res.Err != nil {
		o.logger.Error("Error processing target", "target", res.Target, "error", res.Err)
		return res
	}

	if !seedIt || o.seeder == nil || res.DryRun {
		return res
	}

	n, err := o.seed(ctx, connString)
	res.Seeded = n
	if err != nil {
		res.SeedErr = err
		o.logger.Error("Error seeding target", "target", res.Target, "error", err)
	}
	return res
}

func (o *Orchestrator) seed(ctx context.Context, connString string) (n int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return o.seeder.SeedDefault(ctx, connString)
}
