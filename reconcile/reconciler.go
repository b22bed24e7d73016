// Package reconcile brings the Tenants table of one target database to the
// canonical schema.
//
// A target goes through at most one of two paths: the table is created with
// every canonical column, or the existing table receives an ADD COLUMN for
// each canonical column it lacks. Nothing is ever dropped or retyped, so
// running Ensure repeatedly is safe and converges from any earlier version of
// the schema.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stokaro/tenantprov/core/renderer"
	"github.com/stokaro/tenantprov/core/tenantschema"
	"github.com/stokaro/tenantprov/dbschema"
	"github.com/stokaro/tenantprov/redact"
)

// Action is what a plan does to the table.
type Action int

const (
	ActionNone Action = iota
	ActionCreate
	ActionBackfill
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionBackfill:
		return "backfill"
	default:
		return "none"
	}
}

// Change is one DDL statement of a plan. Column is empty for CREATE TABLE.
type Change struct {
	Column string
	SQL    string
}

// Plan lists the statements needed to bring one target up to date.
type Plan struct {
	Action  Action
	Changes []Change
}

// Result is the outcome of reconciling one target.
type Result struct {
	Target       string   // redacted descriptor
	Created      bool     // table was created
	AddedColumns []string // columns added to an existing table
	Statements   []string // statements executed, or planned when DryRun
	DryRun       bool
	Err          error // *TargetError when non-nil
}

// OK reports whether the target was reconciled without error.
func (r Result) OK() bool {
	return r.Err == nil
}

// Changed reports whether any DDL was (or, in dry-run mode, would be) run.
func (r Result) Changed() bool {
	return len(r.Statements) > 0
}

// Reconciler ensures the canonical Tenants table on target databases.
type Reconciler struct {
	open    dbschema.Opener
	opts    tenantschema.Options
	logger  *slog.Logger
	dryRun  bool
	timeout time.Duration
}

// New creates a Reconciler that opens targets with open.
func New(open dbschema.Opener, opts tenantschema.Options) *Reconciler {
	return &Reconciler{
		open:   open,
		opts:   opts,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the reconciler
func (r *Reconciler) WithLogger(l *slog.Logger) *Reconciler {
	tmp := *r
	tmp.logger = l
	return &tmp
}

// WithDryRun makes Ensure plan and log statements without executing them
func (r *Reconciler) WithDryRun(dryRun bool) *Reconciler {
	tmp := *r
	tmp.dryRun = dryRun
	return &tmp
}

// WithTimeout bounds the whole reconciliation of a single target
func (r *Reconciler) WithTimeout(d time.Duration) *Reconciler {
	tmp := *r
	tmp.timeout = d
	return &tmp
}

// Ensure opens the target, reconciles it and closes the connection. All
// failures, including panics from drivers, are returned in Result.Err.
func (r *Reconciler) Ensure(ctx context.Context, connString string) (res Result) {
	target := redact.Redact(connString)
	res = Result{Target: target, DryRun: r.dryRun}

	defer func() {
		if p := recover(); p != nil {
			res.Err = &TargetError{Target: target, Op: OpInspect, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	conn, err := r.open(ctx, connString)
	if err != nil {
		res.Err = &TargetError{Target: target, Op: OpConnect, Err: err}
		return res
	}
	defer func() {
		if err := conn.Close(); err != nil {
			r.logger.Debug("Failed to close connection", "target", target, "error", err)
		}
	}()

	return r.EnsureConn(ctx, conn)
}

// EnsureConn reconciles an already open connection. The caller owns conn.
func (r *Reconciler) EnsureConn(ctx context.Context, conn *dbschema.DatabaseConnection) Result {
	target := conn.Info().Target
	res := Result{Target: target, DryRun: r.dryRun}

	plan, err := r.Plan(ctx, conn)
	if err != nil {
		res.Err = &TargetError{Target: target, Op: OpInspect, Err: err}
		return res
	}

	for _, change := range plan.Changes {
		if r.dryRun {
			r.logger.Info("Planned schema change", "target", target, "action", plan.Action.String(), "sql", change.SQL)
			res.Statements = append(res.Statements, change.SQL)
			continue
		}

		if _, err := conn.ExecContext(ctx, change.SQL); err != nil {
			op := OpCreate
			if change.Column != "" {
				op = OpAddColumn
			}
			res.Err = &TargetError{Target: target, Op: op, Column: change.Column, Err: err}
			return res
		}
		res.Statements = append(res.Statements, change.SQL)

		if change.Column == "" {
			res.Created = true
			r.logger.Info("Tenants table created", "target", target)
		} else {
			res.AddedColumns = append(res.AddedColumns, change.Column)
			r.logger.Info("Column added", "target", target, "column", change.Column, "sql", change.SQL)
		}
	}

	if plan.Action == ActionNone {
		r.logger.Debug("Tenants table up to date", "target", target)
	}
	return res
}

// Plan inspects the target and returns the statements that would bring it to
// the canonical schema. An up-to-date table yields an empty plan.
func (r *Reconciler) Plan(ctx context.Context, conn *dbschema.DatabaseConnection) (*Plan, error) {
	d := conn.Dialect()

	table, err := dbschema.NewReader(conn, r.opts.Schema).ReadTable(ctx, tenantschema.TableName)
	if err != nil {
		return nil, err
	}

	if table == nil {
		return &Plan{
			Action:  ActionCreate,
			Changes: []Change{{SQL: renderer.CreateStatement(d, r.opts)}},
		}, nil
	}

	stmts := renderer.BackfillStatements(d, r.opts, table.ColumnNames())
	if len(stmts) == 0 {
		return &Plan{Action: ActionNone}, nil
	}

	plan := &Plan{Action: ActionBackfill}
	for _, s := range stmts {
		plan.Changes = append(plan.Changes, Change{Column: s.Column.Name, SQL: s.SQL})
	}
	return plan, nil
}
