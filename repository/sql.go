package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/stokaro/tenantprov/core/renderer"
	"github.com/stokaro/tenantprov/core/renderer/types"
	"github.com/stokaro/tenantprov/core/tenantschema"
	"github.com/stokaro/tenantprov/dbschema"
	"github.com/stokaro/tenantprov/tenant"
)

// SQLRepository implements TenantRepository with sqlx. Each call opens its
// own connection and closes it before returning.
type SQLRepository struct {
	open   dbschema.Opener
	master string
	opts   tenantschema.Options
	logger *slog.Logger
}

var _ TenantRepository = (*SQLRepository)(nil)

// NewSQL creates a repository that defaults to masterConnection.
func NewSQL(open dbschema.Opener, masterConnection string, opts tenantschema.Options) *SQLRepository {
	return &SQLRepository{
		open:   open,
		master: masterConnection,
		opts:   opts,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the repository
func (r *SQLRepository) WithLogger(l *slog.Logger) *SQLRepository {
	tmp := *r
	tmp.logger = l
	return &tmp
}

// row mirrors the table with nullable fields: rows created by older schema
// versions may hold NULL in columns added later.
type row struct {
	ID                   int64          `db:"ID"`
	ConnectionString     sql.NullString `db:"ConnectionString"`
	Name                 sql.NullString `db:"Name"`
	AuthenticationHeader sql.NullString `db:"AuthenticationHeader"`
	AccountID            sql.NullString `db:"AccountID"`
	GSConnectionString   sql.NullString `db:"GSConnectionString"`
	BadgePhotoType       sql.NullString `db:"BadgePhotoType"`
	ReportWriterURL      sql.NullString `db:"ReportWriterURL"`
	PortalName           sql.NullString `db:"PortalName"`
	ScreeningPartnerName sql.NullString `db:"ScreeningPartnerName"`
	IsMultiPortalEnabled sql.NullBool   `db:"IsMultiPortalEnabled"`
	EmployeeURL          sql.NullString `db:"EmployeeURL"`
	VendorURL            sql.NullString `db:"VendorURL"`
	InternalAuditURL     sql.NullString `db:"InternalAuditURL"`
	IsNewPortalOnly      sql.NullBool   `db:"IsNewPortalOnly"`
}

func (r row) tenant() tenant.Tenant {
	return tenant.Tenant{
		ID:                   r.ID,
		ConnectionString:     r.ConnectionString.String,
		Name:                 r.Name.String,
		AuthenticationHeader: r.AuthenticationHeader.String,
		AccountID:            r.AccountID.String,
		GSConnectionString:   r.GSConnectionString.String,
		BadgePhotoType:       r.BadgePhotoType.String,
		ReportWriterURL:      r.ReportWriterURL.String,
		PortalName:           r.PortalName.String,
		ScreeningPartnerName: r.ScreeningPartnerName.String,
		IsMultiPortalEnabled: r.IsMultiPortalEnabled.Bool,
		EmployeeURL:          r.EmployeeURL.String,
		VendorURL:            r.VendorURL.String,
		InternalAuditURL:     r.InternalAuditURL.String,
		IsNewPortalOnly:      r.IsNewPortalOnly.Bool,
	}
}

func toTenants(rows []row) []tenant.Tenant {
	out := make([]tenant.Tenant, len(rows))
	for i, r := range rows {
		out[i] = r.tenant()
	}
	return out
}

// session is one open target.
type session struct {
	conn    *dbschema.DatabaseConnection
	db      *sqlx.DB
	dialect types.Dialect
	target  string
}

func (r *SQLRepository) connect(ctx context.Context, opts []Option) (*session, error) {
	o := callOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	cs := o.connectionString
	if cs == "" {
		cs = r.master
	}

	conn, err := r.open(ctx, cs)
	if err != nil {
		return nil, err
	}
	return &session{
		conn:    conn,
		db:      sqlx.NewDb(conn.DB(), conn.Info().Driver),
		dialect: conn.Dialect(),
		target:  conn.Info().Target,
	}, nil
}

func (r *SQLRepository) release(s *session) {
	if err := s.conn.Close(); err != nil {
		r.logger.Debug("Failed to close connection", "target", s.target, "error", err)
	}
}

func (r *SQLRepository) selectColumns() []string {
	return append([]string{tenantschema.IDColumn}, tenantschema.ColumnNames(r.opts)...)
}

func (r *SQLRepository) Add(ctx context.Context, t *tenant.Tenant, opts ...Option) (*tenant.Tenant, error) {
	s, err := r.connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer r.release(s)

	cols := tenantschema.ColumnNames(r.opts)
	query, returning := renderer.InsertReturningID(s.dialect, r.opts.Schema, cols)
	args := t.Values(cols)

	var id int64
	if returning {
		if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to insert tenant on %s: %w", s.target, err)
		}
	} else {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to insert tenant on %s: %w", s.target, err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("failed to read tenant ID on %s: %w", s.target, err)
		}
	}

	added := *t
	added.ID = id
	r.logger.Info("Tenant added", "target", s.target, "id", id, "name", t.Name)
	return &added, nil
}

func (r *SQLRepository) GetAll(ctx context.Context, opts ...Option) ([]tenant.Tenant, error) {
	s, err := r.connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer r.release(s)

	query := renderer.Select(s.dialect, r.opts.Schema, r.selectColumns()) +
		" ORDER BY " + s.dialect.QuoteIdent(tenantschema.IDColumn)

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query tenants on %s: %w", s.target, err)
	}
	return toTenants(rows), nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64, opts ...Option) (*tenant.Tenant, error) {
	s, err := r.connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer r.release(s)

	query := renderer.Select(s.dialect, r.opts.Schema, r.selectColumns()) +
		" WHERE " + s.dialect.QuoteIdent(tenantschema.IDColumn) + " = " + s.dialect.Placeholder(1)

	var found row
	if err := s.db.GetContext(ctx, &found, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant %d on %s: %w", id, s.target, err)
	}
	t := found.tenant()
	return &t, nil
}

func (r *SQLRepository) Update(ctx context.Context, t *tenant.Tenant, opts ...Option) (bool, error) {
	s, err := r.connect(ctx, opts)
	if err != nil {
		return false, err
	}
	defer r.release(s)

	cols := tenantschema.ColumnNames(r.opts)
	args := append(t.Values(cols), t.ID)

	res, err := s.db.ExecContext(ctx, renderer.UpdateByID(s.dialect, r.opts.Schema, cols), args...)
	if err != nil {
		return false, fmt.Errorf("failed to update tenant %d on %s: %w", t.ID, s.target, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id int64, opts ...Option) (bool, error) {
	s, err := r.connect(ctx, opts)
	if err != nil {
		return false, err
	}
	defer r.release(s)

	res, err := s.db.ExecContext(ctx, renderer.DeleteByID(s.dialect, r.opts.Schema), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete tenant %d on %s: %w", id, s.target, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		r.logger.Info("Tenant deleted", "target", s.target, "id", id)
	}
	return n > 0, nil
}

func (r *SQLRepository) GetArticles(ctx context.Context, pageIndex, pageSize int, searchField, searchQuery, sortOrder string, opts ...Option) (*ArticleSet, error) {
	return r.GetBy(ctx, FilterOptions{
		PageIndex:   pageIndex,
		PageSize:    pageSize,
		SearchField: searchField,
		SearchQuery: searchQuery,
		SortOrder:   sortOrder,
	}, opts...)
}

func (r *SQLRepository) GetBy(ctx context.Context, filter FilterOptions, opts ...Option) (*ArticleSet, error) {
	s, err := r.connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer r.release(s)

	where, args, err := r.where(s.dialect, filter)
	if err != nil {
		return nil, err
	}
	order, err := r.orderBy(s.dialect, filter.SortOrder)
	if err != nil {
		return nil, err
	}

	size := filter.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	offset := max(filter.PageIndex, 0) * size

	table := s.dialect.QualifiedTable(r.opts.Schema, tenantschema.TableName)
	countSQL := s.db.Rebind("SELECT COUNT(*) FROM " + table + where)

	var total int
	if err := s.db.GetContext(ctx, &total, countSQL, args...); err != nil {
		return nil, fmt.Errorf("failed to count tenants on %s: %w", s.target, err)
	}

	query := s.db.Rebind(renderer.Select(s.dialect, r.opts.Schema, r.selectColumns()) +
		where + " ORDER BY " + order + " " + s.dialect.Paginate(size, offset))

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query tenants on %s: %w", s.target, err)
	}

	return &ArticleSet{Items: toTenants(rows), TotalCount: total}, nil
}

// where renders the WHERE clause with "?" bind markers; callers Rebind.
func (r *SQLRepository) where(d types.Dialect, filter FilterOptions) (string, []any, error) {
	var (
		conds []string
		args  []any
	)

	equals := make(map[string]any, len(filter.Equals))
	for k, v := range filter.Equals {
		col, ok := r.column(k, false)
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter column %q", k)
		}
		equals[col] = v
	}
	for _, col := range slices.Sorted(maps.Keys(equals)) {
		conds = append(conds, d.QuoteIdent(col)+" = ?")
		args = append(args, equals[col])
	}

	if q := strings.TrimSpace(filter.SearchQuery); q != "" {
		field := filter.SearchField
		if field == "" {
			field = tenantschema.ColName
		}
		col, ok := r.column(field, true)
		if !ok {
			return "", nil, fmt.Errorf("unsupported search field %q", filter.SearchField)
		}
		conds = append(conds, d.QuoteIdent(col)+" LIKE ?")
		args = append(args, "%"+q+"%")
	}

	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func (r *SQLRepository) orderBy(d types.Dialect, sortOrder string) (string, error) {
	if sortOrder == "" {
		return d.QuoteIdent(tenantschema.IDColumn) + " DESC", nil
	}

	name, dir := sortOrder, "ASC"
	if len(name) > 4 && strings.EqualFold(name[len(name)-4:], "desc") {
		name, dir = name[:len(name)-4], "DESC"
	}

	col, ok := r.column(name, false)
	if !ok {
		return "", fmt.Errorf("unsupported sort order %q", sortOrder)
	}
	return d.QuoteIdent(col) + " " + dir, nil
}

// column resolves name case-insensitively to its canonical spelling. With
// textOnly set only text columns match.
func (r *SQLRepository) column(name string, textOnly bool) (string, bool) {
	if !textOnly && strings.EqualFold(name, tenantschema.IDColumn) {
		return tenantschema.IDColumn, true
	}
	for _, col := range tenantschema.Columns(r.opts) {
		if textOnly && col.Type.Kind != tenantschema.KindText {
			continue
		}
		if strings.EqualFold(name, col.Name) {
			return col.Name, true
		}
	}
	return "", false
}
