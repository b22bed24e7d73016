// Package repository exposes CRUD and paged queries over the Tenants table.
//
// Every call runs against the master database unless WithConnectionString
// points it at another target, so the same repository serves both the
// registry and the individual tenant databases.
package repository

import (
	"context"
	"errors"

	"github.com/stokaro/tenantprov/tenant"
)

// ErrNotFound is returned when no row has the requested ID.
var ErrNotFound = errors.New("tenant not found")

// DefaultPageSize is used when a paged query asks for a non-positive size.
const DefaultPageSize = 10

// TenantRepository is the data access contract for tenant records.
type TenantRepository interface {
	// Add inserts t and returns it with the ID assigned by the database.
	Add(ctx context.Context, t *tenant.Tenant, opts ...Option) (*tenant.Tenant, error)
	// GetAll returns every row ordered by ID.
	GetAll(ctx context.Context, opts ...Option) ([]tenant.Tenant, error)
	// GetByID returns the row with id or ErrNotFound.
	GetByID(ctx context.Context, id int64, opts ...Option) (*tenant.Tenant, error)
	// Update writes every column of t to the row with t.ID. It reports
	// whether a row was changed.
	Update(ctx context.Context, t *tenant.Tenant, opts ...Option) (bool, error)
	// Delete removes the row with id and reports whether it existed.
	Delete(ctx context.Context, id int64, opts ...Option) (bool, error)
	// GetArticles returns one page of rows matching searchQuery in
	// searchField, ordered by sortOrder.
	GetArticles(ctx context.Context, pageIndex, pageSize int, searchField, searchQuery, sortOrder string, opts ...Option) (*ArticleSet, error)
	// GetBy is the general form of GetArticles.
	GetBy(ctx context.Context, filter FilterOptions, opts ...Option) (*ArticleSet, error)
}

// ArticleSet is one page of results together with the number of rows
// matching the filter across all pages.
type ArticleSet struct {
	Items      []tenant.Tenant
	TotalCount int
}

// FilterOptions describes a paged, filtered query.
type FilterOptions struct {
	// PageIndex is zero-based.
	PageIndex int
	PageSize  int
	// SearchField is the column matched with LIKE. Empty means Name.
	SearchField string
	SearchQuery string
	// SortOrder is a column name, optionally suffixed with "Desc"
	// (e.g. "Name", "NameDesc"). Empty means newest first.
	SortOrder string
	// Equals restricts results to rows whose column equals the value.
	Equals map[string]any
}

type callOptions struct {
	connectionString string
}

// Option adjusts a single repository call.
type Option func(*callOptions)

// WithConnectionString runs the call against connString instead of the
// master database. An empty string keeps the default.
func WithConnectionString(connString string) Option {
	return func(o *callOptions) {
		o.connectionString = connString
	}
}
