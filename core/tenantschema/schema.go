// Package tenantschema holds the canonical definition of the Tenants table.
//
// The column list returned by Columns is the only description of the table in
// this module. The CREATE TABLE renderer and the ADD COLUMN renderer both read
// from it, so a table created from scratch and a table brought forward through
// backfills always end up with the same columns.
package tenantschema

import "fmt"

const (
	// TableName is the name of the canonical table in every target database.
	TableName = "Tenants"

	// IDColumn is the identity primary key. It is created with the table and
	// never backfilled.
	IDColumn = "ID"

	// DefaultBrand is used for PortalName and ScreeningPartnerName when no
	// brand is configured.
	DefaultBrand = "Azunt"
)

// Column names of the canonical table.
const (
	ColConnectionString     = "ConnectionString"
	ColName                 = "Name"
	ColAuthenticationHeader = "AuthenticationHeader"
	ColAccountID            = "AccountID"
	ColGSConnectionString   = "GSConnectionString"
	ColReportWriterURL      = "ReportWriterURL"
	ColEmployeeURL          = "EmployeeURL"
	ColVendorURL            = "VendorURL"
	ColInternalAuditURL     = "InternalAuditURL"
	ColBadgePhotoType       = "BadgePhotoType"
	ColPortalName           = "PortalName"
	ColScreeningPartnerName = "ScreeningPartnerName"
	ColIsMultiPortalEnabled = "IsMultiPortalEnabled"
	ColIsNewPortalOnly      = "IsNewPortalOnly"
)

// Kind is the logical type family of a column.
type Kind int

const (
	KindText Kind = iota
	KindBool
)

// LogicalType is a dialect independent column type. Length is only
// meaningful for text; zero means unbounded.
type LogicalType struct {
	Kind   Kind
	Length int
}

// Text is an unbounded string.
func Text() LogicalType { return LogicalType{Kind: KindText} }

// ShortText is a string bounded to n characters.
func ShortText(n int) LogicalType { return LogicalType{Kind: KindText, Length: n} }

// Bool is a boolean flag.
func Bool() LogicalType { return LogicalType{Kind: KindBool} }

func (t LogicalType) String() string {
	switch t.Kind {
	case KindBool:
		return "bool"
	case KindText:
		if t.Length > 0 {
			return fmt.Sprintf("text(%d)", t.Length)
		}
		return "text"
	default:
		return "unknown"
	}
}

// Value is a typed column default.
type Value struct {
	Kind Kind
	Str  string
	Bool bool
}

// StringValue returns a text default.
func StringValue(s string) *Value { return &Value{Kind: KindText, Str: s} }

// BoolValue returns a boolean default.
func BoolValue(b bool) *Value { return &Value{Kind: KindBool, Bool: b} }

// ColumnSpec describes one column of the canonical table.
type ColumnSpec struct {
	Name     string
	Type     LogicalType
	Nullable bool
	Default  *Value // nil means no default
}

// RequiresBackfill reports whether adding the column to a populated table
// needs the default written into existing rows.
func (c ColumnSpec) RequiresBackfill() bool {
	return !c.Nullable && c.Default != nil
}

// Options carries the product decisions that shape the canonical schema.
type Options struct {
	// Brand is the default for PortalName and ScreeningPartnerName.
	Brand string
	// NullableFlags makes IsMultiPortalEnabled and IsNewPortalOnly nullable.
	// When false they are NOT NULL with a false default.
	NullableFlags bool
	// Schema overrides the namespace the table lives in. Empty selects the
	// dialect default (dbo, public, or the current MySQL database).
	Schema string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{Brand: DefaultBrand}
}

func (o Options) brand() string {
	if o.Brand == "" {
		return DefaultBrand
	}
	return o.Brand
}

// Columns returns the canonical column list in declaration order, excluding
// the identity column.
func Columns(opts Options) []ColumnSpec {
	brand := opts.brand()
	return []ColumnSpec{
		{Name: ColConnectionString, Type: Text(), Nullable: true},
		{Name: ColName, Type: Text(), Nullable: true},
		{Name: ColAuthenticationHeader, Type: Text(), Nullable: true},
		{Name: ColAccountID, Type: Text(), Nullable: true},
		{Name: ColGSConnectionString, Type: Text(), Nullable: true},
		{Name: ColReportWriterURL, Type: Text(), Nullable: true},
		{Name: ColEmployeeURL, Type: Text(), Nullable: true},
		{Name: ColVendorURL, Type: Text(), Nullable: true},
		{Name: ColInternalAuditURL, Type: Text(), Nullable: true},
		{Name: ColBadgePhotoType, Type: ShortText(50), Nullable: true},
		{Name: ColPortalName, Type: Text(), Nullable: true, Default: StringValue(brand)},
		{Name: ColScreeningPartnerName, Type: Text(), Nullable: true, Default: StringValue(brand)},
		{Name: ColIsMultiPortalEnabled, Type: Bool(), Nullable: opts.NullableFlags, Default: BoolValue(false)},
		{Name: ColIsNewPortalOnly, Type: Bool(), Nullable: opts.NullableFlags, Default: BoolValue(false)},
	}
}

// ColumnNames returns the names of Columns(opts) in order.
func ColumnNames(opts Options) []string {
	cols := Columns(opts)
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	return names
}
