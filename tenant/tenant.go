// Package tenant defines the record stored in the Tenants table.
package tenant

import "github.com/stokaro/tenantprov/core/tenantschema"

// Tenant is one row of the Tenants table. ID is assigned by the database on
// insert and never changes afterwards.
type Tenant struct {
	ID                   int64  `db:"ID" json:"id"`
	ConnectionString     string `db:"ConnectionString" json:"connection_string"`
	Name                 string `db:"Name" json:"name"`
	AuthenticationHeader string `db:"AuthenticationHeader" json:"authentication_header"`
	AccountID            string `db:"AccountID" json:"account_id"`
	GSConnectionString   string `db:"GSConnectionString" json:"gs_connection_string"`
	BadgePhotoType       string `db:"BadgePhotoType" json:"badge_photo_type"`
	ReportWriterURL      string `db:"ReportWriterURL" json:"report_writer_url"`
	PortalName           string `db:"PortalName" json:"portal_name"`
	ScreeningPartnerName string `db:"ScreeningPartnerName" json:"screening_partner_name"`
	IsMultiPortalEnabled bool   `db:"IsMultiPortalEnabled" json:"is_multi_portal_enabled"`
	EmployeeURL          string `db:"EmployeeURL" json:"employee_url"`
	VendorURL            string `db:"VendorURL" json:"vendor_url"`
	InternalAuditURL     string `db:"InternalAuditURL" json:"internal_audit_url"`
	IsNewPortalOnly      bool   `db:"IsNewPortalOnly" json:"is_new_portal_only"`
}

// New returns a Tenant with the brand defaults applied.
func New(brand string) Tenant {
	if brand == "" {
		brand = tenantschema.DefaultBrand
	}
	return Tenant{
		PortalName:           brand,
		ScreeningPartnerName: brand,
	}
}

// Value returns the field stored in the named canonical column. It panics
// on an unknown column, which can only be a programming error.
func (t *Tenant) Value(column string) any {
	switch column {
	case tenantschema.ColConnectionString:
		return t.ConnectionString
	case tenantschema.ColName:
		return t.Name
	case tenantschema.ColAuthenticationHeader:
		return t.AuthenticationHeader
	case tenantschema.ColAccountID:
		return t.AccountID
	case tenantschema.ColGSConnectionString:
		return t.GSConnectionString
	case tenantschema.ColReportWriterURL:
		return t.ReportWriterURL
	case tenantschema.ColEmployeeURL:
		return t.EmployeeURL
	case tenantschema.ColVendorURL:
		return t.VendorURL
	case tenantschema.ColInternalAuditURL:
		return t.InternalAuditURL
	case tenantschema.ColBadgePhotoType:
		return t.BadgePhotoType
	case tenantschema.ColPortalName:
		return t.PortalName
	case tenantschema.ColScreeningPartnerName:
		return t.ScreeningPartnerName
	case tenantschema.ColIsMultiPortalEnabled:
		return t.IsMultiPortalEnabled
	case tenantschema.ColIsNewPortalOnly:
		return t.IsNewPortalOnly
	default:
		panic("tenant: unknown column " + column)
	}
}

// Values returns the fields for columns, in order.
func (t *Tenant) Values(columns []string) []any {
	out := make([]any, len(columns))
	for i, col := range columns {
		out[i] = t.Value(col)
	}
	return out
}
