package domain

// TenantScope restricts a request to one vendor's rows. The zero value is unscoped.
type TenantScope struct {
	VendorID int64
}

func (s TenantScope) IsScoped() bool {
	return s.VendorID > 0
}

// Allows reports whether a row owned by vendorID is visible in this scope.
func (s TenantScope) Allows(vendorID int64) bool {
	return !s.IsScoped() || s.VendorID == vendorID
}
