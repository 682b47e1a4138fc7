package ports

import "github.com/trinavo/tenancy/internal/core/domain"

// TenantStorage owns a tenant's on-disk tree: the database directory and
// file, the private/public roots, and the provisioning state record.
type TenantStorage interface {
	EnsureLayout(res domain.RuntimeResourceSet) error
	DatabaseExists(res domain.RuntimeResourceSet) bool
	TouchDatabase(res domain.RuntimeResourceSet) error
	// LoadState returns domain.ErrNotFound when no state record exists.
	LoadState(res domain.RuntimeResourceSet) (domain.ProvisionState, error)
	SaveState(res domain.RuntimeResourceSet, state domain.ProvisionState) error
}
