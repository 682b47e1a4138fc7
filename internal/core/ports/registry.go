package ports

import (
	"context"

	"github.com/trinavo/tenancy/internal/core/domain"
)

// TenantRegistry resolves a request domain to its tenant descriptor.
// Fetch returns *domain.NotFoundError when the registry has no tenant for
// tenantDomain and *domain.FetchError for every other failure.
type TenantRegistry interface {
	Fetch(ctx context.Context, tenantDomain string) (domain.TenantDescriptor, error)
}
