package ports

import (
	"context"
	"errors"
	"time"

	"github.com/trinavo/tenancy/internal/core/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// DescriptorCache holds registry answers for their TTL window. Implementations
// must be safe for concurrent use; entries are only trusted until they expire.
type DescriptorCache interface {
	Get(ctx context.Context, tenantDomain string) (domain.TenantDescriptor, error)
	Put(ctx context.Context, tenantDomain string, desc domain.TenantDescriptor, ttl time.Duration) error
}
