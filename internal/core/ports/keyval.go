package ports

import (
	"context"
	"time"

	"github.com/trinavo/tenancy/internal/core/domain"
)

type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// KeyValueProvider binds a shared keyed store to the partition index and
// key prefix of a resource set, so cache and session data for the tenant
// land in the same numbered partition.
type KeyValueProvider interface {
	ForTenant(res domain.RuntimeResourceSet) (KeyValue, error)
}
