package ports

import (
	"github.com/trinavo/tenancy/internal/core/domain"

	"go.uber.org/zap"
)

// TenantLoggers opens (once per slug) the tenant's daily-rotating log
// channel described by a resource set.
type TenantLoggers interface {
	For(res domain.RuntimeResourceSet) (*zap.Logger, error)
}
