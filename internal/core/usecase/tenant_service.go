package usecase

import (
	"context"

	"github.com/trinavo/tenancy/internal/core/domain"
	"github.com/trinavo/tenancy/internal/core/ports"
	"github.com/trinavo/tenancy/internal/core/tenantctx"

	"go.uber.org/zap"
)

// TenantService owns the switch path: decide main domain vs tenant domain,
// resolve the tenant through the registry, and bind it to the context
// exactly once per execution unit.
type TenantService struct {
	registry ports.TenantRegistry
	resolver *DomainResolver
	switcher *ResourceSwitcher
	logger   *zap.Logger
}

func NewTenantService(registry ports.TenantRegistry, resolver *DomainResolver, switcher *ResourceSwitcher, logger *zap.Logger) *TenantService {
	return &TenantService{registry: registry, resolver: resolver, switcher: switcher, logger: logger}
}

// SwitchByHost binds the tenant owning host to ctx. It is a no-op on the
// main domain and on a context that already carries a binding, so repeated
// invocation within one request is cheap and never hits the registry twice.
func (s *TenantService) SwitchByHost(ctx context.Context, host string) (context.Context, error) {
	if s.resolver.IsMainDomain(host) {
		return ctx, nil
	}
	if _, ok := tenantctx.From(ctx); ok {
		return ctx, nil
	}

	desc, err := s.registry.Fetch(ctx, CanonicalHost(host))
	if err != nil {
		return ctx, err
	}
	return s.SwitchTo(ctx, desc)
}

// SwitchTo derives the resource set for desc and binds it to ctx.
// Rebinding the same slug returns ctx unchanged without re-deriving;
// rebinding a different slug fails with domain.ErrBindingConflict.
func (s *TenantService) SwitchTo(ctx context.Context, desc domain.TenantDescriptor) (context.Context, error) {
	if cur, ok := tenantctx.From(ctx); ok {
		if cur.Descriptor.Slug == desc.Slug {
			return ctx, nil
		}
		return ctx, domain.ErrBindingConflict
	}

	res, err := s.switcher.Switch(desc.Slug, desc.CustomDomain)
	if err != nil {
		return ctx, err
	}

	s.logger.Info("switching to tenant",
		zap.String("slug", desc.Slug),
		zap.String("base_url", res.BaseURL),
		zap.Int("partition", res.PartitionIndex),
	)

	return tenantctx.Bind(ctx, tenantctx.Binding{Descriptor: desc, Resources: res})
}

func (s *TenantService) Resolver() *DomainResolver {
	return s.resolver
}
