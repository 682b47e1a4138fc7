// Package tenantctx carries the current tenant binding through a request's
// context. The binding is request-scoped by construction: concurrent
// execution units can never observe each other's tenant.
package tenantctx

import (
	"context"

	"github.com/trinavo/tenancy/internal/core/domain"
)

type bindingKey struct{}

// Binding is the bound tenant of one execution unit: the descriptor the
// registry returned and the resource set derived from its slug.
type Binding struct {
	Descriptor domain.TenantDescriptor
	Resources  domain.RuntimeResourceSet
}

// Bind attaches b to ctx. Rebinding the same slug is a no-op returning the
// original context. Rebinding a different slug while already bound returns
// domain.ErrBindingConflict; a context never changes tenant mid-flight.
func Bind(ctx context.Context, b Binding) (context.Context, error) {
	if cur, ok := From(ctx); ok {
		if cur.Descriptor.Slug == b.Descriptor.Slug {
			return ctx, nil
		}
		return ctx, domain.ErrBindingConflict
	}
	return context.WithValue(ctx, bindingKey{}, b), nil
}

func From(ctx context.Context) (Binding, bool) {
	b, ok := ctx.Value(bindingKey{}).(Binding)
	return b, ok
}

// Slug returns the bound slug, or "" when the context is unbound.
func Slug(ctx context.Context) string {
	b, ok := From(ctx)
	if !ok {
		return ""
	}
	return b.Descriptor.Slug
}
