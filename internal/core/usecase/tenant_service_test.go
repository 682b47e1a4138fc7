package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/trinavo/tenancy/internal/core/domain"
	"github.com/trinavo/tenancy/internal/core/tenantctx"

	"go.uber.org/zap"
)

type stubRegistry struct {
	fetchFn func(ctx context.Context, tenantDomain string) (domain.TenantDescriptor, error)
	calls   int
}

func (s *stubRegistry) Fetch(ctx context.Context, tenantDomain string) (domain.TenantDescriptor, error) {
	s.calls++
	if s.fetchFn != nil {
		return s.fetchFn(ctx, tenantDomain)
	}
	return domain.TenantDescriptor{Slug: "acme"}, nil
}

func newTestService(registry *stubRegistry, console bool) *TenantService {
	resolver := NewDomainResolver("example.com", console)
	switcher := NewResourceSwitcher(domain.ResourceRoots{
		StorageRoot: "/srv/storage",
		LogRoot:     "/srv/logs",
		MainDomain:  "example.com",
	})
	return NewTenantService(registry, resolver, switcher, zap.NewNop())
}

func TestSwitchByHostMainDomainSkipsRegistry(t *testing.T) {
	registry := &stubRegistry{}
	svc := newTestService(registry, false)

	ctx, err := svc.SwitchByHost(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if registry.calls != 0 {
		t.Fatalf("registry called %d times on main domain, want 0", registry.calls)
	}
	if _, ok := tenantctx.From(ctx); ok {
		t.Fatal("main domain must not bind a tenant")
	}
}

func TestSwitchByHostConsoleModeSkipsRegistry(t *testing.T) {
	registry := &stubRegistry{}
	svc := newTestService(registry, true)

	if _, err := svc.SwitchByHost(context.Background(), "acme.example.com"); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if registry.calls != 0 {
		t.Fatalf("registry called %d times in console mode, want 0", registry.calls)
	}
}

func TestSwitchByHostBindsTenant(t *testing.T) {
	registry := &stubRegistry{
		fetchFn: func(_ context.Context, tenantDomain string) (domain.TenantDescriptor, error) {
			if tenantDomain != "acme.example.com" {
				t.Fatalf("fetched domain %q", tenantDomain)
			}
			return domain.TenantDescriptor{Slug: "acme", UserName: "Jane", UserEmail: "jane@x.com"}, nil
		},
	}
	svc := newTestService(registry, false)

	ctx, err := svc.SwitchByHost(context.Background(), "acme.example.com")
	if err != nil {
		t.Fatalf("switch: %v", err)
	}

	binding, ok := tenantctx.From(ctx)
	if !ok {
		t.Fatal("expected a tenant binding")
	}
	if binding.Descriptor.Slug != "acme" {
		t.Fatalf("bound slug = %q", binding.Descriptor.Slug)
	}
	if binding.Resources.SessionCookie != "tenant_acme_session" {
		t.Fatalf("session cookie = %q", binding.Resources.SessionCookie)
	}
}

func TestSwitchByHostAlreadyBoundSkipsRegistry(t *testing.T) {
	registry := &stubRegistry{}
	svc := newTestService(registry, false)

	ctx, err := svc.SwitchByHost(context.Background(), "acme.example.com")
	if err != nil {
		t.Fatalf("first switch: %v", err)
	}
	if registry.calls != 1 {
		t.Fatalf("registry calls = %d, want 1", registry.calls)
	}

	if _, err := svc.SwitchByHost(ctx, "acme.example.com"); err != nil {
		t.Fatalf("second switch: %v", err)
	}
	if registry.calls != 1 {
		t.Fatalf("registry calls after rebind = %d, want 1", registry.calls)
	}
}

func TestSwitchToSameSlugTwiceIsNoOp(t *testing.T) {
	svc := newTestService(&stubRegistry{}, false)
	desc := domain.TenantDescriptor{Slug: "beta"}

	ctx, err := svc.SwitchTo(context.Background(), desc)
	if err != nil {
		t.Fatalf("first switch: %v", err)
	}
	first, _ := tenantctx.From(ctx)

	again, err := svc.SwitchTo(ctx, desc)
	if err != nil {
		t.Fatalf("second switch: %v", err)
	}
	second, _ := tenantctx.From(again)

	if first.Resources != second.Resources {
		t.Fatal("repeated switch produced a different resource set")
	}
	if again != ctx {
		t.Error("repeated switch should return the original context")
	}
}

func TestSwitchToDifferentSlugConflicts(t *testing.T) {
	svc := newTestService(&stubRegistry{}, false)

	ctx, err := svc.SwitchTo(context.Background(), domain.TenantDescriptor{Slug: "acme"})
	if err != nil {
		t.Fatalf("switch: %v", err)
	}

	_, err = svc.SwitchTo(ctx, domain.TenantDescriptor{Slug: "beta"})
	if !errors.Is(err, domain.ErrBindingConflict) {
		t.Fatalf("expected binding conflict, got %v", err)
	}
}

func TestSwitchByHostPropagatesRegistryErrors(t *testing.T) {
	registry := &stubRegistry{
		fetchFn: func(_ context.Context, tenantDomain string) (domain.TenantDescriptor, error) {
			return domain.TenantDescriptor{}, &domain.NotFoundError{Domain: tenantDomain}
		},
	}
	svc := newTestService(registry, false)

	_, err := svc.SwitchByHost(context.Background(), "ghost.example.com")
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Domain != "ghost.example.com" {
		t.Fatalf("not found domain = %q", notFound.Domain)
	}
}
