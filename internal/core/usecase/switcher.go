package usecase

import "github.com/trinavo/tenancy/internal/core/domain"

// ResourceSwitcher derives the runtime resource set for a slug. It is a
// pure computation over the configured roots; applying the set (opening
// the database, the log channel, the keyed-store partition) is the job of
// the components that consume it.
type ResourceSwitcher struct {
	roots domain.ResourceRoots
}

func NewResourceSwitcher(roots domain.ResourceRoots) *ResourceSwitcher {
	return &ResourceSwitcher{roots: roots}
}

func (s *ResourceSwitcher) Switch(slug, customDomain string) (domain.RuntimeResourceSet, error) {
	if err := domain.ValidateSlug(slug); err != nil {
		return domain.RuntimeResourceSet{}, err
	}
	return domain.DeriveResources(slug, customDomain, s.roots), nil
}

func (s *ResourceSwitcher) Roots() domain.ResourceRoots {
	return s.roots
}
