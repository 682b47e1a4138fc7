package domain

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrInvalidSlug     = errors.New("invalid tenant slug")
	ErrNotFound        = errors.New("not found")
	ErrUserExists      = errors.New("user already exists")
	ErrBindingConflict = errors.New("context already bound to a different tenant")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// TenantDescriptor is the registry's answer for a domain: who owns the
// tenant and which slug every namespaced resource is derived from.
// Immutable once constructed from a registry response.
type TenantDescriptor struct {
	Slug         string
	UserName     string
	UserEmail    string
	CustomDomain string
}

func (d TenantDescriptor) Validate() error {
	return ValidateSlug(d.Slug)
}

func ValidateSlug(slug string) error {
	if slug == "" || !slugPattern.MatchString(slug) {
		return ErrInvalidSlug
	}
	return nil
}

// NotFoundError reports that the registry knows no tenant for a domain.
// Callers should answer with a "no such site" response.
type NotFoundError struct {
	Domain string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no tenant registered for domain %q", e.Domain)
}

// FetchError reports that the registry was unreachable or returned an
// unexpected shape. Body carries the raw response for diagnostics.
// Callers may treat it as transient and retry.
type FetchError struct {
	Domain string
	Body   string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch tenant for domain %q failed", e.Domain)
}
