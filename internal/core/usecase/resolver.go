package usecase

import (
	"net"
	"strings"
)

// DomainResolver decides whether an execution context belongs to the
// platform's main domain. The check runs before any tenant lookup: the
// main domain never owns tenant data.
type DomainResolver struct {
	mainDomain string
	console    bool
}

// NewDomainResolver builds a resolver for mainDomain. In console mode
// (batch commands, cron) there is no request host, so every check counts
// as main domain.
func NewDomainResolver(mainDomain string, console bool) *DomainResolver {
	return &DomainResolver{mainDomain: strings.ToLower(mainDomain), console: console}
}

func (r *DomainResolver) IsMainDomain(host string) bool {
	if r.console || host == "" {
		return true
	}
	return CanonicalHost(host) == r.mainDomain
}

// CanonicalHost lowercases host and strips an optional port.
func CanonicalHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}
