package domain

import (
	"hash/crc32"
	"path/filepath"
)

const (
	// partitionCount is the number of numbered partitions in the shared
	// keyed store. Partition 0 stays reserved for the platform itself.
	partitionCount = 10

	logRetentionDays = 14
)

// ResourceRoots are the platform-level anchors every tenant locator is
// derived from.
type ResourceRoots struct {
	StorageRoot string
	LogRoot     string
	MainDomain  string
}

// RuntimeResourceSet is the full set of namespaced locators for one slug.
// It is a derived value, recomputed on every bind and never persisted;
// downstream components receive it by injection instead of reading
// ambient configuration.
type RuntimeResourceSet struct {
	Slug             string
	DatabasePath     string
	CachePrefix      string
	SessionCookie    string
	KeyedStorePrefix string
	PrivateRoot      string
	PublicRoot       string
	BaseURL          string
	PublicStorageURL string
	PartitionIndex   int
	LogPath          string
	LogRetentionDays int
}

// DeriveResources computes the resource set for slug. The derivation is
// deterministic: equal inputs always yield an identical set.
func DeriveResources(slug, customDomain string, roots ResourceRoots) RuntimeResourceSet {
	baseURL := "https://" + slug + "." + roots.MainDomain
	if customDomain != "" {
		baseURL = "https://" + customDomain
	}

	return RuntimeResourceSet{
		Slug:             slug,
		DatabasePath:     filepath.Join(roots.StorageRoot, "tenants", slug, "database", "database.sqlite"),
		CachePrefix:      "tenant_" + slug + "_cache_",
		SessionCookie:    "tenant_" + slug + "_session",
		KeyedStorePrefix: "tenant_" + slug + ":",
		PrivateRoot:      filepath.Join(roots.StorageRoot, "private", "tenants", slug),
		PublicRoot:       filepath.Join(roots.StorageRoot, "public", "tenants", slug),
		BaseURL:          baseURL,
		PublicStorageURL: baseURL + "/storage/tenants/" + slug,
		PartitionIndex:   PartitionIndex(slug),
		LogPath:          filepath.Join(roots.LogRoot, "tenants", slug, slug+".log"),
		LogRetentionDays: logRetentionDays,
	}
}

// PartitionIndex maps a slug onto one of the numbered partitions [1,10] of
// the shared keyed store. Collisions between tenants are expected: with ten
// partitions the isolation is probabilistic, which is acceptable for cache
// and session data only. Strictly separated data lives in the per-tenant
// database file instead.
func PartitionIndex(slug string) int {
	return int(crc32.ChecksumIEEE([]byte(slug))%partitionCount) + 1
}
