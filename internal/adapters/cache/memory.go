package cache

import (
	"context"
	"sync"
	"time"

	"github.com/trinavo/tenancy/internal/core/domain"
	"github.com/trinavo/tenancy/internal/core/ports"
)

type memoryEntry struct {
	desc      domain.TenantDescriptor
	expiresAt time.Time
}

// Memory is an in-process descriptor cache for single-node deployments and
// tests. Multi-process deployments use the redis cache so every worker
// shares one TTL window.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ ports.DescriptorCache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{entries: map[string]memoryEntry{}, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (domain.TenantDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return domain.TenantDescriptor{}, ports.ErrCacheMiss
	}
	if m.now().After(entry.expiresAt) {
		delete(m.entries, key)
		return domain.TenantDescriptor{}, ports.ErrCacheMiss
	}
	return entry.desc, nil
}

func (m *Memory) Put(_ context.Context, key string, desc domain.TenantDescriptor, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{desc: desc, expiresAt: m.now().Add(ttl)}
	return nil
}
