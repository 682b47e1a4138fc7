package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/trinavo/tenancy/internal/core/domain"
	"github.com/trinavo/tenancy/internal/core/ports"

	"github.com/go-redis/redis/v8"
)

// Redis is the shared descriptor cache: every process trusts the same
// entry for the same TTL window. Descriptors live in the default partition
// (DB 0) since they are platform data, not tenant data.
type Redis struct {
	client *redis.Client
}

var _ ports.DescriptorCache = (*Redis)(nil)

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) (domain.TenantDescriptor, error) {
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return domain.TenantDescriptor{}, ports.ErrCacheMiss
		}
		return domain.TenantDescriptor{}, fmt.Errorf("cache get %q: %w", key, err)
	}

	var desc domain.TenantDescriptor
	if err := json.Unmarshal([]byte(raw), &desc); err != nil {
		return domain.TenantDescriptor{}, ports.ErrCacheMiss
	}
	return desc, nil
}

func (r *Redis) Put(ctx context.Context, key string, desc domain.TenantDescriptor, ttl time.Duration) error {
	raw, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
	}
	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache put %q: %w", key, err)
	}
	return nil
}

// PartitionedProvider hands out keyed-store clients bound to a tenant's
// partition index and key prefix, one shared client per numbered partition.
type PartitionedProvider struct {
	addr string

	mu      sync.Mutex
	clients map[int]*redis.Client
}

var _ ports.KeyValueProvider = (*PartitionedProvider)(nil)

func NewPartitionedProvider(addr string) *PartitionedProvider {
	return &PartitionedProvider{addr: addr, clients: map[int]*redis.Client{}}
}

func (p *PartitionedProvider) ForTenant(res domain.RuntimeResourceSet) (ports.KeyValue, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	client, ok := p.clients[res.PartitionIndex]
	if !ok {
		client = redis.NewClient(&redis.Options{Addr: p.addr, DB: res.PartitionIndex})
		p.clients[res.PartitionIndex] = client
	}
	return &partitionedKV{client: client, prefix: res.KeyedStorePrefix}, nil
}

func (p *PartitionedProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for idx, client := range p.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.clients, idx)
	}
	return firstErr
}

type partitionedKV struct {
	client *redis.Client
	prefix string
}

func (kv *partitionedKV) Get(ctx context.Context, key string) (string, error) {
	val, err := kv.client.Get(ctx, kv.prefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ports.ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

func (kv *partitionedKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return kv.client.Set(ctx, kv.prefix+key, value, ttl).Err()
}
