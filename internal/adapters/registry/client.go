// Package registry talks to the accounting system of record that maps
// request domains to tenant identity.
package registry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/trinavo/tenancy/internal/core/domain"
	"github.com/trinavo/tenancy/internal/core/ports"

	"github.com/go-resty/resty/v2"
	santhosh "github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

const (
	infoPath       = "/api/apps/info"
	cacheKeyPrefix = "tenant_info_"

	DefaultTimeout  = 30 * time.Second
	DefaultCacheTTL = 60 * time.Second
)

// successShape pins the body shape we are willing to trust before a
// descriptor is constructed from it. Anything that fails here is a fetch
// failure, not a not-found.
var successShape = santhosh.MustCompileString("registry-info.json", `{
	"type": "object",
	"required": ["success", "data"],
	"properties": {
		"success": {"const": true},
		"data": {
			"type": "object",
			"required": ["userApp"],
			"properties": {
				"userApp": {
					"type": "object",
					"required": ["slug"],
					"properties": {
						"slug": {"type": "string", "minLength": 1},
						"userName": {"type": "string"},
						"userEmail": {"type": "string"},
						"customDomain": {"type": "string"}
					}
				}
			}
		}
	}
}`)

type Config struct {
	BaseURL      string
	Timeout      time.Duration
	VerifyTLS    bool
	CacheEnabled bool
	CacheTTL     time.Duration
}

// Client fetches tenant descriptors over HTTP and owns the read/write path
// to the shared descriptor cache.
type Client struct {
	http   *resty.Client
	cache  ports.DescriptorCache
	cfg    Config
	logger *zap.Logger
}

var _ ports.TenantRegistry = (*Client)(nil)

func NewClient(cfg Config, cache ports.DescriptorCache, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if !cfg.VerifyTLS {
		// The registry lives on a controlled network; verification is
		// off unless explicitly enabled.
		httpClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	return &Client{http: httpClient, cache: cache, cfg: cfg, logger: logger}
}

type infoResponse struct {
	Success bool `json:"success"`
	Data    struct {
		UserApp struct {
			Slug         string `json:"slug"`
			UserName     string `json:"userName"`
			UserEmail    string `json:"userEmail"`
			CustomDomain string `json:"customDomain"`
		} `json:"userApp"`
	} `json:"data"`
}

// Fetch resolves tenantDomain to a descriptor, serving from cache inside
// the TTL window when caching is enabled. HTTP 422 and success:false bodies
// classify as *domain.NotFoundError; transport errors, other non-2xx
// statuses, and malformed bodies classify as *domain.FetchError carrying
// the raw body.
func (c *Client) Fetch(ctx context.Context, tenantDomain string) (domain.TenantDescriptor, error) {
	if c.cfg.CacheEnabled && c.cache != nil {
		if desc, err := c.cache.Get(ctx, cacheKeyPrefix+tenantDomain); err == nil {
			return desc, nil
		}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("domain", tenantDomain).
		Get(infoPath)
	if err != nil {
		return domain.TenantDescriptor{}, &domain.FetchError{Domain: tenantDomain, Body: err.Error()}
	}

	body := resp.Body()

	if resp.StatusCode() == http.StatusUnprocessableEntity {
		return domain.TenantDescriptor{}, &domain.NotFoundError{Domain: tenantDomain}
	}

	var doc any
	parseErr := json.Unmarshal(body, &doc)

	if parseErr == nil {
		if m, ok := doc.(map[string]any); ok {
			if success, ok := m["success"].(bool); ok && !success {
				return domain.TenantDescriptor{}, &domain.NotFoundError{Domain: tenantDomain}
			}
		}
	}

	if !resp.IsSuccess() || parseErr != nil {
		c.logger.Error("failed to get tenant information",
			zap.String("domain", tenantDomain),
			zap.Int("status", resp.StatusCode()),
			zap.ByteString("body", body),
		)
		return domain.TenantDescriptor{}, &domain.FetchError{Domain: tenantDomain, Body: string(body)}
	}

	if err := successShape.Validate(doc); err != nil {
		c.logger.Error("unexpected registry response shape",
			zap.String("domain", tenantDomain),
			zap.Error(err),
		)
		return domain.TenantDescriptor{}, &domain.FetchError{Domain: tenantDomain, Body: string(body)}
	}

	var parsed infoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return domain.TenantDescriptor{}, &domain.FetchError{Domain: tenantDomain, Body: string(body)}
	}

	desc := domain.TenantDescriptor{
		Slug:         parsed.Data.UserApp.Slug,
		UserName:     parsed.Data.UserApp.UserName,
		UserEmail:    parsed.Data.UserApp.UserEmail,
		CustomDomain: parsed.Data.UserApp.CustomDomain,
	}
	if err := desc.Validate(); err != nil {
		return domain.TenantDescriptor{}, &domain.FetchError{Domain: tenantDomain, Body: fmt.Sprintf("invalid slug %q", desc.Slug)}
	}

	if c.cfg.CacheEnabled && c.cache != nil {
		if err := c.cache.Put(ctx, cacheKeyPrefix+tenantDomain, desc, c.cfg.CacheTTL); err != nil {
			c.logger.Warn("cache tenant descriptor", zap.String("domain", tenantDomain), zap.Error(err))
		}
	}
	return desc, nil
}
