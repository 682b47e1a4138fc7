package app

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/trinavo/tenancy/internal/adapters/cache"
	"github.com/trinavo/tenancy/internal/adapters/httpapi"
	"github.com/trinavo/tenancy/internal/adapters/notify"
	"github.com/trinavo/tenancy/internal/adapters/registry"
	sqliteadapter "github.com/trinavo/tenancy/internal/adapters/sqlite"
	"github.com/trinavo/tenancy/internal/adapters/tenantfs"
	"github.com/trinavo/tenancy/internal/adapters/tenantlog"
	"github.com/trinavo/tenancy/internal/config"
	"github.com/trinavo/tenancy/internal/core/domain"
	"github.com/trinavo/tenancy/internal/core/ports"
	"github.com/trinavo/tenancy/internal/core/usecase"
	"github.com/trinavo/tenancy/migrations"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Components is the wired object graph. Console commands use the usecase
// handles directly; serve wraps Handler in an HTTP server.
type Components struct {
	Tenants     *usecase.TenantService
	Provisioner *usecase.Provisioner
	Registry    ports.TenantRegistry
	Handler     *httpapi.Handler
}

type resourceCloser struct {
	closers []io.Closer
}

func (r *resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewLogger builds the process logger at the configured level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// NewComponents wires the object graph. console toggles the domain
// resolver into batch mode, where every execution counts as main domain.
func NewComponents(cfg config.Config, console bool, logger *zap.Logger) (*Components, io.Closer, error) {
	lvl, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}

	closer := &resourceCloser{}

	var descriptorCache ports.DescriptorCache
	var sessions ports.KeyValueProvider
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		closer.closers = append(closer.closers, client)
		descriptorCache = cache.NewRedis(client)

		if cfg.SessionDriver == "redis" {
			provider := cache.NewPartitionedProvider(cfg.RedisAddr)
			closer.closers = append(closer.closers, provider)
			sessions = provider
		}
	} else {
		descriptorCache = cache.NewMemory()
	}

	registryClient := registry.NewClient(registry.Config{
		BaseURL:      cfg.AccountingURL,
		Timeout:      cfg.RegistryTimeout,
		VerifyTLS:    cfg.RegistryTLSVerify,
		CacheEnabled: cfg.CacheEnabled,
		CacheTTL:     cfg.CacheTTL,
	}, descriptorCache, logger)

	resolver := usecase.NewDomainResolver(cfg.MainDomain, console)
	switcher := usecase.NewResourceSwitcher(domain.ResourceRoots{
		StorageRoot: cfg.StorageRoot,
		LogRoot:     cfg.LogRoot,
		MainDomain:  cfg.MainDomain,
	})
	tenants := usecase.NewTenantService(registryClient, resolver, switcher, logger)

	channels := tenantlog.NewRegistry(lvl)
	closer.closers = append(closer.closers, channels)

	dbManager := sqliteadapter.NewManager()
	closer.closers = append(closer.closers, dbManager)

	var notifier ports.WelcomeNotifier
	if cfg.WelcomeWebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.WelcomeWebhookURL, cfg.WelcomeWebhookSecret, 0)
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	provisioner := usecase.NewProvisioner(
		switcher,
		tenantfs.NewLayout(),
		dbManager,
		migrations.NewRunner(),
		notifier,
		channels,
		logger,
	)

	handler := httpapi.NewHandler(tenants, provisioner, sessions, channels, logger)

	return &Components{
		Tenants:     tenants,
		Provisioner: provisioner,
		Registry:    registryClient,
		Handler:     handler,
	}, closer, nil
}

// NewServer wires the graph for request serving.
func NewServer(cfg config.Config, logger *zap.Logger) (*http.Server, io.Closer, error) {
	components, closer, err := NewComponents(cfg, false, logger)
	if err != nil {
		return nil, nil, err
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           components.Handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server, closer, nil
}
