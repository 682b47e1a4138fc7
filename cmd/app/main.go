package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trinavo/tenancy/internal/app"
	"github.com/trinavo/tenancy/internal/config"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	cmd := &cli.Command{
		Name:  "tenancy",
		Usage: "Multi-tenant request isolation service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Sources: cli.EnvVars("TENANCY_ADDR"),
				Usage:   "HTTP listen address",
			},
			&cli.StringFlag{
				Name:    "main-domain",
				Sources: cli.EnvVars("TENANCY_MAIN_DOMAIN"),
				Usage:   "Platform main domain (never resolves to a tenant)",
			},
			&cli.StringFlag{
				Name:    "accounting-url",
				Sources: cli.EnvVars("TENANCY_ACCOUNTING_URL"),
				Usage:   "Base URL of the tenant registry",
			},
			&cli.StringFlag{
				Name:    "storage-root",
				Sources: cli.EnvVars("TENANCY_STORAGE_ROOT"),
				Usage:   "Root directory for tenant storage trees",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: runServe,
			},
			{
				Name:  "provision",
				Usage: "Provision a tenant from the console",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "slug", Required: true, Usage: "Tenant slug"},
					&cli.StringFlag{Name: "user-name", Usage: "Administrator display name"},
					&cli.StringFlag{Name: "email", Required: true, Usage: "Administrator email"},
				},
				Action: runProvision,
			},
			{
				Name:  "resolve",
				Usage: "Resolve a domain against the registry and print the descriptor",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "domain", Required: true, Usage: "Domain to resolve"},
				},
				Action: runResolve,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if v := c.String("addr"); v != "" {
		cfg.Addr = v
	}
	if v := c.String("main-domain"); v != "" {
		cfg.MainDomain = v
	}
	if v := c.String("accounting-url"); v != "" {
		cfg.AccountingURL = v
	}
	if v := c.String("storage-root"); v != "" {
		cfg.StorageRoot = v
	}
	return cfg, nil
}

func runServe(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	server, closer, err := app.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer func() {
		if closeErr := closer.Close(); closeErr != nil {
			logger.Warn("close resources", zap.Error(closeErr))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		return shutdown(server)
	case sig := <-sigCh:
		logger.Info("received signal", zap.String("signal", sig.String()))
		return shutdown(server)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func shutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runProvision(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	components, closer, err := app.NewComponents(cfg, true, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	slug := c.String("slug")
	if err := components.Provisioner.Initialize(ctx, slug, c.String("user-name"), c.String("email")); err != nil {
		return fmt.Errorf("provision tenant %s: %w", slug, err)
	}
	logger.Info("tenant provisioned", zap.String("slug", slug))
	return nil
}

func runResolve(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	components, closer, err := app.NewComponents(cfg, true, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	desc, err := components.Registry.Fetch(ctx, c.String("domain"))
	if err != nil {
		return err
	}
	fmt.Printf("slug=%s userName=%s userEmail=%s customDomain=%s\n",
		desc.Slug, desc.UserName, desc.UserEmail, desc.CustomDomain)
	return nil
}
