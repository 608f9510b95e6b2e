// Package app wires configuration, storage, gateways and services into one
// value shared by the API server and the operator CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"template-storefront/internal/catalog"
	"template-storefront/internal/client"
	"template-storefront/internal/config"
	"template-storefront/internal/metrics"
	"template-storefront/internal/repository"
	"template-storefront/internal/server"
	"template-storefront/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *gorm.DB
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Products   repository.ProductRepository
	Categories repository.CategoryRepository
	Orders     repository.OrderRepository
	Webhooks   repository.WebhookEventRepository

	Authorizer  *service.Authorizer
	Fulfillment service.FulfillmentService
	Catalog     service.CatalogService
	Admin       service.AdminService
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := client.NewDBClient(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := client.AutoMigrate(db); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	notifier, err := client.NewNotifier(cfg.SMTP, logger)
	if err != nil {
		return nil, err
	}
	paypalClient := client.NewPaypalClient(&cfg.Paypal)

	a := &App{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Registry:   reg,
		Metrics:    m,
		Products:   repository.NewProductRepository(db),
		Categories: repository.NewCategoryRepository(db),
		Orders:     repository.NewOrderRepository(db),
		Webhooks:   repository.NewWebhookEventRepository(db),
		Authorizer: service.NewAuthorizer(cfg.Admin.Token),
	}

	fcfg := service.FulfillmentConfig{
		BaseURL:    cfg.BaseURL,
		Currency:   cfg.Paypal.Currency,
		ShopName:   cfg.SMTP.FromName,
		PendingTTL: cfg.Fulfillment.PendingTTL,
	}
	issuer := service.NewCredentialIssuer(a.Orders, cfg.Fulfillment.CredentialTTL, time.Now)

	a.Fulfillment = service.NewFulfillmentService(db, fcfg, paypalClient, notifier,
		a.Products, a.Orders, a.Webhooks, issuer, m, logger)
	a.Catalog = service.NewCatalogService(a.Products, a.Categories)
	a.Admin = service.NewAdminService(a.Products, a.Categories, a.Orders, issuer, notifier, fcfg, m, logger)

	if cfg.Catalog.SeedFile != "" {
		n, err := a.SeedCatalog(ctx, cfg.Catalog.SeedFile)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "catalog seeded", slog.String("file", cfg.Catalog.SeedFile), slog.Int("products", n))
	}

	return a, nil
}

func (a *App) Server() *server.Server {
	return server.NewServer(server.Services{
		Fulfillment: a.Fulfillment,
		Catalog:     a.Catalog,
		Admin:       a.Admin,
		Authorizer:  a.Authorizer,
	}, a.Metrics, a.Registry, a.Logger)
}

func (a *App) SeedCatalog(ctx context.Context, path string) (int, error) {
	f, err := catalog.LoadFile(path)
	if err != nil {
		return 0, err
	}
	n, err := catalog.Apply(ctx, a.Products, f)
	if err != nil {
		return 0, fmt.Errorf("seed catalog from %s: %w", path, err)
	}
	return n, nil
}

// RunSweeper fails abandoned PENDING orders every interval until ctx is done.
func (a *App) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := a.Fulfillment.SweepStalePending(ctx); err != nil && ctx.Err() == nil {
				a.Logger.ErrorContext(ctx, "sweep stale orders", slog.Any("error", err))
			}
		}
	}
}

func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
