package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/billing"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/pricing"
	"github.com/meridian-erp/meridian-erp/internal/production"
	"github.com/meridian-erp/meridian-erp/internal/sales/customers"
	"github.com/meridian-erp/meridian-erp/internal/sales/orders"
	"github.com/meridian-erp/meridian-erp/internal/sales/quotations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	clock, err := cfg.Clock()
	if err != nil {
		logger.Error("load timezone", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, price cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	tierRepo := pricing.NewTierRepository(pool)
	var quoteCache *pricing.QuoteCache
	if redisClient != nil {
		quoteCache = pricing.NewQuoteCache(redisClient, cfg.PriceCacheTTL)
	}

	productRepo := products.NewRepository(pool)
	productService := products.NewService(productRepo, quoteCache)

	customerRepo := customers.NewRepository(pool)

	// The pricing and customer services reference each other through
	// narrow ports. Tier resolution never touches the tier checker, so
	// pricing can take a checker-less customer service while the
	// handler-facing one validates tier assignments against pricing.
	tierResolver := customers.NewService(customerRepo, nil)
	pricingService := pricing.NewService(logger, tierRepo, productService, tierResolver, quoteCache)
	customerService := customers.NewService(customerRepo, pricingService)

	numberingService := numbering.NewService(numbering.NewRepository(pool))

	quotationRepo := quotations.NewRepository(pool)
	quotationService := quotations.NewService(logger, quotationRepo, numberingService, pricingService, clock)

	orderRepo := orders.NewRepository(pool)
	orderService := orders.NewService(logger, orderRepo, quotationService, clock)

	inventoryRepo := inventory.NewRepository(pool)

	productionRepo := production.NewRepository(pool)
	productionService := production.NewService(logger, productionRepo, orderService, inventoryRepo)

	billingRepo := billing.NewRepository(pool)
	billingService := billing.NewService(logger, billingRepo, orderService, clock, cfg.InvoiceDueDays)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		ProductHandler:    products.NewHandler(logger, productService),
		PricingHandler:    pricing.NewHandler(logger, pricingService),
		CustomerHandler:   customers.NewHandler(logger, customerService),
		QuotationHandler:  quotations.NewHandler(logger, quotationService),
		OrderHandler:      orders.NewHandler(logger, orderService),
		ProductionHandler: production.NewHandler(logger, productionService),
		BillingHandler:    billing.NewHandler(logger, billingService, clock),
		InventoryHandler:  inventory.NewHandler(logger, inventoryRepo),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
