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

	"github.com/dukerupert/dokan/internal"
	"github.com/dukerupert/dokan/internal/backend"
	"github.com/dukerupert/dokan/internal/cart"
	"github.com/dukerupert/dokan/internal/cookie"
	"github.com/dukerupert/dokan/internal/events"
	"github.com/dukerupert/dokan/internal/handler"
	"github.com/dukerupert/dokan/internal/handler/storefront"
	"github.com/dukerupert/dokan/internal/jobs"
	"github.com/dukerupert/dokan/internal/middleware"
	"github.com/dukerupert/dokan/internal/pricing"
	"github.com/dukerupert/dokan/internal/router"
	"github.com/dukerupert/dokan/internal/routes"
	"github.com/dukerupert/dokan/internal/service"
	"github.com/dukerupert/dokan/internal/session"
	"github.com/dukerupert/dokan/internal/telemetry"
	"github.com/dukerupert/dokan/internal/worker"
	"github.com/dukerupert/dokan/web"
)

const shutdownTimeout = 15 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return err
	}
	defer flushSentry()
	defer telemetry.RecoverWithSentry()
	telemetry.SetBusiness(cfg.Backend.BusinessID)

	// Initialize Prometheus metrics
	telemetry.InitBusinessMetrics("dokan")
	metrics := middleware.NewMetrics("dokan", nil)

	// ==========================================================================
	// Session storage
	// ==========================================================================

	var (
		store  session.Store
		purger jobs.SessionPurger
	)
	if cfg.DatabaseUrl != "" {
		logger.Info("Connecting to database...")
		db, err := session.Open(ctx, cfg.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		logger.Info("Running database migrations...")
		if err := internal.RunMigrations(ctx, db, logger); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Database migrations completed successfully")

		pg := session.NewPostgresStore(db, cfg.Session.TTL)
		store, purger = pg, pg
	} else {
		logger.Warn("DATABASE_URL not set, sessions are kept in memory")
		mem := session.NewMemoryStore(cfg.Session.TTL)
		store, purger = mem, mem
	}

	// ==========================================================================
	// Upstream backend and events
	// ==========================================================================

	backendClient, err := backend.New(backend.Config{
		BaseURL:    cfg.Backend.URL,
		OwnerID:    cfg.Backend.OwnerID,
		BusinessID: cfg.Backend.BusinessID,
		Timeout:    cfg.Backend.Timeout,
		CacheTTL:   cfg.Backend.CacheTTL,
		CacheSize:  cfg.Backend.CacheSize,
		HTTPClient: &http.Client{
			Timeout:   cfg.Backend.Timeout,
			Transport: &telemetry.HTTPTransport{Transport: http.DefaultTransport},
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize backend client: %w", err)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.NatsURL != "" {
		natsPublisher, err := events.Connect(events.NATSConfig{
			URL:     cfg.Events.NatsURL,
			Subject: cfg.Events.OrderSubject,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		publisher = natsPublisher
		logger.Info("Publishing order events", "subject", cfg.Events.OrderSubject)
	}
	defer publisher.Close()

	// ==========================================================================
	// Services
	// ==========================================================================

	resolver := pricing.NewResolver(logger)
	carts := cart.NewManager(store)

	productService := service.NewProductService(backendClient, resolver, logger)
	cartService := service.NewCartService(carts, backendClient, resolver, cfg.Checkout.PreorderMaxQty, logger)
	checkoutService := service.NewCheckoutService(carts, store, backendClient, publisher, service.CheckoutConfig{
		GatewayMethods: cfg.Checkout.GatewayMethods,
	}, logger)

	// Background session cleanup
	w := worker.NewWorker(purger, worker.Config{PollInterval: cfg.Session.SweepEvery}, logger)
	go func() {
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("worker stopped", "error", err)
		}
	}()

	// ==========================================================================
	// Handlers
	// ==========================================================================

	logger.Info("Loading templates...")
	renderer, err := handler.NewRenderer(web.Templates(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	logger.Info("Templates loaded successfully")

	cookies := cookie.NewConfig("", cfg.Session.CookieSecure)
	site := storefront.NewSite(cfg.StoreName, renderer, cookies)

	mutationLimiter := middleware.NewRateLimiter(middleware.StrictRateLimiterConfig(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	defer mutationLimiter.Stop()

	storefrontDeps := routes.StorefrontDeps{
		ProductHandler:     storefront.NewProductHandler(site, productService),
		CartHandler:        storefront.NewCartHandler(site, cartService),
		CheckoutHandler:    storefront.NewCheckoutHandler(site, checkoutService),
		OrderStatusHandler: storefront.NewOrderStatusHandler(site, checkoutService),
		Static:             web.Static(),
		MutationLimit:      mutationLimiter.Middleware,
	}

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" {
		securityConfig.HSTSMaxAge = 0
	}

	r := router.New(
		router.Recovery(logger),
		telemetry.SentryMiddleware(),
		middleware.RequestID,
		middleware.WithClientIP(),
		middleware.Session(middleware.DefaultSessionConfig(cookies, cfg.Session.TTL)),
		telemetry.SentryContextMiddleware(cfg.Backend.BusinessID, middleware.GetSessionID),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
		metrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
		middleware.MaxBodySize(cfg.HTTP.MaxFormBytes),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
		middleware.CSRF(middleware.DefaultCSRFConfig(cookies)),
	)

	routes.RegisterStorefrontRoutes(r, storefrontDeps)
	routes.RegisterSystemRoutes(r, routes.SystemDeps{
		HealthHandler:  handler.Health,
		MetricsHandler: metrics.Handler(),
	})

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting storefront server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
