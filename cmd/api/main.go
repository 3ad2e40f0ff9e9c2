package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"steel-spark/internal/config"
	"steel-spark/internal/database"
	"steel-spark/internal/events"
	"steel-spark/internal/handler"
	"steel-spark/internal/identity"
	"steel-spark/internal/imagestore"
	"steel-spark/internal/metrics"
	"steel-spark/internal/repository"
	"steel-spark/internal/router"
	"steel-spark/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting steel-spark API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := repository.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		logger.Info().Msg("database schema ensured")
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	profileRepo := repository.NewProfileRepository(pool, logger)
	sessionRepo := repository.NewSessionRepository(pool, logger)

	m := metrics.New(prometheus.DefaultRegisterer)

	publisher := newPublisher(cfg.Events, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	images := newImageStore(ctx, cfg, logger)

	// Initialize stores
	catalog := service.NewCatalogService(productRepo, m, cfg.Catalog.SeedDemo, logger)
	if err := catalog.Load(ctx); err != nil {
		return fmt.Errorf("failed to load catalogue: %w", err)
	}
	carts := service.NewCartService(cartRepo, catalog, m, logger)
	orders := service.NewOrderService(orderRepo, cartRepo, carts, catalog, publisher, m, logger)
	if err := orders.Load(ctx); err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}
	facade := identity.NewFacade(profileRepo, sessionRepo, cfg.Auth, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Auth:     handler.NewAuthHandler(facade, logger),
		Products: handler.NewProductHandler(catalog, images, cfg.Images.MaxBytes, logger),
		Carts:    handler.NewCartHandler(carts, logger),
		Orders:   handler.NewOrderHandler(orders, logger),
	}, facade, router.Options{
		Metrics:      m,
		Gatherer:     prometheus.DefaultGatherer,
		ImageDir:     cfg.Images.Dir,
		ImageBaseURL: cfg.Images.BaseURL,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newPublisher connects to RabbitMQ when events are enabled. A broker that
// cannot be reached degrades to a no-op publisher.
func newPublisher(cfg config.EventsConfig, logger zerolog.Logger) events.Publisher {
	if !cfg.Enabled {
		logger.Info().Msg("order events disabled")
		return events.NopPublisher{}
	}

	publisher, err := events.NewAMQPPublisher(cfg.URL, cfg.Exchange, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to connect to RabbitMQ, order events disabled")
		return events.NopPublisher{}
	}
	return publisher
}

// newImageStore builds the S3-with-local-fallback image store.
func newImageStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) imagestore.Store {
	fileStore := imagestore.NewFileStore(cfg.Images.Dir, cfg.Images.BaseURL, logger)

	var s3Store imagestore.Store
	if cfg.S3.Enabled {
		store, err := imagestore.NewS3Store(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, cfg.S3.PublicBaseURL, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 image store, falling back to local file system only")
		} else {
			s3Store = store
		}
	} else {
		logger.Info().Msg("using local file system for product images (S3 disabled)")
	}

	return imagestore.NewFallbackStore(s3Store, fileStore, cfg.S3.Enabled, logger)
}
