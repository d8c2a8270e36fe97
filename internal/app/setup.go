// Package app contains the application setup for the inventory service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/inventory/internal/config"
	"github.com/abgdnv/inventory/internal/service"
	"github.com/abgdnv/inventory/internal/store"
	"github.com/abgdnv/inventory/internal/transport/rest"
	"github.com/abgdnv/inventory/pkg/bootstrap"
	"github.com/abgdnv/inventory/pkg/messaging"
	natsclient "github.com/abgdnv/inventory/pkg/nats"
	"github.com/abgdnv/inventory/pkg/server"
	"github.com/go-chi/chi/v5"
)

const serviceName = "inventory"

type Dependencies struct {
	ProductService service.ProductService
	Logger         *slog.Logger
}

// SetupDependencies builds the product service on top of the given store.
// A nil publisher disables product events.
func SetupDependencies(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger, opts ...service.Option) *Dependencies {
	return &Dependencies{
		ProductService: service.NewService(repo, publisher, logger, opts...),
		Logger:         logger,
	}
}

// SetupStore creates the product store selected by storage.driver. The returned cleanup
// function releases any connections and is never nil.
func SetupStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.ProductStore, func(), error) {
	if !cfg.Storage.UsesPostgres() {
		logger.Info("Using in-memory product store")
		return store.NewInMemoryStore(), func() {}, nil
	}

	if cfg.Storage.AutoMigrate {
		if err := store.Migrate(cfg.Database.URL); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("Database migrations applied")
	}
	dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	logger.Info("Successfully connected to the database!")
	return store.NewPgStore(dbPool), dbPool.Close, nil
}

// SetupPublisher connects to NATS when configured and returns a circuit-breaking JetStream
// publisher. Without NATS it returns a publisher that drops events.
func SetupPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.NATS.Enabled() {
		logger.Info("NATS is not configured, product events are disabled")
		return messaging.NopPublisher{}, func() {}, nil
	}

	nc, err := natsclient.NewClient(cfg.NATS.Url, cfg.NATS.Timeout, logger)
	if err != nil {
		return nil, nil, err
	}
	js, err := natsclient.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	if err := natsclient.EnsureStream(ctx, js, cfg.NATS.Stream, messaging.ProductSubjects); err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("Connected to NATS", "url", nc.ConnectedUrlRedacted(), "stream", cfg.NATS.Stream)

	publisher := messaging.NewBreakerPublisher(natsclient.NewNatsPublisher(js), messaging.BreakerSettings{
		Name:                "nats-publisher",
		ConsecutiveFailures: cfg.CircuitBreaker.ConsecutiveFailures,
		ErrorRatePercent:    cfg.CircuitBreaker.ErrorRatePercent,
		OpenTimeout:         cfg.CircuitBreaker.OpenTimeout,
		OnStateChange: func(name string, from, to string) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from, "to", to)
		},
	})
	cleanup := func() {
		if err := nc.Drain(); err != nil {
			logger.Warn("Failed to drain NATS connection", "error", err)
		}
	}
	return publisher, cleanup, nil
}

// SetupHttpHandler initializes the router and routes for the inventory service.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the inventory service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	productHandler := rest.NewHandler(deps.ProductService, deps.Logger)
	productHandler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the inventory service.
// Requests are traced when telemetry is configured.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	handler := SetupHttpHandler(deps)
	if cfg.Telemetry.Enabled() {
		handler = server.WithTracing(handler, serviceName)
	}

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, handler, deps.Logger)
}
