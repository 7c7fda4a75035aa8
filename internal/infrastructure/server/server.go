package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/cardspace/internal/api/http"
	"github.com/GriffinCanCode/cardspace/internal/api/middleware"
	"github.com/GriffinCanCode/cardspace/internal/api/ws"
	"github.com/GriffinCanCode/cardspace/internal/domain/card"
	"github.com/GriffinCanCode/cardspace/internal/domain/catalog"
	"github.com/GriffinCanCode/cardspace/internal/domain/layout"
	"github.com/GriffinCanCode/cardspace/internal/domain/workspace"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/config"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/logging"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/storage"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/tracing"
)

const shutdownTimeout = 15 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	hub     *workspace.Hub
	records storage.RecordStore
	catalog *catalog.Catalog
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
}

// NewServer creates a new server instance. A nil logger is built from cfg.
func NewServer(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		l, err := logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
		})
		if err != nil {
			return nil, err
		}
		logger = l
	}

	logger.Info("Initializing cardspace server",
		zap.String("addr", cfg.Addr()),
		zap.String("storage", cfg.Storage.Driver),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()

	cat := catalog.New()
	if cfg.Workspace.CatalogFile != "" {
		if err := cat.LoadFile(cfg.Workspace.CatalogFile); err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		cat.OnReload(metrics.IncCatalogReloads)
		logger.Info("Catalog overrides loaded", zap.String("path", cfg.Workspace.CatalogFile))
	}

	records, err := storage.Open(ctx, cfg.StorageOptions(), logger.Component("storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	logger.Info("Layout storage ready", zap.String("backend", records.Name()))

	var providers *card.Registry
	if cfg.Providers.WebhookURL != "" {
		providers = card.NewRegistry()
		providers.SetFallback(card.NewWebhookProvider(cfg.Providers.WebhookURL, cfg.Providers.WebhookTimeout))
		logger.Info("Card content webhook enabled", zap.String("url", cfg.Providers.WebhookURL))
	}

	hub := workspace.NewHub(workspace.Options{
		Catalog:       cat,
		Records:       records,
		Providers:     providers,
		Metrics:       metrics,
		Logger:        logger.Component("workspace"),
		Debounce:      cfg.Workspace.SaveDebounce,
		DefaultBounds: cfg.DefaultBounds(),
		Transitions:   layout.TransitionOptions{ReducedMotion: cfg.Workspace.ReducedMotion},
	})

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	tracer := tracing.New("cardspace", logger.Component("tracing"))
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(hub, metrics, logger.Component("http"))
	wsHandler := ws.NewHandler(hub, metrics, logger.Component("ws"))
	registerRoutes(router, handlers, wsHandler, metrics)

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		hub:     hub,
		records: records,
		catalog: cat,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		tracer:  tracer,
	}, nil
}

// Router exposes the gin engine, mainly for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Hub returns the workspace hub
func (s *Server) Hub() *workspace.Hub {
	return s.hub
}

// Run serves HTTP until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.startBackground(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = s.Close(context.Background())
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	return s.Close(shutdownCtx)
}

// startBackground launches the catalog watcher and the change notice subscription
func (s *Server) startBackground(ctx context.Context) {
	if path := s.config.Workspace.CatalogFile; path != "" {
		if err := s.catalog.Watch(ctx, path, s.logger.Component("catalog")); err != nil {
			s.logger.Warn("Catalog hot reload disabled", zap.Error(err))
		}
	}

	go func() {
		if err := s.hub.Watch(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("Change notice subscription ended", zap.Error(err))
		}
	}()
}

// Close flushes every open workspace and releases the storage backend
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.hub.CloseAll(ctx); err != nil {
		s.logger.Error("Failed to flush workspaces", zap.Error(err))
		errs = append(errs, err)
	}
	if err := storage.Close(s.records); err != nil {
		s.logger.Error("Failed to close storage", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
	}

	s.tracer.Close()

	// Sync logger before exit
	s.logger.Close()

	return errors.Join(errs...)
}
