package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"streamcast/internal/config"
	apierrors "streamcast/internal/errors"
	"streamcast/internal/forecast"
	"streamcast/internal/infrastructure"
	customMiddleware "streamcast/internal/middleware"
	"streamcast/internal/normalizer"
	"streamcast/internal/services"
	handlers "streamcast/internal/transport/http"
)

// Build information, overridden with -ldflags "-X streamcast/internal/app.BuildTime=..."
var (
	Version   = config.AppVersion
	BuildTime = ""
)

// Application holds every wired component of the HTTP service
type Application struct {
	Config          *config.Config
	Paths           *config.Paths
	Router          *chi.Mux
	Server          *http.Server
	Logger          *slog.Logger
	OTelProviders   *infrastructure.OTelProviders
	Metrics         *infrastructure.BusinessMetrics
	Runtime         *infrastructure.RuntimeMetrics
	Models          *forecast.ModelSet
	ErrorHandler    *apierrors.ErrorHandler
	ForecastService *services.ForecastService
	HealthService   *services.HealthService
}

// Option customizes application construction
type Option func(*Application)

// WithModels uses an already loaded model set instead of reading artifacts from disk
func WithModels(models *forecast.ModelSet) Option {
	return func(a *Application) { a.Models = models }
}

// NewApplication loads configuration from configPath (or the default
// locations), initializes logging and builds the application.
func NewApplication(ctx context.Context, configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(ctx, cfg, logger)
}

// New wires the application from a validated configuration. A model that
// cannot be loaded is returned as a *forecast.ModelLoadError.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", Version))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	a := &Application{
		Config:       cfg,
		Paths:        paths,
		Logger:       logger,
		ErrorHandler: apierrors.NewErrorHandler(logger, cfg.Telemetry.Environment == "development"),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.initializeTelemetry(); err != nil {
		return nil, err
	}
	if err := a.initializeServices(ctx); err != nil {
		return nil, err
	}

	a.setupRouter()
	a.createServer()
	return a, nil
}

func (a *Application) initializeTelemetry() error {
	providers, err := infrastructure.InitializeOTel(a.Config.Telemetry, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = providers

	a.Metrics, err = infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Runtime, err = infrastructure.NewRuntimeMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create runtime metrics: %w", err)
	}
	return nil
}

func (a *Application) initializeServices(ctx context.Context) error {
	if a.Models == nil {
		models, err := forecast.LoadModelSet(ctx,
			forecast.ModelPaths(a.Paths.ModelsDir, a.Config.Forecast.Models), a.Logger)
		if err != nil {
			return err
		}
		a.Models = models
	}

	forecaster, err := forecast.NewFromConfig(a.Config.Forecast, a.Models, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create forecaster: %w", err)
	}

	norm := normalizer.New(a.Config.Normalizer.PlaceholderTrackID, normalizer.WithLogger(a.Logger))

	a.ForecastService = services.NewForecastService(norm, forecaster, a.Logger,
		services.WithMetrics(a.Metrics),
		services.WithPaths(a.Paths))
	a.HealthService = services.NewHealthService(Version, BuildTime, a.Models, a.Paths, a.Runtime, a.Logger)
	return nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	if otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics); err != nil {
		a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
	} else {
		r.Use(otelMiddleware.Handler)
	}

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	if origins := a.Config.Security.AllowedOrigins; len(origins) > 0 {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: origins,
			ExposedHeaders: []string{customMiddleware.RequestIDHeader, "Content-Disposition"},
		}))
		a.Logger.Info("CORS enabled", slog.Any("allowed_origins", origins))
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.setupAPIRoutes(r)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger, a.ErrorHandler)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/version", healthHandler.Version)

		r.Group(func(r chi.Router) {
			if rl := a.Config.Security.RateLimit; rl.Enabled {
				r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.ErrorHandler).Handler)
			}
			r.Use(customMiddleware.MaxBodySize(a.Config.Server.MaxUploadBytes))
			r.Use(customMiddleware.Compress(5, "application/json", "text/csv"))

			forecastHandler := handlers.NewForecastHandler(a.ForecastService, a.Logger, a.ErrorHandler)
			r.Mount("/forecast", forecastHandler.Routes())
		})
	})
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start begins serving on the configured port. Listener failures after
// startup cancel ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln, cancel)
}

// Serve runs the server on an existing listener
func (a *Application) Serve(ctx context.Context, ln net.Listener, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("address", ln.Addr().String()),
		slog.String("version", Version),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if !a.HealthService.Ready(ctx) {
		a.Logger.WarnContext(ctx, "Application started but is not ready")
	}
	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", ln.Addr().String()))
	return nil
}

// Stop shuts the server down and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout())
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.Runtime != nil {
		if err := a.Runtime.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Error unregistering runtime metrics", slog.String("error", err.Error()))
		}
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.InfoContext(ctx, "Received shutdown signal")
	return a.Stop(ctx)
}

func (a *Application) shutdownTimeout() time.Duration {
	if t := a.Config.Server.ShutdownTimeout; t > 0 {
		return t
	}
	return 30 * time.Second
}
