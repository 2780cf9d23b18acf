package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"rfm-segmentation/internal/config"
	"rfm-segmentation/internal/middleware"
	"rfm-segmentation/internal/observability"
	"rfm-segmentation/internal/server"
	"rfm-segmentation/internal/services"
	"rfm-segmentation/internal/ui/templates"
)

const (
	renderTimeout   = 10 * time.Second
	pipelineTimeout = 5 * time.Minute
	cacheMaxAge     = "public, max-age=300"
)

// dashboardHandler renders the page shell around the latest published run.
func dashboardHandler(analytics *services.Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(analytics.Info(), analytics.Ready()).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func newHandler(cfg *config.Config, analytics *services.Analytics, logger *slog.Logger) http.Handler {
	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics),
	}

	srv := server.NewServer(analytics, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.RunContext(analytics),
		middleware.Instrument(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middlewareChain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	observability.InitMetrics()

	logger.Info("starting application",
		"version", "1.0.0",
		"input", cfg.Pipeline.InputPath,
		"sql_source", cfg.Pipeline.SourceDSN != "",
		"clusters", cfg.Pipeline.ClusterCount,
		"seed", cfg.Pipeline.Seed,
	)

	analytics := services.NewAnalytics(cfg.Pipeline, logger)
	ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
	defer cancel()

	start := time.Now()
	if _, err := analytics.Refresh(ctx); err != nil {
		logger.Error("segmentation failed", "error", err)
		os.Exit(1)
	}
	logger.Info("segmentation loaded", "duration", time.Since(start))

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down segmentation service", "stats", analytics.Stats())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(context.Background()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
