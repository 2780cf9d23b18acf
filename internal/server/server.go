package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rfm-segmentation/internal/handlers"
	"rfm-segmentation/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// REST API endpoints
	s.mux.HandleFunc("GET /api/run", s.apiHandlers.HandleRun)
	s.mux.HandleFunc("GET /api/segments", s.apiHandlers.HandleSegments)
	s.mux.HandleFunc("GET /api/customers", s.apiHandlers.HandleCustomers)
	s.mux.HandleFunc("GET /api/customers/{id}", s.apiHandlers.HandleCustomer)
	s.mux.HandleFunc("GET /api/clusters", s.apiHandlers.HandleClusters)
	s.mux.HandleFunc("GET /api/elbow", s.apiHandlers.HandleElbow)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/segments", s.sseHandlers.HandleSegments)
	s.mux.HandleFunc("GET /sse/clusters", s.sseHandlers.HandleClusters)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
