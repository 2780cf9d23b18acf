package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"rfm-segmentation/internal/errors"
	"rfm-segmentation/internal/models"
	"rfm-segmentation/internal/observability"
	"rfm-segmentation/internal/services"
)

const (
	defaultCustomerLimit = 100
	maxCustomerLimit     = 1000
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

// ready writes a 503 and returns false until the first run has finished.
func (h *APIHandlers) ready(w http.ResponseWriter, r *http.Request) bool {
	if h.analytics.Ready() {
		return true
	}
	errors.WriteError(w, h.logger, errors.ServiceUnavailable("Segmentation has not completed yet"), observability.GetRequestID(r.Context()))
	return false
}

func (h *APIHandlers) HandleSegments(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.Segments(), cacheHeaders)
}

func (h *APIHandlers) HandleCustomers(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	requestID := observability.GetRequestID(r.Context())

	segment := models.Segment(r.URL.Query().Get("segment"))
	if segment != "" && !segment.Valid() {
		errors.WriteError(w, h.logger, errors.BadRequest("Unknown segment: "+string(segment)), requestID)
		return
	}

	limit := defaultCustomerLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errors.WriteError(w, h.logger, errors.BadRequest("limit must be a positive integer"), requestID)
			return
		}
		limit = min(n, maxCustomerLimit)
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.Customers(segment, limit), cacheHeaders)
}

func (h *APIHandlers) HandleCustomer(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	id := r.PathValue("id")
	customer, ok := h.analytics.Customer(id)
	if !ok {
		errors.WriteError(w, h.logger, errors.NotFound("Customer not found: "+id), observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, customer, cacheHeaders)
}

func (h *APIHandlers) HandleClusters(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.Clusters(), cacheHeaders)
}

func (h *APIHandlers) HandleElbow(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.Elbow(), cacheHeaders)
}

func (h *APIHandlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}

	errors.WriteSuccess(w, h.analytics.Info())
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	status := "healthy"
	if !h.analytics.Ready() {
		status = "starting"
	}

	healthData := map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.analytics.Stats()

	errors.WriteSuccess(w, stats)
}
