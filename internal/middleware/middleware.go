package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"rfm-segmentation/internal/config"
	"rfm-segmentation/internal/errors"
	"rfm-segmentation/internal/models"
	"rfm-segmentation/internal/observability"
)

const (
	RequestIDHeader = "X-Request-ID"
	RunIDHeader     = "X-RFM-Run-ID"
)

type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so the first one listed sees the request first.
func Chain(middlewares ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for _, m := range slices.Backward(middlewares) {
			h = m(h)
		}
		return h
	}
}

func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, requestID)
			next.ServeHTTP(w, r.WithContext(observability.WithRequestID(r.Context(), requestID)))
		})
	}
}

// RunSource reports the segmentation run currently being served.
type RunSource interface {
	Info() models.RunInfo
}

// RunContext stamps each request with the run id of the snapshot being
// served, so responses and logs can be matched to the artifacts of one run.
// Before the first run completes nothing is set.
func RunContext(src RunSource) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if runID := src.Info().RunID; runID != "" {
				w.Header().Set(RunIDHeader, runID)
				r = r.WithContext(observability.WithRunID(r.Context(), runID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Instrument wraps each request in a span, logs one line when it completes
// and counts it by method and status.
func Instrument(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := observability.StartSpan(r.Context(), r.Method+" "+r.URL.Path)
			requestID := observability.GetRequestID(ctx)
			runID := observability.GetRunID(ctx)

			span.SetTag("http.method", r.Method)
			span.SetTag("http.url", r.URL.String())
			if requestID != "" {
				span.SetTag("request.id", requestID)
			}
			if runID != "" {
				span.SetTag("run.id", runID)
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := strconv.Itoa(rec.status)
			span.SetTag("http.status_code", status)
			if rec.status >= http.StatusBadRequest {
				span.SetError(fmt.Errorf("HTTP %d", rec.status))
			}
			span.End(logger)

			observability.HTTPRequests.WithLabelValues(r.Method, status).Inc()

			level := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", *span.Duration,
				"remote_addr", r.RemoteAddr,
				"request_id", requestID,
				"run_id", runID,
			)
		})
	}
}

func CORS(cfg config.SecurityConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if origin := r.Header.Get("Origin"); isAllowedOrigin(origin, cfg.AllowedOrigins) {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			h.Set("Access-Control-Expose-Headers", RequestIDHeader+", "+RunIDHeader)
			h.Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline' 'unsafe-eval' https://cdn.jsdelivr.net; style-src 'self' 'unsafe-inline'; connect-src 'self'"},
}

func SecurityHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, kv := range securityHeaders {
				w.Header().Set(kv[0], kv[1])
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than a minute are dropped on a later call.
type RateLimiter struct {
	mu        sync.Mutex
	cfg       config.SecurityConfig
	visitors  map[string]*visitor
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(cfg config.SecurityConfig) *RateLimiter {
	return &RateLimiter{
		cfg:      cfg,
		visitors: make(map[string]*visitor),
		idle:     time.Minute,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	if !rl.cfg.EnableRateLimit {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RateLimitRPS), rl.cfg.RateLimitBurst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.idle {
		return
	}
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) >= rl.idle {
			delete(rl.visitors, ip)
		}
	}
	rl.lastSweep = now
}

func RateLimit(limiter *RateLimiter, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if limiter.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}

			requestID := observability.GetRequestID(r.Context())
			logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path, "request_id", requestID)
			errors.WriteError(w, logger, errors.RateLimit("Too many requests"), requestID)
		})
	}
}

// TrustedProxy drops forwarding headers unless the peer is a configured proxy.
func TrustedProxy(cfg config.SecurityConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, _ := net.SplitHostPort(r.RemoteAddr)
			if !slices.Contains(cfg.TrustedProxies, host) {
				r.Header.Del("X-Forwarded-For")
				r.Header.Del("X-Real-IP")
				r.Header.Del("X-Forwarded-Proto")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					requestID := observability.GetRequestID(r.Context())
					logger.Error("panic recovered",
						"panic", p,
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", requestID,
						"run_id", observability.GetRunID(r.Context()),
					)
					errors.WriteError(w, logger, errors.Internal("An unexpected error occurred"), requestID)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// Flush lets SSE handlers stream through the recorder.
func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}

func isAllowedOrigin(origin string, allowed []string) bool {
	return origin != "" && (slices.Contains(allowed, "*") || slices.Contains(allowed, origin))
}
