// Package api provides the HTTP API of the SMS relay.
//
// All routes are mounted under /api.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/xraph/smsrelay"
)

// Service identification reported by the root endpoint.
const (
	ServiceName    = "SMS Mail Forwarder API"
	ServiceVersion = "1.0.0"
)

// Handler is the root HTTP handler for the relay API.
type Handler struct {
	relay       *smsrelay.Relay
	schemas     *schemaSet
	corsOrigins []string
	logger      *slog.Logger
	router      chi.Router
}

// Option configures a Handler.
type Option func(*Handler)

// WithCORSOrigins sets the origins allowed to call the API from a browser.
// The default allows any origin.
func WithCORSOrigins(origins ...string) Option {
	return func(h *Handler) { h.corsOrigins = origins }
}

// NewHandler creates a new API handler for relay.
func NewHandler(relay *smsrelay.Relay, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		relay:       relay,
		schemas:     mustCompileSchemas(),
		corsOrigins: []string{"*"},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.corsMiddleware())
	r.Use(h.logging)
	r.Use(h.panicRecovery)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", h.root)
		r.Get("/health", h.health)

		// Messages
		r.Post("/sms/forward", h.forwardSMS)
		r.Get("/sms/messages", h.listMessages)
		r.Get("/sms/stats", h.getStats)

		// Transport
		r.Post("/email/config", h.saveTransport)
		r.Get("/email/config", h.getTransport)
		r.Post("/email/test", h.testTransport)

		// Relay rules
		r.Post("/filters", h.createRule)
		r.Get("/filters", h.listRules)
		r.Put("/filters/{id}", h.updateRule)
		r.Delete("/filters/{id}", h.deleteRule)
	})

	h.router = r
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": ServiceName,
		"version": ServiceVersion,
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := h.relay.Ping(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":    "unhealthy",
			"timestamp": now,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": now,
	})
}

// ──────────────────────────────────────────────────
// Middleware
// ──────────────────────────────────────────────────

// corsMiddleware builds the CORS middleware. Credentials are only allowed for an
// explicit origin list; browsers reject them alongside a wildcard.
func (h *Handler) corsMiddleware() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   h.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-Id"},
		AllowCredentials: !slices.Contains(h.corsOrigins, "*"),
		MaxAge:           300,
	})
}

func (h *Handler) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		h.logger.InfoContext(r.Context(), "api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (h *Handler) panicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.ErrorContext(r.Context(), "panic recovered",
					"error", rec,
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// JSON helpers.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best effort
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// queryInt returns a non-negative query parameter as int or a default value.
func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
