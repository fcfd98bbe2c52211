// Package http hosts the dispatcher over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/minapi/adapters/metrics"
	"github.com/artpar/minapi/app"
	"github.com/artpar/minapi/domain/wire"
	"github.com/artpar/minapi/pkg/problem"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// DefaultTagsHeader carries the caller's capability tags.
const DefaultTagsHeader = "X-Caller-Tags"

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Service string `json:"service"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// DispatchHandler converts HTTP requests to wire requests, dispatches them and
// writes the translated response.
type DispatchHandler struct {
	dispatcher   *app.Dispatcher
	logger       zerolog.Logger
	maxBodyBytes int64
	tagsHeader   string
}

// HandlerConfig contains configuration for DispatchHandler.
type HandlerConfig struct {
	MaxBodyBytes int64  // Larger bodies are rejected with 413
	TagsHeader   string // Comma separated caller tags
}

// NewDispatchHandler creates a new HTTP dispatch handler.
func NewDispatchHandler(d *app.Dispatcher, logger zerolog.Logger, cfg HandlerConfig) *DispatchHandler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.TagsHeader == "" {
		cfg.TagsHeader = DefaultTagsHeader
	}
	return &DispatchHandler{
		dispatcher:   d,
		logger:       logger.With().Str("component", "http").Logger(),
		maxBodyBytes: cfg.MaxBodyBytes,
		tagsHeader:   cfg.TagsHeader,
	}
}

func (h *DispatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				h.writeProblem(w, problem.New(http.StatusRequestEntityTooLarge).
					Detailf("Request body exceeds %d bytes.", tooLarge.Limit).
					Instance(r.URL.Path).
					Build())
				return
			}
			h.logger.Error().Err(err).Msg("failed to read request body")
			h.writeProblem(w, problem.New(http.StatusBadRequest).
				Detail("Failed to read request body.").
				Instance(r.URL.Path).
				Build())
			return
		}
	}

	req := wire.Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Query:      r.URL.Query(),
		Headers:    extractHeaders(r),
		Body:       body,
		CallerTags: parseTags(r.Header.Get(h.tagsHeader)),
		RemoteIP:   extractIP(r),
		UserAgent:  r.UserAgent(),
		RequestID:  middleware.GetReqID(ctx),
	}

	resp := h.dispatcher.Dispatch(ctx, req)
	setRouteLabel(ctx, resp.Route)
	h.writeResponse(w, resp)
}

type routeLabelKey struct{}

// withRouteLabel attaches a slot that the dispatch handler fills with the
// matched route template.
func withRouteLabel(r *http.Request) (*http.Request, *string) {
	label := new(string)
	return r.WithContext(context.WithValue(r.Context(), routeLabelKey{}, label)), label
}

func setRouteLabel(ctx context.Context, template string) {
	if label, ok := ctx.Value(routeLabelKey{}).(*string); ok {
		*label = template
	}
}

// writeResponse writes a wire response.
func (h *DispatchHandler) writeResponse(w http.ResponseWriter, resp wire.Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	if !resp.HasBody() {
		w.WriteHeader(resp.Status)
		return
	}

	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.Status)

	var err error
	if text, ok := resp.Body.(string); ok && resp.ContentType == wire.ContentTypeText {
		_, err = io.WriteString(w, text)
	} else {
		err = json.NewEncoder(w).Encode(resp.Body)
	}
	if err != nil {
		h.logger.Error().Err(err).Str("route", resp.Route).Msg("failed to write response body")
	}
}

func (h *DispatchHandler) writeProblem(w http.ResponseWriter, p problem.Problem) {
	h.writeResponse(w, wire.Response{Status: p.Status, Body: p, ContentType: wire.ContentTypeProblem})
}

// parseTags splits a comma separated header value, dropping blanks.
func parseTags(header string) []string {
	if header == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(header, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// extractHeaders flattens request headers to their first value, skipping
// hop-by-hop headers.
func extractHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string, len(r.Header)+1)
	if r.Host != "" {
		headers["Host"] = r.Host
	}
	for k, v := range r.Header {
		switch strings.ToLower(k) {
		case "connection", "keep-alive", "te", "trailers", "transfer-encoding", "upgrade":
			continue
		}
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return headers
}

// extractIP returns the client IP. middleware.RealIP has already applied
// X-Forwarded-For and X-Real-IP to RemoteAddr.
func extractIP(r *http.Request) string {
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	checker HealthChecker
}

// HealthChecker reports whether the service can take traffic.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewHealthHandler creates a new health handler. checker may be nil.
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Liveness returns a simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readiness checks if the service is ready to handle traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.checker != nil {
		if err := h.checker.HealthCheck(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Error: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// VersionHandler returns a handler reporting the build version.
func VersionHandler(version, commit string) http.HandlerFunc {
	body := VersionResponse{Version: version, Commit: commit, Service: "minapi"}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", wire.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics        *metrics.Collector
	MetricsHandler http.Handler  // Defaults to promhttp.Handler() when Metrics is set
	MetricsPath    string        // Defaults to /metrics
	RequestTimeout time.Duration // Defaults to 60s
	Version        string
	Commit         string
}

// NewRouter creates the main HTTP router. Transport endpoints are mounted on
// chi directly; every other path falls through to the dispatcher.
func NewRouter(handler *DispatchHandler, health *HealthHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger, cfg.MetricsPath))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics, cfg.MetricsPath))
	}

	// Health endpoints
	r.Get("/health", health.Liveness)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/version", VersionHandler(cfg.Version, cfg.Commit))

	if cfg.MetricsHandler != nil {
		r.Handle(cfg.MetricsPath, cfg.MetricsHandler)
	} else if cfg.Metrics != nil {
		r.Handle(cfg.MetricsPath, promhttp.Handler())
	}

	// Everything else is resolved by the route registry.
	r.NotFound(handler.ServeHTTP)

	return r
}

func internalPath(path, metricsPath string) bool {
	return strings.HasPrefix(path, "/health") || path == metricsPath || path == "/version"
}

// NewMetricsMiddleware creates middleware that records request metrics.
// Requests are labelled by matched route template; misses share one label.
func NewMetricsMiddleware(m *metrics.Collector, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if internalPath(r.URL.Path, metricsPath) {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			r, label := withRouteLabel(r)

			next.ServeHTTP(ww, r)

			status := strconv.Itoa(ww.Status())
			route := metrics.RouteLabel(*label)

			m.RequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			m.RequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		})
	}
}

// NewLoggingMiddleware creates a new logging middleware.
func NewLoggingMiddleware(logger zerolog.Logger, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if internalPath(r.URL.Path, metricsPath) {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
