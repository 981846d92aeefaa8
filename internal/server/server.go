// Package server hosts the Galleria view server: a JSON API over the
// gallery views, mounted from the plugin registry.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/HerbHall/galleria/internal/auth"
	"github.com/HerbHall/galleria/internal/gallery"
	"github.com/HerbHall/galleria/internal/marketplace"
	"github.com/HerbHall/galleria/internal/plugin"
	"github.com/HerbHall/galleria/internal/version"
)

// VersionHeader carries the server version on every response.
const VersionHeader = "X-Galleria-Version"

// maxBodyBytes bounds decoded request bodies.
const maxBodyBytes = 1 << 20

// SessionSource yields the locally signed-in user. Requests without an
// Authorization header act as that user.
type SessionSource interface {
	Current(ctx context.Context) (*auth.Session, error)
}

// RouteRegistrar mounts routes that are not part of a view.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Option configures a Server.
type Option func(*Server)

// WithSessions sets the fallback session source.
func WithSessions(src SessionSource) Option {
	return func(s *Server) { s.sessions = src }
}

// WithGatherer exposes the metrics of g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithRoutes mounts the routes of r alongside the core routes.
func WithRoutes(r RouteRegistrar) Option {
	return func(s *Server) { s.extra = append(s.extra, r) }
}

// WithClock overrides the clock used to check token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// Server is the Galleria view server.
type Server struct {
	httpServer *http.Server
	registry   *plugin.Registry
	sessions   SessionSource
	gatherer   prometheus.Gatherer
	extra      []RouteRegistrar
	now        func() time.Time
	logger     *zap.Logger
	mux        *http.ServeMux
}

// New creates a Server listening on addr. Routes are mounted from the
// enabled views in reg, so reg must be initialized first.
func New(addr string, reg *plugin.Registry, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	s := &Server{
		registry: reg,
		now:      time.Now,
		logger:   logger,
		mux:      mux,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.logRequests(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.registerCoreRoutes()
	s.mountPluginRoutes()

	return s
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/plugins", s.handlePlugins)
	if s.gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	for _, r := range s.extra {
		r.RegisterRoutes(s.mux)
	}
}

// mountPluginRoutes registers all view routes under /api/v1/{view}.
func (s *Server) mountPluginRoutes() {
	allRoutes := s.registry.AllRoutes()
	for pluginName, routes := range allRoutes {
		for _, route := range routes {
			pattern := fmt.Sprintf("%s /api/v1/%s%s", route.Method, pluginName, route.Path)
			s.mux.Handle(pattern, s.identify(route.Handler))
			s.logger.Debug("mounted route",
				zap.String("plugin", pluginName),
				zap.String("pattern", pattern),
			)
		}
	}
}

// Start begins serving HTTP requests and blocks until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// identify resolves the viewer of a request. A bearer ID token takes
// precedence over the local session and is forwarded to the marketplace.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if h := r.Header.Get("Authorization"); h != "" {
			token, ok := strings.CutPrefix(h, "Bearer ")
			if !ok || token == "" {
				Unauthorized(w, "authorization must be a bearer token", r.URL.Path)
				return
			}
			sess, err := auth.ParseSession(token)
			if err != nil {
				WriteError(w, r, err)
				return
			}
			if sess.Expired(s.now()) {
				WriteError(w, r, auth.ErrSessionExpired)
				return
			}
			ctx = marketplace.ContextWithToken(ctx, token)
			ctx = gallery.ContextWithViewer(ctx, viewerOf(sess))
		} else if s.sessions != nil {
			if sess, err := s.sessions.Current(ctx); err == nil {
				ctx = gallery.ContextWithViewer(ctx, viewerOf(sess))
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func viewerOf(sess *auth.Session) gallery.Viewer {
	return gallery.Viewer{Email: sess.Email, Name: sess.Name, PhotoURL: sess.PhotoURL}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests stamps the version header and logs each request at debug.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(VersionHeader, version.Short())
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// handleHealth returns the server health status. The server is degraded
// when any view reports it is.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	views := s.registry.Health(r.Context())
	status := plugin.HealthOK
	for _, h := range views {
		if h.Status != plugin.HealthOK {
			status = plugin.HealthDegraded
		}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"service": "galleria",
		"version": version.Map(),
		"views":   views,
	})
}

// handlePlugins returns the registered views.
func (s *Server) handlePlugins(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, s.registry.Infos())
}

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// DecodeJSON decodes a JSON request body into v, rejecting unknown fields.
// On failure it writes a 400 problem and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		BadRequest(w, "invalid JSON body: "+err.Error(), r.URL.Path)
		return false
	}
	return true
}
