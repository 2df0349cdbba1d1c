// Package server assembles the users API, its instrumentation and the
// metrics endpoint into a single HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cap-mahdi/TP2-devops/internal/storage"
	"github.com/cap-mahdi/TP2-devops/pkg/cliconfig"
	"github.com/cap-mahdi/TP2-devops/pkg/httpmetrics"
	"github.com/cap-mahdi/TP2-devops/pkg/httputil"
	"github.com/cap-mahdi/TP2-devops/pkg/logging"
	"github.com/cap-mahdi/TP2-devops/pkg/metrics"
	"github.com/cap-mahdi/TP2-devops/pkg/recorder"
	"github.com/cap-mahdi/TP2-devops/pkg/users"
)

// HealthPath is the liveness endpoint. It is excluded from request metrics.
const HealthPath = "/health"

// Server serves the users API and exposes its metrics.
type Server struct {
	cfg  *cliconfig.Config
	log  *slog.Logger
	addr string

	registry  *metrics.Registry
	tracker   *httpmetrics.ConnectionTracker
	collector *httpmetrics.Collector
	recorder  *recorder.Recorder
	runtime   *metrics.RuntimeCollector
	store     storage.UserStore
	handler   http.Handler

	mu          sync.Mutex
	httpServer  *http.Server
	listener    net.Listener
	stopRuntime func()
	serveErr    chan error
	running     bool
	startTime   time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStore replaces the default seeded in-memory user store.
func WithStore(store storage.UserStore) Option {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

// WithAddr overrides the listen address derived from the config port.
// Use "127.0.0.1:0" to pick a free port.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// New builds a Server from cfg. A nil cfg uses cliconfig.NewDefault().
func New(cfg *cliconfig.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = cliconfig.NewDefault()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{
		cfg:  cfg,
		log:  logging.Nop(),
		addr: cfg.Addr(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.store == nil {
		s.store = storage.NewMemoryStore()
	}

	if err := s.setupMetrics(); err != nil {
		return nil, err
	}

	s.recorder = recorder.New(s.registry, recorder.WithLogger(s.log))
	store := storage.NewTimedStore(s.store, s.recorder.RecordDependencyLatency)

	api, err := users.NewHandler(store, s.recorder, users.WithLogger(s.log))
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	api.Register(mux)
	mux.Handle("GET "+cfg.MetricsPath, s.metricsHandler())
	mux.HandleFunc("GET "+HealthPath, s.handleHealth)

	corsCfg := httputil.DefaultCORSConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.CORSOrigins
	}

	var h http.Handler = mux
	h = httpmetrics.Instrument(h, s.tracker, s.collector)
	h = httputil.CORS(corsCfg)(h)
	h = logging.Middleware(s.log)(h)
	s.handler = h

	return s, nil
}

func (s *Server) setupMetrics() error {
	s.registry = metrics.NewRegistry()
	if err := s.registry.SetDefaultLabels(s.cfg.DefaultLabels()); err != nil {
		return fmt.Errorf("default labels: %w", err)
	}
	if err := metrics.RegisterStandard(s.registry); err != nil {
		return fmt.Errorf("register standard metrics: %w", err)
	}
	if s.cfg.RuntimeMetricsIntervalDuration() > 0 {
		rc, err := metrics.NewRuntimeCollector(s.registry)
		if err != nil {
			return fmt.Errorf("runtime metrics: %w", err)
		}
		s.runtime = rc
	}

	hookOpts := []httpmetrics.Option{
		httpmetrics.WithLogger(s.log),
		httpmetrics.WithSkipPaths(s.cfg.MetricsPath, HealthPath),
	}
	var err error
	if s.tracker, err = httpmetrics.NewConnectionTracker(s.registry, hookOpts...); err != nil {
		return err
	}
	if s.collector, err = httpmetrics.NewCollector(s.registry, hookOpts...); err != nil {
		return err
	}
	return nil
}

// metricsHandler refreshes runtime gauges before every scrape.
func (s *Server) metricsHandler() http.Handler {
	next := s.registry.Handler()
	if s.runtime == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.runtime.Collect()
		next.ServeHTTP(w, r)
	})
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Registry returns the metrics registry.
func (s *Server) Registry() *metrics.Registry {
	return s.registry
}

// Addr returns the bound listen address while running, or the configured
// address otherwise.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server is already running")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeoutDuration(),
		WriteTimeout: s.cfg.WriteTimeoutDuration(),
		ErrorLog:     slog.NewLogLogger(s.log.Handler(), slog.LevelError),
	}
	s.listener = ln
	s.serveErr = make(chan error, 1)

	srv, errCh := s.httpServer, s.serveErr
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
			errCh <- err
		}
		close(errCh)
	}()

	if s.runtime != nil {
		s.stopRuntime = s.runtime.Start(s.cfg.RuntimeMetricsIntervalDuration())
	}

	s.running = true
	s.startTime = time.Now()
	s.log.Info("server started",
		"addr", ln.Addr().String(),
		"metrics_path", s.cfg.MetricsPath,
		"app", s.cfg.AppName,
		"version", s.cfg.AppVersion,
	)
	return nil
}

// Shutdown gracefully stops the server. It is a no-op when not running.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.stopRuntime != nil {
		s.stopRuntime()
		s.stopRuntime = nil
	}

	var err error
	if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
		err = fmt.Errorf("HTTP shutdown: %w", shutdownErr)
	}

	s.running = false
	s.listener = nil
	s.log.Info("server stopped", "uptime", time.Since(s.startTime).Round(time.Millisecond).String())
	return err
}

// ListenAndServe starts the server and blocks until ctx is cancelled or the
// server fails, then shuts down within the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	s.mu.Lock()
	errCh := s.serveErr
	s.mu.Unlock()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeoutDuration())
	defer cancel()
	return errors.Join(serveErr, s.Shutdown(shutdownCtx))
}

type healthResponse struct {
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"`
	Users             int    `json:"users"`
	ActiveConnections int64  `json:"activeConnections"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteOK(w, healthResponse{
		Status:            "healthy",
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		Users:             s.store.Count(),
		ActiveConnections: s.tracker.Active(),
	})
}
