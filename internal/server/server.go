package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rmsconsole/rmsconsole/internal/config"
	"github.com/rmsconsole/rmsconsole/internal/metrics"
	"github.com/rmsconsole/rmsconsole/internal/middleware"
	"github.com/rmsconsole/rmsconsole/internal/notifications"
	"github.com/rmsconsole/rmsconsole/internal/panel"
	"github.com/rmsconsole/rmsconsole/internal/reason"
	"github.com/rmsconsole/rmsconsole/internal/workspace"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 30 * time.Second

// Server represents the RMS console server
type Server struct {
	config         *config.Config
	logger         *logrus.Logger
	httpServer     *http.Server
	handler        http.Handler
	registry       *workspace.Registry
	hub            *notifications.Hub
	metricsManager metrics.Manager
	systemMetrics  *metrics.SystemMetricsTracker
	performance    *metrics.PerformanceCollector
	rateStore      *middleware.InMemoryRateLimitStore
	seed           []reason.Reason
	ids            reason.IDGenerator
	basePath       string
	startTime      time.Time // Server start time for uptime calculation
}

// New creates a new RMS console server
func New(cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	// Load the reason seed once; every workspace starts from a copy of it
	seed, err := reason.DefaultSeed()
	if cfg.Reasons.SeedFile != "" {
		seed, err = reason.LoadSeedFile(cfg.Reasons.SeedFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reason seed: %w", err)
	}

	ids, err := reason.NewIDGenerator(cfg.Reasons.IDStrategy)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}

	s := &Server{
		config:         cfg,
		logger:         logger,
		hub:            notifications.NewHub(),
		metricsManager: metrics.NewManager(cfg.Metrics),
		systemMetrics:  metrics.NewSystemMetrics(),
		performance:    metrics.NewPerformanceCollector(1000, time.Hour),
		rateStore:      middleware.NewInMemoryRateLimitStore(),
		seed:           seed,
		ids:            ids,
		basePath:       extractBasePathFromURL(cfg.PublicConsoleURL),
		startTime:      time.Now(),
	}

	s.registry = workspace.NewRegistry(cfg.Workspaces.Max, s.newPanel, logger)
	s.registry.OnResize(s.metricsManager.SetWorkspaces)
	s.registry.SetEvictionGrace(cfg.Workspaces.EvictionGrace)

	handler, err := s.setupRoutes()
	if err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// no WriteTimeout: notification streams stay open
		IdleTimeout: 60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Registry returns the workspace registry
func (s *Server) Registry() *workspace.Registry {
	return s.registry
}

// newPanel builds the panel of a new workspace. Its notifications go to the
// workspace's stream clients, the metrics and the current API response.
func (s *Server) newPanel(id string) (*panel.Panel, error) {
	notifier := notifications.ForWorkspace(id, notifications.Multi{
		s.hub,
		captureNotifier,
		notifications.NotifierFunc(func(_ context.Context, n notifications.Notification) {
			s.metricsManager.RecordNotification(string(n.Variant))
		}),
	})

	return panel.New(panel.Options{
		Logger:   s.logger,
		Notifier: notifier,
		Seed:     s.seed,
		IDs:      s.ids,
		SettingsObserver: func(key string, _ bool) {
			s.metricsManager.RecordSettingUpdate(key)
		},
		ReasonObserver: s.metricsManager.RecordReasonOperation,
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	logrus.WithFields(logrus.Fields{
		"address":            s.config.Listen,
		"public_console_url": s.config.PublicConsoleURL,
		"tls":                s.config.EnableTLS,
		"csrf":               s.config.Security.CSRFKey != "",
	}).Info("Starting RMS console server")

	go s.registry.Run(ctx, s.config.Workspaces.CleanupInterval, s.config.Workspaces.IdleTimeout)
	go s.rateStore.Run(ctx, 10*time.Minute)

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.config.EnableTLS {
			err = s.httpServer.ListenAndServeTLS(s.config.CertFile, s.config.KeyFile)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		s.hub.Close()
		return fmt.Errorf("console server error: %w", err)
	}
}

func (s *Server) shutdown() error {
	logrus.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Disconnect notification streams first so Shutdown does not wait on them
	s.hub.Close()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Failed to shutdown server")
		return err
	}

	return nil
}

func (s *Server) setupRoutes() (http.Handler, error) {
	router := mux.NewRouter()

	logrus.WithFields(logrus.Fields{
		"public_console_url": s.config.PublicConsoleURL,
		"base_path":          s.basePath,
	}).Info("Setting up console routes")

	// Create base router
	baseRouter := router
	if s.basePath != "/" {
		baseRouter = router.PathPrefix(s.basePath).Subrouter()
	}

	router.Use(middleware.Tracing(s.systemMetrics))
	router.Use(middleware.Logging(s.logger))
	router.Use(s.metricsManager.Middleware())
	// Streams last as long as the client stays, so their latency is meaningless
	router.Use(s.performance.Middleware(s.apiPath("/notifications/stream")))
	router.Use(middleware.CORS(originOf(s.config.PublicConsoleURL)))

	if s.config.Metrics.Enable {
		router.Handle(s.config.Metrics.Path, s.metricsManager.GetMetricsHandler()).Methods(http.MethodGet)
	}

	apiRouter := baseRouter.PathPrefix("/api/v1").Subrouter()
	if rps := s.config.RateLimit.RequestsPerSecond; rps > 0 {
		apiRouter.Use(middleware.RateLimitWithConfig(&middleware.RateLimitConfig{
			RequestsPerSecond: rps,
			WindowSize:        time.Second,
			KeyExtractor:      middleware.IPKeyExtractor,
			SkipPaths:         []string{s.apiPath("/health"), s.apiPath("/notifications/stream")},
			Store:             s.rateStore,
			OnRateLimitExceeded: func(w http.ResponseWriter, r *http.Request, key string) {
				s.writeError(w, r, "Rate limit exceeded", http.StatusTooManyRequests)
			},
		}))
	}
	s.setupConsoleAPIRoutes(apiRouter)

	// Serve embedded frontend for all other routes
	frontendHandler, err := s.setupEmbeddedFrontend()
	if err != nil {
		return nil, err
	}
	baseRouter.PathPrefix("/").Handler(frontendHandler)

	var handler http.Handler = router
	if key := s.config.Security.CSRFKey; key != "" {
		handler = s.csrfProtect([]byte(key))(handler)
	}

	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(s.logger),
		handlers.PrintRecoveryStack(true),
	)(handlers.CompressHandler(handler)), nil
}

// csrfProtect guards every mutating request with gorilla/csrf. The token is
// read from the X-CSRF-Token header and handed out by GET /api/v1/csrf.
func (s *Server) csrfProtect(key []byte) func(http.Handler) http.Handler {
	protect := csrf.Protect(key,
		csrf.Secure(s.config.EnableTLS),
		csrf.Path(s.basePath),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.RequestHeader("X-CSRF-Token"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.writeError(w, r, "Invalid CSRF token", http.StatusForbidden)
		})),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if s.config.EnableTLS {
			return protected
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

// apiPath returns the request path of an API route
func (s *Server) apiPath(p string) string {
	return strings.TrimSuffix(s.basePath, "/") + "/api/v1" + p
}

// extractBasePathFromURL extracts the path component from a URL
// Example: "https://rms.example.com/admin" -> "/admin"
// Example: "http://localhost:8090" -> "/"
func extractBasePathFromURL(urlStr string) string {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		logrus.WithError(err).Warn("Failed to parse public console URL, using / as base path")
		return "/"
	}

	basePath := parsedURL.Path
	if basePath == "" || basePath == "/" {
		return "/"
	}

	// Starts with / but does NOT end with /, for PathPrefix matching in mux
	basePath = strings.TrimSuffix(basePath, "/")
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	return basePath
}

// originOf returns scheme://host of a URL, or "" when it has neither
func originOf(urlStr string) string {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return ""
	}
	return parsedURL.Scheme + "://" + parsedURL.Host
}
