// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crogentx/crogentx/internal/analytics"
	"github.com/crogentx/crogentx/internal/circuitbreaker"
	"github.com/crogentx/crogentx/internal/config"
	"github.com/crogentx/crogentx/internal/devtools"
	"github.com/crogentx/crogentx/internal/graph"
	"github.com/crogentx/crogentx/internal/health"
	"github.com/crogentx/crogentx/internal/idgen"
	"github.com/crogentx/crogentx/internal/logging"
	"github.com/crogentx/crogentx/internal/metrics"
	"github.com/crogentx/crogentx/internal/mockdata"
	"github.com/crogentx/crogentx/internal/ratelimit"
	"github.com/crogentx/crogentx/internal/realtime"
	"github.com/crogentx/crogentx/internal/records"
	"github.com/crogentx/crogentx/internal/security"
	"github.com/crogentx/crogentx/internal/upstream"
	"github.com/crogentx/crogentx/internal/validation"
)

// Version is reported by the health endpoint
const Version = "0.1.0"

const (
	breakerThreshold = 3
	breakerCooldown  = 30 * time.Second
	healthTimeout    = 5 * time.Second
	shutdownDrain    = 2 * time.Second
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg          *config.Config
	source       records.DataSource
	mock         *mockdata.Source
	breaker      *circuitbreaker.Breaker // nil when serving mock data directly
	facilitator  upstream.Facilitator
	realtimeHub  *realtime.Hub
	replayer     *realtime.Replayer
	health       *health.Registry
	rateLimiter  *ratelimit.Limiter
	router       *gin.Engine
	httpSrv      *http.Server
	logger       *slog.Logger
	cancelRunCtx context.CancelFunc // cancels background goroutines started in Run

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithFacilitator replaces the upstream facilitator client (for testing)
func WithFacilitator(f upstream.Facilitator) Option {
	return func(s *Server) {
		s.facilitator = f
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, cfg.LogFormat),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.mock = mockdata.NewSource(mockdata.Config{
		Seed:         cfg.MockSeed,
		Transactions: cfg.MockTransactions,
		MinAgents:    cfg.MockAgentsMin,
		MaxAgents:    cfg.MockAgentsMax,
	}, s.logger.With("component", "mockdata"))

	if cfg.UseMockData {
		s.source = s.mock
		s.logger.Info("serving mock data", "seed", cfg.MockSeed, "transactions", cfg.MockTransactions)
	} else {
		if s.facilitator == nil {
			if cfg.IsProduction() {
				if err := security.ValidateUpstreamURL(cfg.FacilitatorURL); err != nil {
					return nil, fmt.Errorf("invalid facilitator URL: %w", err)
				}
			}
			s.facilitator = upstream.NewClient(cfg.FacilitatorURL, cfg.UpstreamTimeout,
				upstream.WithRetry(upstream.RetryPolicy(cfg.UpstreamRetries)))
		}
		s.breaker = circuitbreaker.New(breakerThreshold, breakerCooldown)
		s.breaker.OnTransition(func(key string, from, to circuitbreaker.State) {
			s.logger.Warn("upstream circuit state changed", "endpoint", key, "from", from.String(), "to", to.String())
		})
		s.source = upstream.NewFallbackSource(s.facilitator, s.mock, s.breaker, s.logger.With("component", "upstream"))
		s.logger.Info("serving facilitator data with mock fallback", "facilitator", cfg.FacilitatorURL)
	}

	s.realtimeHub = realtime.NewHub(s.logger.With("component", "realtime"), cfg.CORSAllowedOrigins)
	s.replayer = realtime.NewReplayer(s.source, s.realtimeHub, cfg.ReplayInterval, s.logger.With("component", "replay"))

	s.health = health.NewRegistry()
	s.health.Register("records", health.DataSourceCheck("records", s.source, healthTimeout))
	if s.breaker != nil {
		s.health.Register("upstream", health.BreakerCheck("upstream", s.breaker))
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal server error",
			"message": "An unexpected error occurred",
		})
	}))

	// Request ID first so every later log line carries it
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(metrics.Middleware())

	s.router.Use(security.HeadersMiddleware())
	s.router.Use(security.CORSMiddleware(s.cfg.CORSAllowedOrigins))
	s.router.Use(validation.RequestSizeMiddleware(s.cfg.MaxRequestBytes))

	s.rateLimiter = ratelimit.New(ratelimit.DefaultConfig(s.cfg.RateLimitRPM))
	s.router.Use(s.rateLimiter.Middleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Keep an ID set upstream (load balancer, SDK)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" || len(requestID) > 128 {
			requestID = idgen.New()
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		logger := logging.L(c.Request.Context())

		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Debug("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	s.router.GET("/ws", func(c *gin.Context) {
		s.realtimeHub.HandleWebSocket(c.Writer, c.Request)
	})

	network := devtools.NetworkFor(s.cfg.ChainNetwork)

	api := s.router.Group("/api")
	api.GET("", s.infoHandler)
	records.NewHandler(s.source).RegisterRoutes(api)
	devtools.NewHandler(s.source,
		devtools.NewSimulator(nil, nil),
		devtools.NewDebugger(network, nil),
	).RegisterRoutes(api)
	graph.NewHandler(s.source).RegisterRoutes(api)
	analytics.NewHandler(s.source).RegisterRoutes(api)
	api.POST("/mock/reset", s.resetMockHandler)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Not found",
			"message": "no route for " + c.Request.Method + " " + c.Request.URL.Path,
		})
	})
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// HealthResponse for health check endpoints
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Source    string          `json:"source"`
	Checks    []health.Status `json:"checks"`
	Realtime  realtime.Stats  `json:"realtime"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) sourceName() string {
	if s.cfg.UseMockData {
		return "mock"
	}
	return "facilitator"
}

func (s *Server) healthHandler(c *gin.Context) {
	healthy, checks := s.health.CheckAll(c.Request.Context())

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   Version,
		Source:    s.sourceName(),
		Checks:    checks,
		Realtime:  s.realtimeHub.Stats(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) infoHandler(c *gin.Context) {
	network := devtools.NetworkFor(s.cfg.ChainNetwork)
	c.JSON(http.StatusOK, gin.H{
		"name":        "crogentx",
		"description": "Analytics for x402 agent transactions",
		"version":     Version,
		"network":     network.Name,
		"chainId":     network.ChainID,
		"source":      s.sourceName(),
	})
}

func (s *Server) resetMockHandler(c *gin.Context) {
	s.mock.Reset()
	s.replayer.Rewind()
	generation := s.mock.Generation()
	s.realtimeHub.BroadcastReset(generation)
	logging.L(c.Request.Context()).Info("mock dataset reset", "generation", generation)
	c.Status(http.StatusNoContent)
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server and blocks until a signal, ctx cancellation or
// a listener error, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port, "env", s.cfg.Env, "source", s.sourceName())
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go s.realtimeHub.Run(runCtx)
	go s.replayer.Run(runCtx)
	go metrics.StartRuntimeCollector(runCtx, 15*time.Second)

	// Generate the mock dataset before reporting ready so the first request
	// does not pay for it
	go func() {
		if err := s.mock.Warm(runCtx); err != nil && runCtx.Err() == nil {
			s.logger.Error("failed to warm mock dataset", "error", err)
		}
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		cancel()
		s.rateLimiter.Stop()
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	// Give load balancers time to see the readiness change
	time.Sleep(shutdownDrain)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}
