package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/momcare/mealplan/backend/internal/service"
)

// DefaultCheckTimeout bounds every readiness probe
const DefaultCheckTimeout = 2 * time.Second

// Check is one named readiness probe
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Server exposes liveness and readiness of the planner daemon. It carries no
// planning endpoints.
type Server struct {
	router  *gin.Engine
	http    *http.Server
	catalog service.CatalogReader
	checks  []Check
	timeout time.Duration
	logger  *slog.Logger
}

// New creates the ops server listening on addr
func New(addr string, catalog service.CatalogReader, logger *slog.Logger, checks ...Check) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		router:  router,
		catalog: catalog,
		checks:  checks,
		timeout: DefaultCheckTimeout,
		logger:  logger,
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	router.GET("/healthz", s.health)
	router.GET("/readyz", s.ready)
	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.logger.Info("Ops server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ready(c *gin.Context) {
	status := http.StatusOK
	results := gin.H{}

	ix, err := s.catalog.Current()
	if err != nil {
		status = http.StatusServiceUnavailable
		results["catalog"] = err.Error()
	} else {
		results["catalog"] = "ok"
	}

	for _, check := range s.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
		err := check.Probe(ctx)
		cancel()
		if err != nil {
			status = http.StatusServiceUnavailable
			results[check.Name] = err.Error()
			s.logger.Warn("Readiness check failed", "check", check.Name, "error", err)
			continue
		}
		results[check.Name] = "ok"
	}

	body := gin.H{"checks": results}
	if ix != nil {
		body["catalog_version"] = ix.Version()
		body["catalog_items"] = ix.Len()
	}
	if status == http.StatusOK {
		body["status"] = "ready"
	} else {
		body["status"] = "unavailable"
	}
	c.JSON(status, body)
}

// requestLogger logs every request; probes are logged at debug
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
