// Package http exposes the expense service as a JSON API on gin.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"homemoney/internal/cache"
	"homemoney/internal/log"
	"homemoney/internal/services"
)

// DefaultRequestTimeout bounds each handler.
const DefaultRequestTimeout = 5 * time.Second

// Config configures the API server.
type Config struct {
	Addr           string
	CORSOrigins    []string
	RequestTimeout time.Duration

	// Cache holds list and statistics responses. Nil disables caching.
	Cache *cache.Store

	// Now replaces time.Now in the rate limiter, mainly for tests.
	Now func() time.Time
}

type Server struct {
	http.Server
	engine       *gin.Engine
	svc          *services.ExpenseService
	cache        *cache.Store
	rateLimiter  *rateLimiter
	logger       *log.Logger
	shutdownOnce sync.Once
}

func NewServer(cfg Config, svc *services.ExpenseService, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	if err := engine.SetTrustedProxies(trustedProxies); err != nil {
		logger.Warn("Invalid trusted proxies", log.FieldError, err.Error())
	}

	s := &Server{
		engine:      engine,
		svc:         svc,
		cache:       cfg.Cache,
		rateLimiter: newRateLimiter(cfg.Now),
		logger:      logger,
	}

	engine.Use(
		gin.Recovery(),
		requestLogger(logger),
		securityHeaders(),
		cors.New(corsConfig(cfg.CORSOrigins)),
		rateLimit(s.rateLimiter, logger.WithComponent(log.ComponentRateLimit)),
		timeout(cfg.RequestTimeout),
	)
	s.routes()

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/readyz", s.handleReady)

	api := s.engine.Group("/api")
	api.GET("", s.handleIndex)
	api.GET("/expenses", s.handleListExpenses)
	api.POST("/expenses", s.handleCreateExpense)
	api.GET("/expenses/statistics", s.handleStatistics)
	api.GET("/expenses/csv", s.handleCSVPath)
	api.GET("/expenses/csv/raw", s.handleCSVRaw)
	api.GET("/export/csv", s.handleExportCSV)
	api.GET("/export/excel", s.handleExportExcel)
}

// Routes returns the routed engine.
func (s *Server) Routes() http.Handler {
	return s.engine
}

// Shutdown gracefully stops the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
