// Package server is a self-hostable stand-in for the FitBuddy functions.
// It exposes the ai-chat and diet-advisor endpoints and relays them to an
// OpenAI-compatible gateway.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"github.com/arin/fitbuddy/internal/config"
)

const (
	EndPointHealth = "/health"
	EndPointChat   = config.ChatPath
	EndPointDiet   = config.DietPath

	shutdownTimeout = 5 * time.Second
)

// Server serves the function endpoints.
type Server struct {
	cfg    config.ServerConfig
	gw     *gateway
	logger log.Interface
	router *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger. Defaults to log.Log.
func WithLogger(l log.Interface) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithHTTPClient sets the client used to reach the gateway.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Server) {
		s.gw.client = c
	}
}

// New builds a Server and its routes.
func New(cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		logger: log.Log,
		gw: &gateway{
			url:    cfg.UpstreamURL,
			key:    cfg.UpstreamKey,
			model:  cfg.Model,
			client: &http.Client{},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger), cors(s.cfg.AllowedOrigins))

	router.GET(EndPointHealth, s.health)

	fn := router.Group("/")
	fn.Use(requireKey(s.cfg.ClientKey))
	if s.cfg.RateLimitPerMinute > 0 {
		fn.Use(rateLimit(newRateLimiter(s.cfg.RateLimitPerMinute, time.Minute), s.logger))
	}
	{
		fn.POST(EndPointChat, s.aiChat)
		fn.POST(EndPointDiet, s.dietAdvisor)
	}

	// Preflight requests never reach a route; the CORS middleware answers them.
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.gw.key == "" {
		s.logger.Warn("upstream key is not configured; function calls will fail")
	}

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(log.Fields{
			"addr":       s.cfg.Listen,
			"model":      s.cfg.Model,
			"rate_limit": s.cfg.RateLimitPerMinute,
		}).Info("fitbuddy functions listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
