// Package api exposes the document service over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrz1836/docsign/internal/constants"
	"github.com/mrz1836/docsign/internal/document"
	"github.com/mrz1836/docsign/internal/metrics"
)

// Options configure a Server.
type Options struct {
	Addr           string
	RateLimitRPS   float64
	RateLimitBurst int
	MetricsPath    string
	// MaxUploadSize bounds multipart file parts.
	MaxUploadSize int64
}

// Server serves the docsign HTTP API under /api/v1.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	docs       *document.Service
	metrics    *metrics.Metrics
	limiter    *ipLimiter
	logger     zerolog.Logger
	opts       Options
}

// NewServer builds the router. m may be nil, in which case /metrics is not mounted.
func NewServer(docs *document.Service, m *metrics.Metrics, logger zerolog.Logger, opts Options) *Server {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = constants.DefaultMaxContentSize
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = constants.DefaultMetricsPath
	}

	router := gin.New()
	s := &Server{
		router:  router,
		docs:    docs,
		metrics: m,
		limiter: newIPLimiter(opts.RateLimitRPS, opts.RateLimitBurst, 0),
		logger:  logger.With().Str("component", "api").Logger(),
		opts:    opts,
	}
	router.Use(gin.Recovery(), requestID(), s.accessLog(), s.rateLimit())
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.health)
	s.router.GET("/s/:token", s.resolveShare)
	if s.metrics != nil {
		s.router.GET(s.opts.MetricsPath, gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/documents", s.uploadDocument)
		v1.GET("/documents", s.listDocuments)
		v1.GET("/documents/:ref", s.getDocument)
		v1.GET("/documents/:ref/content", s.getContent)
		v1.GET("/documents/:ref/verify", s.verifyDocument)
		v1.POST("/documents/:ref/share", s.shareDocument)
		v1.DELETE("/documents/:ref", s.deleteDocument)
		v1.POST("/verify", s.verifyDetached)
		v1.GET("/s/:token", s.resolveShare)
		v1.GET("/keys/:identity", s.getPublicKey)
		v1.POST("/keys/:identity", s.provisionKey)
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts serving on the configured address. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.opts.Addr).Msg("http api listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("http api shutting down")
	return s.httpServer.Shutdown(ctx)
}
