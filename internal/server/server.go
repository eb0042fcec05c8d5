// Package server provides the HTTP API for docparse.
package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hyperjump/docparse/internal/config"
	"github.com/hyperjump/docparse/internal/metrics"
	"github.com/hyperjump/docparse/internal/service"
	"go.uber.org/zap"
)

// Captioner describes images. Implemented by *caption.Client.
type Captioner interface {
	Caption(ctx context.Context, image []byte, prompt string) (string, error)
}

// Server is the HTTP server for the docparse API.
type Server struct {
	parser    *service.Parser
	captioner Captioner
	metrics   *metrics.Metrics
	config    *config.ServerConfig
	uploadDir string
	logger    *zap.Logger
	server    *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithCaptioner enables the /caption endpoint.
func WithCaptioner(c Captioner) ServerOption {
	return func(s *Server) { s.captioner = c }
}

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithUploadDir sets where uploads are stored while they are parsed.
// Defaults to os.TempDir().
func WithUploadDir(dir string) ServerOption {
	return func(s *Server) { s.uploadDir = dir }
}

// NewServer creates a server with the given dependencies.
func NewServer(parser *service.Parser, cfg *config.ServerConfig, logger *zap.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		parser:    parser,
		config:    cfg,
		uploadDir: os.TempDir(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Post("/parse", s.handleParse)
	r.Post("/parse-path", s.handleParsePath)
	r.Post("/xlsx-to-md", s.handleXLSXToMarkdown)
	r.Post("/caption", s.handleCaption)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 30 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
