package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"fbvideodl/internal/httputil"
	"fbvideodl/internal/metrics"
	"fbvideodl/internal/ratelimit"
	"fbvideodl/pkg/models"
)

const ServiceName = "Facebook Video Downloader API"

// Version is overridden at build time with -ldflags "-X fbvideodl/internal/api.Version=..."
var Version = "1.0.0"

var (
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrServerNotRunning     = errors.New("server is not running")
)

// VideoLookup runs the extraction pipeline for one request
type VideoLookup interface {
	Lookup(ctx context.Context, req models.VideoRequest) (*models.ExtractionResult, error)
}

// Worker is a background component whose lifetime follows the server's
type Worker interface {
	Start() error
	Stop() error
}

// Options holds the server's collaborators
type Options struct {
	Service      VideoLookup
	Limiter      *ratelimit.Limiter
	Worker       Worker
	StreamClient *http.Client
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	config       *models.Config
	service      VideoLookup
	limiter      *ratelimit.Limiter
	worker       Worker
	streamClient *http.Client
	metrics      *metrics.Metrics
	logger       *zap.Logger
	router       *chi.Mux
	server       *http.Server
	listener     net.Listener
	running      bool
	mu           sync.RWMutex
}

// NewServer creates a new HTTP server
func NewServer(config *models.Config, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	streamClient := opts.StreamClient
	if streamClient == nil {
		streamClient = httputil.NewClient(0)
	}
	streamClient = httputil.RestrictRedirects(streamClient, config.AllowedStreamHosts())

	s := &Server{
		config:       config,
		service:      opts.Service,
		limiter:      opts.Limiter,
		worker:       opts.Worker,
		streamClient: streamClient,
		metrics:      opts.Metrics,
		logger:       logger.Named("api"),
		router:       chi.NewRouter(),
	}

	s.setupRoutes()

	return s
}

// apiTimeout bounds the JSON routes. It leaves room for the resolver and
// extractor to hit their own deadlines first.
func (s *Server) apiTimeout() time.Duration {
	return s.config.ResolveTimeout() + s.config.ExtractTimeout() + 5*time.Second
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.apiTimeout()))

		r.With(s.rateLimit).Post("/download", s.handleDownload)
		r.With(s.rateLimit).Post("/info", s.handleInfo)
		r.Get("/qualities", s.handleQualities)
		r.Get("/health", s.handleHealth)
	})

	// long-lived transfers set their own deadline
	s.router.Get("/stream/{id}", s.handleStream)

	s.router.Handle("/metrics", s.metrics.Handler())
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrServerAlreadyRunning
	}

	addr := s.GetAddr()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	if s.worker != nil {
		if err := s.worker.Start(); err != nil {
			listener.Close()
			return fmt.Errorf("failed to start worker: %w", err)
		}
	}
	if s.limiter != nil {
		s.limiter.StartSweeper(s.config.SweepInterval())
	}

	s.listener = listener
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.apiTimeout() + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.server = httpServer

	s.running = true

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", zap.Error(err))
		}
	}()

	s.logger.Info("server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Int("rate_limit_requests", s.config.RateLimitRequests),
		zap.Int("rate_limit_window", s.config.RateLimitWindow),
	)

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrServerNotRunning
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := s.server.Shutdown(ctx)

	// stop background work only once no handler can submit to it
	if s.worker != nil {
		if err := s.worker.Stop(); err != nil {
			s.logger.Warn("worker stop error", zap.Error(err))
		}
	}
	if s.limiter != nil {
		s.limiter.Stop()
	}

	s.running = false
	s.server = nil
	s.listener = nil

	if shutdownErr != nil {
		return fmt.Errorf("server shutdown failed: %w", shutdownErr)
	}
	return nil
}

// IsRunning returns whether the server is currently running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// GetAddr returns the configured listen address
func (s *Server) GetAddr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// GetActualAddr returns the actual listening address (useful when port is 0)
func (s *Server) GetActualAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}

	return s.GetAddr()
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}
