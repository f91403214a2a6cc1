package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"tour-planner/internal/database"
	"tour-planner/internal/handlers"
	"tour-planner/internal/metrics"
	"tour-planner/internal/planner"
)

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	store      database.DataStore
	listener   net.Listener
	addr       string
	logger     zerolog.Logger
}

// Config holds server configuration
type Config struct {
	Addr         string // e.g., "127.0.0.1:8080" or "127.0.0.1:0" for random port
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodyBytes int64

	Planner *planner.Planner
	// Store is optional. When set it backs /healthz and the run history
	// endpoints, and is closed on Shutdown.
	Store    database.DataStore
	Registry *prometheus.Registry
	Logger   zerolog.Logger
}

// New creates and initializes a new server (does not start it)
func New(cfg Config) (*Server, error) {
	if cfg.Planner == nil {
		return nil, fmt.Errorf("server requires a planner")
	}

	handler := &handlers.Handler{
		Planner:      cfg.Planner,
		Store:        cfg.Store,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Logger:       cfg.Logger,
	}
	if cfg.Store != nil {
		handler.Runs = cfg.Store.Runs()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = metrics.Init(cfg.Logger)
	}

	mux := setupRoutes(handler, registry)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      requestIDMiddleware(loggingMiddleware(cfg.Logger)(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		store:      cfg.Store,
		addr:       cfg.Addr,
		logger:     cfg.Logger,
	}, nil
}

// Handler returns the fully wired HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	s.logger.Info().Str("addr", actualAddr).Msg("starting server")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("server error")
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// setupRoutes configures all HTTP routes
func setupRoutes(handler *handlers.Handler, registry *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleHealthCheck(w, r)
	})

	mux.Handle("/metrics", metrics.Handler(registry))

	mux.HandleFunc("/api/v1/tours", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandlePlanTour(w, r)
	})

	mux.HandleFunc("/api/v1/solve", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleSolveMatrix(w, r)
	})

	mux.HandleFunc("/api/v1/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleListRuns(w, r)
	})

	mux.HandleFunc("/api/v1/runs/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/runs/" {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleGetRun(w, r)
	})

	return mux
}
