package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/joshdurbin/shortlinks/internal/logger"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	port   string
	log    *logger.Logger
}

// NewServer creates a new HTTP server; metrics may be nil to leave /metrics unmounted
func NewServer(handler *Handler, metrics http.Handler, port string, verbose bool, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}

	mux := http.NewServeMux()
	handler.Register(mux)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      Chain(mux, RequestID, Logging(log, verbose), Recovery(log)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		server: server,
		port:   port,
		log:    log,
	}
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.log.Info("server starting", "port", s.port)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("server shutting down")
	return s.server.Shutdown(ctx)
}

// Port returns the server port
func (s *Server) Port() string {
	return s.port
}

// Handler returns the fully wrapped handler (useful for testing)
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
