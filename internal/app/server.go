package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tollgate-ai/tollgate/internal/config"
)

// Server wraps the HTTP server with its configuration.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server instance. Timeouts are
// generous on purpose: model responses can stream for minutes and a
// tight ReadTimeout/WriteTimeout would kill them mid-stream.
func NewServer(cfg *config.Config, h http.Handler, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      h,
			ReadTimeout:  300 * time.Second,
			WriteTimeout: 300 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening and serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}
