package app

import (
	"log/slog"
	"net/http"

	"github.com/tollgate-ai/tollgate/internal/metrics"
	"github.com/tollgate-ai/tollgate/internal/transport/http/handler"
	"github.com/tollgate-ai/tollgate/internal/transport/http/middleware"
)

// RouterOptions configures the HTTP router behavior.
type RouterOptions struct {
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	EnableMetrics bool
}

// NewRouter wires all application routes and applies the middleware
// chain. The catch-all gateway route comes last so the literal routes
// win on overlap.
func NewRouter(handlers *handler.Handlers, opts *RouterOptions) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.HealthCheck)
	mux.HandleFunc("GET /statistics/{kind}", handlers.Statistics)
	mux.HandleFunc("GET /{$}", handlers.RootStatus)

	if opts.EnableMetrics && opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	// Metering proxy, any method.
	mux.HandleFunc("/{project}/{provider}/{path...}", handlers.Gateway)

	// Middleware chain, outer to inner.
	var h http.Handler = mux
	if opts.Logger != nil {
		h = middleware.RequestLogger(opts.Logger)(h)
	}
	h = middleware.RequestID(h)
	h = middleware.CORS(h)

	return h
}
