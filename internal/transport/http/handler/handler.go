// Package handler implements the gateway's HTTP surface: the metering
// proxy route, the statistics endpoints, and infra endpoints.
package handler

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/tollgate-ai/tollgate/internal/metrics"
	"github.com/tollgate-ai/tollgate/internal/storage"
	"github.com/tollgate-ai/tollgate/internal/transaction"
)

const (
	// upstreamDialTimeout bounds connection establishment; the overall
	// call may stream for much longer.
	upstreamDialTimeout = 50 * time.Second

	// upstreamTimeout bounds the whole upstream exchange.
	upstreamTimeout = 100 * time.Second

	// projectCacheTTL controls how long a resolved project stays
	// cached before the next request re-reads it from storage.
	projectCacheTTL = time.Minute

	// captureLimit caps how much of a streamed response body is kept
	// for the background transaction build.
	captureLimit = 1 << 20
)

// Handlers composes the gateway's HTTP handlers.
type Handlers struct {
	store    storage.Storage
	builder  *transaction.Builder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	projects *ristretto.Cache[string, *storage.Project]
	client   *http.Client
}

// New creates the handler set with a shared upstream client and a
// project-resolution cache.
func New(store storage.Storage, builder *transaction.Builder, m *metrics.Metrics, logger *slog.Logger) (*Handlers, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, *storage.Project]{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &Handlers{
		store:    store,
		builder:  builder,
		metrics:  m,
		logger:   logger,
		projects: cache,
		client: &http.Client{
			Timeout: upstreamTimeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: upstreamDialTimeout}).DialContext,
				DisableCompression:  true,
				MaxIdleConnsPerHost: 32,
			},
		},
	}, nil
}

// resolveProject returns the project for a slug, consulting the cache
// first. Staleness is bounded by the cache TTL.
func (h *Handlers) resolveProject(slug string) (*storage.Project, error) {
	if project, ok := h.projects.Get(slug); ok {
		return project, nil
	}
	project, err := h.store.GetProjectBySlug(slug)
	if err != nil {
		return nil, err
	}
	h.projects.SetWithTTL(slug, project, 1, projectCacheTTL)
	return project, nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	}, status)
}
