package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/tollgate-ai/tollgate/internal/stats"
	"github.com/tollgate-ai/tollgate/internal/storage"
)

// Statistics answers GET /statistics/{kind} where kind is cost, count,
// or speed. All validation happens before any storage read; an unknown
// project simply yields an empty report.
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	switch kind {
	case "cost", "count", "speed":
	default:
		writeJSONError(w, "unknown statistic: "+kind, http.StatusNotFound)
		return
	}

	query := r.URL.Query()

	projectID := query.Get("project_id")
	if projectID == "" {
		writeJSONError(w, "project_id is required", http.StatusBadRequest)
		return
	}

	granularity, err := stats.ParseGranularity(query.Get("period"))
	if err != nil {
		writeJSONError(w, "unknown period: "+query.Get("period"), http.StatusBadRequest)
		return
	}

	from, err := parseDate(query.Get("date_from"))
	if err != nil {
		writeJSONError(w, "invalid date_from", http.StatusBadRequest)
		return
	}
	to, err := parseDate(query.Get("date_to"))
	if err != nil {
		writeJSONError(w, "invalid date_to", http.StatusBadRequest)
		return
	}
	if from != nil && to != nil && from.After(*to) {
		writeJSONError(w, "date_from must not be after date_to", http.StatusBadRequest)
		return
	}
	from, to = stats.NormalizeWindow(from, to)

	txs, err := h.store.GetTransactions(storage.TransactionFilter{
		ProjectID: projectID,
		Provider:  query.Get("provider"),
		Model:     query.Get("model"),
		Tags:      splitTags(query.Get("tags")),
		DateFrom:  from,
		DateTo:    to,
	})
	if err != nil {
		h.logger.Error("statistics query failed", "project_id", projectID, "error", err)
		writeJSONError(w, "statistics query failed", http.StatusInternalServerError)
		return
	}

	switch kind {
	case "cost":
		writeJSON(w, stats.Usage(txs, granularity, from, to), http.StatusOK)
	case "count":
		writeJSON(w, stats.Status(txs, granularity, from, to), http.StatusOK)
	case "speed":
		writeJSON(w, stats.Latency(txs, granularity, from, to), http.StatusOK)
	}
}

// parseDate accepts RFC 3339 timestamps or bare 2006-01-02 dates.
// Empty input means no bound.
func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	return nil, errors.New("unrecognized date format")
}
