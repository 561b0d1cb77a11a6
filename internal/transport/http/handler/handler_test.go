package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tollgate-ai/tollgate/internal/extractor"
	"github.com/tollgate-ai/tollgate/internal/metrics"
	"github.com/tollgate-ai/tollgate/internal/pricing"
	"github.com/tollgate-ai/tollgate/internal/storage"
	"github.com/tollgate-ai/tollgate/internal/transaction"
)

type testEnv struct {
	mux     *http.ServeMux
	store   storage.Storage
	project *storage.Project
}

func newTestEnv(t *testing.T, upstreamURL string) *testEnv {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	project := &storage.Project{
		Slug: "acme",
		Providers: []storage.AIProvider{
			{Slug: "openai", APIBase: upstreamURL},
		},
	}
	if err := store.CreateProject(project); err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}

	pricelist, err := pricing.NewPricelist(nil)
	if err != nil {
		t.Fatalf("failed to create pricelist: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	builder := transaction.NewBuilder(extractor.NewRegistry(), pricelist, nil, store, logger)

	handlers, err := New(store, builder, metrics.New(), logger)
	if err != nil {
		t.Fatalf("failed to create handlers: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /statistics/{kind}", handlers.Statistics)
	mux.HandleFunc("GET /api/health", handlers.HealthCheck)
	mux.HandleFunc("/{project}/{provider}/{path...}", handlers.Gateway)

	return &testEnv{mux: mux, store: store, project: project}
}

func waitForTransactions(t *testing.T, store storage.Storage, want int64) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		n, err := store.CountTransactions(storage.TransactionFilter{})
		if err == nil && n >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d background transactions", want)
}

func TestGateway_ProxiesAndRecordsTransaction(t *testing.T) {
	var gotPath, gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"model":"gpt-4","choices":[{"index":0,"message":{"role":"assistant","content":"hi"}}],"usage":{"prompt_tokens":10,"completion_tokens":20}}`)
	}))
	defer upstream.Close()

	env := newTestEnv(t, upstream.URL)

	body := `{"model":"gpt-4","messages":[{"role":"user","content":"hello"}]}`
	req := httptest.NewRequest(http.MethodPost,
		"/acme/openai/v1/chat/completions?tags=team-a,batch", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer sk-test")
	rec := httptest.NewRecorder()

	env.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if gotPath != "/v1/chat/completions" {
		t.Errorf("upstream path = %q", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("authorization not forwarded: %q", gotAuth)
	}
	if !strings.Contains(rec.Body.String(), `"content":"hi"`) {
		t.Errorf("upstream body not relayed: %s", rec.Body.String())
	}

	waitForTransactions(t, env.store, 1)

	txs, err := env.store.GetTransactions(storage.TransactionFilter{ProjectID: env.project.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	tx := txs[0]
	if tx.Provider != "openai" || tx.Type != "chat" {
		t.Errorf("provider/type = %s/%s", tx.Provider, tx.Type)
	}
	if tx.InputTokens == nil || *tx.InputTokens != 10 {
		t.Errorf("input tokens = %v, want 10", tx.InputTokens)
	}
	if len(tx.Tags) != 2 || tx.Tags[0] != "team-a" {
		t.Errorf("tags = %v", tx.Tags)
	}
}

func TestGateway_UnknownProjectAndProvider(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:0")

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ghost/openai/v1/chat/completions", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown project status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/acme/mistral/v1/chat/completions", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown provider status = %d, want 404", rec.Code)
	}
}

func TestGateway_UpstreamFailureIs502(t *testing.T) {
	// Nothing listens on this address.
	env := newTestEnv(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/acme/openai/v1/chat/completions", strings.NewReader("{}")))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestGateway_ChunkedUpstreamRepliesWithEnvelope(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Flushing without Content-Length forces chunked encoding.
		fl := w.(http.Flusher)
		fmt.Fprint(w, `data: {"choices":[]}`)
		fl.Flush()
		fmt.Fprint(w, "\n\ndata: [DONE]\n\n")
		fl.Flush()
	}))
	defer upstream.Close()

	env := newTestEnv(t, upstream.URL)

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/acme/openai/v1/chat/completions", strings.NewReader(`{"model":"gpt-4","messages":[]}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var envelope struct {
		StatusCode int    `json:"status_code"`
		Content    string `json:"content"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("reply is not the JSON envelope: %v", err)
	}
	if envelope.StatusCode != http.StatusOK {
		t.Errorf("envelope status = %d", envelope.StatusCode)
	}
	if !strings.Contains(envelope.Content, "[DONE]") {
		t.Errorf("envelope content truncated: %q", envelope.Content)
	}
}

func TestGateway_TargetPathFallback(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{}`)
	}))
	defer upstream.Close()

	env := newTestEnv(t, upstream.URL)

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/acme/openai/?target_path=v1%2Fembeddings", strings.NewReader("{}")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotPath != "/v1/embeddings" {
		t.Errorf("upstream path = %q, want /v1/embeddings", gotPath)
	}
}

func TestStatistics_Validation(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:0")

	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantBody   string
	}{
		{"missing project", "/statistics/cost?period=day", http.StatusBadRequest, "project_id is required"},
		{"bad period", "/statistics/cost?project_id=p&period=fortnight", http.StatusBadRequest, "unknown period"},
		{"bad date", "/statistics/cost?project_id=p&period=day&date_from=yesterday", http.StatusBadRequest, "invalid date_from"},
		{"inverted window", "/statistics/cost?project_id=p&period=day&date_from=2024-03-05&date_to=2024-03-01",
			http.StatusBadRequest, "date_from must not be after date_to"},
		{"unknown kind", "/statistics/tokens?project_id=p&period=day", http.StatusNotFound, "unknown statistic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestStatistics_UnknownProjectIsEmptyList(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:0")

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/statistics/count?project_id=does-not-exist&period=day", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestStatistics_CountReport(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:0")
	at := time.Date(2024, 3, 1, 10, 1, 0, 0, time.UTC)

	model := "gpt-4"
	for _, status := range []int{200, 400} {
		tx := &storage.Transaction{
			ProjectID:    env.project.ID,
			Provider:     "openai",
			Model:        &model,
			Type:         "chat",
			StatusCode:   status,
			RequestTime:  at.Add(-time.Second),
			ResponseTime: at,
		}
		if err := env.store.AddTransaction(tx); err != nil {
			t.Fatalf("failed to seed transaction: %v", err)
		}
		at = at.Add(time.Minute)
	}

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/statistics/count?project_id="+env.project.ID+"&period=5minutes", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var buckets []struct {
		Records []struct {
			Status200        int64 `json:"status_200"`
			Status400        int64 `json:"status_400"`
			TransactionCount int64 `json:"transaction_count"`
		} `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &buckets); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(buckets) != 1 || len(buckets[0].Records) != 1 {
		t.Fatalf("bucket shape = %s", rec.Body.String())
	}
	record := buckets[0].Records[0]
	if record.Status200 != 1 || record.Status400 != 1 || record.TransactionCount != 2 {
		t.Errorf("record = %+v", record)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:0")

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "active") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
