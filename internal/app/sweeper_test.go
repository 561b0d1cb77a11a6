package app

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/tollgate-ai/tollgate/internal/metrics"
	"github.com/tollgate-ai/tollgate/internal/storage"
)

func TestSweeper_PurgesExpiredSnapshots(t *testing.T) {
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer store.Close()

	model := "gpt-4"
	tx := &storage.Transaction{
		ProjectID:    "proj-1",
		Provider:     "openai",
		Model:        &model,
		Type:         "chat",
		StatusCode:   200,
		RequestTime:  time.Now().UTC().Add(-time.Second),
		ResponseTime: time.Now().UTC(),
	}
	if err := store.AddTransaction(tx); err != nil {
		t.Fatalf("failed to add transaction: %v", err)
	}

	expired := &storage.RawTransaction{
		TransactionID: tx.ID,
		Kind:          storage.RawKindRequest,
		CreatedAt:     time.Now().UTC().AddDate(0, 0, -60),
	}
	fresh := &storage.RawTransaction{
		TransactionID: tx.ID,
		Kind:          storage.RawKindResponse,
	}
	for _, raw := range []*storage.RawTransaction{expired, fresh} {
		if err := store.AddRawTransaction(raw); err != nil {
			t.Fatalf("failed to add raw snapshot: %v", err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := NewSweeper(store, metrics.New(), logger, 30)
	if err := sweeper.Start(); err != nil {
		t.Fatalf("failed to start sweeper: %v", err)
	}
	defer sweeper.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		raws, err := store.GetRawTransactions(tx.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(raws) == 1 {
			if raws[0].Kind != storage.RawKindResponse {
				t.Fatalf("wrong snapshot survived: %s", raws[0].Kind)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expired snapshot was not purged")
}

func TestSweeper_DisabledRetention(t *testing.T) {
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer store.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := NewSweeper(store, metrics.New(), logger, 0)
	if err := sweeper.Start(); err != nil {
		t.Fatalf("disabled sweeper must start cleanly: %v", err)
	}
	sweeper.Stop()
}
