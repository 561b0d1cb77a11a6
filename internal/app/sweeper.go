package app

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tollgate-ai/tollgate/internal/metrics"
	"github.com/tollgate-ai/tollgate/internal/storage"
)

// Sweeper periodically purges raw request/response snapshots past the
// retention window. Transactions themselves are never removed.
type Sweeper struct {
	cron          *cron.Cron
	store         storage.Storage
	metrics       *metrics.Metrics
	logger        *slog.Logger
	retentionDays int
}

// NewSweeper creates the retention sweeper. retentionDays <= 0
// disables it.
func NewSweeper(store storage.Storage, m *metrics.Metrics, logger *slog.Logger, retentionDays int) *Sweeper {
	return &Sweeper{
		cron:          cron.New(),
		store:         store,
		metrics:       m,
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// Start runs one sweep immediately and schedules a daily one.
func (s *Sweeper) Start() error {
	if s.retentionDays <= 0 {
		s.logger.Info("raw snapshot retention disabled")
		return nil
	}

	if _, err := s.cron.AddFunc("@daily", s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	go s.sweep()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) sweep() {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	purged, err := s.store.PurgeRawTransactionsBefore(cutoff)
	if err != nil {
		s.logger.Error("raw snapshot sweep failed", "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.RawSnapshotsSwept(purged)
	}
	s.logger.Info("raw snapshot sweep complete", "purged", purged, "cutoff", cutoff)
}
