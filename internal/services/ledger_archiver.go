package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/heracore/backend/internal/infrastructure/archive"
	"github.com/heracore/backend/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ArchiverConfig controls the ledger lookback window and sweep cadence.
type ArchiverConfig struct {
	Interval  time.Duration
	Retention time.Duration
	BatchSize int
}

// LedgerArchiver keeps the idempotency ledger bounded: on a cron schedule
// it moves entries older than the retention window out of Postgres into the
// BoltDB archive. Pruned entries are past the replay window, so a crash
// between delete and archive can at worst shorten the audit trail.
type LedgerArchiver struct {
	ledger  repository.LedgerRepository
	store   *archive.Store
	monitor ConnectionHealth
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ArchiverConfig
}

func NewLedgerArchiver(
	ledger repository.LedgerRepository,
	store *archive.Store,
	monitor ConnectionHealth,
	logger *zap.Logger,
	cfg ArchiverConfig,
) *LedgerArchiver {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	la := &LedgerArchiver{
		ledger:  ledger,
		store:   store,
		monitor: monitor,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = la.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := la.Sweep(ctx); err != nil {
			la.logger.Error("ledger sweep failed", zap.Error(err))
		}
	})

	return la
}

// Start launches the cron scheduler.
func (la *LedgerArchiver) Start() {
	if la == nil || la.cron == nil {
		return
	}
	la.cron.Start()
	la.logger.Info("ledger archiver started",
		zap.Duration("interval", la.cfg.Interval),
		zap.Duration("retention", la.cfg.Retention))
}

// Stop gracefully stops the scheduler.
func (la *LedgerArchiver) Stop(ctx context.Context) {
	if la == nil || la.cron == nil {
		return
	}
	stopCtx := la.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	la.logger.Info("ledger archiver stopped")
}

// Sweep archives one pass of expired ledger entries synchronously.
func (la *LedgerArchiver) Sweep(ctx context.Context) error {
	if la == nil || la.ledger == nil {
		return nil
	}
	if la.monitor != nil && !la.monitor.IsOnline() {
		la.logger.Debug("skipping ledger sweep (offline)")
		return nil
	}

	cutoff := time.Now().Add(-la.cfg.Retention)
	total := 0

	for {
		entries, err := la.ledger.PruneBefore(ctx, cutoff, la.cfg.BatchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			break
		}

		if la.store != nil {
			records := make([]archive.Record, 0, len(entries))
			for i := range entries {
				records = append(records, archive.Record{
					OrganizationID: entries[i].OrganizationID,
					SmartCode:      entries[i].SmartCode,
					IdempotencyKey: entries[i].IdempotencyKey,
					PayloadHash:    entries[i].PayloadHash,
					CorrelationID:  entries[i].CorrelationID,
					Result:         entries[i].Result,
					ExecutedAt:     entries[i].CreatedAt,
				})
			}
			if err := la.store.Put(records); err != nil {
				return err
			}
		}

		total += len(entries)
		if len(entries) < la.cfg.BatchSize {
			break
		}
	}

	if total > 0 {
		la.logger.Info("ledger entries archived", zap.Int("count", total))
	}
	return nil
}
