package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/cveledger-backend/internal/clock"
	"github.com/goodnatureofminers/cveledger-backend/internal/ledger"
	"github.com/goodnatureofminers/cveledger-backend/internal/model"
)

// SyncReport summarizes one upstream sync run.
type SyncReport struct {
	Fetched    int    `json:"fetched"`
	Added      int    `json:"added"`
	Duplicates int    `json:"duplicates"`
	Invalid    int    `json:"invalid"`
	BackupPath string `json:"backup_path,omitempty"`
}

// Sync pulls recent records from the upstream feed and stages the new ones
// on the ledger.
type Sync struct {
	ledger  *Ledger
	fetcher Fetcher
	cache   BackupCache
	metrics SyncMetrics
	logger  *zap.Logger
}

// NewSync builds the sync service. cache may be nil to skip local backups.
func NewSync(ledger *Ledger, fetcher Fetcher, cache BackupCache, metrics SyncMetrics, logger *zap.Logger) *Sync {
	return &Sync{
		ledger:  ledger,
		fetcher: fetcher,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// SyncRecent fetches records published in the last days days, backs them up
// locally and stages everything not already known. Records the upstream
// feed serves with missing or mangled fields are counted, not fatal.
func (s *Sync) SyncRecent(ctx context.Context, days int) (SyncReport, error) {
	started := time.Now()
	var report SyncReport

	records, err := s.fetcher.Recent(ctx, days)
	if err != nil {
		s.metrics.ObserveRun(err, 0, 0, started)
		return report, fmt.Errorf("fetch recent records: %w", err)
	}
	report.Fetched = len(records)

	if s.cache != nil && len(records) > 0 {
		path, backupErr := s.cache.WriteBackup(records)
		if backupErr != nil {
			s.logger.Warn("backup write failed", zap.Error(backupErr))
		} else {
			report.BackupPath = path
		}
	}

	for _, r := range records {
		switch err := s.ledger.Submit(r); {
		case err == nil:
			report.Added++
		case isDuplicate(err):
			report.Duplicates++
		case isValidation(err):
			report.Invalid++
			s.logger.Warn("upstream record rejected", zap.String("cve_id", r.ID), zap.Error(err))
		default:
			s.metrics.ObserveRun(err, report.Fetched, report.Added, started)
			return report, fmt.Errorf("stage record %s: %w", r.ID, err)
		}
	}

	s.metrics.ObserveRun(nil, report.Fetched, report.Added, started)
	s.logger.Info("sync complete",
		zap.Int("fetched", report.Fetched),
		zap.Int("added", report.Added),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("invalid", report.Invalid))
	return report, nil
}

// SearchAndStage answers a single-id lookup. An id already committed to
// the chain is served from the chain without consulting the upstream feed,
// so known records stay answerable through upstream outages. Otherwise the
// feed is queried and, when the record exists and is not yet known, it is
// staged; staged reports whether that happened. An id missing both locally
// and upstream returns (nil, false, nil).
func (s *Sync) SearchAndStage(ctx context.Context, id string) (record *model.Record, staged bool, err error) {
	if committed, err := s.ledger.Get(id); err == nil {
		return &committed, false, nil
	}

	found, err := s.fetcher.SearchByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("search %s: %w", id, err)
	}
	if found == nil {
		return nil, false, nil
	}

	switch err := s.ledger.Submit(*found); {
	case err == nil:
		return found, true, nil
	case isDuplicate(err):
		return found, false, nil
	default:
		return nil, false, fmt.Errorf("stage record %s: %w", id, err)
	}
}

// RunPeriodic syncs every interval until the context ends. Individual run
// failures are logged and retried on the next tick.
func (s *Sync) RunPeriodic(ctx context.Context, interval time.Duration, days int) error {
	return clock.Every(ctx, interval, func(ctx context.Context) error {
		if _, err := s.SyncRecent(ctx, days); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("periodic sync failed", zap.Error(err))
		}
		return nil
	})
}

func isDuplicate(err error) bool {
	var dup *ledger.DuplicateError
	return errors.As(err, &dup)
}

func isValidation(err error) bool {
	var invalid *model.ValidationError
	return errors.As(err, &invalid)
}
