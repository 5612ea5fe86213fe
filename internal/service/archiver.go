package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/cveledger-backend/internal/ledger"
	"github.com/goodnatureofminers/cveledger-backend/internal/model"
	"github.com/goodnatureofminers/cveledger-backend/pkg/batcher"
)

// ArchiveRepository persists archive rows. Implemented by the ClickHouse
// repository.
type ArchiveRepository interface {
	InsertRecords(ctx context.Context, rows []model.ArchiveRow) error
}

// ArchiveExporter buffers archive rows and flushes them to the repository
// in rate limited batches, so mining never blocks on ClickHouse.
type ArchiveExporter struct {
	batcher *batcher.Batcher[model.ArchiveRow]
}

// NewArchiveExporter builds an exporter flushing batches of flushSize or
// whatever accumulated within flushInterval.
func NewArchiveExporter(
	repo ArchiveRepository,
	flushSize int,
	flushInterval time.Duration,
	logger *zap.Logger,
) *ArchiveExporter {
	sink := func(ctx context.Context, rows []model.ArchiveRow) error {
		return repo.InsertRecords(ctx, rows)
	}
	return &ArchiveExporter{
		batcher: batcher.New(logger, sink, flushSize, flushInterval, 1),
	}
}

// Start launches the background flush loop.
func (e *ArchiveExporter) Start(ctx context.Context) {
	e.batcher.Start(ctx)
}

// Stop flushes buffered rows and waits for the loop to exit.
func (e *ArchiveExporter) Stop() {
	e.batcher.Stop()
}

// Archive queues the rows for the next flush.
func (e *ArchiveExporter) Archive(ctx context.Context, rows []model.ArchiveRow) error {
	for _, row := range rows {
		if err := e.batcher.Add(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// ArchiveRows flattens a committed block into archive rows.
func ArchiveRows(block ledger.Block) []model.ArchiveRow {
	rows := make([]model.ArchiveRow, 0, len(block.Records))
	for _, r := range block.Records {
		rows = append(rows, model.ArchiveRow{
			CVEID:       r.ID,
			Severity:    string(r.Severity),
			CVSSScore:   r.CVSSScore,
			Source:      r.Source,
			Description: r.Description,
			BlockIndex:  block.Index,
			BlockHash:   block.Hash,
			BlockTime:   time.Unix(block.Timestamp, 0).UTC(),
			ReportedAt:  r.ReportedAt,
		})
	}
	return rows
}
