package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/cveledger-backend/internal/model"
)

// InsertRecords stores archive rows in ClickHouse.
func (r *Repository) InsertRecords(ctx context.Context, rows []model.ArchiveRow) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_records", err, start)
	}()

	if len(rows) == 0 {
		return nil
	}

	const query = `
INSERT INTO cve_archive (
	cve_id,
	severity,
	cvss_score,
	source,
	description,
	block_index,
	block_hash,
	block_time,
	reported_at
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare records batch: %w", err)
	}

	for _, row := range rows {
		if err = batch.Append(
			row.CVEID,
			row.Severity,
			row.CVSSScore,
			row.Source,
			row.Description,
			row.BlockIndex,
			row.BlockHash,
			row.BlockTime,
			row.ReportedAt,
		); err != nil {
			return fmt.Errorf("append record: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}
	return nil
}
