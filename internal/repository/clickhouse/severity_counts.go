package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/cveledger-backend/internal/model"
)

// SeverityCounts returns the number of archived records per severity.
func (r *Repository) SeverityCounts(ctx context.Context) ([]model.SeverityCount, error) {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("severity_counts", err, start)
	}()

	const query = `
SELECT severity, count() AS total
FROM cve_archive FINAL
GROUP BY severity
ORDER BY total DESC`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query severity counts: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	var counts []model.SeverityCount
	for rows.Next() {
		var c model.SeverityCount
		if err = rows.Scan(&c.Severity, &c.Count); err != nil {
			return nil, fmt.Errorf("scan severity count: %w", err)
		}
		counts = append(counts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate severity counts: %w", err)
	}

	return counts, nil
}
