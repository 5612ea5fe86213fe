package nvd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/cveledger-backend/internal/model"
)

// Cache keeps local JSON backups of synced records so the data outlives
// upstream outages.
type Cache struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewCache returns a Cache writing under dir.
func NewCache(dir string, logger *zap.Logger) *Cache {
	return &Cache{dir: dir, logger: logger, now: time.Now}
}

type backupDocument struct {
	Timestamp string         `json:"timestamp"`
	Count     int            `json:"count"`
	CVEs      []model.Record `json:"cves"`
}

// WriteBackup stores the records in a timestamped file and returns its
// path. Empty input writes nothing.
func (c *Cache) WriteBackup(records []model.Record) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir %s: %w", c.dir, err)
	}

	stamp := c.now().UTC().Format("20060102_150405")
	path := filepath.Join(c.dir, fmt.Sprintf("cve_backup_%s.json", stamp))

	raw, err := json.MarshalIndent(backupDocument{
		Timestamp: stamp,
		Count:     len(records),
		CVEs:      records,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal backup: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write backup %s: %w", path, err)
	}

	c.logger.Info("records backed up", zap.Int("count", len(records)), zap.String("path", path))
	return path, nil
}
