// Package snapshot persists the chain and pending queue as one versioned
// JSON document with atomic replacement semantics.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/cveledger-backend/internal/ledger"
	"github.com/goodnatureofminers/cveledger-backend/internal/model"
)

// Version identifies the snapshot document layout.
const Version = 1

// Snapshot is the durable form of the engine state: the full block
// sequence plus the pending records in insertion order.
type Snapshot struct {
	Version    int            `json:"version"`
	Difficulty int            `json:"difficulty"`
	Blocks     []ledger.Block `json:"blocks"`
	Pending    []model.Record `json:"pending"`
}

// Store reads and writes snapshots at a fixed path. It owns no engine
// state; callers hand it a consistent view to serialize.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore returns a store writing to path.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Save writes the engine state to a temporary file in the target directory
// and renames it over the previous copy, so a crash mid-write never leaves
// a partial document at the canonical path.
func (s *Store) Save(engine *ledger.Engine) error {
	snap := Snapshot{
		Version:    Version,
		Difficulty: engine.Chain().Difficulty(),
		Blocks:     engine.Chain().Blocks(),
		Pending:    engine.Queue().Records(),
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// Best effort: gone already if the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace snapshot %s: %w", s.path, err)
	}

	s.logger.Debug("snapshot saved",
		zap.String("path", s.path),
		zap.Int("blocks", len(snap.Blocks)),
		zap.Int("pending", len(snap.Pending)))
	return nil
}

// Load reconstructs a full engine, record index included, from the
// snapshot on disk. A missing file is reported as os.ErrNotExist so
// callers can start fresh; anything structurally wrong fails loudly,
// since silently restarting from an empty chain would be data loss.
//
// Callers are expected to run Validate on the result and treat failure as
// a startup-blocking condition.
func (s *Store) Load(difficulty int) (*ledger.Engine, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("snapshot %s: %w", s.path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("corrupt snapshot %s: %w", s.path, err)
	}
	if snap.Version != Version {
		return nil, fmt.Errorf("snapshot %s: unsupported version %d", s.path, snap.Version)
	}
	if snap.Difficulty != difficulty {
		return nil, fmt.Errorf("snapshot %s: difficulty %d does not match configured %d",
			s.path, snap.Difficulty, difficulty)
	}

	chain, err := ledger.NewChainFromBlocks(snap.Blocks, snap.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("rebuild chain from %s: %w", s.path, err)
	}
	queue, err := ledger.NewPendingQueueFromRecords(snap.Pending)
	if err != nil {
		return nil, fmt.Errorf("rebuild pending queue from %s: %w", s.path, err)
	}
	for _, r := range snap.Pending {
		if chain.HasRecord(r.ID) {
			return nil, fmt.Errorf("snapshot %s: record %s both pending and committed", s.path, r.ID)
		}
	}

	s.logger.Info("snapshot loaded",
		zap.String("path", s.path),
		zap.Uint64("height", chain.Height()),
		zap.Int("pending", queue.Size()))
	return ledger.NewEngineFromState(chain, queue), nil
}
