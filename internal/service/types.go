package service

import (
	"context"
	"time"

	"github.com/goodnatureofminers/cveledger-backend/internal/ledger"
	"github.com/goodnatureofminers/cveledger-backend/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Fetcher interface {
		Recent(ctx context.Context, days int) ([]model.Record, error)
		SearchByID(ctx context.Context, id string) (*model.Record, error)
	}

	BackupCache interface {
		WriteBackup(records []model.Record) (string, error)
	}

	Archiver interface {
		Archive(ctx context.Context, rows []model.ArchiveRow) error
	}

	SnapshotStore interface {
		Save(engine *ledger.Engine) error
	}

	LedgerMetrics interface {
		ObserveSubmit(err error)
		ObserveMine(err error, records int, started time.Time)
	}

	SyncMetrics interface {
		ObserveRun(err error, fetched, staged int, started time.Time)
	}
)
