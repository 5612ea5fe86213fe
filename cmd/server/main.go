package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/cveledger-backend/internal/ledger"
	"github.com/goodnatureofminers/cveledger-backend/internal/metrics"
	"github.com/goodnatureofminers/cveledger-backend/internal/nvd"
	"github.com/goodnatureofminers/cveledger-backend/internal/repository/clickhouse"
	"github.com/goodnatureofminers/cveledger-backend/internal/service"
	"github.com/goodnatureofminers/cveledger-backend/internal/snapshot"
	"github.com/goodnatureofminers/cveledger-backend/internal/transport"
)

var config struct {
	Addr          string        `long:"addr" env:"CVELEDGER_ADDR" description:"http listen address" default:":5000"`
	SnapshotPath  string        `long:"snapshot-path" env:"CVELEDGER_SNAPSHOT_PATH" description:"chain snapshot file" default:"data/chain.json"`
	Difficulty    int           `long:"difficulty" env:"CVELEDGER_DIFFICULTY" description:"proof of work difficulty (leading zero hex digits)" default:"4"`
	CacheDir      string        `long:"cache-dir" env:"CVELEDGER_CACHE_DIR" description:"directory for local CVE backups" default:"data/backups"`
	NVDAPIURL     string        `long:"nvd-api-url" env:"CVELEDGER_NVD_API_URL" description:"NVD CVE API base URL, default when empty"`
	NVDAPIKey     string        `long:"nvd-api-key" env:"CVELEDGER_NVD_API_KEY" description:"NVD API key, unauthenticated when empty"`
	SyncInterval  time.Duration `long:"sync-interval" env:"CVELEDGER_SYNC_INTERVAL" description:"periodic sync interval, 0 disables" default:"0"`
	SyncDays      int           `long:"sync-days" env:"CVELEDGER_SYNC_DAYS" description:"days of history per periodic sync" default:"7"`
	ClickhouseDSN string        `long:"clickhouse-dsn" env:"CVELEDGER_CLICKHOUSE_DSN" description:"archive ClickHouse DSN, archiving disabled when empty"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()
	if _, err := flags.ParseArgs(&config, os.Args); err != nil {
		logger.Fatal("Failed to parse arguments", zap.Error(err))
	}

	store := snapshot.NewStore(config.SnapshotPath, logger)
	engine, err := store.Load(config.Difficulty)
	switch {
	case err == nil:
		logger.Info("Ledger restored from snapshot", zap.String("path", config.SnapshotPath))
	case errors.Is(err, os.ErrNotExist):
		engine = ledger.NewEngine(config.Difficulty)
		logger.Info("No snapshot found, starting a fresh ledger",
			zap.String("path", config.SnapshotPath),
			zap.Int("difficulty", config.Difficulty))
	default:
		// A snapshot that exists but cannot be restored means possible
		// data loss; refusing to start is the only safe answer.
		logger.Fatal("Failed to load snapshot", zap.Error(err))
	}

	var archiver service.Archiver
	if config.ClickhouseDSN != "" {
		repo, err := clickhouse.NewRepository(config.ClickhouseDSN, metrics.NewArchive())
		if err != nil {
			logger.Fatal("Failed to open ClickHouse", zap.Error(err))
		}
		defer func() {
			_ = repo.Close()
		}()

		exporter := service.NewArchiveExporter(repo, 500, 5*time.Second, logger)
		exporter.Start(ctx)
		defer exporter.Stop()
		archiver = exporter
		logger.Info("Archive export enabled")
	}

	ledgerSvc := service.NewLedger(engine, store, archiver, metrics.NewLedger(), logger)

	fetcher := nvd.NewClient(nvd.Config{
		BaseURL: config.NVDAPIURL,
		APIKey:  config.NVDAPIKey,
	}, logger)
	cache := nvd.NewCache(config.CacheDir, logger)
	syncSvc := service.NewSync(ledgerSvc, fetcher, cache, metrics.NewSync(), logger)

	if config.SyncInterval > 0 {
		go func() {
			logger.Info("Periodic sync enabled",
				zap.Duration("interval", config.SyncInterval),
				zap.Int("days", config.SyncDays))
			if err := syncSvc.RunPeriodic(ctx, config.SyncInterval, config.SyncDays); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Periodic sync stopped", zap.Error(err))
			}
		}()
	}

	mux := transport.NewHandler(ledgerSvc, syncSvc, logger).Routes()
	mux.Handle("GET /metrics", promhttp.Handler())

	s := &http.Server{
		Addr:              config.Addr,
		Handler:           cors.Default().Handler(mux),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Minute, // mining at high difficulty is slow
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down the http server")
		if err := s.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown http server", zap.Error(err))
		}
	}()

	logger.Info("Starting HTTP server", zap.String("addr", config.Addr))
	if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Failed to listen and serve", zap.Error(err))
	}
}
