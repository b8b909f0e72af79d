package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/chartbeat-labs/capitolwords/internal/config"
	dbRedis "github.com/chartbeat-labs/capitolwords/internal/db/redis"
	"github.com/chartbeat-labs/capitolwords/internal/domain/query"
	logpkg "github.com/chartbeat-labs/capitolwords/internal/logger"
	"github.com/chartbeat-labs/capitolwords/internal/metrics"
	"github.com/chartbeat-labs/capitolwords/internal/repository/postgres"
	recordrepo "github.com/chartbeat-labs/capitolwords/internal/repository/record"
	resultrepo "github.com/chartbeat-labs/capitolwords/internal/repository/result"
	speakerrepo "github.com/chartbeat-labs/capitolwords/internal/repository/speaker"
	topicrepo "github.com/chartbeat-labs/capitolwords/internal/repository/topic"
	monitoruc "github.com/chartbeat-labs/capitolwords/internal/usecase/monitor"
	"github.com/chartbeat-labs/capitolwords/internal/version"
)

func main() {
	var (
		dateFlag  = flag.String("date", "", "window start as YYYY-MM-DD (default: yesterday)")
		daysFlag  = flag.Int("days", 1, "window length in days forward")
		topicFlag = flag.String("topic", "", "run a single topic by name (default: all)")
	)
	flag.Parse()

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	// The daily job runs after midnight and covers the previous day.
	start := time.Now().UTC().AddDate(0, 0, -1)
	if *dateFlag != "" {
		start, err = time.Parse("2006-01-02", *dateFlag)
		if err != nil {
			logger.Fatal("Invalid -date, want YYYY-MM-DD", zap.String("date", *dateFlag))
		}
	}
	if *daysFlag < 1 {
		logger.Fatal("Invalid -days, must be positive", zap.Int("days", *daysFlag))
	}

	logger.Info("Starting topic monitor run",
		zap.String("version", version.Version),
		zap.Time("start", start),
		zap.Int("days", *daysFlag),
		zap.String("topic", *topicFlag),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Index.Addrs,
		Password: cfg.Index.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create index store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Index.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Index not ready", zap.Error(err))
	}

	pool, err := postgres.Connect(ctx, postgres.Config{
		DSN:            cfg.Postgres.DSN,
		MaxConns:       int32(cfg.Postgres.MaxConns),
		ConnectTimeout: time.Duration(cfg.Postgres.ConnectTimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	metrics.RegisterMonitorMetrics()

	recordRepo := recordrepo.New(store, cfg.Index.KeyPrefix).WithScanBatch(cfg.Monitor.ScanBatch)
	svc := monitoruc.New(
		scanIndex{recordRepo},
		speakerrepo.New(pool),
		resultrepo.New(pool),
		topicrepo.New(pool),
		logger,
	)

	var (
		reports []monitoruc.Report
		runErr  error
	)
	if *topicFlag != "" {
		var rep monitoruc.Report
		rep, runErr = svc.RunByName(ctx, *topicFlag, start, *daysFlag)
		reports = []monitoruc.Report{rep}
	} else {
		reports, runErr = svc.RunAll(ctx, start, *daysFlag)
	}

	for _, rep := range reports {
		logger.Info("Topic report",
			zap.String("topic", rep.Topic),
			zap.Int("hits", rep.Hits),
			zap.Int("inserted", rep.Inserted),
			zap.Int("duplicates", rep.Duplicates),
			zap.Int("unresolved_speakers", rep.Unresolved),
			zap.Int("hits_without_speakers", rep.NoSpeakers),
		)
	}

	if runErr != nil {
		logger.Error("Monitor run finished with errors", zap.Error(runErr))
		os.Exit(1)
	}
	logger.Info("Monitor run finished")
}

// scanIndex adapts the record repository's concrete scanner to the monitor's
// iterator contract.
type scanIndex struct {
	repo *recordrepo.Repo
}

func (a scanIndex) Scan(q query.Query) monitoruc.Iterator {
	return a.repo.Scan(q)
}
