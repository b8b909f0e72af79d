package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/chartbeat-labs/capitolwords/internal/config"
	dbRedis "github.com/chartbeat-labs/capitolwords/internal/db/redis"
	"github.com/chartbeat-labs/capitolwords/internal/domain"
	logpkg "github.com/chartbeat-labs/capitolwords/internal/logger"
	recordrepo "github.com/chartbeat-labs/capitolwords/internal/repository/record"
)

const loadBatchSize = 500

// documentLine is one JSON-lines record in the input file.
type documentLine struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Speakers      []string `json:"speakers"`
	NamedEntities []string `json:"named_entities"`
	DateIssued    string   `json:"date_issued"` // YYYY-MM-DD
}

func main() {
	var (
		fileFlag    = flag.String("file", "", "JSON-lines file of parsed documents (default: stdin)")
		reindexFlag = flag.Bool("reindex", false, "drop and recreate the FT index before loading")
	)
	flag.Parse()

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	in := os.Stdin
	if *fileFlag != "" {
		f, err := os.Open(*fileFlag)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err))
		}
		defer f.Close()
		in = f
	}

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

	repo := recordrepo.New(store, cfg.Index.KeyPrefix)
	if *reindexFlag {
		logger.Info("Rebuilding record index")
		if err := repo.RebuildIndex(ctx); err != nil {
			logger.Fatal("Failed to rebuild record index", zap.Error(err))
		}
	} else if err := repo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure record index", zap.Error(err))
	}

	var (
		batch   []domain.Document
		line    int
		loaded  int
		skipped int
	)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := repo.IndexDocuments(ctx, batch); err != nil {
			logger.Fatal("Failed to index documents", zap.Int("line", line), zap.Error(err))
		}
		loaded += len(batch)
		batch = batch[:0]
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var dl documentLine
		if err := json.Unmarshal(raw, &dl); err != nil {
			logger.Warn("Skipping malformed line", zap.Int("line", line), zap.Error(err))
			skipped++
			continue
		}
		if dl.ID == "" {
			logger.Warn("Skipping document without id", zap.Int("line", line))
			skipped++
			continue
		}

		issued, err := time.Parse("2006-01-02", dl.DateIssued)
		if err != nil {
			logger.Warn("Skipping document with bad date_issued",
				zap.Int("line", line), zap.String("date_issued", dl.DateIssued))
			skipped++
			continue
		}

		batch = append(batch, domain.Document{
			ID:            dl.ID,
			Title:         dl.Title,
			Content:       dl.Content,
			Speakers:      dl.Speakers,
			NamedEntities: dl.NamedEntities,
			DateIssued:    issued,
		})
		if len(batch) >= loadBatchSize {
			flush()
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal("Failed to read input", zap.Int("line", line), zap.Error(err))
	}
	flush()

	logger.Info("Load complete",
		zap.Int("loaded", loaded),
		zap.Int("skipped", skipped),
	)
}
