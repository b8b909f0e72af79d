package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
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
	chiTransport "github.com/chartbeat-labs/capitolwords/internal/transport/chi"
	healthuc "github.com/chartbeat-labs/capitolwords/internal/usecase/health"
	monitoruc "github.com/chartbeat-labs/capitolwords/internal/usecase/monitor"
	searchuc "github.com/chartbeat-labs/capitolwords/internal/usecase/search"
	"github.com/chartbeat-labs/capitolwords/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting capitolwords API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("index_addrs", cfg.Index.Addrs),
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
	logger.Info("Connected to record index")

	pgCfg := postgres.Config{
		DSN:            cfg.Postgres.DSN,
		MaxConns:       int32(cfg.Postgres.MaxConns),
		ConnectTimeout: time.Duration(cfg.Postgres.ConnectTimeoutSec) * time.Second,
		MigrationsPath: cfg.Postgres.MigrationsPath,
	}
	if err := postgres.MigrateToLatest(pgCfg); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	pool, err := postgres.Connect(ctx, pgCfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("Connected to database")

	metrics.RegisterHTTPMetrics()
	metrics.RegisterMonitorMetrics()

	// Create repositories
	recordRepo := recordrepo.New(store, cfg.Index.KeyPrefix).WithScanBatch(cfg.Monitor.ScanBatch)
	if err := recordRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure record index", zap.Error(err))
	}
	speakerRepo := speakerrepo.New(pool)
	topicRepo := topicrepo.New(pool)
	resultRepo := resultrepo.New(pool)

	// Create use case services
	searchSvc := searchuc.New(recordRepo, recordRepo).WithDefaultLimit(cfg.Search.DefaultLimit)
	monitorSvc := monitoruc.New(scanIndex{recordRepo}, speakerRepo, resultRepo, topicRepo, logger)
	healthSvc := healthuc.New(store, pool)

	server := chiTransport.NewServer(searchSvc, monitorSvc, healthSvc, cfg.Search.MaxLimit, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// scanIndex adapts the record repository's concrete scanner to the monitor's
// iterator contract.
type scanIndex struct {
	repo *recordrepo.Repo
}

func (a scanIndex) Scan(q query.Query) monitoruc.Iterator {
	return a.repo.Scan(q)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
