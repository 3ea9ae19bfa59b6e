package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/conesearch/internal/backend/indexed"
	"github.com/kailas-cloud/conesearch/internal/config"
	"github.com/kailas-cloud/conesearch/internal/db"
	dbRedis "github.com/kailas-cloud/conesearch/internal/db/redis"
	dbValkey "github.com/kailas-cloud/conesearch/internal/db/valkey"
	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	logpkg "github.com/kailas-cloud/conesearch/internal/logger"
	"github.com/kailas-cloud/conesearch/internal/metrics"
	"github.com/kailas-cloud/conesearch/internal/registry"
	chiTransport "github.com/kailas-cloud/conesearch/internal/transport/chi"
	catalogsuc "github.com/kailas-cloud/conesearch/internal/usecase/catalogs"
	conesearchuc "github.com/kailas-cloud/conesearch/internal/usecase/conesearch"
	healthuc "github.com/kailas-cloud/conesearch/internal/usecase/health"
	"github.com/kailas-cloud/conesearch/internal/version"
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

	logger.Info("Starting conesearch API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("partition_root", cfg.Partitioned.RootDir),
	)

	store, err := openStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterBackendMetrics()

	var rootChecker healthuc.RootChecker
	if root := cfg.Partitioned.RootDir; root != "" {
		dir := healthuc.DirChecker(root)
		if err := dir.CheckRoot(ctx); err != nil {
			logger.Warn("Partition root unreadable, partitioned catalogs will be empty",
				zap.String("root", root), zap.Error(err))
		}
		rootChecker = dir
	}

	reg := registry.New(map[catalog.Kind]registry.Factory{
		catalog.Indexed: &registry.IndexedFactory{
			Store:      store,
			Layout:     indexed.Layout{Prefix: cfg.Storage.KeyPrefix},
			RangeLimit: cfg.Dispatch.RangeLimit,
			Logger:     logger,
		},
		catalog.Partitioned: &registry.PartitionedFactory{
			Root:   cfg.Partitioned.RootDir,
			Logger: logger,
		},
	}, logger)

	coneSvc := conesearchuc.New(reg, conesearchuc.Options{
		Workers:        cfg.Dispatch.Workers,
		BackendTimeout: time.Duration(cfg.Dispatch.BackendTimeoutSec) * time.Second,
	})
	catalogsSvc := catalogsuc.New(reg)
	healthSvc := healthuc.New(store, rootChecker)

	server := chiTransport.NewServer(coneSvc, catalogsSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(logpkg.HTTPMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys, cfg.HTTP.RoutePrefix))
	r.Use(metrics.Middleware())
	if cfg.HTTP.RoutePrefix == "" {
		r.Mount("/", server.Routes())
	} else {
		r.Mount(cfg.HTTP.RoutePrefix, server.Routes())
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr), zap.String("route_prefix", cfg.HTTP.RoutePrefix))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// openStore connects the indexed store for the configured driver.
func openStore(cfg config.DatabaseConfig) (db.Store, error) {
	conn := dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	}
	switch cfg.Driver {
	case config.DriverValkey:
		return dbValkey.NewStore(conn)
	case config.DriverRedis:
		return dbRedis.NewStore(conn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
