package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/credit-calculator/internal/cache"
	"github.com/iwvelando/credit-calculator/internal/config"
	"github.com/iwvelando/credit-calculator/internal/logging"
	"github.com/iwvelando/credit-calculator/internal/server"
	"github.com/iwvelando/credit-calculator/internal/service"
	"github.com/iwvelando/credit-calculator/internal/storage"
	"github.com/iwvelando/credit-calculator/pkg/constants"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = constants.DefaultVersion

const startupTimeout = 30 * time.Second

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	address := flag.String("address", "", "listen address override, e.g. :8080")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		conf.Server.Address = *address
	}

	logger, err := logging.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := serve(conf, logger); err != nil {
		logger.Fatal("server stopped with error",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	logger.Info("server exited", zap.String("op", "main"))
}

func serve(conf *config.Configuration, logger *zap.Logger) error {
	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	repo, err := openRepository(startCtx, conf.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn("failed to close repository", zap.String("op", "main"), zap.Error(err))
		}
	}()

	calculationCache, err := cache.New(startCtx, conf.Cache, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := calculationCache.Close(); err != nil {
			logger.Warn("failed to close cache", zap.String("op", "main"), zap.Error(err))
		}
	}()

	svc := service.NewCreditService(repo, calculationCache, conf.Cache.TTL, logger)

	httpServer := &http.Server{
		Addr:         conf.Server.Address,
		Handler:      server.NewHandler(svc, conf.Server, logger, version),
		ReadTimeout:  conf.Server.ReadTimeout,
		WriteTimeout: conf.Server.WriteTimeout,
		IdleTimeout:  conf.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("op", "main"),
			zap.String("address", conf.Server.Address),
			zap.String("version", version),
			zap.String("storage", conf.Database.Driver),
			zap.String("cache", conf.Cache.Driver),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting down", zap.String("op", "main"), zap.String("signal", sig.String()))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func openRepository(ctx context.Context, db config.DatabaseConfig, logger *zap.Logger) (storage.Repository, error) {
	switch db.Driver {
	case constants.StorageDriverPostgres:
		repo, err := storage.OpenPostgres(ctx, db, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		logger.Warn("using in-memory storage, calculations are lost on restart", zap.String("op", "main"))
		return storage.NewMemoryRepository(), nil
	}
}
