package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nulzo/model-registry-api/cmd"
	"github.com/nulzo/model-registry-api/internal/cache"
	memorycache "github.com/nulzo/model-registry-api/internal/cache/memory"
	rediscache "github.com/nulzo/model-registry-api/internal/cache/redis"
	"github.com/nulzo/model-registry-api/internal/config"
	"github.com/nulzo/model-registry-api/internal/logger"
	"github.com/nulzo/model-registry-api/internal/platform/otel"
	"github.com/nulzo/model-registry-api/internal/registry"
	"github.com/nulzo/model-registry-api/internal/server"
	"github.com/nulzo/model-registry-api/internal/store/sqlite"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Initialize(logger.DefaultConfig())
	defer logger.Sync()
	log := logger.Get()

	go cmd.CheckForUpdates()

	ctx := context.Background()

	if cfg.Tracing.Enabled {
		shutdown, err := otel.InitTracer("model-registry-api", log, os.Stdout)
		if err != nil {
			log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			_ = shutdown(ctx)
		}()
	}

	repo, err := sqlite.NewSQLiteStorage(cfg.Database.DSN, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer repo.Close()

	var c cache.Cache
	if cfg.Redis.Enabled {
		rc, err := rediscache.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer rc.Close()
		c = rc
		log.Info("Composite cache: redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		c = memorycache.New()
		log.Info("Composite cache: in-memory")
	}

	service := registry.NewService(repo, c, log)
	srv := server.New(cfg, log, service)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Handler(),
	}

	go func() {
		log.Info("Starting model registry",
			zap.String("port", cfg.Server.Port),
			zap.String("env", cfg.Server.Env),
			zap.String("version", cmd.AppVersion),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
}
