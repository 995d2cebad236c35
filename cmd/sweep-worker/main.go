package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/consultwise/expert-scheduling/internal/config"
	"github.com/consultwise/expert-scheduling/internal/db"
	"github.com/consultwise/expert-scheduling/internal/logging"
	"github.com/consultwise/expert-scheduling/internal/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load error: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.New(cfg.Env)
	defer func() { _ = logger.Sync() }()

	logger.Info("sweep-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.SweepInterval))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	repo := schedule.NewPgRepository(pgPool)
	manager := schedule.NewManager(repo, logger)

	sweeper := schedule.NewSweeper(manager, logger, cfg.SweepInterval)
	sweeper.Run(rootCtx)

	logger.Info("sweep-worker stopped")
}
