// Command sweep runs the booking housekeeping jobs once and exits, for
// deployments that schedule it externally instead of in the API process.
package main

import (
	"context"
	"log/slog"
	"os"

	"courtbook/internal/config"
	"courtbook/internal/database"
	"courtbook/internal/modules/sweeper"
	"courtbook/internal/pkg/logger"
	"courtbook/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}
	log := logger.Setup(cfg.AppEnv)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", logger.Err(err))
		os.Exit(1)
	}

	sw := sweeper.New(repository.NewBookingRepository(db), nil, sweeper.Config{PendingTTL: cfg.PendingTTL}, log)
	res, err := sw.RunOnce(context.Background())
	if err != nil {
		log.Error("sweep failed", logger.Err(err))
		os.Exit(1)
	}
	log.Info("sweep completed", slog.Int64("expired", res.Expired), slog.Int64("completed", res.Completed))
}
