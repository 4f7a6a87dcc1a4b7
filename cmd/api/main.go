package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courtbook/internal/cache"
	"courtbook/internal/config"
	"courtbook/internal/database"
	"courtbook/internal/events"
	"courtbook/internal/modules/live"
	"courtbook/internal/modules/sweeper"
	"courtbook/internal/pkg/jwt"
	"courtbook/internal/pkg/logger"
	"courtbook/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}

	log := logger.Setup(cfg.AppEnv)
	if err := run(cfg, log); err != nil {
		log.Error("courtbook stopped with error", logger.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("starting courtbook", slog.String("env", cfg.AppEnv), slog.String("addr", cfg.HTTPAddr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			// the cache is optional; reads fall through to the database
			log.Warn("redis unavailable, venue cache disabled", logger.Err(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}
	venues := cache.NewVenueCache(rdb, repository.NewVenueRepository(db), cfg.VenueCacheTTL, log)

	hub := live.NewHub(log)
	defer hub.Close()

	publishers := []events.Publisher{hub}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewSyncProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Warn("kafka unavailable, booking events stay local", logger.Err(err))
		} else {
			kp := events.NewKafkaPublisher(producer, cfg.KafkaBookingTopic, log)
			defer kp.Close()
			publishers = append(publishers, kp)
		}
	}
	pub := events.Multi(publishers...)

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(deps{
		db:      db,
		venues:  venues,
		tokens:  jwt.New(cfg.JWTSecret, cfg.JWTTTL),
		hub:     hub,
		pub:     pub,
		origins: cfg.CORSAllowedOrigins,
		domain:  cfg.TenantBaseDomain,
		log:     log,
	})

	sw := sweeper.New(repository.NewBookingRepository(db), pub, sweeper.Config{
		Schedule:   cfg.SweeperCron,
		PendingTTL: cfg.PendingTTL,
	}, log)
	if err := sw.Start(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sw.Stop(shutdownCtx)
	// Hijacked websocket connections are not tracked by Shutdown.
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", logger.Err(err))
	}
	log.Info("courtbook stopped")
	return nil
}
