package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/inkraft/inkraft-go/internal/config"
	"github.com/inkraft/inkraft-go/internal/db"
	"github.com/inkraft/inkraft-go/internal/handler"
	"github.com/inkraft/inkraft-go/internal/logging"
	"github.com/inkraft/inkraft-go/internal/metrics"
	"github.com/inkraft/inkraft-go/internal/middleware"
	"github.com/inkraft/inkraft-go/internal/repository"
	"github.com/inkraft/inkraft-go/internal/router"
	"github.com/inkraft/inkraft-go/internal/service"
)

const (
	serviceName = "inkraft-api"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", serviceName)
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(cfg.LogLevel, serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	cache := service.NewCacheService(cfg.RedisURL, log)
	defer cache.Close()

	m := metrics.New(pool)

	votes := repository.NewVoteRepo(pool)
	posts := repository.NewPostRepo(pool)
	users := repository.NewUserRepo(pool)
	alerts := repository.NewAlertRepo(pool)
	moderation := repository.NewModerationRepo(pool)

	trustSvc := service.NewTrustService(users)
	scoreSvc := service.NewScoreService(posts, cache, m, log)
	alertSvc := service.NewAlertService(alerts, m, log)
	fraud := service.NewFraudDetector(votes, alerts, alertSvc, cfg.FraudWindow, cfg.FraudThreshold, log)
	voteSvc := service.NewVoteService(votes, posts, trustSvc, scoreSvc, fraud, m, log)
	moderationSvc := service.NewModerationService(moderation, scoreSvc, m, log)

	// Background workers
	scoreWorker := service.NewScoreWorker(scoreSvc, cfg.ReconcileInterval, log)
	go scoreWorker.Start(ctx)
	trustWorker := service.NewTrustWorker(trustSvc, cfg.TrustInterval, log)
	go trustWorker.Start(ctx)

	opts := handler.Options{Log: log, Timeout: cfg.RequestTimeout}
	h := &router.Handlers{
		Health:     handler.NewHealthHandler(pool, cache.Client(), version),
		Post:       handler.NewPostHandler(voteSvc, scoreSvc, opts),
		User:       handler.NewUserHandler(trustSvc, opts),
		Moderation: handler.NewModerationHandler(moderationSvc, opts),
		Alert:      handler.NewAlertHandler(alertSvc, opts),
	}
	limiters := router.Limiters{
		Read:            middleware.NewReadRateLimiter(),
		Vote:            middleware.NewVoteRateLimiter(),
		CategoryRequest: middleware.NewCategoryRequestRateLimiter(),
	}
	defer limiters.Read.Stop()
	defer limiters.Vote.Stop()
	defer limiters.CategoryRequest.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "Inkraft API",
		ServerHeader: "Inkraft",
	})
	router.Setup(app, h, router.Options{
		Log:         log,
		Metrics:     m,
		Auth:        middleware.NewSessionAuth(cfg.SessionSecret, cfg.SessionCookie, log),
		Limiters:    limiters,
		CORSOrigins: cfg.CORSOrigins,
		IPHashSalt:  cfg.IPHashSalt,
	})

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("Inkraft backend starting")
	if err := app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}
