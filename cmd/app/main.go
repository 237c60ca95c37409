package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"telegram-catalog-bot/internal/application"
	"telegram-catalog-bot/internal/config"
	"telegram-catalog-bot/internal/domain/ports/repository"
	"telegram-catalog-bot/internal/infra/jsonstore"
	"telegram-catalog-bot/internal/infra/logging"
	"telegram-catalog-bot/internal/infra/memory"
	"telegram-catalog-bot/internal/infra/metrics"
	red "telegram-catalog-bot/internal/infra/redis"
	"telegram-catalog-bot/internal/infra/sched"
	tele "telegram-catalog-bot/internal/infra/telegram"
	"telegram-catalog-bot/internal/infra/web"
	"telegram-catalog-bot/internal/infra/worker"
	"telegram-catalog-bot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, verbose tracing)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()

	// ---- JSON registries ----
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.Storage.DataDir).Msg("data dir")
	}
	userRepo, err := jsonstore.NewUserRepo(filepath.Join(cfg.Storage.DataDir, "users.json"), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("users registry")
	}
	accessRepo, err := jsonstore.NewAccessRepo(filepath.Join(cfg.Storage.DataDir, "access.json"), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("access registry")
	}
	broadcastRepo, err := jsonstore.NewBroadcastRepo(filepath.Join(cfg.Storage.DataDir, "broadcasts.json"), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("broadcasts registry")
	}
	pollRepo, err := jsonstore.NewPollRepo(filepath.Join(cfg.Storage.DataDir, "polls.json"), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("polls registry")
	}
	catalogRepo, err := jsonstore.NewCatalogRepo(filepath.Join(cfg.Storage.DataDir, "catalog.json"), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("catalog registry")
	}

	// ---- Conversation state: Redis when configured, in-memory otherwise ----
	var stateRepo repository.StateRepository
	var limiter application.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		stateRepo = red.NewStateRepo(redisClient)
		limiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set; conversation state is in-memory and rate limiting is off")
		stateRepo = memory.NewStateRepo()
	}

	// ---- Fan-out worker pool ----
	pool := worker.NewPool(cfg.Bot.Workers)
	pool.Start(ctx)
	defer pool.Stop()

	// ---- Telegram transport ----
	bot, err := tele.NewBot(&cfg.Bot, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, logger)
	accessUC := usecase.NewAccessUseCase(accessRepo, catalogRepo, stateRepo, cfg.Access.RetainRedeemedCodes, logger)
	catalogUC := usecase.NewCatalogUseCase(catalogRepo, accessRepo, logger)
	broadcastUC := usecase.NewBroadcastUseCase(broadcastRepo, userRepo, accessRepo, bot, pool, logger)
	pollUC := usecase.NewPollUseCase(pollRepo, userRepo, accessRepo, bot, pool, logger)

	// ---- Router ----
	router := application.NewRouter(userUC, accessUC, catalogUC, broadcastUC, pollUC, stateRepo, limiter, cfg.Bot.AdminIDs, logger)
	bot.SetRouter(router)

	go func() {
		if err := bot.StartPolling(ctx); err != nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Code purge worker ----
	purger := sched.NewPurgeWorker(cfg.Access.PurgeInterval, accessUC, logger)
	go func() {
		if err := purger.Run(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("purge worker stopped")
		}
	}()

	// ---- Admin API ----
	srv := web.NewServer(&cfg.Web, userUC, accessUC, catalogUC, broadcastUC, pollUC, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("admin api stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("admin api shutdown")
	}
	bot.StopPolling()
}
