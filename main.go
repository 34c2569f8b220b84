package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dex-zone-scanner/config"
	"dex-zone-scanner/internal/analysis"
	"dex-zone-scanner/internal/api"
	"dex-zone-scanner/internal/cache"
	"dex-zone-scanner/internal/database"
	"dex-zone-scanner/internal/geckoterminal"
	"dex-zone-scanner/internal/health"
	"dex-zone-scanner/internal/holderscan"
	"dex-zone-scanner/internal/notification"
	"dex-zone-scanner/internal/scanner"
	"dex-zone-scanner/internal/strategy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("starting dex-zone-scanner")

	ctx := context.Background()

	db, err := database.NewDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}
	repo := database.NewRepository(db)

	redisCache := cache.NewRedisCache(cache.RedisConfig{
		URL:     cfg.Redis.URL,
		Enabled: cfg.Redis.Enabled,
	}, logger)
	defer redisCache.Close()

	marketClient := geckoterminal.NewClient(geckoterminal.Config{
		BaseURL:   cfg.Market.BaseURL,
		RateLimit: cfg.Market.RateLimitRPS,
	}, logger)

	holderClient := holderscan.NewClient(holderscan.Config{
		APIKey: cfg.Holder.APIKey,
	}, logger)

	engine := analysis.NewEngine(marketClient, redisCache, analysis.Tuning{
		ConfluenceTolerance: cfg.Trading.FibonacciTolerance,
	}, logger)
	router := analysis.NewTimeframeRouter(engine)
	checker := health.NewChecker(holderClient, logger)

	tuning := strategy.Tuning{
		ZoneScoreMin:       cfg.Trading.ZoneScoreMin,
		ProximityThreshold: cfg.Trading.ProximityThreshold,
		CooldownHours:      cfg.Trading.CooldownHours,
	}
	strategyEngine := strategy.NewEngine(repo, tuning, logger)
	gate := strategy.NewCooldownGate(repo, tuning, logger)

	notifier := notification.NewManager(logger)
	notifier.AddNotifier(notification.NewTelegramNotifier(notification.TelegramConfig{
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
		Enabled:  true,
	}))

	scanConfig := scanner.DefaultConfig()
	scanConfig.ScanInterval = time.Duration(cfg.Scanner.ScanIntervalSec) * time.Second
	scanConfig.TrendingLimit = cfg.Scanner.TrendingLimit

	sc := scanner.New(
		marketClient, repo, engine, router, checker,
		strategyEngine, gate, holderClient, notifier,
		scanConfig, logger,
	)
	sc.Start()

	server := api.NewServer(repo, marketClient, sc, notifier, api.ServerConfig{
		Port:           cfg.Server.Port,
		ProductionMode: cfg.Server.ProductionMode,
	}, logger)
	server.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	sc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("API server shutdown failed")
	}
	logger.Info().Msg("goodbye")
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
