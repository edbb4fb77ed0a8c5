package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-ebook-relay/internal/config"
	"telegram-ebook-relay/internal/infra/adapters/converter"
	tele "telegram-ebook-relay/internal/infra/adapters/telegram"
	"telegram-ebook-relay/internal/infra/api"
	"telegram-ebook-relay/internal/infra/i18n"
	"telegram-ebook-relay/internal/infra/logging"
	"telegram-ebook-relay/internal/infra/metrics"
	red "telegram-ebook-relay/internal/infra/redis"
	"telegram-ebook-relay/internal/usecase"
)

// set via -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted file names)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Redis (optional, rate limiting only) ----
	var limiter tele.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
	} else if cfg.Bot.RateLimitPerMinute > 0 {
		logger.Warn().Msg("bot.rate_limit_per_minute set without redis.url; rate limiting disabled")
	}

	// ---- Conversion service ----
	conv, err := converter.NewClient(cfg.Converter.BaseURL, cfg.Converter.Timeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("converter")
	}

	// ---- i18n ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Relay.Language)
	if err != nil {
		logger.Fatal().Err(err).Str("language", cfg.Relay.Language).Msg("i18n")
	}
	if err := translator.Require(append(usecase.MessageKeys, tele.MessageKeys...)...); err != nil {
		logger.Fatal().Err(err).Str("language", cfg.Relay.Language).Msg("i18n")
	}

	// ---- Telegram ----
	bot, err := tele.NewBotAPI(&cfg.Bot)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram login")
	}
	logger.Info().Str("username", bot.Self.UserName).Msg("authorized on telegram")

	messenger, err := tele.NewMessenger(bot, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram messenger")
	}

	relay, err := usecase.NewRelayUseCase(
		messenger,
		messenger,
		conv,
		conv.HTTPClient(),
		translator,
		usecase.RelayOptions{
			SupportedExtensions: cfg.Relay.SupportedExtensions,
			Dev:                 cfg.Runtime.Dev,
		},
		logger,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("relay")
	}

	botAdapter, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, bot, messenger, relay, translator, limiter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram adapter")
	}
	if err := botAdapter.RegisterCommands(ctx); err != nil {
		logger.Warn().Err(err).Msg("setMyCommands failed")
	}

	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		if err := botAdapter.StartPolling(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Admin HTTP ----
	admin := api.NewServer(&cfg.Admin, logger)
	go func() {
		if err := admin.Start(); err != nil {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	botAdapter.StopPolling()
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := admin.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("admin shutdown")
	}
	select {
	case <-pollDone:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("in-flight updates did not finish before shutdown timeout")
	}
}
