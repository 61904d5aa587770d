package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/jpd-dfo/spacos/internal/ai"
	"github.com/jpd-dfo/spacos/internal/auth"
	"github.com/jpd-dfo/spacos/internal/cache"
	"github.com/jpd-dfo/spacos/internal/config"
	"github.com/jpd-dfo/spacos/internal/edgar"
	"github.com/jpd-dfo/spacos/internal/jobs"
	"github.com/jpd-dfo/spacos/internal/notify"
	"github.com/jpd-dfo/spacos/internal/server"
	"github.com/jpd-dfo/spacos/internal/store/postgres"
	redisstore "github.com/jpd-dfo/spacos/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("SPACOS_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("SPACOS_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Apply schema migrations before opening the pool.
	if err := postgres.Migrate(cfg.Database.DSN()); err != nil {
		return err
	}

	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Redis is optional. Without it the filing cache stays in-process and
	// the websocket activity feed is disabled.
	var pubsub *redisstore.PubSub
	if cfg.Redis.Addr != "" {
		pubsub, err = redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer pubsub.Close()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	authSvc := auth.NewService(store.Users(), cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	var filingCache cache.Store
	if pubsub != nil {
		filingCache = cache.NewRedis(pubsub.Client(), "edgar", cfg.EDGAR.CacheTTL)
	} else {
		filingCache = cache.NewMemory(cfg.EDGAR.CacheEntries, cfg.EDGAR.CacheTTL)
	}
	filings := edgar.New(cfg.EDGAR.BaseURL, cfg.EDGAR.UserAgent, cfg.EDGAR.Timeout, filingCache)

	scorer := ai.New(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout)

	var reminder jobs.DeadlineNotifier
	if cfg.Slack.BotToken != "" && cfg.Slack.Channel != "" {
		reminder = notify.NewSlack(slacklib.New(cfg.Slack.BotToken), cfg.Slack.Channel)
	}
	scheduler := jobs.NewScheduler(store.Analyses(), store.SPACs(), reminder)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	defer scheduler.Stop()

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(cfg, store, pubsub, authSvc, filings, scorer)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
