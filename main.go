package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/listing-generator/internal/api"
	"github.com/raine/listing-generator/internal/bot"
	"github.com/raine/listing-generator/internal/config"
	"github.com/raine/listing-generator/internal/ebay"
	"github.com/raine/listing-generator/internal/listing"
	"github.com/raine/listing-generator/internal/pipeline"
	"github.com/raine/listing-generator/internal/storage"
	"github.com/raine/listing-generator/internal/vision"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	logFileName     = "listing-generator.log"
	shutdownTimeout = 10 * time.Second
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if !config.IsInteractiveTerminal() {
			config.FatalWithWait("setup requires an interactive terminal")
		}
		if !config.RunSetupWizard() {
			config.WaitOnWindows()
			os.Exit(1)
		}
		return
	}

	config.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		config.FatalWithWait("%v", err)
	}

	logFile := setupLogging(cfg)
	if logFile != nil {
		defer logFile.Close()
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		config.FatalWithWait("failed to initialize listing store: %v", err)
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DBPath).Msg("listing store initialized")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var searchCache ebay.Cache
	if cfg.RedisURL != "" {
		redisCache, err := ebay.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("comparable cache disabled")
		} else {
			defer redisCache.Close()
			searchCache = redisCache
			log.Info().Dur("ttl", cfg.SearchCacheTTL).Msg("comparable cache enabled")
		}
	}

	analyzer, err := vision.NewAdapter(ctx, cfg, store)
	if err != nil {
		config.FatalWithWait("failed to initialize vision client: %v", err)
	}
	searcher := ebay.NewAdapter(cfg, searchCache)

	builder := listing.NewBuilder(false)
	orchestrator := pipeline.New(analyzer, searcher, store, builder, cfg.SearchLimit)

	g, ctx := errgroup.WithContext(ctx)

	handler := api.NewHandler(orchestrator, store, cfg.UploadDir)
	server := api.NewServer(cfg.HTTPAddr, api.NewRouter(handler, cfg.FrontendURL))
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down http server")
		return server.Shutdown(shutdownCtx)
	})

	if cfg.BotToken != "" {
		tg, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			config.FatalWithWait("failed to initialize telegram bot: %v", err)
		}
		tg.Debug = false
		log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")
		bot.RegisterCommands(tg)

		b := bot.NewBot(tg, orchestrator, store, cfg.UploadDir)
		g.Go(func() error {
			return runBot(ctx, tg, b)
		})
	} else {
		log.Info().Msg("BOT_TOKEN not set, telegram front-end disabled")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

// setupLogging configures the global logger. The returned file, if any, must
// be closed by the caller.
func setupLogging(cfg *config.Config) *os.File {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	// JOURNAL_STREAM is set by systemd when running as a service.
	if _, underSystemd := os.LookupEnv("JOURNAL_STREAM"); underSystemd {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return nil
	}

	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		config.FatalWithWait("failed to open log file: %v", err)
	}

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
	fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
	log.Logger = log.Output(io.MultiWriter(consoleWriter, fileWriter))

	log.Info().Str("logFile", logFileName).Str("level", level.String()).Msg("logging to file")
	return logFile
}

func runBot(ctx context.Context, tg *tgbotapi.BotAPI, b *bot.Bot) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := tg.GetUpdatesChan(updateConfig)

	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping bot update loop")
			tg.StopReceivingUpdates()
			log.Info().Msg("waiting for active handlers to finish")
			wg.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				log.Warn().Msg("updates channel closed")
				wg.Wait()
				return nil
			}
			wg.Add(1)
			go func(u tgbotapi.Update) {
				defer wg.Done()
				b.HandleUpdate(ctx, u)
			}(update)
		}
	}
}
