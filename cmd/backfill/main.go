// Command backfill runs one historical ingestion pass over the channel
// directory and exits.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/channelscan/channelscan/internal/config"
	"github.com/channelscan/channelscan/internal/directory"
	"github.com/channelscan/channelscan/internal/entity"
	"github.com/channelscan/channelscan/internal/logger"
	"github.com/channelscan/channelscan/internal/record"
	"github.com/channelscan/channelscan/internal/repo"
	"github.com/channelscan/channelscan/internal/scraper"
	"github.com/channelscan/channelscan/internal/telegram"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// 2. Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()
	log.Info().Msg("starting backfill")

	if cfg.TGApiID == 0 || cfg.TGApiHash == "" {
		log.Fatal().Msg("TG_API_ID and TG_API_HASH are required")
	}

	// 3. Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	// 4. Connect storage
	channels, err := repo.New(cfg, cfg.ChannelTable)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create channel repository")
	}
	messages, err := repo.New(cfg, cfg.MessageTable)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create message repository")
	}
	for _, r := range []repo.Repository{channels, messages} {
		if err := r.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to connect repository")
		}
	}
	defer func() {
		disconnectCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		_ = messages.Disconnect(disconnectCtx)
		_ = channels.Disconnect(disconnectCtx)
	}()

	// 5. Load the channel directory
	dir, err := directory.Load(ctx, channels)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load channel directory")
	}
	if len(dir) == 0 {
		log.Fatal().Msg("channel directory is empty, run chatlist first")
	}
	log.Info().Int("channels", len(dir)).Msg("channel directory loaded")

	// 6. Start telegram client
	client, err := telegram.NewClient(telegram.Config{
		APIID:     cfg.TGApiID,
		APIHash:   cfg.TGApiHash,
		Phone:     cfg.TGPhone,
		SessionDB: cfg.SessionDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create telegram client")
	}
	client.Start(ctx)
	if err := client.WaitReady(ctx); err != nil {
		log.Fatal().Err(err).Msg("telegram client failed to start")
	}

	// warm the peer registry so directory entries are addressable
	if _, err := client.Dialogs(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to list dialogs")
	}

	// 7. Build the pipeline
	cache := entity.NewCache(client)
	opts := []record.Option{}
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("invalid timezone")
		}
		opts = append(opts, record.WithLocation(loc))
	}
	builder, err := record.NewBuilder(cfg.BuilderSteps, dir, cache, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build record pipeline")
	}

	// 8. Run
	svc := scraper.NewService(client, builder, messages, dir, cfg.BackfillLimit)
	if _, err := svc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("backfill failed")
	}
	log.Info().Msg("backfill finished")
}
