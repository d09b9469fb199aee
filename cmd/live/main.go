// Command live subscribes to new messages in the watched channels and
// stores each one as it arrives.
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
	"github.com/channelscan/channelscan/internal/nats"
	"github.com/channelscan/channelscan/internal/publisher"
	"github.com/channelscan/channelscan/internal/record"
	"github.com/channelscan/channelscan/internal/repo"
	"github.com/channelscan/channelscan/internal/scraper"
	"github.com/channelscan/channelscan/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()
	log.Info().Msg("starting live ingestion")

	if cfg.TGApiID == 0 || cfg.TGApiHash == "" {
		log.Fatal().Msg("TG_API_ID and TG_API_HASH are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

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

	dir, err := directory.Load(ctx, channels)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load channel directory")
	}
	log.Info().Int("channels", len(dir)).Msg("channel directory loaded")

	// optional NATS publishing; unreachable server only disables it
	var pub scraper.RecordPublisher
	if cfg.NatsURL != "" {
		nc, err := nats.New(ctx, cfg.NatsURL)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to nats, publishing disabled")
		} else {
			defer nc.Close()
			p, err := publisher.NewNATSPublisher(ctx, nc)
			if err != nil {
				log.Warn().Err(err).Msg("failed to prepare record stream, publishing disabled")
			} else {
				pub = p
			}
		}
	}

	client, err := telegram.NewClient(telegram.Config{
		APIID:     cfg.TGApiID,
		APIHash:   cfg.TGApiHash,
		Phone:     cfg.TGPhone,
		SessionDB: cfg.SessionDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create telegram client")
	}

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

	// handlers must be registered before the connection opens
	live := scraper.NewLive(messages, builder, dir, client.Peers(), pub)
	live.Allow(cfg.LiveChats...)
	live.Register(client.Dispatcher())

	client.Start(ctx)
	if err := client.WaitReady(ctx); err != nil {
		log.Fatal().Err(err).Msg("telegram client failed to start")
	}
	if _, err := client.Dialogs(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to list dialogs")
	}

	log.Info().Msg("listening for new messages")
	<-ctx.Done()
	log.Info().Msg("shutdown complete")
}
