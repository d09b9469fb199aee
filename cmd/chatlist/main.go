// Command chatlist builds the channel directory: the account's dialogs plus
// the usernames listed in the channels file, stored as descriptor documents.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/channelscan/channelscan/internal/config"
	"github.com/channelscan/channelscan/internal/entity"
	"github.com/channelscan/channelscan/internal/logger"
	"github.com/channelscan/channelscan/internal/repo"
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
	log.Info().Msg("collecting chat list")

	if cfg.TGApiID == 0 || cfg.TGApiHash == "" {
		log.Fatal().Msg("TG_API_ID and TG_API_HASH are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	usernames, err := config.LoadChannels(cfg.ChannelsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read channels file")
	}

	channels, err := repo.New(cfg, cfg.ChannelTable)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create channel repository")
	}
	if err := channels.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to connect repository")
	}
	defer func() {
		disconnectCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		_ = channels.Disconnect(disconnectCtx)
	}()

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

	seen := make(map[int64]bool)
	var docs []repo.Doc

	// dialogs first: every chat the account participates in
	if cfg.ParseDialogs {
		dialogs, err := client.Dialogs(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to list dialogs")
		}
		for _, d := range dialogs {
			if seen[d.EntityID()] {
				continue
			}
			seen[d.EntityID()] = true
			docs = append(docs, d.Document())
		}
		log.Info().Int("dialogs", len(dialogs)).Msg("dialogs collected")
	}

	// then the configured usernames, resolved through the cache
	cache := entity.NewCache(client)
	for _, name := range usernames {
		if ctx.Err() != nil {
			break
		}
		d := cache.ResolveByName(ctx, name)
		if d == nil {
			log.Warn().Str("username", name).Msg("channel not resolved, skipping")
			continue
		}
		if seen[d.EntityID()] {
			continue
		}
		seen[d.EntityID()] = true
		docs = append(docs, d.Document())
	}

	if len(docs) == 0 {
		log.Warn().Msg("nothing collected")
		return
	}

	res, err := channels.PutMany(ctx, docs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to store chat list")
	}
	log.Info().Str("outcome", string(res.Outcome)).Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).Msg("chat list stored")
}
