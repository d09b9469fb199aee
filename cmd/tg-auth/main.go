// Command tg-auth bootstraps the MTProto session interactively via the
// phone-code flow and stores it in the session database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/channelscan/channelscan/internal/config"
	"github.com/channelscan/channelscan/internal/logger"
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

	if cfg.TGApiID == 0 || cfg.TGApiHash == "" || cfg.TGPhone == "" {
		log.Fatal().Msg("TG_API_ID, TG_API_HASH and TG_PHONE are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
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

	log.Info().Str("phone", cfg.TGPhone).Str("session_db", cfg.SessionDB).
		Msg("starting authentication")
	client.Start(ctx)
	if err := client.WaitReady(ctx); err != nil {
		log.Fatal().Err(err).Msg("authentication failed")
	}

	log.Info().Msg("session stored, you can now run chatlist, backfill or live")
}
