// Command crawler discovers channels that the watched channels forward from
// and stores their descriptors for later inspection.
package main

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/channelscan/channelscan/internal/config"
	"github.com/channelscan/channelscan/internal/directory"
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
	log.Info().Msg("starting forward-source crawler")

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

	channels, err := repo.New(cfg, cfg.ChannelTable)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create channel repository")
	}
	discovered, err := repo.New(cfg, cfg.CachedChannelTable)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create discovery repository")
	}
	for _, r := range []repo.Repository{channels, discovered} {
		if err := r.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to connect repository")
		}
	}
	defer func() {
		disconnectCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		_ = discovered.Disconnect(disconnectCtx)
		_ = channels.Disconnect(disconnectCtx)
	}()

	dir, err := directory.Load(ctx, channels)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load channel directory")
	}
	if len(dir) == 0 {
		log.Fatal().Msg("channel directory is empty, run chatlist first")
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
	client.Start(ctx)
	if err := client.WaitReady(ctx); err != nil {
		log.Fatal().Err(err).Msg("telegram client failed to start")
	}
	if _, err := client.Dialogs(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to list dialogs")
	}

	cache := entity.NewCache(client)
	sources := crawl(ctx, client, cache, dir, cfg.BackfillLimit, log)
	if len(sources) == 0 {
		log.Info().Msg("no forward sources discovered")
		return
	}

	docs := make([]repo.Doc, 0, len(sources))
	for _, d := range sources {
		docs = append(docs, d.Document())
	}
	res, err := discovered.PutMany(ctx, docs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to store discovered channels")
	}
	log.Info().Str("outcome", string(res.Outcome)).Int("inserted", res.Inserted).
		Msg("discovered channels stored")
}

// crawl pages through every watched channel's history and resolves the
// origin of each forwarded message, deduplicated by peer id.
func crawl(ctx context.Context, client *telegram.Client, cache *entity.Cache, dir directory.Directory, limit int, log *logger.Logger) []entity.Descriptor {
	found := make(map[int64]entity.Descriptor)

	ids := make([]int64, 0, len(dir))
	for id := range dir {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		d := dir[id]
		ref := entity.PeerRef{Kind: d.EntityKind(), ID: d.EntityID()}

		offsetID := 0
		fetched := 0
		for fetched < limit {
			pageSize := limit - fetched
			if pageSize > 100 {
				pageSize = 100
			}
			messages, err := client.HistoryPage(ctx, ref, offsetID, pageSize)
			if err != nil {
				log.Warn().Err(err).Int64("chat_id", id).Msg("crawler: history failed, skipping channel")
				break
			}
			if len(messages) == 0 {
				break
			}
			fetched += len(messages)

			for _, msg := range messages {
				fwd, ok := msg.GetFwdFrom()
				if !ok {
					continue
				}
				peer, ok := fwd.GetFromID()
				if !ok {
					continue
				}
				fwdRef, ok := entity.FromPeer(peer)
				if !ok {
					continue
				}
				if _, dup := found[fwdRef.ID]; dup {
					continue
				}
				if src := cache.ResolveByID(ctx, fwdRef); src != nil {
					found[fwdRef.ID] = src
					log.Info().Int64("source_id", fwdRef.ID).Str("source", src.Label()).
						Msg("crawler: forward source discovered")
				}
			}
			offsetID = messages[len(messages)-1].ID
		}
	}

	out := make([]entity.Descriptor, 0, len(found))
	for _, d := range found {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID() < out[j].EntityID() })
	return out
}
