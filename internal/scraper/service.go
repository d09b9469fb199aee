// Package scraper orchestrates message ingestion: the historical backfill
// pass and the live update subscription.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gotd/td/tg"

	"github.com/channelscan/channelscan/internal/directory"
	"github.com/channelscan/channelscan/internal/entity"
	"github.com/channelscan/channelscan/internal/logger"
	"github.com/channelscan/channelscan/internal/record"
	"github.com/channelscan/channelscan/internal/repo"
)

// HistoryClient is the provider surface the backfill needs. ResolveUsername
// must register the resolved peer so a subsequent HistoryPage can address it.
type HistoryClient interface {
	HistoryPage(ctx context.Context, ref entity.PeerRef, offsetID, limit int) ([]*tg.Message, error)
	ResolveUsername(ctx context.Context, username string) (entity.PeerRef, error)
}

// Service performs one backfill pass over the channel directory.
type Service struct {
	client   HistoryClient
	builder  *record.Builder
	messages repo.Repository
	dir      directory.Directory
	limit    int
	log      *logger.Logger
}

// RunResult contains backfill statistics.
type RunResult struct {
	Channels int
	Fetched  int
	Stored   int
	Skipped  int
	Errors   int
}

// NewService creates a backfill service.
// limit caps the number of messages fetched per channel; <=0 means one page.
func NewService(client HistoryClient, builder *record.Builder, messages repo.Repository, dir directory.Directory, limit int) *Service {
	if limit <= 0 {
		limit = 100
	}
	return &Service{
		client:   client,
		builder:  builder,
		messages: messages,
		dir:      dir,
		limit:    limit,
		log:      logger.Get(),
	}
}

// Run walks every channel in the directory sequentially, fetching history
// pages and storing the built records one batch per channel. A failing
// channel is logged and skipped; only context cancellation stops the pass.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	// map order is random, keep runs comparable
	ids := make([]int64, 0, len(s.dir))
	for id := range s.dir {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if ctx.Err() != nil {
			s.log.Info().Msg("scraper: backfill cancelled")
			return result, ctx.Err()
		}

		d := s.dir[id]
		result.Channels++

		if err := s.scrapeChannel(ctx, d, result); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.log.Error().Err(err).Int64("chat_id", id).Str("chat", d.Label()).
				Msg("scraper: channel failed, continuing")
			result.Errors++
		}
	}

	s.log.Info().
		Int("channels", result.Channels).
		Int("fetched", result.Fetched).
		Int("stored", result.Stored).
		Int("skipped", result.Skipped).
		Int("errors", result.Errors).
		Msg("scraper: backfill completed")

	return result, nil
}

// scrapeChannel pages through one channel's history, newest first, and stores
// the built records in a single batch.
func (s *Service) scrapeChannel(ctx context.Context, d entity.Descriptor, result *RunResult) error {
	var (
		docs     []repo.Doc
		offsetID int
		fetched  int
		resolved bool
	)
	ref := entity.PeerRef{Kind: d.EntityKind(), ID: d.EntityID()}

	for fetched < s.limit {
		pageSize := s.limit - fetched
		if pageSize > 100 {
			pageSize = 100
		}

		messages, err := s.client.HistoryPage(ctx, ref, offsetID, pageSize)
		// A channel stored by its public handle may never have been seen by
		// the client (not in the dialog list), so no access hash is known
		// yet. Resolving the handle registers the peer; retry once.
		if err != nil && !resolved && d.Handle() != "" && errors.Is(err, entity.ErrPeerNotFound) {
			resolved = true
			s.log.Info().Int64("chat_id", ref.ID).Str("username", d.Handle()).
				Msg("scraper: peer unknown, resolving by username")
			if _, rerr := s.client.ResolveUsername(ctx, d.Handle()); rerr != nil {
				return fmt.Errorf("resolve %s: %w", d.Handle(), rerr)
			}
			messages, err = s.client.HistoryPage(ctx, ref, offsetID, pageSize)
		}
		if err != nil {
			return fmt.Errorf("history page: %w", err)
		}
		if len(messages) == 0 {
			break
		}
		fetched += len(messages)
		result.Fetched += len(messages)

		for _, msg := range messages {
			rec, err := s.builder.Build(ctx, msg)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.log.Warn().Err(err).Int("msg_id", msg.ID).Msg("scraper: build failed, message dropped")
				result.Errors++
				continue
			}
			docs = append(docs, rec.Document())
		}
		offsetID = messages[len(messages)-1].ID
	}

	if len(docs) == 0 {
		return nil
	}

	res, err := s.messages.PutMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("store batch: %w", err)
	}
	result.Stored += res.Inserted
	result.Skipped += res.Skipped
	s.log.Info().Int64("chat_id", ref.ID).Str("outcome", string(res.Outcome)).
		Int("inserted", res.Inserted).Int("skipped", res.Skipped).
		Msg("scraper: channel batch stored")
	return nil
}
