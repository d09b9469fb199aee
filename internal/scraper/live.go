package scraper

import (
	"context"

	"github.com/gotd/td/tg"

	"github.com/channelscan/channelscan/internal/directory"
	"github.com/channelscan/channelscan/internal/entity"
	"github.com/channelscan/channelscan/internal/logger"
	"github.com/channelscan/channelscan/internal/record"
	"github.com/channelscan/channelscan/internal/repo"
)

// RecordPublisher pushes each newly stored record downstream.
type RecordPublisher interface {
	PublishRecord(ctx context.Context, doc repo.Doc) error
}

// PeerObserver feeds peers attached to updates into the registry.
type PeerObserver interface {
	ObserveEntities(e tg.Entities)
}

// Live stores messages as they arrive through the update dispatcher.
// Messages from chats outside the directory and messages without text are
// dropped.
type Live struct {
	messages  repo.Repository
	builder   *record.Builder
	allowed   map[int64]bool
	observer  PeerObserver
	publisher RecordPublisher // optional
	log       *logger.Logger
}

// NewLive creates the live driver. An empty directory disables chat
// filtering, every incoming message is accepted.
func NewLive(messages repo.Repository, builder *record.Builder, dir directory.Directory, observer PeerObserver, publisher RecordPublisher) *Live {
	allowed := make(map[int64]bool, len(dir))
	for id := range dir {
		allowed[id] = true
	}
	return &Live{
		messages:  messages,
		builder:   builder,
		allowed:   allowed,
		observer:  observer,
		publisher: publisher,
		log:       logger.Get(),
	}
}

// Allow adds chats to the accepted set by their marked Bot-API ids
// (-100XXXXXXXXXX for channels). A previously empty set stops accepting
// everything and filters to the given chats. Not safe after Register.
func (l *Live) Allow(markedIDs ...int64) {
	for _, marked := range markedIDs {
		id, kind := entity.Unmark(marked)
		l.allowed[id] = true
		l.log.Debug().Int64("chat_id", id).Str("kind", string(kind)).Msg("scraper: live chat allowed")
	}
}

// Register attaches the handlers. Must run before the client connects.
func (l *Live) Register(dispatcher *tg.UpdateDispatcher) {
	dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		return l.handle(ctx, e, u.Message)
	})
	dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		return l.handle(ctx, e, u.Message)
	})
}

// handle processes one incoming update. Errors are logged, never returned:
// a failed message must not take down the update loop.
func (l *Live) handle(ctx context.Context, e tg.Entities, msgClass tg.MessageClass) error {
	if l.observer != nil {
		l.observer.ObserveEntities(e)
	}

	msg, ok := msgClass.(*tg.Message)
	if !ok {
		return nil
	}
	if msg.Message == "" {
		return nil
	}

	ref, ok := entity.FromPeer(msg.PeerID)
	if !ok {
		return nil
	}
	if len(l.allowed) > 0 && !l.allowed[ref.ID] {
		l.log.Debug().Int64("chat_id", ref.ID).Msg("scraper: message from unwatched chat, skipping")
		return nil
	}

	rec, err := l.builder.Build(ctx, msg)
	if err != nil {
		l.log.Warn().Err(err).Int("msg_id", msg.ID).Msg("scraper: live build failed")
		return nil
	}
	doc := rec.Document()

	res, err := l.messages.PutOne(ctx, doc)
	if err != nil {
		l.log.Error().Err(err).Int("msg_id", msg.ID).Int64("chat_id", ref.ID).
			Msg("scraper: live store failed")
		return nil
	}
	l.log.Info().Int("msg_id", msg.ID).Int64("chat_id", ref.ID).
		Str("outcome", string(res.Outcome)).Msg("scraper: live message stored")

	if l.publisher != nil && res.Outcome == repo.OutcomeInserted {
		if err := l.publisher.PublishRecord(ctx, doc); err != nil {
			l.log.Warn().Err(err).Int("msg_id", msg.ID).Msg("scraper: publish failed")
		}
	}
	return nil
}
