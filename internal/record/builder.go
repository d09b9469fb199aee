package record

import (
	"context"
	"fmt"
	"time"

	"github.com/gotd/td/tg"

	"github.com/channelscan/channelscan/internal/directory"
	"github.com/channelscan/channelscan/internal/entity"
	"github.com/channelscan/channelscan/internal/logger"
)

// Step names accepted by NewBuilder. Order matters: later steps may read
// fields earlier steps wrote, so extract_text always goes first.
const (
	StepText        = "extract_text"
	StepDialogInfo  = "extract_dialog_info"
	StepEngagements = "extract_engagements"
	StepForwardInfo = "extract_forward_info"
)

// Step populates part of a record from the raw message.
type Step func(ctx context.Context, rec *Record, msg *tg.Message) error

// Builder converts one raw message plus side information (channel directory,
// entity cache) into one canonical record by running a configured ordered
// list of extraction steps. Step names are resolved to functions once at
// construction, not per message.
type Builder struct {
	steps []namedStep
	dir   directory.Directory
	cache *entity.Cache
	loc   *time.Location
	log   *logger.Logger
}

type namedStep struct {
	name string
	run  Step
}

// Option tweaks builder construction.
type Option func(*Builder)

// WithLocation sets the timezone record dates are converted into.
// Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// NewBuilder resolves the named steps against the step registry.
// Unknown step names are a configuration error.
func NewBuilder(stepNames []string, dir directory.Directory, cache *entity.Cache, opts ...Option) (*Builder, error) {
	b := &Builder{
		dir:   dir,
		cache: cache,
		loc:   time.UTC,
		log:   logger.Get(),
	}
	for _, opt := range opts {
		opt(b)
	}

	registry := map[string]Step{
		StepText:        b.extractText,
		StepDialogInfo:  b.extractDialogInfo,
		StepEngagements: b.extractEngagements,
		StepForwardInfo: b.extractForwardInfo,
	}
	for _, name := range stepNames {
		step, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown builder step %q", name)
		}
		b.steps = append(b.steps, namedStep{name: name, run: step})
	}
	if len(b.steps) == 0 {
		return nil, fmt.Errorf("builder needs at least one step")
	}
	return b, nil
}

// Build runs the configured steps in order against a fresh record.
// A failing step degrades the record instead of losing the message; only
// context cancellation aborts the pipeline.
func (b *Builder) Build(ctx context.Context, msg *tg.Message) (*Record, error) {
	rec := &Record{}
	for _, step := range b.steps {
		if err := step.run(ctx, rec, msg); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.log.Warn().Err(err).Str("step", step.name).Int("msg_id", msg.ID).
				Msg("builder: step degraded")
		}
	}
	return rec, nil
}

// extractText sets msg_id, msg and date.
func (b *Builder) extractText(_ context.Context, rec *Record, msg *tg.Message) error {
	rec.MsgID = msg.ID
	rec.Msg = msg.Message
	rec.Date = time.Unix(int64(msg.Date), 0).In(b.loc)
	return nil
}

// extractDialogInfo computes the unmarked chat id and looks up the chat's
// name and title in the directory. A directory gap degrades to absent
// name/title rather than failing the message.
func (b *Builder) extractDialogInfo(_ context.Context, rec *Record, msg *tg.Message) error {
	ref, ok := entity.FromPeer(msg.PeerID)
	if !ok {
		return fmt.Errorf("unsupported peer %T", msg.PeerID)
	}
	rec.ChatID = ref.ID

	if d := b.dir.Get(ref.ID); d != nil {
		rec.ChatName = d.Handle()
		rec.ChatTitle = d.Label()
	}
	return nil
}

// extractEngagements copies views/forwards, counts replies and unwraps the
// reaction list. Custom-emoji reactions go through the cache; this is the
// only step issuing network calls.
func (b *Builder) extractEngagements(ctx context.Context, rec *Record, msg *tg.Message) error {
	rec.Views = msg.Views
	rec.Forwards = msg.Forwards

	rec.Replies = 0
	if replies, ok := msg.GetReplies(); ok {
		rec.Replies = replies.Replies
	}

	rec.Reactions = make(map[string]int)
	reactions, ok := msg.GetReactions()
	if !ok {
		return nil
	}
	for _, rc := range reactions.Results {
		switch reaction := rc.Reaction.(type) {
		case *tg.ReactionEmoji:
			rec.Reactions[reaction.Emoticon] = rc.Count
		case *tg.ReactionCustomEmoji:
			label := b.cache.ResolveCustomEmoji(ctx, reaction.DocumentID)
			rec.Reactions[label] = rc.Count
		}
	}
	return nil
}

// extractForwardInfo resolves the forward origin, if any, into a stripped
// descriptor document. An unresolvable origin simply leaves fwd_from absent.
func (b *Builder) extractForwardInfo(ctx context.Context, rec *Record, msg *tg.Message) error {
	fwd, ok := msg.GetFwdFrom()
	if !ok {
		return nil
	}

	if peer, ok := fwd.GetFromID(); ok {
		ref, ok := entity.FromPeer(peer)
		if !ok {
			return fmt.Errorf("unsupported forward peer %T", peer)
		}
		if d := b.cache.ResolveByID(ctx, ref); d != nil {
			rec.FwdFrom = d.Document()
		}
		return nil
	}

	// hidden origin: only a display name is available
	if name, ok := fwd.GetFromName(); ok && name != "" {
		rec.FwdFrom = map[string]any{"full_name": name}
	}
	return nil
}
