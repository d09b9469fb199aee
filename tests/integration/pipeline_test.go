// Package integration exercises the whole ingestion pipeline against real
// storage backends, without a network.
package integration

import (
	"context"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channelscan/channelscan/internal/directory"
	"github.com/channelscan/channelscan/internal/entity"
	"github.com/channelscan/channelscan/internal/record"
	"github.com/channelscan/channelscan/internal/repo"
)

// staticProvider resolves peers from a fixed set, like a warmed client.
type staticProvider struct {
	peers map[int64]entity.Descriptor
}

func (p *staticProvider) CachedEntity(_ context.Context, ref entity.PeerRef) (entity.Descriptor, error) {
	if d, ok := p.peers[ref.ID]; ok {
		return d, nil
	}
	return nil, entity.ErrPeerNotFound
}

func (p *staticProvider) FullInfo(ctx context.Context, ref entity.PeerRef) (entity.Descriptor, error) {
	return p.CachedEntity(ctx, ref)
}

func (p *staticProvider) ResolveName(_ context.Context, _ string) (entity.Descriptor, error) {
	return nil, entity.ErrPeerNotFound
}

func (p *staticProvider) CustomEmojiAlt(_ context.Context, _ int64) (string, error) {
	return "", entity.ErrPeerNotFound
}

// TestPipeline_LocalBackend runs chatlist-style directory persistence, the
// full builder pipeline and message storage against the file backend, then
// reads everything back.
func TestPipeline_LocalBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// persist the channel directory the way cmd/chatlist does
	channels := repo.NewLocalRepository(dir, "channels")
	require.NoError(t, channels.Connect(ctx))
	watched := &entity.Channel{ID: 100, Name: "somechannel", Title: "Some Channel"}
	origin := &entity.Channel{ID: 500, Name: "origin", Title: "Origin"}
	_, err := channels.PutMany(ctx, []repo.Doc{watched.Document()})
	require.NoError(t, err)

	// reload it as the ingestion processes do
	loaded, err := directory.Load(ctx, channels)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	cache := entity.NewCache(&staticProvider{peers: map[int64]entity.Descriptor{500: origin}})
	builder, err := record.NewBuilder([]string{
		record.StepText,
		record.StepDialogInfo,
		record.StepEngagements,
		record.StepForwardInfo,
	}, loaded, cache)
	require.NoError(t, err)

	msg := &tg.Message{
		ID:      42,
		Message: "forwarded news",
		Date:    1700000000,
		PeerID:  &tg.PeerChannel{ChannelID: 100},
	}
	msg.SetViews(10)
	fwd := tg.MessageFwdHeader{}
	fwd.SetFromID(&tg.PeerChannel{ChannelID: 500})
	msg.SetFwdFrom(fwd)

	rec, err := builder.Build(ctx, msg)
	require.NoError(t, err)

	messages := repo.NewLocalRepository(dir, "messages")
	require.NoError(t, messages.Connect(ctx))
	res, err := messages.PutOne(ctx, rec.Document())
	require.NoError(t, err)
	assert.Equal(t, repo.OutcomeInserted, res.Outcome)

	stored, err := messages.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	got := stored[0]
	assert.Equal(t, "forwarded news", got["msg"])
	assert.Equal(t, "somechannel", got["chat_name"])
	assert.NotContains(t, got, "forwards", "falsy fields stay out of storage")

	fwdFrom, ok := got["fwd_from"].(map[string]any)
	require.True(t, ok, "fwd_from = %v", got["fwd_from"])
	assert.Equal(t, "origin", fwdFrom["name"])
}

// TestPipeline_PebbleBackend verifies the same flow lands under the natural
// composite key in the key-value backend.
func TestPipeline_PebbleBackend(t *testing.T) {
	ctx := context.Background()

	loaded := directory.FromDescriptors([]entity.Descriptor{
		&entity.Channel{ID: 100, Name: "somechannel", Title: "Some Channel"},
	})
	cache := entity.NewCache(&staticProvider{})
	builder, err := record.NewBuilder([]string{record.StepText, record.StepDialogInfo}, loaded, cache)
	require.NoError(t, err)

	messages := repo.NewPebbleRepository(t.TempDir(), "messages")
	require.NoError(t, messages.Connect(ctx))
	defer messages.Disconnect(ctx)

	var docs []repo.Doc
	for id := 1; id <= 3; id++ {
		rec, err := builder.Build(ctx, &tg.Message{
			ID: id, Message: "m", Date: 1700000000,
			PeerID: &tg.PeerChannel{ChannelID: 100},
		})
		require.NoError(t, err)
		docs = append(docs, rec.Document())
	}

	res, err := messages.PutMany(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, repo.OutcomeInserted, res.Outcome)
	assert.Equal(t, 3, res.Inserted)

	stored, err := messages.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}
