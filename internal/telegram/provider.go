package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"

	"github.com/channelscan/channelscan/internal/entity"
)

var _ entity.Provider = (*Client)(nil)

// CachedEntity serves resolution from the peer registry without touching
// the network. A registry miss is reported as not found so the caller can
// escalate to FullInfo.
func (c *Client) CachedEntity(_ context.Context, ref entity.PeerRef) (entity.Descriptor, error) {
	d, ok := c.peers.Descriptor(ref.ID)
	if !ok {
		return nil, fmt.Errorf("peer %d not registered: %w", ref.ID, entity.ErrPeerNotFound)
	}
	return d, nil
}

// FullInfo fetches the complete descriptor for a peer reference.
func (c *Client) FullInfo(ctx context.Context, ref entity.PeerRef) (entity.Descriptor, error) {
	switch ref.Kind {
	case entity.KindChannel:
		full, err := c.FullChannel(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if d, ok := entity.ChannelFromFull(full); ok {
			return d, nil
		}
		return nil, fmt.Errorf("channel %d: unexpected full info shape", ref.ID)
	case entity.KindChat:
		full, err := c.FullChat(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if d, ok := entity.ChatFromFull(full); ok {
			return d, nil
		}
		return nil, fmt.Errorf("chat %d: unexpected full info shape", ref.ID)
	case entity.KindUser:
		full, err := c.FullUser(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if d, ok := entity.UserFromFull(full); ok {
			return d, nil
		}
		return nil, fmt.Errorf("user %d: unexpected full info shape", ref.ID)
	}
	return nil, fmt.Errorf("peer %d: unknown kind %q", ref.ID, ref.Kind)
}

// ResolveName resolves a public handle to its full descriptor.
func (c *Client) ResolveName(ctx context.Context, name string) (entity.Descriptor, error) {
	ref, err := c.ResolveUsername(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.FullInfo(ctx, ref)
}

// CustomEmojiAlt fetches the unicode fallback of a custom emoji document.
func (c *Client) CustomEmojiAlt(ctx context.Context, documentID int64) (string, error) {
	var docs []tg.DocumentClass
	err := c.do(ctx, func(ctx context.Context) error {
		var err error
		docs, err = c.api().MessagesGetCustomEmojiDocuments(ctx, []int64{documentID})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("get custom emoji %d: %w", documentID, err)
	}

	for _, d := range docs {
		doc, ok := d.(*tg.Document)
		if !ok {
			continue
		}
		for _, attr := range doc.Attributes {
			if emoji, ok := attr.(*tg.DocumentAttributeCustomEmoji); ok && emoji.Alt != "" {
				return emoji.Alt, nil
			}
		}
	}
	return "", fmt.Errorf("custom emoji %d: no alt attribute", documentID)
}
