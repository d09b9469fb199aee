// Package telegram provides Telegram MTProto client wrapper.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"

	"github.com/channelscan/channelscan/internal/entity"
	"github.com/channelscan/channelscan/internal/logger"
)

const dialogPageSize = 100

// Config holds the credentials and session location for one account.
type Config struct {
	APIID     int
	APIHash   string
	Phone     string
	SessionDB string
}

// Client wraps the raw gotd client with rate limiting, FLOOD_WAIT backoff,
// peer bookkeeping and the high-level operations the scraper needs.
type Client struct {
	cfg         Config
	proto       *telegram.Client
	dispatcher  tg.UpdateDispatcher
	rateLimiter *RateLimiter
	peers       *PeerRegistry
	log         *logger.Logger

	ready     chan struct{}
	runErr    chan error
	startOnce sync.Once
}

// NewClient creates a client with a sqlite-backed session.
// The connection is not opened until Start.
func NewClient(cfg Config) (*Client, error) {
	storage, err := NewSessionStorage(cfg.SessionDB, cfg.Phone)
	if err != nil {
		return nil, err
	}

	dispatcher := tg.NewUpdateDispatcher()
	proto := telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		SessionStorage: storage,
		UpdateHandler:  dispatcher,
	})

	return &Client{
		cfg:         cfg,
		proto:       proto,
		dispatcher:  dispatcher,
		rateLimiter: DefaultRateLimiter(),
		peers:       NewPeerRegistry(),
		log:         logger.Get(),
		ready:       make(chan struct{}),
		runErr:      make(chan error, 1),
	}, nil
}

// Dispatcher exposes the update dispatcher for handler registration.
// Handlers must be registered before Start.
func (c *Client) Dispatcher() *tg.UpdateDispatcher {
	return &c.dispatcher
}

// Peers exposes the peer registry.
func (c *Client) Peers() *PeerRegistry {
	return c.peers
}

// Start launches the background connection loop. Stored sessions are reused;
// a missing or revoked session falls back to the interactive code flow.
// Call once, then WaitReady before issuing requests.
func (c *Client) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		go func() {
			err := c.proto.Run(ctx, func(runCtx context.Context) error {
				status, err := c.proto.Auth().Status(runCtx)
				if err != nil {
					return fmt.Errorf("auth status: %w", err)
				}
				if !status.Authorized {
					c.log.Warn().Str("phone", c.cfg.Phone).Msg("telegram: no valid session, starting code auth")
					flow := auth.NewFlow(NewTerminalAuth(c.cfg.Phone), auth.SendCodeOptions{})
					if err := flow.Run(runCtx, c.proto.Auth()); err != nil {
						return fmt.Errorf("auth flow: %w", err)
					}
				}
				c.log.Info().Msg("telegram: client authenticated and ready")
				close(c.ready)

				<-runCtx.Done()
				return runCtx.Err()
			})

			if err != nil && !errors.Is(err, context.Canceled) {
				c.log.Error().Err(err).Msg("telegram: client loop exited")
			}
			c.runErr <- err
			close(c.runErr)
		}()
	})
}

// WaitReady blocks until the client is authenticated or its loop failed.
func (c *Client) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case err := <-c.runErr:
		if err == nil {
			err = fmt.Errorf("telegram client stopped before becoming ready")
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// api returns the raw tg.Client for direct API calls.
func (c *Client) api() *tg.Client {
	return c.proto.API()
}

// do wraps one API call with rate limiting and FLOOD_WAIT handling.
func (c *Client) do(ctx context.Context, f func(ctx context.Context) error) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.log.Error().Err(err).Msg("telegram: rate limiter wait failed")
		return err
	}

	err := f(ctx)
	if err != nil {
		if wait := c.checkFloodWait(err); wait > 0 {
			c.log.Warn().Int("wait_seconds", wait).Msg("telegram: FLOOD_WAIT detected, updating rate limiter")
			c.rateLimiter.SetFloodWait(wait)
		}
	}
	return err
}

// Dialogs walks the full dialog list, feeding every page through the peer
// registry, and returns one descriptor per dialog in listing order.
func (c *Client) Dialogs(ctx context.Context) ([]entity.Descriptor, error) {
	var (
		out        []entity.Descriptor
		offsetDate int
		offsetID   int
		offsetPeer tg.InputPeerClass = &tg.InputPeerEmpty{}
	)

	for {
		var resp tg.MessagesDialogsClass
		err := c.do(ctx, func(ctx context.Context) error {
			var err error
			resp, err = c.api().MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
				OffsetDate: offsetDate,
				OffsetID:   offsetID,
				OffsetPeer: offsetPeer,
				Limit:      dialogPageSize,
			})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("get dialogs: %w", err)
		}

		var (
			dialogs  []tg.DialogClass
			messages []tg.MessageClass
			last     bool
		)
		switch d := resp.(type) {
		case *tg.MessagesDialogs:
			c.peers.Observe(d.Chats, d.Users)
			dialogs, messages, last = d.Dialogs, d.Messages, true
		case *tg.MessagesDialogsSlice:
			c.peers.Observe(d.Chats, d.Users)
			dialogs, messages = d.Dialogs, d.Messages
			last = len(d.Dialogs) < dialogPageSize
		case *tg.MessagesDialogsNotModified:
			return out, nil
		}

		for _, dlg := range dialogs {
			ref, ok := entity.FromPeer(dlg.GetPeer())
			if !ok {
				continue
			}
			if d, ok := c.peers.Descriptor(ref.ID); ok {
				out = append(out, d)
			}
		}
		if last || len(dialogs) == 0 {
			return out, nil
		}

		// next page offsets come from the last dialog's top message
		for i := len(messages) - 1; i >= 0; i-- {
			if m, ok := messages[i].(*tg.Message); ok {
				offsetDate = m.Date
				offsetID = m.ID
				break
			}
		}
		if ref, ok := entity.FromPeer(dialogs[len(dialogs)-1].GetPeer()); ok {
			if peer, ok := c.peers.InputPeer(ref); ok {
				offsetPeer = peer
			}
		}
	}
}

// HistoryPage fetches one page of a peer's history, newest first.
// offsetID 0 starts from the head; pass the last returned message id to
// continue backwards. limit is capped at the API maximum of 100.
func (c *Client) HistoryPage(ctx context.Context, ref entity.PeerRef, offsetID, limit int) ([]*tg.Message, error) {
	if limit > 100 {
		limit = 100
	}
	peer, ok := c.peers.InputPeer(ref)
	if !ok {
		return nil, fmt.Errorf("peer %d/%s not in registry: %w", ref.ID, ref.Kind, entity.ErrPeerNotFound)
	}

	c.log.Debug().Int64("chat_id", ref.ID).Int("offset_id", offsetID).Int("limit", limit).
		Msg("telegram: fetching history page")
	var resp tg.MessagesMessagesClass
	err := c.do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.api().MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:     peer,
			OffsetID: offsetID,
			Limit:    limit,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	var (
		raw   []tg.MessageClass
		chats []tg.ChatClass
		users []tg.UserClass
	)
	switch h := resp.(type) {
	case *tg.MessagesChannelMessages:
		raw, chats, users = h.Messages, h.Chats, h.Users
	case *tg.MessagesMessages:
		raw, chats, users = h.Messages, h.Chats, h.Users
	case *tg.MessagesMessagesSlice:
		raw, chats, users = h.Messages, h.Chats, h.Users
	}
	c.peers.Observe(chats, users)

	var messages []*tg.Message
	for _, m := range raw {
		if msg, ok := m.(*tg.Message); ok {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

// ResolveUsername resolves a public handle (with or without @) and registers
// the returned peer.
func (c *Client) ResolveUsername(ctx context.Context, username string) (entity.PeerRef, error) {
	username = strings.TrimPrefix(username, "@")

	c.log.Debug().Str("username", username).Msg("telegram: resolving username")
	var resolved *tg.ContactsResolvedPeer
	err := c.do(ctx, func(ctx context.Context) error {
		var err error
		resolved, err = c.api().ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
			Username: username,
		})
		return err
	})
	if err != nil {
		return entity.PeerRef{}, classifyErr(fmt.Errorf("resolve username %s: %w", username, err))
	}

	c.peers.Observe(resolved.Chats, resolved.Users)
	ref, ok := entity.FromPeer(resolved.Peer)
	if !ok {
		return entity.PeerRef{}, fmt.Errorf("resolve username %s: unsupported peer %T", username, resolved.Peer)
	}
	return ref, nil
}

// FullChannel fetches full channel info for a registered channel id.
func (c *Client) FullChannel(ctx context.Context, id int64) (*tg.MessagesChatFull, error) {
	input, ok := c.peers.InputChannel(id)
	if !ok {
		return nil, fmt.Errorf("channel %d: %w", id, entity.ErrPeerNotFound)
	}

	var full *tg.MessagesChatFull
	err := c.do(ctx, func(ctx context.Context) error {
		var err error
		full, err = c.api().ChannelsGetFullChannel(ctx, input)
		return err
	})
	if err != nil {
		return nil, classifyErr(fmt.Errorf("get full channel %d: %w", id, err))
	}
	c.peers.Observe(full.Chats, full.Users)
	return full, nil
}

// FullChat fetches full basic-group info.
func (c *Client) FullChat(ctx context.Context, id int64) (*tg.MessagesChatFull, error) {
	var full *tg.MessagesChatFull
	err := c.do(ctx, func(ctx context.Context) error {
		var err error
		full, err = c.api().MessagesGetFullChat(ctx, id)
		return err
	})
	if err != nil {
		return nil, classifyErr(fmt.Errorf("get full chat %d: %w", id, err))
	}
	c.peers.Observe(full.Chats, full.Users)
	return full, nil
}

// FullUser fetches full user info for a registered user id.
func (c *Client) FullUser(ctx context.Context, id int64) (*tg.UsersUserFull, error) {
	input, ok := c.peers.InputUser(id)
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, entity.ErrPeerNotFound)
	}

	var full *tg.UsersUserFull
	err := c.do(ctx, func(ctx context.Context) error {
		var err error
		full, err = c.api().UsersGetFullUser(ctx, input)
		return err
	})
	if err != nil {
		return nil, classifyErr(fmt.Errorf("get full user %d: %w", id, err))
	}
	c.peers.Observe(nil, full.Users)
	return full, nil
}

// checkFloodWait checks if error is a FLOOD_WAIT error and returns wait seconds.
func (c *Client) checkFloodWait(err error) int {
	if err == nil {
		return 0
	}

	// gotd errors are usually wrapped; matching the error string is the most
	// reliable way without deep coupling to the tg error definitions
	str := err.Error()
	if strings.Contains(str, "FLOOD_WAIT_") {
		var seconds int
		parts := strings.Split(str, "FLOOD_WAIT_")
		if len(parts) > 1 {
			numStr := strings.TrimSpace(parts[1])
			_, _ = fmt.Sscanf(numStr, "%d", &seconds)
			return seconds
		}
	}
	return 0
}

// classifyErr maps well-known RPC failures onto the resolution errors the
// entity cache understands, leaving everything else untouched.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	str := err.Error()
	switch {
	case strings.Contains(str, "CHANNEL_PRIVATE"),
		strings.Contains(str, "CHAT_FORBIDDEN"):
		return fmt.Errorf("%w: %s", entity.ErrPeerPrivate, str)
	case strings.Contains(str, "USERNAME_NOT_OCCUPIED"),
		strings.Contains(str, "USERNAME_INVALID"),
		strings.Contains(str, "PEER_ID_INVALID"):
		return fmt.Errorf("%w: %s", entity.ErrPeerNotFound, str)
	}
	return err
}
