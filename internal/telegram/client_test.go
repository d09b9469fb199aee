package telegram

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/channelscan/channelscan/internal/entity"
	"github.com/channelscan/channelscan/internal/logger"
)

func TestCheckFloodWait(t *testing.T) {
	c := &Client{log: logger.Get()}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, 0},
		{"plain error", errors.New("connection reset"), 0},
		{"flood wait", errors.New("rpc error code 420: FLOOD_WAIT_15"), 15},
		{"wrapped flood wait", fmt.Errorf("get history: %w", errors.New("FLOOD_WAIT_300")), 300},
		{"flood wait with suffix", errors.New("FLOOD_WAIT_42 (caused by messages.getHistory)"), 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.checkFloodWait(tt.err); got != tt.want {
				t.Errorf("checkFloodWait(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"channel private", errors.New("rpc error code 400: CHANNEL_PRIVATE"), entity.ErrPeerPrivate},
		{"chat forbidden", errors.New("CHAT_FORBIDDEN"), entity.ErrPeerPrivate},
		{"username not occupied", errors.New("USERNAME_NOT_OCCUPIED"), entity.ErrPeerNotFound},
		{"username invalid", errors.New("USERNAME_INVALID"), entity.ErrPeerNotFound},
		{"peer id invalid", errors.New("PEER_ID_INVALID"), entity.ErrPeerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyErr(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("classifyErr(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	// unrelated errors pass through unchanged
	plain := errors.New("connection reset")
	if got := classifyErr(plain); got != plain {
		t.Errorf("classifyErr should not touch unrelated errors, got %v", got)
	}
	if classifyErr(nil) != nil {
		t.Error("classifyErr(nil) should be nil")
	}
}

func TestHistoryPageUnknownPeer(t *testing.T) {
	c := &Client{peers: NewPeerRegistry(), log: logger.Get()}

	_, err := c.HistoryPage(context.Background(), entity.PeerRef{Kind: entity.KindChannel, ID: 42}, 0, 10)
	if !errors.Is(err, entity.ErrPeerNotFound) {
		t.Errorf("HistoryPage on unregistered peer = %v, want ErrPeerNotFound", err)
	}
}
