package entity

import (
	"testing"

	"github.com/gotd/td/tg"
)

func TestUnmark(t *testing.T) {
	tests := []struct {
		name     string
		marked   int64
		wantID   int64
		wantKind Kind
	}{
		{"channel", -1_001_234_567_890, 1_234_567_890, KindChannel},
		{"basic chat", -987654, 987654, KindChat},
		{"user", 777000, 777000, KindUser},
		{"zero", 0, 0, KindUser},
		{"chat at offset boundary", -1_000_000_000_000, 1_000_000_000_000, KindChat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, kind := Unmark(tt.marked)
			if id != tt.wantID || kind != tt.wantKind {
				t.Errorf("Unmark(%d) = (%d, %s), want (%d, %s)",
					tt.marked, id, kind, tt.wantID, tt.wantKind)
			}
		})
	}
}

func TestMarkRoundTrip(t *testing.T) {
	cases := []struct {
		id   int64
		kind Kind
	}{
		{1_234_567_890, KindChannel},
		{987654, KindChat},
		{777000, KindUser},
	}
	for _, c := range cases {
		id, kind := Unmark(Mark(c.id, c.kind))
		if id != c.id || kind != c.kind {
			t.Errorf("round trip (%d, %s) came back as (%d, %s)", c.id, c.kind, id, kind)
		}
	}
}

func TestFromPeer(t *testing.T) {
	ref, ok := FromPeer(&tg.PeerChannel{ChannelID: 42})
	if !ok || ref != (PeerRef{Kind: KindChannel, ID: 42}) {
		t.Errorf("FromPeer(channel) = (%v, %v)", ref, ok)
	}
	ref, ok = FromPeer(&tg.PeerChat{ChatID: 7})
	if !ok || ref != (PeerRef{Kind: KindChat, ID: 7}) {
		t.Errorf("FromPeer(chat) = (%v, %v)", ref, ok)
	}
	ref, ok = FromPeer(&tg.PeerUser{UserID: 9})
	if !ok || ref != (PeerRef{Kind: KindUser, ID: 9}) {
		t.Errorf("FromPeer(user) = (%v, %v)", ref, ok)
	}
	if _, ok := FromPeer(nil); ok {
		t.Error("FromPeer(nil) should not resolve")
	}
}
