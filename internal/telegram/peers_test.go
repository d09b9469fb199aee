package telegram

import (
	"testing"

	"github.com/gotd/td/tg"

	"github.com/channelscan/channelscan/internal/entity"
)

func testRegistry() *PeerRegistry {
	r := NewPeerRegistry()
	r.Observe(
		[]tg.ChatClass{
			&tg.Channel{ID: 100, AccessHash: 555, Username: "somechannel", Title: "Some Channel"},
			&tg.Chat{ID: 200, Title: "Some Group"},
		},
		[]tg.UserClass{
			&tg.User{ID: 300, AccessHash: 777, Username: "someone", FirstName: "Some"},
		},
	)
	return r
}

func TestPeerRegistry_Descriptor(t *testing.T) {
	r := testRegistry()

	d, ok := r.Descriptor(100)
	if !ok {
		t.Fatal("expected channel 100 to be registered")
	}
	if d.EntityKind() != entity.KindChannel || d.Handle() != "somechannel" {
		t.Errorf("unexpected descriptor: kind=%s handle=%s", d.EntityKind(), d.Handle())
	}

	if _, ok := r.Descriptor(999); ok {
		t.Error("expected miss for unknown peer")
	}
}

func TestPeerRegistry_LookupName(t *testing.T) {
	r := testRegistry()

	id, ok := r.LookupName("someone")
	if !ok || id != 300 {
		t.Errorf("LookupName = (%d, %v), want (300, true)", id, ok)
	}
	if _, ok := r.LookupName("nobody"); ok {
		t.Error("expected miss for unknown name")
	}
}

func TestPeerRegistry_InputPeer(t *testing.T) {
	r := testRegistry()

	peer, ok := r.InputPeer(entity.PeerRef{Kind: entity.KindChannel, ID: 100})
	if !ok {
		t.Fatal("expected input peer for registered channel")
	}
	ch, ok := peer.(*tg.InputPeerChannel)
	if !ok || ch.AccessHash != 555 {
		t.Errorf("unexpected input peer: %#v", peer)
	}

	// basic groups need no access hash
	if _, ok := r.InputPeer(entity.PeerRef{Kind: entity.KindChat, ID: 12345}); !ok {
		t.Error("chat input peer should not require registration")
	}

	// unregistered channels are not addressable
	if _, ok := r.InputPeer(entity.PeerRef{Kind: entity.KindChannel, ID: 999}); ok {
		t.Error("expected failure for unregistered channel")
	}
}

func TestPeerRegistry_ObserveEntities(t *testing.T) {
	r := NewPeerRegistry()
	r.ObserveEntities(tg.Entities{
		Channels: map[int64]*tg.Channel{400: {ID: 400, AccessHash: 1, Username: "live"}},
		Users:    map[int64]*tg.User{500: {ID: 500, AccessHash: 2}},
	})

	if _, ok := r.InputChannel(400); !ok {
		t.Error("expected channel from update entities to be registered")
	}
	if _, ok := r.InputUser(500); !ok {
		t.Error("expected user from update entities to be registered")
	}
}
