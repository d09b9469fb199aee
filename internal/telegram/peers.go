package telegram

import (
	"sync"

	"github.com/gotd/td/tg"

	"github.com/channelscan/channelscan/internal/entity"
)

// peerEntry pairs the access hash needed to address a peer with the partial
// descriptor already known from listings, so cheap lookups skip the network.
type peerEntry struct {
	kind       entity.Kind
	accessHash int64
	descriptor entity.Descriptor
}

// PeerRegistry remembers every peer seen in dialog listings, resolutions and
// updates. It is the source of access hashes for full-info requests and the
// fast path of entity resolution.
type PeerRegistry struct {
	mu     sync.RWMutex
	peers  map[int64]peerEntry
	byName map[string]int64
}

func NewPeerRegistry() *PeerRegistry {
	return &PeerRegistry{
		peers:  make(map[int64]peerEntry),
		byName: make(map[string]int64),
	}
}

// Observe records all chats and users carried by an API response.
// Telegram attaches the referenced peers to most responses, so feeding every
// response through here keeps the registry warm for free.
func (r *PeerRegistry) Observe(chats []tg.ChatClass, users []tg.UserClass) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range chats {
		switch ch := c.(type) {
		case *tg.Channel:
			r.put(ch.ID, peerEntry{
				kind:       entity.KindChannel,
				accessHash: ch.AccessHash,
				descriptor: entity.ChannelFromDialog(ch),
			}, ch.Username)
		case *tg.Chat:
			r.put(ch.ID, peerEntry{
				kind:       entity.KindChat,
				descriptor: entity.ChatFromDialog(ch),
			}, "")
		}
	}
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			r.put(user.ID, peerEntry{
				kind:       entity.KindUser,
				accessHash: user.AccessHash,
				descriptor: entity.UserFromDialog(user),
			}, user.Username)
		}
	}
}

// ObserveEntities records the peers attached to an update batch.
func (r *PeerRegistry) ObserveEntities(e tg.Entities) {
	chats := make([]tg.ChatClass, 0, len(e.Chats)+len(e.Channels))
	for _, c := range e.Chats {
		chats = append(chats, c)
	}
	for _, c := range e.Channels {
		chats = append(chats, c)
	}
	users := make([]tg.UserClass, 0, len(e.Users))
	for _, u := range e.Users {
		users = append(users, u)
	}
	r.Observe(chats, users)
}

func (r *PeerRegistry) put(id int64, e peerEntry, name string) {
	r.peers[id] = e
	if name != "" {
		r.byName[name] = id
	}
}

// Descriptor returns the partial descriptor known for a peer, if any.
func (r *PeerRegistry) Descriptor(id int64) (entity.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.peers[id]
	if !ok || e.descriptor == nil {
		return nil, false
	}
	return e.descriptor, true
}

// LookupName maps a public handle to a registered peer id.
func (r *PeerRegistry) LookupName(name string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

// InputPeer builds an addressable input peer for a registered id.
// Returns false when the peer was never observed (no access hash known).
func (r *PeerRegistry) InputPeer(ref entity.PeerRef) (tg.InputPeerClass, bool) {
	r.mu.RLock()
	e, ok := r.peers[ref.ID]
	r.mu.RUnlock()

	switch ref.Kind {
	case entity.KindChannel:
		if !ok {
			return nil, false
		}
		return &tg.InputPeerChannel{ChannelID: ref.ID, AccessHash: e.accessHash}, true
	case entity.KindChat:
		// basic groups are addressable by bare id
		return &tg.InputPeerChat{ChatID: ref.ID}, true
	case entity.KindUser:
		if !ok {
			return nil, false
		}
		return &tg.InputPeerUser{UserID: ref.ID, AccessHash: e.accessHash}, true
	}
	return nil, false
}

// InputChannel builds the channel form needed by channels.* requests.
func (r *PeerRegistry) InputChannel(id int64) (*tg.InputChannel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.peers[id]
	if !ok || e.kind != entity.KindChannel {
		return nil, false
	}
	return &tg.InputChannel{ChannelID: id, AccessHash: e.accessHash}, true
}

// InputUser builds the user form needed by users.* requests.
func (r *PeerRegistry) InputUser(id int64) (*tg.InputUser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.peers[id]
	if !ok || e.kind != entity.KindUser {
		return nil, false
	}
	return &tg.InputUser{UserID: id, AccessHash: e.accessHash}, true
}
