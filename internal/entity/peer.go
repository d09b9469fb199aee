package entity

import (
	"github.com/gotd/td/tg"
)

// Kind discriminates the descriptor variants.
type Kind string

// Descriptor kinds.
const (
	KindChannel Kind = "channel"
	KindChat    Kind = "chat"
	KindUser    Kind = "user"
)

// PeerRef is an unresolved provider-side reference to a channel, chat or user.
// ID is always in the unmarked (positive) numeric space.
type PeerRef struct {
	Kind Kind
	ID   int64
}

// channelMarkOffset is the offset the Bot API convention adds to channel ids
// when encoding them as negative "marked" ids (-100XXXXXXXXXX).
const channelMarkOffset = 1_000_000_000_000

// Unmark converts a marked chat id to the unmarked numeric space shared by
// all descriptor variants. Positive ids are users, negative ids above the
// channel offset are channels, the rest are basic chats.
func Unmark(markedID int64) (int64, Kind) {
	if markedID >= 0 {
		return markedID, KindUser
	}
	id := -markedID
	if id > channelMarkOffset {
		return id - channelMarkOffset, KindChannel
	}
	return id, KindChat
}

// Mark is the inverse of Unmark, producing the Bot API style marked id.
func Mark(id int64, kind Kind) int64 {
	switch kind {
	case KindChannel:
		return -(id + channelMarkOffset)
	case KindChat:
		return -id
	default:
		return id
	}
}

// FromPeer converts a provider peer object to a PeerRef.
// Returns ok=false for peer kinds we do not track.
func FromPeer(peer tg.PeerClass) (PeerRef, bool) {
	switch p := peer.(type) {
	case *tg.PeerChannel:
		return PeerRef{Kind: KindChannel, ID: p.ChannelID}, true
	case *tg.PeerChat:
		return PeerRef{Kind: KindChat, ID: p.ChatID}, true
	case *tg.PeerUser:
		return PeerRef{Kind: KindUser, ID: p.UserID}, true
	default:
		return PeerRef{}, false
	}
}
