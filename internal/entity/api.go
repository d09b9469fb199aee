package entity

import (
	"time"

	"github.com/gotd/td/tg"
)

// ChannelFromFull builds a complete channel descriptor from a full-info response.
func ChannelFromFull(res *tg.MessagesChatFull) (*Channel, bool) {
	full, ok := res.FullChat.(*tg.ChannelFull)
	if !ok || len(res.Chats) == 0 {
		return nil, false
	}
	ch, ok := res.Chats[0].(*tg.Channel)
	if !ok {
		return nil, false
	}

	out := &Channel{
		ID:                full.ID,
		Name:              ch.Username,
		Title:             ch.Title,
		Description:       full.About,
		ParticipantsCount: full.ParticipantsCount,
		CreationDate:      time.Unix(int64(ch.Date), 0).UTC(),
	}
	// trailing chats are migrated/linked groups
	for _, linked := range res.Chats[1:] {
		switch c := linked.(type) {
		case *tg.Channel:
			out.Chats = append(out.Chats, c.ID)
		case *tg.Chat:
			out.Chats = append(out.Chats, c.ID)
		}
	}
	return out, true
}

// ChatFromFull builds a complete basic-group descriptor from a full-info response.
func ChatFromFull(res *tg.MessagesChatFull) (*Chat, bool) {
	full, ok := res.FullChat.(*tg.ChatFull)
	if !ok || len(res.Chats) == 0 {
		return nil, false
	}
	ch, ok := res.Chats[0].(*tg.Chat)
	if !ok {
		return nil, false
	}

	out := &Chat{
		ID:           full.ID,
		Title:        ch.Title,
		Description:  full.About,
		CreationDate: time.Unix(int64(ch.Date), 0).UTC(),
	}
	if invite, ok := full.ExportedInvite.(*tg.ChatInviteExported); ok {
		out.InviteLink = invite.Link
	}
	if migrated, ok := ch.GetMigratedTo(); ok {
		if input, ok := migrated.(*tg.InputChannel); ok {
			out.ParentChannel = input.ChannelID
		}
	}
	return out, true
}

// UserFromFull builds a complete user descriptor from a full-info response.
func UserFromFull(res *tg.UsersUserFull) (*User, bool) {
	if len(res.Users) == 0 {
		return nil, false
	}
	u, ok := res.Users[0].(*tg.User)
	if !ok {
		return nil, false
	}
	return &User{
		ID:          u.ID,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		Description: res.FullUser.About,
	}, true
}

// ChannelFromDialog builds a partial channel descriptor from a dialog listing.
// Fast path: fewer fields than ChannelFromFull, same id.
func ChannelFromDialog(ch *tg.Channel) *Channel {
	return &Channel{
		ID:                ch.ID,
		Name:              ch.Username,
		Title:             ch.Title,
		ParticipantsCount: ch.ParticipantsCount,
		CreationDate:      time.Unix(int64(ch.Date), 0).UTC(),
	}
}

// ChatFromDialog builds a partial basic-group descriptor from a dialog listing.
func ChatFromDialog(ch *tg.Chat) *Chat {
	out := &Chat{
		ID:           ch.ID,
		Title:        ch.Title,
		CreationDate: time.Unix(int64(ch.Date), 0).UTC(),
	}
	if migrated, ok := ch.GetMigratedTo(); ok {
		if input, ok := migrated.(*tg.InputChannel); ok {
			out.ParentChannel = input.ChannelID
		}
	}
	return out
}

// UserFromDialog builds a partial user descriptor from a dialog listing.
func UserFromDialog(u *tg.User) *User {
	return &User{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

// FromDocument reconstructs a descriptor from a stored document.
// Unknown kinds return nil. Numeric fields tolerate the loose types
// different backends deserialize into.
func FromDocument(doc map[string]any) Descriptor {
	id := asInt64(doc["id"])
	if id == 0 {
		return nil
	}
	switch Kind(asString(doc["kind"])) {
	case KindChat:
		return &Chat{
			ID:            id,
			Title:         asString(doc["title"]),
			Description:   asString(doc["description"]),
			CreationDate:  asTime(doc["creation_date"]),
			InviteLink:    asString(doc["link"]),
			ParentChannel: asInt64(doc["parent_channel"]),
		}
	case KindUser:
		return &User{
			ID:          id,
			Username:    asString(doc["username"]),
			FirstName:   asString(doc["first_name"]),
			LastName:    asString(doc["last_name"]),
			Phone:       asString(doc["phone"]),
			Description: asString(doc["description"]),
		}
	default:
		// legacy documents carry no kind tag; channels dominate, so
		// fall back to the channel variant
		return &Channel{
			ID:                id,
			Name:              asString(doc["name"]),
			Title:             asString(doc["title"]),
			Description:       asString(doc["description"]),
			ParticipantsCount: int(asInt64(doc["participants_count"])),
			CreationDate:      asTime(doc["creation_date"]),
		}
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}
		}
		return parsed
	default:
		return time.Time{}
	}
}
