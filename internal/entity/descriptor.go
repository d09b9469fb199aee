// Package entity holds compact descriptors for resolved Telegram peers and
// the process-lifetime resolution cache.
package entity

import (
	"time"
)

// Descriptor is the normalized representation of a resolved peer.
// Descriptors are immutable: a fresh resolution produces a new value.
type Descriptor interface {
	// EntityID returns the unmarked id, unique within the variant namespace.
	EntityID() int64
	// EntityKind returns the variant tag.
	EntityKind() Kind
	// Document returns a storage-ready mapping with empty fields omitted.
	Document() map[string]any
	// Label returns the human-readable title of the peer.
	Label() string
	// Handle returns the public handle (username), empty when absent.
	Handle() string
}

// Channel is a broadcast channel or supergroup directory entry.
type Channel struct {
	ID                int64
	Name              string // public handle, may be empty
	Title             string
	Description       string
	ParticipantsCount int
	CreationDate      time.Time
	// Chats lists ids of migrated/linked group chats. Following these
	// transitively can cycle; treat as a non-owning reference list.
	Chats []int64

	// placeholder tags the access-denied sentinel built by Private.
	// Never serialized; a descriptor rebuilt from storage loses it.
	placeholder bool
}

// EntityID implements Descriptor.
func (c *Channel) EntityID() int64 { return c.ID }

// EntityKind implements Descriptor.
func (c *Channel) EntityKind() Kind { return KindChannel }

// Label implements Descriptor.
func (c *Channel) Label() string { return c.Title }

// Handle implements Descriptor.
func (c *Channel) Handle() string { return c.Name }

// Document implements Descriptor.
func (c *Channel) Document() map[string]any {
	doc := map[string]any{
		"kind":  string(KindChannel),
		"id":    c.ID,
		"title": c.Title,
	}
	putNonEmpty(doc, "name", c.Name)
	putNonEmpty(doc, "description", c.Description)
	if c.ParticipantsCount > 0 {
		doc["participants_count"] = c.ParticipantsCount
	}
	if !c.CreationDate.IsZero() {
		doc["creation_date"] = c.CreationDate
	}
	if len(c.Chats) > 0 {
		doc["chats"] = c.Chats
	}
	return doc
}

// Chat is a basic group, possibly migrated into a channel.
type Chat struct {
	ID            int64
	Title         string
	Description   string
	CreationDate  time.Time
	InviteLink    string
	ParentChannel int64 // channel it migrated into, 0 if none
}

// EntityID implements Descriptor.
func (c *Chat) EntityID() int64 { return c.ID }

// EntityKind implements Descriptor.
func (c *Chat) EntityKind() Kind { return KindChat }

// Label implements Descriptor.
func (c *Chat) Label() string { return c.Title }

// Handle implements Descriptor.
func (c *Chat) Handle() string { return "" }

// Document implements Descriptor.
func (c *Chat) Document() map[string]any {
	doc := map[string]any{
		"kind":  string(KindChat),
		"id":    c.ID,
		"title": c.Title,
	}
	putNonEmpty(doc, "description", c.Description)
	putNonEmpty(doc, "link", c.InviteLink)
	if !c.CreationDate.IsZero() {
		doc["creation_date"] = c.CreationDate
	}
	if c.ParentChannel != 0 {
		doc["parent_channel"] = c.ParentChannel
	}
	return doc
}

// User is a private account directory entry.
type User struct {
	ID          int64
	Username    string
	FirstName   string
	LastName    string
	Phone       string
	Description string
}

// EntityID implements Descriptor.
func (u *User) EntityID() int64 { return u.ID }

// EntityKind implements Descriptor.
func (u *User) EntityKind() Kind { return KindUser }

// Label implements Descriptor.
func (u *User) Label() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// Handle implements Descriptor.
func (u *User) Handle() string { return u.Username }

// Document implements Descriptor.
func (u *User) Document() map[string]any {
	doc := map[string]any{
		"kind": string(KindUser),
		"id":   u.ID,
	}
	putNonEmpty(doc, "username", u.Username)
	putNonEmpty(doc, "first_name", u.FirstName)
	putNonEmpty(doc, "last_name", u.LastName)
	putNonEmpty(doc, "phone", u.Phone)
	putNonEmpty(doc, "description", u.Description)
	return doc
}

func putNonEmpty(doc map[string]any, key, val string) {
	if val != "" {
		doc[key] = val
	}
}

// privateTitle marks peers that exist but deny detail access.
const privateTitle = "PRIVATE"

// Private returns the degenerate placeholder descriptor for a peer the
// provider reports as access-denied. Distinct from a nil (nonexistent) result.
func Private(id int64) Descriptor {
	return &Channel{ID: id, Title: privateTitle, placeholder: true}
}

// IsPrivate reports whether d is the access-denied placeholder.
func IsPrivate(d Descriptor) bool {
	ch, ok := d.(*Channel)
	return ok && ch.placeholder
}
