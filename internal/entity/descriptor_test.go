package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelDocument_OmitsEmptyFields(t *testing.T) {
	ch := &Channel{ID: 123, Title: "News"}
	doc := ch.Document()

	assert.Equal(t, map[string]any{
		"kind":  "channel",
		"id":    int64(123),
		"title": "News",
	}, doc)
}

func TestChannelDocument_FullFields(t *testing.T) {
	created := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	ch := &Channel{
		ID:                123,
		Name:              "news",
		Title:             "News",
		Description:       "daily news",
		ParticipantsCount: 42,
		CreationDate:      created,
		Chats:             []int64{456},
	}
	doc := ch.Document()

	assert.Equal(t, "news", doc["name"])
	assert.Equal(t, "daily news", doc["description"])
	assert.Equal(t, 42, doc["participants_count"])
	assert.Equal(t, created, doc["creation_date"])
	assert.Equal(t, []int64{456}, doc["chats"])
}

func TestPrivatePlaceholder(t *testing.T) {
	d := Private(987)

	require.True(t, IsPrivate(d))
	assert.Equal(t, int64(987), d.EntityID())
	assert.Equal(t, "PRIVATE", d.Label())

	// a real channel that merely has the same title is not the placeholder,
	// even when no other field is set
	assert.False(t, IsPrivate(&Channel{ID: 1, Title: "PRIVATE", Name: "private_club"}))
	assert.False(t, IsPrivate(&Channel{ID: 2, Title: "PRIVATE"}))
}

func TestFromDocument(t *testing.T) {
	t.Run("channel round trip", func(t *testing.T) {
		src := &Channel{ID: 5, Name: "n", Title: "T", ParticipantsCount: 3}
		got := FromDocument(src.Document())
		require.IsType(t, &Channel{}, got)
		assert.Equal(t, src.ID, got.EntityID())
		assert.Equal(t, "n", got.Handle())
	})

	t.Run("legacy document without kind is a channel", func(t *testing.T) {
		got := FromDocument(map[string]any{"id": int64(9), "title": "Old"})
		require.IsType(t, &Channel{}, got)
		assert.Equal(t, int64(9), got.EntityID())
	})

	t.Run("mongo-shaped numerics", func(t *testing.T) {
		got := FromDocument(map[string]any{"kind": "user", "id": float64(31), "username": "u"})
		require.IsType(t, &User{}, got)
		assert.Equal(t, int64(31), got.EntityID())
	})

	t.Run("missing id yields nil", func(t *testing.T) {
		assert.Nil(t, FromDocument(map[string]any{"title": "x"}))
	})
}
