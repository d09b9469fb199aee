package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPebbleRepository_Key(t *testing.T) {
	r := NewPebbleRepository("", "messages")

	tests := []struct {
		name    string
		doc     Doc
		want    string
		wantErr bool
	}{
		{"message record", Doc{"chat_id": int64(100), "msg_id": 42}, "messages/100_42", false},
		{"descriptor", Doc{"id": int64(7), "title": "x"}, "messages/7", false},
		{"no usable key", Doc{"msg": "x"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := r.Key(tt.doc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestPebbleRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	r := NewPebbleRepository(t.TempDir(), "messages")
	require.NoError(t, r.Connect(ctx))
	defer r.Disconnect(ctx)

	res, err := r.PutOne(ctx, Doc{"chat_id": int64(100), "msg_id": 1, "msg": "one"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, res.Outcome)

	res, err = r.PutMany(ctx, []Doc{
		{"chat_id": int64(100), "msg_id": 2, "msg": "two"},
		{"views": 0},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.Equal(t, 1, res.Inserted)

	docs, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestPebbleRepository_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	r := NewPebbleRepository(t.TempDir(), "messages")
	require.NoError(t, r.Connect(ctx))
	defer r.Disconnect(ctx)

	doc := Doc{"chat_id": int64(100), "msg_id": 1, "msg": "old"}
	_, err := r.PutOne(ctx, doc)
	require.NoError(t, err)

	doc["msg"] = "new"
	_, err = r.PutOne(ctx, doc)
	require.NoError(t, err)

	docs, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1, "same natural key must occupy one slot")
	assert.Equal(t, "new", docs[0]["msg"])
}

func TestPebbleRepository_TableIsolation(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	messages := NewPebbleRepository(dir, "messages")
	require.NoError(t, messages.Connect(ctx))
	_, err := messages.PutOne(ctx, Doc{"chat_id": int64(1), "msg_id": 1, "msg": "m"})
	require.NoError(t, err)
	require.NoError(t, messages.Disconnect(ctx))

	channels := NewPebbleRepository(dir, "channels")
	require.NoError(t, channels.Connect(ctx))
	defer channels.Disconnect(ctx)
	_, err = channels.PutOne(ctx, Doc{"id": int64(5), "title": "c"})
	require.NoError(t, err)

	docs, err := channels.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1, "prefix scan must not leak other tables")
	assert.Equal(t, "c", docs[0]["title"])
}
