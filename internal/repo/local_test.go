package repo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readArray(t *testing.T, path string) []Doc {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var docs []Doc
	require.NoError(t, json.Unmarshal(data, &docs), "file must stay a valid JSON array: %s", data)
	return docs
}

func TestLocalRepository_PutOne_Splices(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	r := NewLocalRepository(dir, "messages")
	require.NoError(t, r.Connect(ctx))

	res, err := r.PutOne(ctx, Doc{"msg_id": 1, "msg": "first"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, res.Outcome)

	// the second append splices before the closing bracket
	_, err = r.PutOne(ctx, Doc{"msg_id": 2, "msg": "second"})
	require.NoError(t, err)

	docs := readArray(t, filepath.Join(dir, "messages.json"))
	require.Len(t, docs, 2)
	assert.Equal(t, "first", docs[0]["msg"])
	assert.Equal(t, "second", docs[1]["msg"])
}

func TestLocalRepository_PutOne_EmptyDocument(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	r := NewLocalRepository(dir, "messages")
	require.NoError(t, r.Connect(ctx))

	res, err := r.PutOne(ctx, Doc{"views": 0, "msg": ""})
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, res.Outcome)
	assert.True(t, res.Failed())
}

func TestLocalRepository_PutMany(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	r := NewLocalRepository(dir, "messages")
	require.NoError(t, r.Connect(ctx))

	res, err := r.PutMany(ctx, []Doc{
		{"msg_id": 1, "msg": "keep"},
		{"views": 0}, // fully falsy, filtered out
		{"msg_id": 3, "msg": "keep too"},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Skipped)

	docs, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestLocalRepository_PutMany_AllEmpty(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	r := NewLocalRepository(dir, "messages")
	require.NoError(t, r.Connect(ctx))

	res, err := r.PutMany(ctx, []Doc{{"views": 0}, {}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, res.Outcome)
	assert.Equal(t, "failed to insert any document", res.Detail)
}

func TestLocalRepository_RequiresConnect(t *testing.T) {
	r := NewLocalRepository(t.TempDir(), "messages")
	_, err := r.PutOne(context.Background(), Doc{"msg": "x"})
	assert.ErrorIs(t, err, ErrNotConnected)
}
