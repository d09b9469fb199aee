package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channelscan/channelscan/internal/logger"
)

func TestCLIRepository_PutOne(t *testing.T) {
	var buf bytes.Buffer
	r := &CLIRepository{out: &buf, log: logger.Get()}
	ctx := context.Background()
	require.NoError(t, r.Connect(ctx))

	res, err := r.PutOne(ctx, Doc{"msg_id": 1, "msg": "hello", "views": 0})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, res.Outcome)

	var printed Doc
	require.NoError(t, json.Unmarshal(buf.Bytes(), &printed))
	assert.Equal(t, "hello", printed["msg"])
	assert.NotContains(t, printed, "views", "falsy fields must be compacted away")
}

func TestCLIRepository_PutMany(t *testing.T) {
	var buf bytes.Buffer
	r := &CLIRepository{out: &buf, log: logger.Get()}
	ctx := context.Background()

	res, err := r.PutMany(ctx, []Doc{
		{"msg_id": 1, "msg": "a"},
		{"views": 0},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Outcome)

	var printed []Doc
	require.NoError(t, json.Unmarshal(buf.Bytes(), &printed))
	assert.Len(t, printed, 1)
}

func TestCLIRepository_GetAllFailsLoudly(t *testing.T) {
	r := NewCLIRepository()
	_, err := r.GetAll(context.Background())
	assert.ErrorIs(t, err, ErrGetAllUnsupported)
}
