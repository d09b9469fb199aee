package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channelscan/channelscan/internal/config"
)

func TestNew_BackendSelection(t *testing.T) {
	cfg := &config.Config{
		MongoURL:      "mongodb://localhost:27017",
		MongoDatabase: "telegram",
		PebblePath:    t.TempDir(),
		LocalDir:      t.TempDir(),
	}

	tests := []struct {
		backend string
		want    any
	}{
		{"mongodb", &MongoRepository{}},
		{"pebble", &PebbleRepository{}},
		{"local", &LocalRepository{}},
		{"cli", &CLIRepository{}},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg.RepositoryType = tt.backend
			r, err := New(cfg, "messages")
			require.NoError(t, err)
			assert.IsType(t, tt.want, r)
		})
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := &config.Config{RepositoryType: "dynamodb"}
	_, err := New(cfg, "messages")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dynamodb")
}

func TestResult_String(t *testing.T) {
	res := Result{Outcome: OutcomeInserted, Detail: "record id 1", Inserted: 1}
	assert.Contains(t, res.String(), "inserted")
	assert.False(t, res.Failed())

	empty := Result{Outcome: OutcomeEmpty}
	assert.True(t, empty.Failed())
}
