// Package repo hides the storage backend choice behind one contract with a
// uniform compaction and idempotency policy.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/channelscan/channelscan/internal/config"
)

// Doc is a storage-ready document. Falsy-valued fields are stripped by every
// backend before writing (see Compact).
type Doc = map[string]any

// Outcome classifies the result of a put call.
type Outcome string

// Put outcomes. Batches distinguish full success, partial success after
// empty-document filtering, and an all-empty batch that wrote nothing.
const (
	OutcomeInserted Outcome = "inserted"
	OutcomePartial  Outcome = "partial"
	OutcomeEmpty    Outcome = "empty"
)

// Result reports what a put call did.
type Result struct {
	Outcome  Outcome
	Detail   string
	Inserted int
	Skipped  int
}

func (r Result) String() string {
	return fmt.Sprintf("%s: %s (inserted=%d skipped=%d)", r.Outcome, r.Detail, r.Inserted, r.Skipped)
}

// Failed reports whether nothing was written.
func (r Result) Failed() bool { return r.Outcome == OutcomeEmpty }

// Sentinel errors shared by backends.
var (
	// ErrNotConnected is returned when a put/get precedes Connect.
	ErrNotConnected = errors.New("repository not connected")
	// ErrGetAllUnsupported is returned by backends that cannot read back.
	ErrGetAllUnsupported = errors.New("get all not supported by this backend")
)

// Repository is the uniform persistence contract. Connect must be called
// before any put/get; Disconnect is safe to call even after a failed Connect.
type Repository interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	PutOne(ctx context.Context, doc Doc) (Result, error)
	PutMany(ctx context.Context, docs []Doc) (Result, error)
	GetAll(ctx context.Context) ([]Doc, error)
}

// Backend names accepted by New.
const (
	BackendMongo  = "mongodb"
	BackendPebble = "pebble"
	BackendLocal  = "local"
	BackendCLI    = "cli"
)

// New constructs the backend selected by cfg.RepositoryType for the given
// logical table. Unknown backend names are a configuration error, not a
// runtime surprise.
func New(cfg *config.Config, table string) (Repository, error) {
	switch cfg.RepositoryType {
	case BackendMongo:
		return NewMongoRepository(cfg.MongoURL, cfg.MongoDatabase, table), nil
	case BackendPebble:
		return NewPebbleRepository(cfg.PebblePath, table), nil
	case BackendLocal:
		return NewLocalRepository(cfg.LocalDir, table), nil
	case BackendCLI:
		return NewCLIRepository(), nil
	default:
		return nil, fmt.Errorf("unknown repository type %q", cfg.RepositoryType)
	}
}
