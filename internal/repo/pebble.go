package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/channelscan/channelscan/internal/logger"
)

// PebbleRepository stores documents in an embedded pebble key-value table,
// keyed by the natural composite key. This is the one backend with an
// explicit natural-key write path: two records with the same
// (chat_id, msg_id) share one key and the later write wins.
type PebbleRepository struct {
	path  string
	table string
	log   *logger.Logger

	db *pebble.DB
}

// NewPebbleRepository creates a pebble-backed repository; one pebble
// directory hosts several logical tables via key prefixes.
func NewPebbleRepository(path, table string) *PebbleRepository {
	return &PebbleRepository{
		path:  path,
		table: table,
		log:   logger.Get(),
	}
}

// Connect opens (or creates) the pebble database.
func (r *PebbleRepository) Connect(_ context.Context) error {
	db, err := pebble.Open(r.path, &pebble.Options{})
	if err != nil {
		r.log.Error().Err(err).Str("path", r.path).Msg("pebble: open failed")
		return fmt.Errorf("open pebble at %s: %w", r.path, err)
	}
	r.db = db
	r.log.Info().Str("path", r.path).Str("table", r.table).Msg("pebble: opened")
	return nil
}

// Disconnect closes the database. Safe to call after a failed Connect.
func (r *PebbleRepository) Disconnect(_ context.Context) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	if err != nil {
		return fmt.Errorf("close pebble: %w", err)
	}
	return nil
}

// Key derives the write key for a compacted document: chatID_msgID for
// message records, the bare id for descriptors.
func (r *PebbleRepository) Key(doc Doc) (string, error) {
	chatID, hasChat := doc["chat_id"]
	msgID, hasMsg := doc["msg_id"]
	if hasChat && hasMsg {
		return fmt.Sprintf("%s/%v_%v", r.table, chatID, msgID), nil
	}
	if id, ok := doc["id"]; ok {
		return fmt.Sprintf("%s/%v", r.table, id), nil
	}
	return "", fmt.Errorf("document has no natural key")
}

// PutOne writes a single compacted document under its natural key.
func (r *PebbleRepository) PutOne(_ context.Context, doc Doc) (Result, error) {
	if r.db == nil {
		return Result{}, ErrNotConnected
	}

	compacted := Compact(doc)
	if len(compacted) == 0 {
		r.log.Warn().Msg("pebble: document was empty, skipping write")
		return Result{Outcome: OutcomeEmpty, Detail: "skipped empty document", Skipped: 1}, nil
	}

	key, err := r.Key(compacted)
	if err != nil {
		return Result{}, err
	}
	data, err := json.Marshal(compacted)
	if err != nil {
		return Result{}, fmt.Errorf("marshal document: %w", err)
	}
	if err := r.db.Set([]byte(key), data, pebble.Sync); err != nil {
		return Result{}, fmt.Errorf("set %s: %w", key, err)
	}
	return Result{Outcome: OutcomeInserted, Detail: "key " + key, Inserted: 1}, nil
}

// PutMany writes the non-empty subset of a batch atomically.
func (r *PebbleRepository) PutMany(_ context.Context, docs []Doc) (Result, error) {
	if r.db == nil {
		return Result{}, ErrNotConnected
	}

	kept, skipped := compactBatch(docs)
	if skipped > 0 {
		r.log.Warn().Int("count", skipped).Msg("pebble: skipping empty documents")
	}
	if len(kept) == 0 {
		r.log.Error().Msg("pebble: refusing to write an all-empty batch")
		return Result{Outcome: OutcomeEmpty, Detail: "failed to insert any document", Skipped: skipped}, nil
	}

	batch := r.db.NewBatch()
	defer batch.Close()
	for _, doc := range kept {
		key, err := r.Key(doc)
		if err != nil {
			return Result{}, err
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return Result{}, fmt.Errorf("marshal document: %w", err)
		}
		if err := batch.Set([]byte(key), data, nil); err != nil {
			return Result{}, fmt.Errorf("batch set %s: %w", key, err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return Result{}, fmt.Errorf("commit batch: %w", err)
	}

	outcome := OutcomeInserted
	if skipped > 0 {
		outcome = OutcomePartial
	}
	return Result{
		Outcome:  outcome,
		Detail:   fmt.Sprintf("wrote %d documents", len(kept)),
		Inserted: len(kept),
		Skipped:  skipped,
	}, nil
}

// GetAll scans the table's key range and decodes every document.
func (r *PebbleRepository) GetAll(_ context.Context) ([]Doc, error) {
	if r.db == nil {
		return nil, ErrNotConnected
	}

	prefix := []byte(r.table + "/")
	upper := append(append([]byte{}, []byte(r.table)...), '/'+1)
	iter, err := r.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upper,
	})
	if err != nil {
		return nil, fmt.Errorf("open iterator: %w", err)
	}
	defer iter.Close()

	var docs []Doc
	for iter.First(); iter.Valid(); iter.Next() {
		var doc Doc
		if err := json.Unmarshal(iter.Value(), &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", iter.Key(), err)
		}
		docs = append(docs, doc)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return docs, nil
}
