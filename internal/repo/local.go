package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/channelscan/channelscan/internal/logger"
)

// LocalRepository appends documents to a single JSON array file, meant for
// investigative offline dumps that pipe nicely into jq. Not concurrent-safe.
type LocalRepository struct {
	path string
	log  *logger.Logger

	connected bool
}

// NewLocalRepository creates a file-backed repository at dir/table.json.
func NewLocalRepository(dir, table string) *LocalRepository {
	return &LocalRepository{
		path: filepath.Join(dir, table+".json"),
		log:  logger.Get(),
	}
}

// Connect creates the file when missing.
func (r *LocalRepository) Connect(_ context.Context) error {
	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", r.path, err)
	}
	file.Close()
	r.connected = true
	r.log.Info().Str("path", r.path).Msg("local: file ready")
	return nil
}

// Disconnect is a no-op; each put opens and closes the file.
func (r *LocalRepository) Disconnect(_ context.Context) error {
	r.connected = false
	return nil
}

// PutOne splices one compacted document before the closing bracket so the
// file is a valid JSON array both before and after every append.
func (r *LocalRepository) PutOne(_ context.Context, doc Doc) (Result, error) {
	if !r.connected {
		return Result{}, ErrNotConnected
	}

	compacted := Compact(doc)
	if len(compacted) == 0 {
		r.log.Warn().Msg("local: document was empty, skipping append")
		return Result{Outcome: OutcomeEmpty, Detail: "skipped empty document", Skipped: 1}, nil
	}

	data, err := json.Marshal(compacted)
	if err != nil {
		return Result{}, fmt.Errorf("marshal document: %w", err)
	}

	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", r.path, err)
	}

	// an empty (or degenerate "[]") file starts a fresh array; otherwise
	// overwrite the trailing bracket with ",doc]"
	if info.Size() <= 2 {
		if err := file.Truncate(0); err != nil {
			return Result{}, fmt.Errorf("truncate %s: %w", r.path, err)
		}
		if _, err := file.WriteAt(append(append([]byte{'['}, data...), ']'), 0); err != nil {
			return Result{}, fmt.Errorf("write %s: %w", r.path, err)
		}
	} else {
		splice := append(append([]byte{','}, data...), ']')
		if _, err := file.WriteAt(splice, info.Size()-1); err != nil {
			return Result{}, fmt.Errorf("append %s: %w", r.path, err)
		}
	}

	return Result{Outcome: OutcomeInserted, Detail: "appended to " + r.path, Inserted: 1}, nil
}

// PutMany rewrites the whole file with the compacted non-empty batch.
func (r *LocalRepository) PutMany(_ context.Context, docs []Doc) (Result, error) {
	if !r.connected {
		return Result{}, ErrNotConnected
	}

	kept, skipped := compactBatch(docs)
	if skipped > 0 {
		r.log.Warn().Int("count", skipped).Msg("local: skipping empty documents")
	}
	if len(kept) == 0 {
		r.log.Error().Msg("local: refusing to write an all-empty batch")
		return Result{Outcome: OutcomeEmpty, Detail: "failed to insert any document", Skipped: skipped}, nil
	}

	data, err := json.Marshal(kept)
	if err != nil {
		return Result{}, fmt.Errorf("marshal batch: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", r.path, err)
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

// GetAll reads the whole array back.
func (r *LocalRepository) GetAll(_ context.Context) ([]Doc, error) {
	if !r.connected {
		return nil, ErrNotConnected
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var docs []Doc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return docs, nil
}
