package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/channelscan/channelscan/internal/logger"
)

// CLIRepository writes compacted documents to standard output for quick
// inspection. Reading back is undefined for this backend.
type CLIRepository struct {
	out io.Writer
	log *logger.Logger
}

// NewCLIRepository creates a stdout-backed repository.
func NewCLIRepository() *CLIRepository {
	return &CLIRepository{
		out: os.Stdout,
		log: logger.Get(),
	}
}

// Connect is a no-op.
func (r *CLIRepository) Connect(_ context.Context) error { return nil }

// Disconnect is a no-op.
func (r *CLIRepository) Disconnect(_ context.Context) error { return nil }

// PutOne prints one compacted document.
func (r *CLIRepository) PutOne(_ context.Context, doc Doc) (Result, error) {
	compacted := Compact(doc)
	if len(compacted) == 0 {
		r.log.Warn().Msg("cli: document was empty, nothing to print")
		return Result{Outcome: OutcomeEmpty, Detail: "skipped empty document", Skipped: 1}, nil
	}

	data, err := json.Marshal(compacted)
	if err != nil {
		return Result{}, fmt.Errorf("marshal document: %w", err)
	}
	fmt.Fprintln(r.out, string(data))
	return Result{Outcome: OutcomeInserted, Detail: "printed to stdout", Inserted: 1}, nil
}

// PutMany prints the non-empty subset of a batch as one JSON array.
func (r *CLIRepository) PutMany(_ context.Context, docs []Doc) (Result, error) {
	kept, skipped := compactBatch(docs)
	if skipped > 0 {
		r.log.Warn().Int("count", skipped).Msg("cli: skipping empty documents")
	}
	if len(kept) == 0 {
		r.log.Error().Msg("cli: nothing to print in an all-empty batch")
		return Result{Outcome: OutcomeEmpty, Detail: "failed to insert any document", Skipped: skipped}, nil
	}

	data, err := json.Marshal(kept)
	if err != nil {
		return Result{}, fmt.Errorf("marshal batch: %w", err)
	}
	fmt.Fprintln(r.out, string(data))

	outcome := OutcomeInserted
	if skipped > 0 {
		outcome = OutcomePartial
	}
	return Result{
		Outcome:  outcome,
		Detail:   fmt.Sprintf("printed %d documents", len(kept)),
		Inserted: len(kept),
		Skipped:  skipped,
	}, nil
}

// GetAll fails loudly: stdout cannot be read back, and a misleading empty
// list would hide that.
func (r *CLIRepository) GetAll(_ context.Context) ([]Doc, error) {
	return nil, ErrGetAllUnsupported
}
