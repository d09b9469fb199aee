// Package directory holds the preloaded snapshot of known chats, used for
// name lookups during ingestion.
package directory

import (
	"context"
	"fmt"

	"github.com/channelscan/channelscan/internal/entity"
	"github.com/channelscan/channelscan/internal/repo"
)

// Directory maps an unmarked chat id to its descriptor. It is loaded
// wholesale before an ingestion run and never mutated afterwards.
type Directory map[int64]entity.Descriptor

// Load reads every descriptor from the channel repository.
// Undecodable documents are skipped, not fatal.
func Load(ctx context.Context, r repo.Repository) (Directory, error) {
	docs, err := r.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load channel directory: %w", err)
	}

	dir := make(Directory, len(docs))
	for _, doc := range docs {
		if d := entity.FromDocument(doc); d != nil {
			dir[d.EntityID()] = d
		}
	}
	return dir, nil
}

// FromDescriptors builds a directory from already-resolved descriptors.
func FromDescriptors(descriptors []entity.Descriptor) Directory {
	dir := make(Directory, len(descriptors))
	for _, d := range descriptors {
		if d != nil {
			dir[d.EntityID()] = d
		}
	}
	return dir
}

// Get returns the descriptor for a chat id, or nil when the directory has a
// gap. A gap degrades name lookups; it never fails a message.
func (d Directory) Get(id int64) entity.Descriptor {
	return d[id]
}
