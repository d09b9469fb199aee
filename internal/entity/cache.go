package entity

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/channelscan/channelscan/internal/logger"
)

// Resolution errors the provider must classify its RPC failures into.
var (
	// ErrPeerNotFound means the provider reports the peer as nonexistent.
	ErrPeerNotFound = errors.New("peer not found")
	// ErrPeerPrivate means the peer exists but detail access is denied.
	ErrPeerPrivate = errors.New("peer is private")
)

// Provider is the network side of peer resolution.
// CachedEntity is the cheap path covering already-known dialogs; the rest
// issue full-info RPCs.
type Provider interface {
	CachedEntity(ctx context.Context, ref PeerRef) (Descriptor, error)
	FullInfo(ctx context.Context, ref PeerRef) (Descriptor, error)
	ResolveName(ctx context.Context, name string) (Descriptor, error)
	CustomEmojiAlt(ctx context.Context, documentID int64) (string, error)
}

// Cache memoizes peer resolution so that each distinct peer, name and custom
// emoji costs at most one network round-trip per process lifetime. Negative
// results are cached too. All maps are unbounded: distinct-peer cardinality
// per run is small (bounded by forward-source diversity, not message volume).
type Cache struct {
	provider Provider
	log      *logger.Logger

	mu    sync.RWMutex
	peers map[int64]Descriptor // nil value = known-missing
	names map[string]Descriptor
	emoji map[int64]string
}

// NewCache creates a resolution cache over the given provider.
func NewCache(provider Provider) *Cache {
	return &Cache{
		provider: provider,
		log:      logger.Get(),
		peers:    make(map[int64]Descriptor),
		names:    make(map[string]Descriptor),
		emoji:    make(map[int64]string),
	}
}

// ResolveByID resolves a peer reference to a descriptor.
// Returns nil for nonexistent peers and the PRIVATE placeholder for peers
// that exist but deny access. Transient provider errors are logged, reported
// as a miss and left uncached so a later call may retry.
func (c *Cache) ResolveByID(ctx context.Context, ref PeerRef) Descriptor {
	c.mu.RLock()
	d, ok := c.peers[ref.ID]
	c.mu.RUnlock()
	if ok {
		return d
	}

	d, err := c.provider.CachedEntity(ctx, ref)
	if err != nil {
		// not in the lightweight cache, issue the full-info request
		d, err = c.provider.FullInfo(ctx, ref)
	}
	d, cacheable := c.classify(err, ref.ID, d)
	if cacheable {
		c.mu.Lock()
		c.peers[ref.ID] = d
		c.mu.Unlock()
	}
	return d
}

// ResolveByName resolves a public handle to a descriptor, memoized by name.
func (c *Cache) ResolveByName(ctx context.Context, name string) Descriptor {
	c.mu.RLock()
	d, ok := c.names[name]
	c.mu.RUnlock()
	if ok {
		return d
	}

	d, err := c.provider.ResolveName(ctx, name)
	var id int64
	if d != nil {
		id = d.EntityID()
	}
	d, cacheable := c.classify(err, id, d)
	if cacheable {
		c.mu.Lock()
		c.names[name] = d
		if d != nil {
			// a name resolution also warms the id cache
			c.peers[d.EntityID()] = d
		}
		c.mu.Unlock()
	}
	return d
}

// ResolveCustomEmoji resolves a custom-emoji document to its closest textual
// label, memoized by document id. The mapping is approximate: on failure the
// decimal document id is returned (and not cached) so the reaction count is
// never lost.
func (c *Cache) ResolveCustomEmoji(ctx context.Context, documentID int64) string {
	c.mu.RLock()
	alt, ok := c.emoji[documentID]
	c.mu.RUnlock()
	if ok {
		return alt
	}

	alt, err := c.provider.CustomEmojiAlt(ctx, documentID)
	if err != nil || alt == "" {
		c.log.Warn().Err(err).Int64("document_id", documentID).
			Msg("entity: custom emoji resolution failed")
		return strconv.FormatInt(documentID, 10)
	}

	c.mu.Lock()
	c.emoji[documentID] = alt
	c.mu.Unlock()
	return alt
}

// classify maps a resolution error to the cached outcome.
// The second return reports whether the outcome may be cached.
func (c *Cache) classify(err error, id int64, d Descriptor) (Descriptor, bool) {
	switch {
	case err == nil:
		return d, d != nil
	case errors.Is(err, ErrPeerNotFound):
		c.log.Debug().Int64("peer_id", id).Msg("entity: peer not found")
		return nil, true
	case errors.Is(err, ErrPeerPrivate):
		c.log.Debug().Int64("peer_id", id).Msg("entity: peer is private")
		return Private(id), true
	default:
		c.log.Warn().Err(err).Int64("peer_id", id).Msg("entity: resolution failed")
		return nil, false
	}
}
