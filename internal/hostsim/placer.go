package hostsim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/vk/pdp2c/internal/compiler"
	"github.com/vk/pdp2c/internal/ctxlog"
	"github.com/vk/pdp2c/internal/vertex"
)

// KeysPerPartition is the size of the key block reserved for one link
// partition.
const KeysPerPartition = 1 << 16

// maxBlocks is the number of blocks in the 32-bit key space. Block 0 is
// never allocated, so a zero routing slot always means "no key".
const maxBlocks = 1<<32/KeysPerPartition - 1

// ErrKeySpaceExhausted is returned when a graph needs more key blocks than
// the key space holds.
var ErrKeySpaceExhausted = errors.New("hostsim: routing key space exhausted")

// Placer assigns routing keys. It implements vertex.KeyResolver.
type Placer struct {
	mu    sync.RWMutex
	store *Store
	keys  map[string]map[string]uint32 // label -> partition -> base key
}

// NewPlacer creates a placer with no assignments.
func NewPlacer() *Placer {
	return &Placer{keys: make(map[string]map[string]uint32)}
}

var _ vertex.KeyResolver = (*Placer)(nil)

// Place loads g and assigns a key block to every (core, partition) pair
// that originates at least one edge. Previous assignments are discarded.
func (p *Placer) Place(ctx context.Context, g *compiler.Graph) error {
	logger := ctxlog.FromContext(ctx)

	store, err := Load(ctx, g)
	if err != nil {
		return err
	}

	keys := make(map[string]map[string]uint32)
	blocks := 0
	for _, e := range store.Edges() {
		label := e.From.Label()
		byPart, ok := keys[label]
		if !ok {
			byPart = make(map[string]uint32)
			keys[label] = byPart
		}
		if _, done := byPart[e.Partition]; done {
			continue
		}
		if blocks == maxBlocks {
			return fmt.Errorf("%w: %d partitions", ErrKeySpaceExhausted, blocks+1)
		}
		blocks++
		byPart[e.Partition] = uint32(blocks) * KeysPerPartition
	}

	p.mu.Lock()
	p.store = store
	p.keys = keys
	p.mu.Unlock()

	logger.Info("Routing keys assigned.", "cores", len(store.Vertices()), "partitions", blocks)
	return nil
}

// KeyFor returns the base key of v's partition, if one was assigned.
func (p *Placer) KeyFor(v vertex.Vertex, partition string) (uint32, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	key, ok := p.keys[v.Label()][partition]
	return key, ok
}

// Keys returns a copy of every assignment, by core label then partition.
func (p *Placer) Keys() map[string]map[string]uint32 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]map[string]uint32, len(p.keys))
	for label, byPart := range p.keys {
		out[label] = maps.Clone(byPart)
	}
	return out
}

// Store returns the store of the last placed graph, or nil.
func (p *Placer) Store() *Store {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.store
}
