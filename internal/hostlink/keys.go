package hostlink

import (
	"encoding/json"
	"fmt"

	"github.com/vk/pdp2c/internal/compiler"
	"github.com/vk/pdp2c/internal/vertex"
	"github.com/vk/pdp2c/internal/vertexid"
)

// KeyTable holds the keys a host assigned, by core label then partition.
// It implements vertex.KeyResolver.
type KeyTable map[string]map[string]uint32

var _ vertex.KeyResolver = KeyTable(nil)

// KeyFor returns the key the host assigned to v's partition.
func (t KeyTable) KeyFor(v vertex.Vertex, partition string) (uint32, bool) {
	key, ok := t[v.Label()][partition]
	return key, ok
}

// ParseKeys decodes the payload of a `keys` event. The payload arrives
// either as decoded JSON (maps with float64 numbers) or as raw JSON text.
func ParseKeys(payload any) (KeyTable, error) {
	var raw []byte
	switch p := payload.(type) {
	case nil:
		return nil, fmt.Errorf("hostlink: empty keys payload")
	case []byte:
		raw = p
	case string:
		raw = []byte(p)
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("hostlink: re-encoding keys payload: %w", err)
		}
		raw = b
	}

	var table KeyTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("hostlink: invalid keys payload: %w", err)
	}
	if table == nil {
		return nil, fmt.Errorf("hostlink: empty keys payload")
	}
	for label, byPart := range table {
		id, err := vertexid.Parse(label)
		if err != nil {
			return nil, fmt.Errorf("hostlink: keys payload: %w", err)
		}
		for name := range byPart {
			owner, _, err := vertexid.ParsePartition(name)
			if err != nil {
				return nil, fmt.Errorf("hostlink: keys payload: %w", err)
			}
			if owner != id {
				return nil, fmt.Errorf("hostlink: keys payload: partition %q does not originate at %q", name, label)
			}
		}
	}
	return table, nil
}

// Missing lists the partitions of g that carry at least one edge but have no
// key in the table, as "label/partition".
func (t KeyTable) Missing(g *compiler.Graph) []string {
	var missing []string
	for _, v := range g.Vertices {
		seen := make(map[string]bool)
		for _, e := range g.EdgesFrom(v) {
			if seen[e.Partition] {
				continue
			}
			seen[e.Partition] = true
			if _, ok := t.KeyFor(v, e.Partition); !ok {
				missing = append(missing, v.Label()+"/"+e.Partition)
			}
		}
	}
	return missing
}
