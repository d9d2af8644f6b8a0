package hostsim

import (
	"fmt"
	"slices"
	"sync"

	"github.com/vk/pdp2c/internal/compiler"
	"github.com/vk/pdp2c/internal/vertex"
)

// Memory is a vertex.ConfigEmitter that keeps every region in memory.
type Memory struct {
	mu      sync.Mutex
	regions map[string]map[vertex.Region][]byte
}

// NewMemory creates an empty region store.
func NewMemory() *Memory {
	return &Memory{regions: make(map[string]map[vertex.Region][]byte)}
}

var _ vertex.ConfigEmitter = (*Memory)(nil)

// EmitRegion stores a copy of data. Writing the system region, or the same
// region of a core twice, is an error.
func (m *Memory) EmitRegion(v vertex.Vertex, region vertex.Region, data []byte) error {
	if region == vertex.System {
		return fmt.Errorf("hostsim: %s: the system region belongs to the host", v.Label())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byRegion, ok := m.regions[v.Label()]
	if !ok {
		byRegion = make(map[vertex.Region][]byte)
		m.regions[v.Label()] = byRegion
	}
	if _, dup := byRegion[region]; dup {
		return fmt.Errorf("hostsim: %s: %s region written twice", v.Label(), region)
	}
	// Empty regions are stored as empty, non-nil slices.
	byRegion[region] = append([]byte{}, data...)
	return nil
}

// Region returns the bytes written for one region of a core.
func (m *Memory) Region(label string, region vertex.Region) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.regions[label][region]
	return data, ok
}

// Regions lists the regions written for a core, in ascending id order.
func (m *Memory) Regions(label string) []vertex.Region {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]vertex.Region, 0, len(m.regions[label]))
	for r := range m.regions[label] {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Replay emits the stored regions of every core of g to emit, in vertex
// order and in the order each core declares its regions.
func (m *Memory) Replay(g *compiler.Graph, emit vertex.ConfigEmitter) error {
	for _, v := range g.Vertices {
		for _, info := range v.Regions() {
			data, ok := m.Region(v.Label(), info.Region)
			if !ok {
				return fmt.Errorf("hostsim: %s: %s region missing", v.Label(), info.Region)
			}
			if err := emit.EmitRegion(v, info.Region, data); err != nil {
				return fmt.Errorf("%s: emitting %s region: %w", v.Label(), info.Region, err)
			}
		}
	}
	return nil
}

// Verify checks that every core of g wrote exactly the regions it declares,
// each with its declared size.
func (m *Memory) Verify(g *compiler.Graph) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range g.Vertices {
		written := m.regions[v.Label()]
		declared := v.Regions()
		if len(written) != len(declared) {
			return fmt.Errorf("hostsim: %s: wrote %d regions, declares %d", v.Label(), len(written), len(declared))
		}
		for _, info := range declared {
			data, ok := written[info.Region]
			if !ok {
				return fmt.Errorf("hostsim: %s: %s region missing", v.Label(), info.Region)
			}
			if len(data) != info.Size {
				return fmt.Errorf("hostsim: %s: %s region is %d bytes, declared %d", v.Label(), info.Region, len(data), info.Size)
			}
		}
	}
	return nil
}
