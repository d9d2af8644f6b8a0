package vertex

import (
	"context"
	"fmt"

	"github.com/vk/pdp2c/internal/network"
	"github.com/vk/pdp2c/internal/structpack"
	"github.com/vk/pdp2c/internal/vertexid"
)

// Region identifies a memory region of a core. Region 0 belongs to the host
// runtime and is never written by the compiler.
type Region uint8

const (
	System Region = iota
	NetworkRegion
	CoreRegion
	InputsRegion
	TargetsRegion
	ExampleSetRegion
	ExamplesRegion
	EventsRegion
	WeightsRegion
	RoutingRegion
)

var regionNames = []string{"system", "network", "core", "inputs", "targets", "example_set", "examples", "events", "weights", "routing"}

func (r Region) String() string {
	if int(r) < len(regionNames) {
		return regionNames[r]
	}
	return fmt.Sprintf("region%d", uint8(r))
}

// KeyRegionSize is the size of every core's routing region: one 32-bit key
// slot per link kind, unused slots written as zero.
const KeyRegionSize = vertexid.NumKinds * 4

// KeyResolver maps a vertex and one of its link partitions to the routing
// key the host assigned. A partition with no outgoing edge may have no key.
type KeyResolver interface {
	KeyFor(v Vertex, partition string) (uint32, bool)
}

// ConfigEmitter accepts the bytes of one region of one vertex.
type ConfigEmitter interface {
	EmitRegion(v Vertex, region Region, data []byte) error
}

// RegionInfo describes a region's identity and size.
type RegionInfo struct {
	Region Region
	Size   int
}

// Vertex is the capability set shared by all four core roles.
type Vertex interface {
	ID() vertexid.ID
	Label() string
	Role() vertexid.Role
	Binary() string
	Group() *network.Group
	// Partitions lists the link partitions the vertex can originate, in
	// key-slot order.
	Partitions() []string
	// Partition returns the partition name for a link kind, if the vertex
	// originates one.
	Partition(k vertexid.Kind) (string, bool)
	// Config is the role-specific configuration record.
	Config() []byte
	// Regions lists every region the vertex writes, in emission order.
	Regions() []RegionInfo
	// Footprint is the sum of all region sizes.
	Footprint() int
	// Generate writes every region through emit, resolving routing keys
	// through keys.
	Generate(ctx context.Context, keys KeyResolver, emit ConfigEmitter) error
}

// region is one non-routing region: its size is known up front and its
// bytes are produced on demand.
type region struct {
	id   Region
	size int
	data func(ctx context.Context) ([]byte, error)
}

func fixed(id Region, b []byte) region {
	return region{id: id, size: len(b), data: func(context.Context) ([]byte, error) { return b, nil }}
}

// base carries what every role shares.
type base struct {
	id     vertexid.ID
	binary string
	net    *network.Network
	group  *network.Group
	kinds  [vertexid.NumKinds]bool
	config []byte
}

func newBase(id vertexid.ID, binary string, net *network.Network, g *network.Group, kinds ...vertexid.Kind) base {
	b := base{id: id, binary: binary, net: net, group: g}
	for _, k := range kinds {
		b.kinds[k] = true
	}
	return b
}

func (b *base) ID() vertexid.ID       { return b.id }
func (b *base) Label() string         { return b.id.String() }
func (b *base) Role() vertexid.Role   { return b.id.Role }
func (b *base) Binary() string        { return b.binary }
func (b *base) Group() *network.Group { return b.group }
func (b *base) Config() []byte        { return b.config }

func (b *base) Partition(k vertexid.Kind) (string, bool) {
	if int(k) >= len(b.kinds) || !b.kinds[k] {
		return "", false
	}
	return b.id.Partition(k), true
}

func (b *base) Partitions() []string {
	var out []string
	for _, k := range vertexid.Kinds() {
		if name, ok := b.Partition(k); ok {
			out = append(out, name)
		}
	}
	return out
}

// routing packs the key region: fwd, bkp, fds, stp, lds.
func (b *base) routing(self Vertex, keys KeyResolver) []byte {
	p := structpack.New()
	for _, k := range vertexid.Kinds() {
		var key uint32
		if name, ok := b.Partition(k); ok && keys != nil {
			key, _ = keys.KeyFor(self, name)
		}
		p.U32(key)
	}
	return p.Expect(KeyRegionSize).MustFinish()
}

// commonRegions are the regions every role starts with.
func (b *base) commonRegions() []region {
	return []region{
		fixed(NetworkRegion, b.net.ConfigBlob()),
		fixed(CoreRegion, b.config),
	}
}

func regionInfos(regions []region) []RegionInfo {
	out := make([]RegionInfo, 0, len(regions)+1)
	for _, r := range regions {
		out = append(out, RegionInfo{Region: r.id, Size: r.size})
	}
	return append(out, RegionInfo{Region: RoutingRegion, Size: KeyRegionSize})
}

func footprint(regions []region) int {
	total := KeyRegionSize
	for _, r := range regions {
		total += r.size
	}
	return total
}

func generate(ctx context.Context, v Vertex, b *base, regions []region, keys KeyResolver, emit ConfigEmitter) error {
	for _, r := range regions {
		data, err := r.data(ctx)
		if err != nil {
			return fmt.Errorf("%s: building %s region: %w", v.Label(), r.id, err)
		}
		if len(data) != r.size {
			return fmt.Errorf("%s: %s region is %d bytes, reserved %d", v.Label(), r.id, len(data), r.size)
		}
		if err := emit.EmitRegion(v, r.id, data); err != nil {
			return fmt.Errorf("%s: emitting %s region: %w", v.Label(), r.id, err)
		}
	}
	if err := emit.EmitRegion(v, RoutingRegion, b.routing(v, keys)); err != nil {
		return fmt.Errorf("%s: emitting %s region: %w", v.Label(), RoutingRegion, err)
	}
	return nil
}
