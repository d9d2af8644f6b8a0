package vertex

import (
	"context"

	"github.com/vk/pdp2c/internal/network"
	"github.com/vk/pdp2c/internal/structpack"
	"github.com/vk/pdp2c/internal/vertexid"
)

// SumBinary is the executable loaded onto sum cores.
const SumBinary = "sum.aplx"

// SumConfigSize is the length of a sum core's configuration record.
const SumConfigSize = 24

// Sum accumulates the partial products of every weight core feeding a group.
type Sum struct {
	base
	fwdExpect  int
	bkpExpect  int
	ldsaExpect int
	ldstExpect int
	firstGroup bool
}

var _ Vertex = (*Sum)(nil)

func newSum(net *network.Network, g *network.Group) *Sum {
	groups := net.Groups()
	s := &Sum{
		base: newBase(vertexid.GroupID(vertexid.Sum, g.ID()), SumBinary, net, g,
			vertexid.Forward, vertexid.Backprop, vertexid.DeltaSum),
		// Scoreboards count per unit: each unit hears from one row block of
		// every source group.
		fwdExpect:  net.Partitions(),
		bkpExpect:  net.Partitions(),
		ldsaExpect: net.Partitions() * g.Units(),
		ldstExpect: len(groups) - 1,
		firstGroup: g.ID() == groups[0].ID(),
	}

	s.config = structpack.New().
		U32(uint32(g.Units())).
		U32(uint32(s.fwdExpect)).
		U32(uint32(s.bkpExpect)).
		U32(uint32(s.ldsaExpect)).
		U32(uint32(s.ldstExpect)).
		U8(uint8(net.UpdateFunc())).
		Bool(s.firstGroup).
		Pad(2).
		Expect(SumConfigSize).
		MustFinish()
	return s
}

// Expects returns the forward, backprop, delta-sum address and delta-sum
// target expect counts.
func (s *Sum) Expects() (fwd, bkp, ldsa, ldst int) {
	return s.fwdExpect, s.bkpExpect, s.ldsaExpect, s.ldstExpect
}

// IsFirstGroup reports whether this sum core collects the network-wide
// delta sums.
func (s *Sum) IsFirstGroup() bool { return s.firstGroup }

func (s *Sum) regions() []region {
	return append(s.commonRegions(), fixed(ExamplesRegion, s.net.ExampleSet().Examples))
}

// Regions lists the sum core's regions.
func (s *Sum) Regions() []RegionInfo { return regionInfos(s.regions()) }

// Footprint is the total size of the regions.
func (s *Sum) Footprint() int { return footprint(s.regions()) }

// Generate emits every region.
func (s *Sum) Generate(ctx context.Context, keys KeyResolver, emit ConfigEmitter) error {
	return generate(ctx, s, &s.base, s.regions(), keys, emit)
}
