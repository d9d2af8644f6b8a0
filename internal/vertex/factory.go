package vertex

import (
	"context"
	"errors"

	"github.com/vk/pdp2c/internal/ctxlog"
	"github.com/vk/pdp2c/internal/network"
)

// Set holds every core generated for one group. Weights covers every source
// group of the network (including the group itself), ordered by source
// group, then row block, then column block.
type Set struct {
	Group     *network.Group
	Weights   []*Weight
	Sum       *Sum
	Input     *Input
	Threshold *Threshold
}

// Vertices returns the set's cores in emission order.
func (s *Set) Vertices() []Vertex {
	out := make([]Vertex, 0, len(s.Weights)+3)
	for _, w := range s.Weights {
		out = append(out, w)
	}
	return append(out, s.Sum, s.Input, s.Threshold)
}

// WeightsFrom returns the set's weight cores whose source is from.
func (s *Set) WeightsFrom(from *network.Group) []*Weight {
	var out []*Weight
	for _, w := range s.Weights {
		if w.from == from {
			out = append(out, w)
		}
	}
	return out
}

// Build generates the cores of every group, in group creation order. The
// network must be sealed.
func Build(ctx context.Context, net *network.Network) ([]*Set, error) {
	if !net.Sealed() {
		return nil, errors.New("vertex: network must be sealed before generating cores")
	}
	logger := ctxlog.FromContext(ctx)

	groups := net.Groups()
	sets := make([]*Set, 0, len(groups))
	for _, g := range groups {
		set := &Set{Group: g}
		for _, from := range groups {
			for r := 0; r < from.Partitions(); r++ {
				for c := 0; c < g.Partitions(); c++ {
					set.Weights = append(set.Weights, newWeight(ctx, net, g, from, r, c))
				}
			}
		}
		set.Sum = newSum(net, g)
		set.Input = newInput(ctx, net, g)
		set.Threshold = newThreshold(ctx, net, g)

		logger.Debug("Cores generated for group.", "group", g.Label(), "id", g.ID(), "weight_cores", len(set.Weights))
		sets = append(sets, set)
	}
	return sets, nil
}
