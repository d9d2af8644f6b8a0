// Package edge derives every inter-core communication edge of a compiled
// network from its groups, their cores and the output chain.
//
// Edges are emitted in a fixed order, group by group, so that recompiling an
// unchanged network produces an identical sequence.
package edge

import (
	"context"
	"fmt"

	"github.com/vk/pdp2c/internal/ctxlog"
	"github.com/vk/pdp2c/internal/network"
	"github.com/vk/pdp2c/internal/vertex"
	"github.com/vk/pdp2c/internal/vertexid"
)

// Edge is a directed link between two cores, carried on one of the source
// core's link partitions.
type Edge struct {
	From      vertex.Vertex
	To        vertex.Vertex
	Partition string
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s [%s]", e.From.Label(), e.To.Label(), e.Partition)
}

type builder struct {
	edges []Edge
	err   error
}

func (b *builder) add(from, to vertex.Vertex, kind vertexid.Kind) {
	if b.err != nil {
		return
	}
	if from == to {
		return
	}
	name, ok := from.Partition(kind)
	if !ok {
		b.err = fmt.Errorf("edge: %s has no %s partition", from.Label(), kind)
		return
	}
	b.edges = append(b.edges, Edge{From: from, To: to, Partition: name})
}

// Build returns the edges of the network whose cores are sets, one set per
// group in creation order.
func Build(ctx context.Context, net *network.Network, sets []*vertex.Set) ([]Edge, error) {
	logger := ctxlog.FromContext(ctx)

	groups := net.Groups()
	if len(sets) != len(groups) {
		return nil, fmt.Errorf("edge: %d core sets for %d groups", len(sets), len(groups))
	}
	byGroup := make(map[*network.Group]*vertex.Set, len(sets))
	for i, s := range sets {
		if s.Group != groups[i] {
			return nil, fmt.Errorf("edge: core set %d belongs to %s, want %s", i, s.Group.Label(), groups[i].Label())
		}
		byGroup[s.Group] = s
	}

	b := &builder{}
	first := sets[0]
	for _, s := range sets {
		g := s.Group

		for _, w := range s.Weights {
			src := byGroup[w.From()]
			b.add(w, s.Sum, vertexid.Forward)
			b.add(w, src.Sum, vertexid.Backprop)
			b.add(w, src.Threshold, vertexid.ForwardSync)
		}

		b.add(s.Sum, s.Input, vertexid.Forward)
		b.add(s.Sum, s.Threshold, vertexid.Backprop)

		b.add(s.Input, s.Threshold, vertexid.Forward)
		for _, w := range s.Weights {
			b.add(s.Input, w, vertexid.Backprop)
		}

		for _, dst := range sets {
			for _, w := range dst.WeightsFrom(g) {
				b.add(s.Threshold, w, vertexid.Forward)
			}
		}
		b.add(s.Threshold, s.Input, vertexid.Backprop)

		if g.IsOutput() {
			if net.IsLastOutput(g) {
				for _, stp := range sets {
					for _, w := range stp.Weights {
						b.add(s.Threshold, w, vertexid.Stop)
					}
					b.add(s.Threshold, stp.Sum, vertexid.Stop)
					b.add(s.Threshold, stp.Input, vertexid.Stop)
					// add drops the self-loop to this threshold.
					b.add(s.Threshold, stp.Threshold, vertexid.Stop)
				}
			} else {
				next, _ := net.NextOutput(g)
				b.add(s.Threshold, byGroup[next].Threshold, vertexid.Stop)
			}
		}

		for _, w := range s.Weights {
			b.add(w, s.Sum, vertexid.DeltaSum)
		}
		b.add(s.Sum, first.Sum, vertexid.DeltaSum)

		if b.err != nil {
			return nil, b.err
		}
		logger.Debug("Edges generated for group.", "group", g.Label(), "total", len(b.edges))
	}
	return b.edges, nil
}
