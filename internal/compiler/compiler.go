// Package compiler turns a network into its complete core graph: the
// vertices of every group and the edges between them.
//
// Compile seals the network, so the graph it returns stays consistent with
// the topology it was built from. The graph is a value handed to the host
// boundary: it is never mutated after Compile returns, and compiling again
// builds a fresh one.
package compiler

import (
	"context"
	"fmt"

	"github.com/vk/pdp2c/internal/ctxlog"
	"github.com/vk/pdp2c/internal/edge"
	"github.com/vk/pdp2c/internal/network"
	"github.com/vk/pdp2c/internal/vertex"
)

// Graph is a compiled network.
type Graph struct {
	Network  *network.Network
	Sets     []*vertex.Set
	Vertices []vertex.Vertex
	Edges    []edge.Edge

	byLabel map[string]vertex.Vertex
}

// Compile builds the graph of net. On error no graph is returned.
func Compile(ctx context.Context, net *network.Network) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Compiling network.", "network", net.Name(), "groups", len(net.Groups()), "links", len(net.Links()))

	net.Seal()

	sets, err := vertex.Build(ctx, net)
	if err != nil {
		return nil, fmt.Errorf("generating cores: %w", err)
	}

	edges, err := edge.Build(ctx, net, sets)
	if err != nil {
		return nil, fmt.Errorf("generating edges: %w", err)
	}

	g := &Graph{
		Network: net,
		Sets:    sets,
		Edges:   edges,
		byLabel: make(map[string]vertex.Vertex),
	}
	for _, s := range sets {
		for _, v := range s.Vertices() {
			g.Vertices = append(g.Vertices, v)
			g.byLabel[v.Label()] = v
		}
	}

	logger.Info("Network compiled.",
		"network", net.Name(),
		"vertices", len(g.Vertices),
		"edges", len(g.Edges),
		"footprint_bytes", g.TotalFootprint(),
	)
	return g, nil
}

// Vertex looks a vertex up by label.
func (g *Graph) Vertex(label string) (vertex.Vertex, bool) {
	v, ok := g.byLabel[label]
	return v, ok
}

// EdgesFrom returns the edges leaving v, in graph order.
func (g *Graph) EdgesFrom(v vertex.Vertex) []edge.Edge {
	var out []edge.Edge
	for _, e := range g.Edges {
		if e.From == v {
			out = append(out, e)
		}
	}
	return out
}

// TotalFootprint sums the footprint of every vertex.
func (g *Graph) TotalFootprint() int {
	total := 0
	for _, v := range g.Vertices {
		total += v.Footprint()
	}
	return total
}

// Generate writes every vertex's regions, in vertex order.
func (g *Graph) Generate(ctx context.Context, keys vertex.KeyResolver, emit vertex.ConfigEmitter) error {
	logger := ctxlog.FromContext(ctx)
	for _, v := range g.Vertices {
		if err := v.Generate(ctx, keys, emit); err != nil {
			return err
		}
	}
	logger.Info("Core regions generated.", "vertices", len(g.Vertices))
	return nil
}
