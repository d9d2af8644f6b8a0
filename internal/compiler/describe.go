package compiler

import (
	"github.com/vk/pdp2c/internal/vertex"
)

// RegionDescriptor is the serializable form of a vertex region.
type RegionDescriptor struct {
	ID   uint8  `json:"id"`
	Name string `json:"name"`
	Size int    `json:"size"`
}

// VertexDescriptor is the serializable form of a vertex.
type VertexDescriptor struct {
	Label      string             `json:"label"`
	Role       string             `json:"role"`
	Binary     string             `json:"binary"`
	Group      int                `json:"group"`
	Partitions []string           `json:"partitions"`
	Footprint  int                `json:"footprint"`
	Regions    []RegionDescriptor `json:"regions"`
}

// EdgeDescriptor is the serializable form of an edge.
type EdgeDescriptor struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Partition string `json:"partition"`
}

// Descriptor is the serializable form of a graph, as handed to a host placer.
type Descriptor struct {
	Network  string             `json:"network"`
	Vertices []VertexDescriptor `json:"vertices"`
	Edges    []EdgeDescriptor   `json:"edges"`
}

// DescribeVertex returns the descriptor of a single vertex.
func DescribeVertex(v vertex.Vertex) VertexDescriptor {
	d := VertexDescriptor{
		Label:      v.Label(),
		Role:       v.Role().String(),
		Binary:     v.Binary(),
		Group:      v.Group().ID(),
		Partitions: v.Partitions(),
		Footprint:  v.Footprint(),
	}
	for _, r := range v.Regions() {
		d.Regions = append(d.Regions, RegionDescriptor{ID: uint8(r.Region), Name: r.Region.String(), Size: r.Size})
	}
	return d
}

// Describe returns the descriptor of the whole graph.
func (g *Graph) Describe() Descriptor {
	d := Descriptor{
		Network:  g.Network.Name(),
		Vertices: make([]VertexDescriptor, 0, len(g.Vertices)),
		Edges:    make([]EdgeDescriptor, 0, len(g.Edges)),
	}
	for _, v := range g.Vertices {
		d.Vertices = append(d.Vertices, DescribeVertex(v))
	}
	for _, e := range g.Edges {
		d.Edges = append(d.Edges, EdgeDescriptor{From: e.From.Label(), To: e.To.Label(), Partition: e.Partition})
	}
	return d
}
