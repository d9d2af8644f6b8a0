package hostsim

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vk/pdp2c/internal/compiler"
	"github.com/vk/pdp2c/internal/edge"
	"github.com/vk/pdp2c/internal/vertex"
)

// Store holds the cores and edges of a placed graph. It is safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	vertices map[string]vertex.Vertex
	order    []string
	edges    []edge.Edge
	out      map[string][]int // label -> indices into edges
	in       map[string][]int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		vertices: make(map[string]vertex.Vertex),
		out:      make(map[string][]int),
		in:       make(map[string][]int),
	}
}

// Load creates a store holding every vertex and edge of g.
func Load(ctx context.Context, g *compiler.Graph) (*Store, error) {
	s := NewStore()
	for _, v := range g.Vertices {
		if err := s.AddVertex(ctx, v); err != nil {
			return nil, err
		}
	}
	for _, e := range g.Edges {
		if err := s.AddEdge(ctx, e); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddVertex registers a core. Adding the same core twice is a no-op; a
// different core with a label already in use is an error.
func (s *Store) AddVertex(ctx context.Context, v vertex.Vertex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	label := v.Label()
	if existing, ok := s.vertices[label]; ok {
		if existing == v {
			return nil
		}
		return fmt.Errorf("hostsim: label %q already used by another core", label)
	}
	s.vertices[label] = v
	s.order = append(s.order, label)
	return nil
}

// AddEdge records an edge between two registered cores.
func (s *Store) AddEdge(ctx context.Context, e edge.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, to := e.From.Label(), e.To.Label()
	if _, ok := s.vertices[from]; !ok {
		return fmt.Errorf("hostsim: edge source %q not found", from)
	}
	if _, ok := s.vertices[to]; !ok {
		return fmt.Errorf("hostsim: edge target %q not found", to)
	}

	idx := len(s.edges)
	s.edges = append(s.edges, e)
	s.out[from] = append(s.out[from], idx)
	s.in[to] = append(s.in[to], idx)
	return nil
}

// Vertex looks a core up by label.
func (s *Store) Vertex(label string) (vertex.Vertex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vertices[label]
	return v, ok
}

// Vertices returns every core in registration order.
func (s *Store) Vertices() []vertex.Vertex {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]vertex.Vertex, 0, len(s.order))
	for _, label := range s.order {
		out = append(out, s.vertices[label])
	}
	return out
}

// Edges returns every edge in insertion order.
func (s *Store) Edges() []edge.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.edges)
}

// EdgesFrom returns the edges leaving the core with the given label.
func (s *Store) EdgesFrom(label string) ([]edge.Edge, error) {
	return s.collect(label, s.out)
}

// EdgesTo returns the edges arriving at the core with the given label.
func (s *Store) EdgesTo(label string) ([]edge.Edge, error) {
	return s.collect(label, s.in)
}

func (s *Store) collect(label string, index map[string][]int) ([]edge.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.vertices[label]; !ok {
		return nil, fmt.Errorf("hostsim: core %q not found", label)
	}
	out := make([]edge.Edge, 0, len(index[label]))
	for _, i := range index[label] {
		out = append(out, s.edges[i])
	}
	return out, nil
}
