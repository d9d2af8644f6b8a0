package emit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vk/pdp2c/internal/compiler"
	"github.com/vk/pdp2c/internal/vertex"
	"github.com/vk/pdp2c/internal/vertexid"
)

// ManifestFile is the name of the manifest inside the output directory.
const ManifestFile = "manifest.json"

// Manifest is the JSON document written next to the region files.
type Manifest struct {
	compiler.Descriptor
	// Keys maps a core label to the base key of each partition that has one.
	Keys           map[string]map[string]uint32 `json:"keys"`
	FootprintBytes int                          `json:"footprint_bytes"`
}

// NewManifest describes g with the keys keys resolves.
func NewManifest(g *compiler.Graph, keys vertex.KeyResolver) Manifest {
	m := Manifest{
		Descriptor:     g.Describe(),
		Keys:           make(map[string]map[string]uint32),
		FootprintBytes: g.TotalFootprint(),
	}
	for _, v := range g.Vertices {
		for _, part := range v.Partitions() {
			key, ok := keys.KeyFor(v, part)
			if !ok {
				continue
			}
			if m.Keys[v.Label()] == nil {
				m.Keys[v.Label()] = make(map[string]uint32)
			}
			m.Keys[v.Label()][part] = key
		}
	}
	return m
}

// WriteManifest writes the manifest of g to <dir>/manifest.json.
func WriteManifest(dir string, g *compiler.Graph, keys vertex.KeyResolver) error {
	data, err := json.MarshalIndent(NewManifest(g, keys), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}

// RemoveStale deletes the core directories that the manifest already in dir
// lists but g no longer has, and returns their labels. A directory without a
// manifest is left alone.
func RemoveStale(dir string, g *compiler.Graph) ([]string, error) {
	old, err := ReadManifest(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading previous manifest: %w", err)
	}

	var removed []string
	for _, v := range old.Vertices {
		if _, ok := g.Vertex(v.Label); ok {
			continue
		}
		// Only ever remove directories named like a core.
		if _, err := vertexid.Parse(v.Label); err != nil {
			return removed, fmt.Errorf("previous manifest: %w", err)
		}
		if err := os.RemoveAll(filepath.Join(dir, v.Label)); err != nil {
			return removed, fmt.Errorf("removing stale core directory: %w", err)
		}
		removed = append(removed, v.Label)
	}
	return removed, nil
}
