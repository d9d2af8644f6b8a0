package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vk/pdp2c/internal/vertex"
)

// FileEmitter is a vertex.ConfigEmitter that writes each region to
// <Dir>/<core label>/<NN>_<region>.bin, NN being the two-digit region id.
type FileEmitter struct {
	Dir string

	mu      sync.Mutex
	files   int
	written int64
}

var _ vertex.ConfigEmitter = (*FileEmitter)(nil)

// RegionPath returns the file a region of a core is written to.
func RegionPath(dir, label string, region vertex.Region) string {
	return filepath.Join(dir, label, fmt.Sprintf("%02d_%s.bin", uint8(region), region))
}

// EmitRegion writes data to the region's file, creating the core's
// directory if needed.
func (e *FileEmitter) EmitRegion(v vertex.Vertex, region vertex.Region, data []byte) error {
	path := RegionPath(e.Dir, v.Label(), region)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating core directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing region file: %w", err)
	}

	e.mu.Lock()
	e.files++
	e.written += int64(len(data))
	e.mu.Unlock()
	return nil
}

// Stats returns the number of region files and bytes written so far.
func (e *FileEmitter) Stats() (files int, bytes int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.files, e.written
}
