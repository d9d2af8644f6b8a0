package emit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pdp2c/internal/compiler"
	"github.com/vk/pdp2c/internal/hostsim"
	"github.com/vk/pdp2c/internal/network"
	"github.com/vk/pdp2c/internal/vertex"
)

func compileChain(t *testing.T) *compiler.Graph {
	t.Helper()
	ctx := context.Background()
	n, err := network.New(network.Config{Name: "chain", Intervals: 1, TicksPerInterval: 2})
	require.NoError(t, err)
	in, err := n.AddGroup(ctx, network.GroupConfig{Label: "in", Units: 3, Type: network.Input, Inputs: []byte{9, 9}})
	require.NoError(t, err)
	out, err := n.AddGroup(ctx, network.GroupConfig{Label: "out", Units: 2, Type: network.Output, Targets: []byte{7}})
	require.NoError(t, err)
	_, err = n.AddLink(ctx, in, out, "")
	require.NoError(t, err)
	require.NoError(t, n.SetWeights(out, in, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}))
	require.NoError(t, n.Train(1, 1))

	g, err := compiler.Compile(ctx, n)
	require.NoError(t, err)
	return g
}

func TestFileEmitter_MatchesMemory(t *testing.T) {
	ctx := context.Background()
	g := compileChain(t)
	placer := hostsim.NewPlacer()
	require.NoError(t, placer.Place(ctx, g))

	dir := t.TempDir()
	files := &FileEmitter{Dir: dir}
	mem := hostsim.NewMemory()
	require.NoError(t, g.Generate(ctx, placer, files))
	require.NoError(t, g.Generate(ctx, placer, mem))

	count, total := files.Stats()
	wantCount := 0
	for _, v := range g.Vertices {
		for _, info := range v.Regions() {
			wantCount++
			got, err := os.ReadFile(RegionPath(dir, v.Label(), info.Region))
			require.NoError(t, err)
			want, _ := mem.Region(v.Label(), info.Region)
			assert.Equal(t, want, got, "%s %s", v.Label(), info.Region)
		}
	}
	assert.Equal(t, wantCount, count)
	assert.Equal(t, int64(g.TotalFootprint()), total)
}

func TestRegionPath(t *testing.T) {
	assert.Equal(t, "/out/t_core2/09_routing.bin", RegionPath("/out", "t_core2", vertex.RoutingRegion))
	assert.Equal(t, "/out/w_core1_0_0_0/08_weights.bin", RegionPath("/out", "w_core1_0_0_0", vertex.WeightsRegion))
}

func TestManifest_RoundTrip(t *testing.T) {
	ctx := context.Background()
	g := compileChain(t)
	placer := hostsim.NewPlacer()
	require.NoError(t, placer.Place(ctx, g))
	dir := t.TempDir()

	require.NoError(t, WriteManifest(dir, g, placer))
	got, err := ReadManifest(dir)
	require.NoError(t, err)

	if diff := cmp.Diff(NewManifest(g, placer), *got); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "chain", got.Network)
	assert.Equal(t, placer.Keys(), got.Keys)
	assert.Equal(t, g.TotalFootprint(), got.FootprintBytes)
	assert.Len(t, got.Edges, len(g.Edges))
}

func TestReadManifest_Missing(t *testing.T) {
	_, err := ReadManifest(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRemoveStale(t *testing.T) {
	ctx := context.Background()
	g := compileChain(t)
	placer := hostsim.NewPlacer()
	require.NoError(t, placer.Place(ctx, g))
	dir := t.TempDir()

	// A previous run wrote one core that the new graph no longer has.
	stale := NewManifest(g, placer)
	stale.Vertices = append(stale.Vertices, compiler.VertexDescriptor{Label: "t_core7"})
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "t_core7"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "t_core2"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "notes"), 0o755))

	removed, err := RemoveStale(dir, g)
	require.NoError(t, err)
	assert.Equal(t, []string{"t_core7"}, removed)
	assert.NoDirExists(t, filepath.Join(dir, "t_core7"))
	assert.DirExists(t, filepath.Join(dir, "t_core2"))
	assert.DirExists(t, filepath.Join(dir, "notes"), "directories not listed in the manifest are kept")
}

func TestRemoveStale_NoManifest(t *testing.T) {
	removed, err := RemoveStale(t.TempDir(), compileChain(t))
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestRemoveStale_RejectsForeignLabels(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(`{"vertices": [{"label": "../etc"}]}`), 0o644))

	_, err := RemoveStale(dir, compileChain(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid core label")
	assert.DirExists(t, dir)
}
