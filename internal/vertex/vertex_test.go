package vertex

import (
	"bytes"
	"context"
	"encoding/binary"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pdp2c/internal/ctxlog"
	"github.com/vk/pdp2c/internal/network"
	"github.com/vk/pdp2c/internal/vertexid"
)

type emitted struct {
	label  string
	region Region
	data   []byte
}

type recordingEmitter struct {
	regions []emitted
}

func (r *recordingEmitter) EmitRegion(v Vertex, region Region, data []byte) error {
	r.regions = append(r.regions, emitted{label: v.Label(), region: region, data: append([]byte(nil), data...)})
	return nil
}

func (r *recordingEmitter) get(region Region) []byte {
	for _, e := range r.regions {
		if e.region == region {
			return e.data
		}
	}
	return nil
}

// keyTable resolves every partition it knows to a fixed key.
type keyTable map[string]uint32

func (k keyTable) KeyFor(_ Vertex, partition string) (uint32, bool) {
	key, ok := k[partition]
	return key, ok
}

func ptr(v float64) *float64 { return &v }

type fixture struct {
	net *network.Network
	in  *network.Group
	hid *network.Group
	out *network.Group
}

func newFixture(t *testing.T, cfg network.Config) fixture {
	t.Helper()
	ctx := context.Background()
	if cfg.Intervals == 0 {
		cfg.Intervals = 1
	}
	if cfg.TicksPerInterval == 0 {
		cfg.TicksPerInterval = 1
	}
	n, err := network.New(cfg)
	require.NoError(t, err)
	in, err := n.AddGroup(ctx, network.GroupConfig{Label: "in", Units: 2, Type: network.Input})
	require.NoError(t, err)
	hid, err := n.AddGroup(ctx, network.GroupConfig{Label: "hid", Units: 3, Type: network.Hidden, LearningRate: ptr(0.25)})
	require.NoError(t, err)
	out, err := n.AddGroup(ctx, network.GroupConfig{Label: "out", Units: 1, Type: network.Output})
	require.NoError(t, err)
	_, err = n.AddLink(ctx, in, hid, "")
	require.NoError(t, err)
	_, err = n.AddLink(ctx, hid, out, "")
	require.NoError(t, err)
	return fixture{net: n, in: in, hid: hid, out: out}
}

func build(t *testing.T, ctx context.Context, n *network.Network) []*Set {
	t.Helper()
	n.Seal()
	sets, err := Build(ctx, n)
	require.NoError(t, err)
	return sets
}

func findWeight(t *testing.T, sets []*Set, label string) *Weight {
	t.Helper()
	for _, s := range sets {
		for _, w := range s.Weights {
			if w.Label() == label {
				return w
			}
		}
	}
	t.Fatalf("weight core %s not found", label)
	return nil
}

func TestBuildRequiresSealedNetwork(t *testing.T) {
	f := newFixture(t, network.Config{})
	_, err := Build(context.Background(), f.net)
	assert.Error(t, err)
}

func TestBuildCounts(t *testing.T) {
	f := newFixture(t, network.Config{})
	sets := build(t, context.Background(), f.net)

	require.Len(t, sets, 4)
	total := 0
	for i, s := range sets {
		assert.Equal(t, i, s.Group.ID())
		assert.Len(t, s.Weights, 4, "one weight core per source group")
		assert.Len(t, s.Vertices(), 7)
		total += len(s.Vertices())
	}
	assert.Equal(t, 4*4+3*4, total)

	labels := []string{}
	for _, w := range sets[2].Weights {
		labels = append(labels, w.Label())
	}
	assert.Equal(t, []string{"w_core2_0_0_0", "w_core2_1_0_0", "w_core2_2_0_0", "w_core2_3_0_0"}, labels)
}

func TestBuildPartitionedWeights(t *testing.T) {
	ctx := context.Background()
	n, err := network.New(network.Config{Intervals: 1, TicksPerInterval: 1, MaxBlockUnits: 2})
	require.NoError(t, err)
	a, _ := n.AddGroup(ctx, network.GroupConfig{Label: "a", Units: 3, Type: network.Input})
	b, _ := n.AddGroup(ctx, network.GroupConfig{Label: "b", Units: 3, Type: network.Hidden})
	sets := build(t, ctx, n)

	// bias (1 block) + a (2 blocks) + b (2 blocks) rows, 2 column blocks of b.
	assert.Len(t, sets[2].Weights, (1+2+2)*2)
	fromA := sets[2].WeightsFrom(a)
	require.Len(t, fromA, 4)

	w := findWeight(t, sets, "w_core2_1_1_0")
	assert.Equal(t, 1, w.Rows())
	assert.Equal(t, 2, w.Cols())
	assert.Same(t, b, w.Group())
	assert.Same(t, a, w.From())
}

func TestWeightConfigAndHyperParams(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, network.Config{Momentum: ptr(0.5), UpdateFunc: network.Momentum})
	require.NoError(t, f.net.SetWeights(f.hid, f.in, []float64{1, 2, 3, 4, 5, 6}))
	sets := build(t, ctx, f.net)

	w := findWeight(t, sets, "w_core2_1_0_0")
	lr, wd, mom := w.HyperParams()
	assert.Equal(t, 0.25, lr, "group override wins")
	assert.Equal(t, 0.0, wd, "built-in default")
	assert.Equal(t, 0.5, mom, "network override")

	want := []byte{
		2, 0, 0, 0, // rows
		3, 0, 0, 0, // cols
		0, 0, 0, 0, // row block
		0, 0, 0, 0, // col block
		0x00, 0x04, // learning rate 0.25 * 4096
		0x00, 0x00, // weight decay
		0x00, 0x08, // momentum 0.5 * 4096
		1, 0, // update function, pad
	}
	assert.Equal(t, want, w.Config())
}

func TestWeightWithoutMatrixHasZeroHyperParams(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, network.Config{LearningRate: ptr(0.7), Momentum: ptr(0.5)})
	sets := build(t, ctx, f.net)

	w := findWeight(t, sets, "w_core2_1_0_0")
	lr, wd, mom := w.HyperParams()
	assert.Zero(t, lr)
	assert.Zero(t, wd)
	assert.Zero(t, mom)
	assert.Equal(t, make([]byte, 6), w.Config()[16:22])

	payload, err := w.WeightsPayload(ctx)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 2*3*4), payload)
}

func TestWeightPayloadIsRowMajor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, network.Config{})
	// Column-major: value[col*2 + row] for 2 source rows, 3 destination cols.
	require.NoError(t, f.net.SetWeights(f.hid, f.in, []float64{1, 2, 3, 4, 5, 6}))
	sets := build(t, ctx, f.net)

	payload, err := findWeight(t, sets, "w_core2_1_0_0").WeightsPayload(ctx)
	require.NoError(t, err)

	got := make([]int32, 6)
	require.NoError(t, binary.Read(bytes.NewReader(payload), binary.LittleEndian, got))
	assert.Equal(t, []int32{1 << 16, 3 << 16, 5 << 16, 2 << 16, 4 << 16, 6 << 16}, got)
}

func TestWeightPayloadBlockOffsets(t *testing.T) {
	ctx := context.Background()
	n, err := network.New(network.Config{Intervals: 1, TicksPerInterval: 1, MaxBlockUnits: 2})
	require.NoError(t, err)
	a, _ := n.AddGroup(ctx, network.GroupConfig{Label: "a", Units: 3, Type: network.Input})
	b, _ := n.AddGroup(ctx, network.GroupConfig{Label: "b", Units: 3, Type: network.Hidden})
	values := make([]float64, 9)
	for i := range values {
		values[i] = float64(i)
	}
	require.NoError(t, n.SetWeights(b, a, values))
	sets := build(t, ctx, n)

	payload, err := findWeight(t, sets, "w_core2_1_1_1").WeightsPayload(ctx)
	require.NoError(t, err)
	require.Len(t, payload, 4)
	// row 2, col 2 -> index 2*3+2.
	assert.Equal(t, int32(8<<16), int32(binary.LittleEndian.Uint32(payload)))

	payload, err = findWeight(t, sets, "w_core2_1_0_1").WeightsPayload(ctx)
	require.NoError(t, err)
	require.Len(t, payload, 8)
	// rows 0 and 1 of col 2 -> indices 6 and 7.
	assert.Equal(t, int32(6<<16), int32(binary.LittleEndian.Uint32(payload[0:])))
	assert.Equal(t, int32(7<<16), int32(binary.LittleEndian.Uint32(payload[4:])))
}

func TestWeightSaturationIsLogged(t *testing.T) {
	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	f := newFixture(t, network.Config{})
	require.NoError(t, f.net.SetWeights(f.hid, f.in, []float64{1e6, 0, 0, 0, 0, -1e6}))
	sets := build(t, ctx, f.net)

	payload, err := findWeight(t, sets, "w_core2_1_0_0").WeightsPayload(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint32(0x7fffffff), binary.LittleEndian.Uint32(payload[0:]))
	assert.Equal(t, uint32(0x80000000), binary.LittleEndian.Uint32(payload[20:]))
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("saturated")))
	assert.Contains(t, buf.String(), "vertex=w_core2_1_0_0")
}

func TestHyperParamWrapIsLogged(t *testing.T) {
	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	f := newFixture(t, network.Config{LearningRate: ptr(10)})
	require.NoError(t, f.net.SetWeights(f.out, f.hid, []float64{1, 1, 1}))
	sets := build(t, ctx, f.net)

	w := findWeight(t, sets, "w_core3_2_0_0")
	assert.Equal(t, []byte{0x00, 0xa0}, w.Config()[16:18], "10 * 4096 keeps its low 16 bits")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("Hyper-parameter wraps")))
	assert.Contains(t, buf.String(), "vertex=w_core3_2_0_0")
	assert.Contains(t, buf.String(), "field=learning_rate")
}

func TestSumConfig(t *testing.T) {
	f := newFixture(t, network.Config{})
	sets := build(t, context.Background(), f.net)

	s := sets[2].Sum
	fwd, bkp, ldsa, ldst := s.Expects()
	assert.Equal(t, []int{4, 4, 12, 3}, []int{fwd, bkp, ldsa, ldst})
	assert.False(t, s.IsFirstGroup())
	assert.True(t, sets[0].Sum.IsFirstGroup())

	want := []byte{
		3, 0, 0, 0,
		4, 0, 0, 0,
		4, 0, 0, 0,
		12, 0, 0, 0,
		3, 0, 0, 0,
		0, 0, 0, 0,
	}
	assert.Equal(t, want, s.Config())
	assert.Equal(t, []string{"fwd_s2", "bkp_s2", "lds_s2"}, s.Partitions())
}

func TestInputConfig(t *testing.T) {
	ctx := context.Background()
	n, err := network.New(network.Config{Intervals: 1, TicksPerInterval: 1})
	require.NoError(t, err)
	g, err := n.AddGroup(ctx, network.GroupConfig{
		Label:             "in",
		Units:             5,
		Type:              network.Input,
		InputProcs:        []network.InputProc{network.InIntegrator, network.InSoftClamp},
		InIntegrDt:        0.5,
		SoftClampStrength: 1,
		InitNets:          -2,
		InitOutput:        ptr(0.25),
	})
	require.NoError(t, err)
	sets := build(t, ctx, n)

	in := sets[g.ID()].Input
	want := []byte{
		0, 1, 2, 1, // output_grp, input_grp, num procs, integr enabled
		5, 0, 0, 0, // units
		1, 0, 0, 0, // partitions
		0, 1, 0, 0, // procs, pad
		0x00, 0x40, 0, 0, // dt 0.5
		0x00, 0x80, 0, 0, // soft clamp 1.0
		0x00, 0x00, 0xff, 0xff, // init nets -2.0
		0x00, 0x20, 0, 0, // init output 0.25, pad
	}
	assert.Equal(t, want, in.Config())
	assert.Equal(t, []string{"fwd_i1", "bkp_i1"}, in.Partitions())
}

func TestThresholdConfig(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, network.Config{})
	sets := build(t, ctx, f.net)

	th := sets[f.out.ID()].Threshold
	assert.True(t, th.IsLastOutput())
	fwd, bkp := th.SyncExpects()
	assert.Equal(t, 4, fwd)
	assert.Equal(t, 1, bkp)
	assert.Equal(t, []string{"fwd_t3", "bkp_t3", "stp_t3"}, th.Partitions())

	want := []byte{
		1, 0, 1, 0, // output_grp, input_grp, write_out, write_blk
		1, 0, 0, 0, // units
		1, 0, 0, 0, // partitions
		4, 0, 0, 0, // fwd sync expect
		1, 0, 0, 0, // bkp sync expect
		1, 0, 0, 0, 0, 0, // num procs, logistic + unused
		0, 0, // criterion, error function
		1, 1, 0, 0, // first, last, integr enabled, pad
		0, 0, 0, 0, // out integr dt
		0, 0, 0, 0, // weak clamp
		0, 0, 0, 0, // group criterion
		0x00, 0x40, 0, 0, // init output 0.5, pad
	}
	assert.Equal(t, want, th.Config())

	hidden := sets[f.hid.ID()].Threshold
	assert.False(t, hidden.IsLastOutput())
	_, ok := hidden.Partition(vertexid.Stop)
	assert.False(t, ok)
}

func TestGenerateRegionsAndKeys(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, network.Config{})
	require.NoError(t, f.net.SetExampleSet(network.ExampleSet{Header: []byte{1, 2}, Examples: []byte{3, 4, 5}, Events: []byte{6}}))
	require.NoError(t, f.net.SetWeights(f.hid, f.in, []float64{1, 2, 3, 4, 5, 6}))
	sets := build(t, ctx, f.net)

	keys := keyTable{
		"fwd_w2_1_0_0": 0x10000,
		"bkp_w2_1_0_0": 0x20000,
		"fds_w2_1_0_0": 0x30000,
		"lds_w2_1_0_0": 0x40000,
	}

	w := findWeight(t, sets, "w_core2_1_0_0")
	rec := &recordingEmitter{}
	require.NoError(t, w.Generate(ctx, keys, rec))

	regions := []Region{}
	total := 0
	for _, e := range rec.regions {
		regions = append(regions, e.region)
		total += len(e.data)
	}
	assert.Equal(t, []Region{NetworkRegion, CoreRegion, ExamplesRegion, WeightsRegion, RoutingRegion}, regions)
	assert.Equal(t, w.Footprint(), total)
	assert.Equal(t, network.ConfigSize+WeightConfigSize+3+2*3*4+KeyRegionSize, w.Footprint())
	assert.Equal(t, []byte{3, 4, 5}, rec.get(ExamplesRegion))

	routing := rec.get(RoutingRegion)
	got := make([]uint32, 5)
	require.NoError(t, binary.Read(bytes.NewReader(routing), binary.LittleEndian, got))
	assert.Equal(t, []uint32{0x10000, 0x20000, 0x30000, 0, 0x40000}, got)

	infos := w.Regions()
	require.Len(t, infos, 5)
	assert.Equal(t, RegionInfo{Region: WeightsRegion, Size: 24}, infos[3])
}

func TestGenerateThresholdRegions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, network.Config{})
	require.NoError(t, f.net.SetExampleSet(network.ExampleSet{Header: []byte{1}, Examples: []byte{2}, Events: []byte{3}}))
	sets := build(t, ctx, f.net)

	th := sets[f.out.ID()].Threshold
	rec := &recordingEmitter{}
	require.NoError(t, th.Generate(ctx, nil, rec))

	regions := []Region{}
	for _, e := range rec.regions {
		regions = append(regions, e.region)
	}
	assert.Equal(t, []Region{NetworkRegion, CoreRegion, ExampleSetRegion, ExamplesRegion, EventsRegion, RoutingRegion}, regions)
	assert.Equal(t, make([]byte, KeyRegionSize), rec.get(RoutingRegion), "missing keys are written as zero")
}

func TestEveryRoleReservesTheSameKeyRegion(t *testing.T) {
	f := newFixture(t, network.Config{})
	sets := build(t, context.Background(), f.net)
	for _, v := range sets[1].Vertices() {
		infos := v.Regions()
		last := infos[len(infos)-1]
		assert.Equal(t, RegionInfo{Region: RoutingRegion, Size: KeyRegionSize}, last, v.Label())
	}
}
