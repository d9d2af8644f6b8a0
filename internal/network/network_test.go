package network

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNetwork(t *testing.T) *Network {
	t.Helper()
	n, err := New(Config{Name: "test", Type: FeedForward, Intervals: 2, TicksPerInterval: 5})
	require.NoError(t, err)
	return n
}

func TestNewCreatesBiasGroup(t *testing.T) {
	n := newTestNetwork(t)

	groups := n.Groups()
	require.Len(t, groups, 1)
	bias := n.BiasGroup()
	assert.Same(t, groups[0], bias)
	assert.Equal(t, 0, bias.ID())
	assert.Equal(t, BiasLabel, bias.Label())
	assert.Equal(t, 1, bias.Units())
	assert.Equal(t, Bias, bias.Type())
	assert.Empty(t, n.Links())
	assert.Equal(t, []OutputProc{OutBias}, bias.OutputProcs())
	assert.Equal(t, DefaultBiasInitOutput, bias.InitOutput())
}

func TestNewDefaultsAndDerivedValues(t *testing.T) {
	n := newTestNetwork(t)
	assert.Equal(t, 11, n.GlobalMaxTicks())
	assert.Equal(t, uint32(DefaultTimeout), n.Timeout())
	assert.Equal(t, 256, n.MaxBlockUnits())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
	}{
		{name: "zero intervals", cfg: Config{Intervals: 0, TicksPerInterval: 1}},
		{name: "zero ticks", cfg: Config{Intervals: 1, TicksPerInterval: 0}},
		{name: "negative block size", cfg: Config{Intervals: 1, TicksPerInterval: 1, MaxBlockUnits: -1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestAddGroupBiasLinks(t *testing.T) {
	testCases := []struct {
		name      string
		typ       GroupType
		wantLinks int
	}{
		{name: "input gets no bias link", typ: Input, wantLinks: 0},
		{name: "hidden gets one bias link", typ: Hidden, wantLinks: 1},
		{name: "output gets one bias link", typ: Output, wantLinks: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			n := newTestNetwork(t)
			before := len(n.Links())

			g, err := n.AddGroup(ctx, GroupConfig{Label: "g", Units: 3, Type: tc.typ})
			require.NoError(t, err)

			links := n.Links()
			require.Len(t, links, before+tc.wantLinks)
			if tc.wantLinks == 1 {
				l := links[len(links)-1]
				assert.Same(t, n.BiasGroup(), l.From)
				assert.Same(t, g, l.To)
				assert.Equal(t, "Bias-g", l.Label)
			}
		})
	}
}

func TestAddGroupAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	n := newTestNetwork(t)
	a, err := n.AddGroup(ctx, GroupConfig{Label: "a", Units: 2, Type: Input})
	require.NoError(t, err)
	b, err := n.AddGroup(ctx, GroupConfig{Units: 2, Type: Hidden})
	require.NoError(t, err)

	assert.Equal(t, 1, a.ID())
	assert.Equal(t, 2, b.ID())
	assert.Equal(t, "group2", b.Label())
}

func TestOutputChain(t *testing.T) {
	ctx := context.Background()
	n := newTestNetwork(t)

	o1, err := n.AddGroup(ctx, GroupConfig{Label: "o1", Units: 2, Type: Output})
	require.NoError(t, err)
	_, err = n.AddGroup(ctx, GroupConfig{Label: "h", Units: 2, Type: Hidden})
	require.NoError(t, err)
	o2, err := n.AddGroup(ctx, GroupConfig{Label: "o2", Units: 2, Type: Output})
	require.NoError(t, err)
	o3, err := n.AddGroup(ctx, GroupConfig{Label: "o3", Units: 2, Type: Output})
	require.NoError(t, err)

	assert.Equal(t, []*Group{o1, o2, o3}, n.OutputChain())
	assert.True(t, o1.IsFirstOutput())
	assert.False(t, o2.IsFirstOutput())
	assert.False(t, o3.IsFirstOutput())
	assert.Equal(t, []int{0, 1, 2}, []int{o1.WriteBlock(), o2.WriteBlock(), o3.WriteBlock()})

	assert.True(t, n.IsLastOutput(o3))
	assert.False(t, n.IsLastOutput(o1))
	next, ok := n.NextOutput(o1)
	require.True(t, ok)
	assert.Same(t, o2, next)
	_, ok = n.NextOutput(o3)
	assert.False(t, ok)

	assert.Zero(t, n.NumWriteBlocks(), "write blocks are fixed on seal")
	n.Seal()
	assert.Equal(t, 3, n.NumWriteBlocks())
}

func TestAddGroupRejectsInvalidUnits(t *testing.T) {
	ctx := context.Background()
	n := newTestNetwork(t)
	for _, units := range []int{0, -1} {
		_, err := n.AddGroup(ctx, GroupConfig{Label: "bad", Units: units, Type: Hidden})
		assert.ErrorIs(t, err, ErrInvalidUnits)
	}
	assert.Len(t, n.Groups(), 1)
	assert.Empty(t, n.Links())
}

func TestAddGroupRejectsLongPipelines(t *testing.T) {
	n := newTestNetwork(t)
	_, err := n.AddGroup(context.Background(), GroupConfig{
		Units:      1,
		Type:       Hidden,
		InputProcs: []InputProc{InIntegrator, InSoftClamp, InIntegrator},
	})
	assert.ErrorIs(t, err, ErrTooManyProcs)
}

func TestAddLinkKeepsDuplicates(t *testing.T) {
	ctx := context.Background()
	n := newTestNetwork(t)
	a, _ := n.AddGroup(ctx, GroupConfig{Label: "a", Units: 2, Type: Input})
	b, _ := n.AddGroup(ctx, GroupConfig{Label: "b", Units: 2, Type: Hidden})

	l1, err := n.AddLink(ctx, a, b, "")
	require.NoError(t, err)
	l2, err := n.AddLink(ctx, a, b, "again")
	require.NoError(t, err)

	assert.NotSame(t, l1, l2)
	assert.Equal(t, "a-b", l1.Label)
	assert.Equal(t, "again", l2.Label)
	assert.Len(t, n.Links(), 3)
}

func TestAddLinkRejectsForeignGroup(t *testing.T) {
	ctx := context.Background()
	n := newTestNetwork(t)
	other := newTestNetwork(t)
	a, _ := n.AddGroup(ctx, GroupConfig{Label: "a", Units: 2, Type: Input})
	x, _ := other.AddGroup(ctx, GroupConfig{Label: "x", Units: 2, Type: Input})

	_, err := n.AddLink(ctx, x, a, "")
	assert.ErrorIs(t, err, ErrForeignGroup)
	_, err = n.AddLink(ctx, a, nil, "")
	assert.ErrorIs(t, err, ErrForeignGroup)
}

func TestSetWeights(t *testing.T) {
	ctx := context.Background()
	n := newTestNetwork(t)
	a, _ := n.AddGroup(ctx, GroupConfig{Label: "a", Units: 2, Type: Input})
	b, _ := n.AddGroup(ctx, GroupConfig{Label: "b", Units: 3, Type: Hidden})

	err := n.SetWeights(b, a, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrWeightShape)

	values := []float64{1, 2, 3, 4, 5, 6}
	require.NoError(t, n.SetWeights(b, a, values))
	values[0] = 99
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, b.Weights(a), "matrix is copied")
	assert.Nil(t, a.Weights(b))

	require.NoError(t, n.SetWeights(b, a, nil))
	assert.Nil(t, b.Weights(a))
}

func TestSealRejectsMutation(t *testing.T) {
	ctx := context.Background()
	n := newTestNetwork(t)
	a, _ := n.AddGroup(ctx, GroupConfig{Label: "a", Units: 2, Type: Input})
	n.Seal()
	n.Seal()
	assert.True(t, n.Sealed())

	_, err := n.AddGroup(ctx, GroupConfig{Label: "b", Units: 1, Type: Hidden})
	assert.True(t, errors.Is(err, ErrSealed))
	_, err = n.AddLink(ctx, a, a, "")
	assert.ErrorIs(t, err, ErrSealed)
	assert.ErrorIs(t, n.SetWeights(a, a, nil), ErrSealed)
	assert.ErrorIs(t, n.Train(1, 1), ErrSealed)
	assert.ErrorIs(t, n.Test(1), ErrSealed)
	assert.ErrorIs(t, n.SetExampleSet(ExampleSet{}), ErrSealed)
}

func TestPartitions(t *testing.T) {
	ctx := context.Background()
	n, err := New(Config{Intervals: 1, TicksPerInterval: 1, MaxBlockUnits: 4})
	require.NoError(t, err)
	a, _ := n.AddGroup(ctx, GroupConfig{Units: 9, Type: Input})
	b, _ := n.AddGroup(ctx, GroupConfig{Units: 4, Type: Hidden})

	assert.Equal(t, 3, a.Partitions())
	assert.Equal(t, 1, b.Partitions())
	assert.Equal(t, 1+3+1, n.Partitions())
}

func TestConfigBlob(t *testing.T) {
	ctx := context.Background()
	n, err := New(Config{Type: SimpleRecurrent, Intervals: 3, TicksPerInterval: 4, Timeout: 500})
	require.NoError(t, err)
	_, err = n.AddGroup(ctx, GroupConfig{Units: 2, Type: Output})
	require.NoError(t, err)
	require.NoError(t, n.Train(7, 9))
	n.Seal()

	want := []byte{
		1, 1, 0, 0, // type, training, pad
		7, 0, 0, 0, // epochs
		9, 0, 0, 0, // examples
		4, 0, 0, 0, // ticks per interval
		13, 0, 0, 0, // global max ticks
		1, 0, 0, 0, // write blocks
		0xf4, 0x01, 0, 0, // timeout
	}
	assert.Equal(t, want, n.ConfigBlob())
	assert.Len(t, n.ConfigBlob(), ConfigSize)
}

func TestTestModeClearsTraining(t *testing.T) {
	n := newTestNetwork(t)
	require.NoError(t, n.Train(10, 4))
	require.NoError(t, n.Test(6))
	assert.False(t, n.Training())
	assert.Zero(t, n.Epochs())
	assert.Equal(t, uint32(6), n.Examples())
}

func TestParseEnums(t *testing.T) {
	nt, err := ParseNetType("continuous")
	require.NoError(t, err)
	assert.Equal(t, Continuous, nt)

	uf, err := ParseUpdateFunc("momentum")
	require.NoError(t, err)
	assert.Equal(t, Momentum, uf)

	op, err := ParseOutputProc("weak_clamp")
	require.NoError(t, err)
	assert.Equal(t, OutWeakClamp, op)

	_, err = ParseGroupType("bias")
	assert.Error(t, err)
	_, err = ParseErrorFunc("absolute")
	assert.Error(t, err)

	assert.Equal(t, "squared", Squared.String())
	assert.Panics(t, func() { _ = GroupType(9).String() })
}
