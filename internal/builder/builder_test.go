package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pdp2c/internal/config"
	"github.com/vk/pdp2c/internal/hcl"
	"github.com/vk/pdp2c/internal/network"
	"github.com/vk/pdp2c/internal/testutil"
)

func labels(groups []*network.Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Label()
	}
	return out
}

func TestBuild_FromDescription(t *testing.T) {
	ctx := context.Background()
	dir := testutil.WriteFiles(t, map[string]string{"net.hcl": testutil.XORNetwork})
	model, err := hcl.NewLoader().Load(ctx, dir)
	require.NoError(t, err)

	net, err := Build(ctx, model)
	require.NoError(t, err)

	assert.Equal(t, "xor", net.Name())
	assert.Equal(t, []string{"Bias", "in", "hid", "out"}, labels(net.Groups()))

	var linkLabels []string
	for _, l := range net.Links() {
		linkLabels = append(linkLabels, l.Label)
	}
	assert.Equal(t, []string{"Bias-hid", "Bias-out", "in-hid", "hid-out"}, linkLabels)

	hid, _ := net.GroupByLabel("hid")
	out, _ := net.GroupByLabel("out")
	in, _ := net.GroupByLabel("in")
	assert.Equal(t, []float64{0.5, -0.5, 0.25}, out.Weights(hid))
	assert.Empty(t, hid.Weights(in))

	assert.True(t, net.Training())
	assert.Equal(t, uint32(2), net.Epochs())
	assert.Equal(t, uint32(4), net.Examples())
	lr, ok := net.LearningRate()
	assert.True(t, ok)
	assert.Equal(t, 0.25, lr)
	assert.False(t, net.Sealed())
}

func TestBuild_Defaults(t *testing.T) {
	net, err := Build(context.Background(), &config.Model{Network: &config.Network{Name: "n"}})
	require.NoError(t, err)

	assert.Equal(t, network.FeedForward, net.Type())
	assert.Equal(t, network.Steepest, net.UpdateFunc())
	assert.Equal(t, 1, net.TicksPerInterval())
	assert.Equal(t, 2, net.GlobalMaxTicks())
	assert.Equal(t, uint32(network.DefaultTimeout), net.Timeout())
	assert.True(t, net.Training())
	assert.Equal(t, []string{"Bias"}, labels(net.Groups()))
}

func TestBuild_TestMode(t *testing.T) {
	net, err := Build(context.Background(), &config.Model{
		Network: &config.Network{Name: "n", Mode: ModeTest, Epochs: 5, Examples: 3},
	})
	require.NoError(t, err)

	assert.False(t, net.Training())
	assert.Zero(t, net.Epochs())
	assert.Equal(t, uint32(3), net.Examples())
}

func TestBuild_GroupOptions(t *testing.T) {
	m := &config.Model{
		Network: &config.Network{Name: "n", Type: "continuous", UpdateFunction: "momentum"},
		Groups: []*config.Group{{
			Name:              "out",
			Type:              "output",
			Units:             2,
			InputFunctions:    []string{"integr"},
			OutputFunctions:   []string{"logistic", "weak_clamp"},
			ErrorFunction:     "squared",
			CriterionFunction: "max",
			GroupCriterion:    0.1,
		}},
		Weights: []*config.Weights{{From: network.BiasLabel, To: "out", Values: []float64{0.1, 0.2}}},
	}

	net, err := Build(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, network.Continuous, net.Type())
	assert.Equal(t, network.Momentum, net.UpdateFunc())

	out, ok := net.GroupByLabel("out")
	require.True(t, ok)
	assert.Equal(t, []network.InputProc{network.InIntegrator}, out.InputProcs())
	assert.Equal(t, []network.OutputProc{network.OutLogistic, network.OutWeakClamp}, out.OutputProcs())
	assert.Equal(t, network.Squared, out.ErrorFunc())
	assert.Equal(t, network.MaxCriterion, out.Criterion())
	assert.Equal(t, []float64{0.1, 0.2}, out.Weights(net.BiasGroup()))
}

func TestBuild_ReadsBlobs(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"header.bin": "HDR",
		"events.bin": "EV",
		"in.bin":     "\x01\x02",
		"tgt.bin":    "\x03",
	})
	m := &config.Model{
		Network: &config.Network{
			Name: "n",
			ExampleSet: &config.ExampleSet{
				Header: filepath.Join(dir, "header.bin"),
				Events: filepath.Join(dir, "events.bin"),
			},
		},
		Groups: []*config.Group{
			{Name: "in", Type: "input", Units: 1, InputsFile: filepath.Join(dir, "in.bin")},
			{Name: "out", Type: "output", Units: 1, TargetsFile: filepath.Join(dir, "tgt.bin")},
		},
	}

	net, err := Build(context.Background(), m)
	require.NoError(t, err)

	es := net.ExampleSet()
	assert.Equal(t, []byte("HDR"), es.Header)
	assert.Empty(t, es.Examples)
	assert.Equal(t, []byte("EV"), es.Events)

	in, _ := net.GroupByLabel("in")
	out, _ := net.GroupByLabel("out")
	assert.Equal(t, []byte{1, 2}, in.Inputs())
	assert.Equal(t, []byte{3}, out.Targets())
}

func TestBuild_Errors(t *testing.T) {
	base := func() *config.Model {
		return &config.Model{
			Network: &config.Network{Name: "n"},
			Groups: []*config.Group{
				{Name: "a", Type: "input", Units: 2},
				{Name: "b", Type: "output", Units: 1},
			},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(m *config.Model)
		wantErr error
	}{
		{"no network", func(m *config.Model) { m.Network = nil }, network.ErrInvalidConfig},
		{"unknown net type", func(m *config.Model) { m.Network.Type = "bogus" }, network.ErrInvalidConfig},
		{"unknown update function", func(m *config.Model) { m.Network.UpdateFunction = "bogus" }, network.ErrInvalidConfig},
		{"unknown mode", func(m *config.Model) { m.Network.Mode = "infer" }, network.ErrInvalidConfig},
		{"negative epochs", func(m *config.Model) { m.Network.Epochs = -1 }, network.ErrInvalidConfig},
		{"negative timeout", func(m *config.Model) { m.Network.Timeout = -5 }, network.ErrInvalidConfig},
		{"negative intervals", func(m *config.Model) { m.Network.Intervals = -1 }, network.ErrInvalidConfig},
		{"duplicate group", func(m *config.Model) { m.Groups[1].Name = "a" }, network.ErrInvalidConfig},
		{"group named like bias", func(m *config.Model) { m.Groups[0].Name = network.BiasLabel }, network.ErrInvalidConfig},
		{"bias group type", func(m *config.Model) { m.Groups[0].Type = "bias" }, network.ErrInvalidConfig},
		{"unknown output function", func(m *config.Model) { m.Groups[1].OutputFunctions = []string{"tanh"} }, network.ErrInvalidConfig},
		{"unknown input function", func(m *config.Model) { m.Groups[1].InputFunctions = []string{"tanh"} }, network.ErrInvalidConfig},
		{"unknown error function", func(m *config.Model) { m.Groups[1].ErrorFunction = "hinge" }, network.ErrInvalidConfig},
		{"unknown criterion", func(m *config.Model) { m.Groups[1].CriterionFunction = "avg" }, network.ErrInvalidConfig},
		{"zero units", func(m *config.Model) { m.Groups[0].Units = 0 }, network.ErrInvalidUnits},
		{"link to unknown group", func(m *config.Model) {
			m.Links = []*config.Link{{From: "a", To: "zzz"}}
		}, network.ErrInvalidConfig},
		{"link weights wrong shape", func(m *config.Model) {
			m.Links = []*config.Link{{From: "a", To: "b", Weights: []float64{1, 2, 3}}}
		}, network.ErrWeightShape},
		{"weights from unknown group", func(m *config.Model) {
			m.Weights = []*config.Weights{{From: "zzz", To: "b", Values: []float64{1}}}
		}, network.ErrInvalidConfig},
		{"missing data file", func(m *config.Model) {
			m.Groups[0].InputsFile = filepath.Join(os.TempDir(), "pdp2c-no-such-dir", "missing.bin")
		}, os.ErrNotExist},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := base()
			tc.mutate(m)

			_, err := Build(context.Background(), m)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v, want %v", err, tc.wantErr)
		})
	}
}
