package builder

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/vk/pdp2c/internal/config"
	"github.com/vk/pdp2c/internal/ctxlog"
	"github.com/vk/pdp2c/internal/network"
)

// Mode keywords of the `network` block.
const (
	ModeTrain = "train"
	ModeTest  = "test"
)

// Build creates a network from m. The returned network is not sealed.
func Build(ctx context.Context, m *config.Model) (*network.Network, error) {
	logger := ctxlog.FromContext(ctx)
	if m == nil || m.Network == nil {
		return nil, fmt.Errorf("%w: description has no network", network.ErrInvalidConfig)
	}

	net, err := newNetwork(m.Network)
	if err != nil {
		return nil, err
	}
	logger.Debug("Network created.", "name", net.Name(), "type", net.Type().String())

	if err := applyMode(net, m.Network); err != nil {
		return nil, err
	}
	if es := m.Network.ExampleSet; es != nil {
		set, err := readExampleSet(es)
		if err != nil {
			return nil, err
		}
		if err := net.SetExampleSet(set); err != nil {
			return nil, err
		}
	}

	for _, gd := range m.Groups {
		if _, exists := net.GroupByLabel(gd.Name); exists {
			return nil, fmt.Errorf("%w: duplicate group %q", network.ErrInvalidConfig, gd.Name)
		}
		cfg, err := groupConfig(gd)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", gd.Name, err)
		}
		if _, err := net.AddGroup(ctx, cfg); err != nil {
			return nil, fmt.Errorf("group %q: %w", gd.Name, err)
		}
	}

	for _, ld := range m.Links {
		from, to, err := lookupPair(net, ld.From, ld.To)
		if err != nil {
			return nil, fmt.Errorf("link: %w", err)
		}
		if _, err := net.AddLink(ctx, from, to, ld.Label); err != nil {
			return nil, err
		}
		if ld.Weights != nil {
			if err := net.SetWeights(to, from, ld.Weights); err != nil {
				return nil, fmt.Errorf("link %q -> %q: %w", ld.From, ld.To, err)
			}
		}
	}

	for _, wd := range m.Weights {
		from, to, err := lookupPair(net, wd.From, wd.To)
		if err != nil {
			return nil, fmt.Errorf("weights: %w", err)
		}
		if err := net.SetWeights(to, from, wd.Values); err != nil {
			return nil, fmt.Errorf("weights %q -> %q: %w", wd.From, wd.To, err)
		}
	}

	logger.Info("Network built.",
		"name", net.Name(),
		"groups", len(net.Groups()),
		"links", len(net.Links()),
		"training", net.Training(),
	)
	return net, nil
}

func newNetwork(nd *config.Network) (*network.Network, error) {
	netType := network.FeedForward
	if nd.Type != "" {
		t, err := network.ParseNetType(nd.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", network.ErrInvalidConfig, err)
		}
		netType = t
	}
	update := network.Steepest
	if nd.UpdateFunction != "" {
		u, err := network.ParseUpdateFunc(nd.UpdateFunction)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", network.ErrInvalidConfig, err)
		}
		update = u
	}
	timeout, err := toUint32("timeout", nd.Timeout)
	if err != nil {
		return nil, err
	}

	return network.New(network.Config{
		Name:             nd.Name,
		Type:             netType,
		Intervals:        orOne(nd.Intervals),
		TicksPerInterval: orOne(nd.TicksPerInterval),
		Timeout:          timeout,
		MaxBlockUnits:    nd.MaxBlockUnits,
		LearningRate:     nd.LearningRate,
		WeightDecay:      nd.WeightDecay,
		Momentum:         nd.Momentum,
		UpdateFunc:       update,
	})
}

func applyMode(net *network.Network, nd *config.Network) error {
	examples, err := toUint32("examples", nd.Examples)
	if err != nil {
		return err
	}
	switch nd.Mode {
	case "", ModeTrain:
		epochs, err := toUint32("epochs", nd.Epochs)
		if err != nil {
			return err
		}
		return net.Train(epochs, examples)
	case ModeTest:
		return net.Test(examples)
	default:
		return fmt.Errorf("%w: unknown mode %q, want %q or %q", network.ErrInvalidConfig, nd.Mode, ModeTrain, ModeTest)
	}
}

func groupConfig(gd *config.Group) (network.GroupConfig, error) {
	cfg := network.GroupConfig{
		Label:             gd.Name,
		Units:             gd.Units,
		LearningRate:      gd.LearningRate,
		WeightDecay:       gd.WeightDecay,
		Momentum:          gd.Momentum,
		InIntegrDt:        gd.InIntegrDt,
		SoftClampStrength: gd.SoftClampStrength,
		InitNets:          gd.InitNets,
		OutIntegrDt:       gd.OutIntegrDt,
		WeakClampStrength: gd.WeakClampStrength,
		InitOutput:        gd.InitOutput,
		GroupCriterion:    gd.GroupCriterion,
	}

	var err error
	if cfg.Type, err = network.ParseGroupType(gd.Type); err != nil {
		return cfg, fmt.Errorf("%w: %w", network.ErrInvalidConfig, err)
	}
	for _, name := range gd.InputFunctions {
		p, err := network.ParseInputProc(name)
		if err != nil {
			return cfg, fmt.Errorf("%w: %w", network.ErrInvalidConfig, err)
		}
		cfg.InputProcs = append(cfg.InputProcs, p)
	}
	for _, name := range gd.OutputFunctions {
		p, err := network.ParseOutputProc(name)
		if err != nil {
			return cfg, fmt.Errorf("%w: %w", network.ErrInvalidConfig, err)
		}
		cfg.OutputProcs = append(cfg.OutputProcs, p)
	}
	if gd.ErrorFunction != "" {
		if cfg.ErrorFunc, err = network.ParseErrorFunc(gd.ErrorFunction); err != nil {
			return cfg, fmt.Errorf("%w: %w", network.ErrInvalidConfig, err)
		}
	}
	if gd.CriterionFunction != "" {
		if cfg.Criterion, err = network.ParseCriterionFunc(gd.CriterionFunction); err != nil {
			return cfg, fmt.Errorf("%w: %w", network.ErrInvalidConfig, err)
		}
	}

	if cfg.Inputs, err = readBlob(gd.InputsFile); err != nil {
		return cfg, err
	}
	if cfg.Targets, err = readBlob(gd.TargetsFile); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func readExampleSet(es *config.ExampleSet) (network.ExampleSet, error) {
	var set network.ExampleSet
	var err error
	if set.Header, err = readBlob(es.Header); err != nil {
		return set, err
	}
	if set.Examples, err = readBlob(es.Examples); err != nil {
		return set, err
	}
	if set.Events, err = readBlob(es.Events); err != nil {
		return set, err
	}
	return set, nil
}

// readBlob reads an opaque data file. An empty path means no data.
func readBlob(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}
	return data, nil
}

func lookupPair(net *network.Network, fromLabel, toLabel string) (*network.Group, *network.Group, error) {
	from, ok := net.GroupByLabel(fromLabel)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown group %q", network.ErrInvalidConfig, fromLabel)
	}
	to, ok := net.GroupByLabel(toLabel)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown group %q", network.ErrInvalidConfig, toLabel)
	}
	return from, to, nil
}

func toUint32(field string, v int) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %s out of range: %d", network.ErrInvalidConfig, field, v)
	}
	return uint32(v), nil
}

func orOne(v int) int {
	if v == 0 {
		return 1
	}
	return v
}
