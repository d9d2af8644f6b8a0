// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file contains the Network type: global run parameters, group and link
// construction, and the network configuration record shared by every core.
package network

import (
	"context"
	"fmt"
	"slices"

	"github.com/vk/pdp2c/internal/ctxlog"
	"github.com/vk/pdp2c/internal/partition"
	"github.com/vk/pdp2c/internal/structpack"
)

// Built-in hyper-parameter defaults, used when neither the group nor the
// network overrides them.
const (
	DefaultLearningRate = 0.1
	DefaultWeightDecay  = 0.0
	DefaultMomentum     = 0.9
	DefaultTimeout      = 100
)

// ConfigSize is the length of the network configuration record.
const ConfigSize = 28

// Config holds the global parameters of a network.
type Config struct {
	Name             string
	Type             NetType
	Intervals        int
	TicksPerInterval int
	// Timeout is passed through to the host runtime; 0 selects DefaultTimeout.
	Timeout uint32
	// MaxBlockUnits bounds a weight core's rows and columns; 0 selects
	// partition.DefaultMaxBlockUnits.
	MaxBlockUnits int

	LearningRate *float64
	WeightDecay  *float64
	Momentum     *float64
	UpdateFunc   UpdateFunc
}

// ExampleSet is the opaque example data every core carries a copy of. The
// compiler only accounts for and forwards these bytes.
type ExampleSet struct {
	Header   []byte
	Examples []byte
	Events   []byte
}

// Network is a multi-layer perceptron under construction.
type Network struct {
	name             string
	typ              NetType
	ticksPerInterval int
	globalMaxTicks   int
	timeout          uint32
	maxBlockUnits    int

	learningRate *float64
	weightDecay  *float64
	momentum     *float64
	updateFunc   UpdateFunc

	training bool
	epochs   uint32
	examples uint32

	exampleSet ExampleSet

	groups      []*Group
	links       []*Link
	outputChain []*Group
	bias        *Group

	numWriteBlocks int
	sealed         bool
}

// New creates a network and its single-unit bias group.
func New(cfg Config) (*Network, error) {
	if cfg.Intervals <= 0 {
		return nil, fmt.Errorf("%w: intervals must be positive, got %d", ErrInvalidConfig, cfg.Intervals)
	}
	if cfg.TicksPerInterval <= 0 {
		return nil, fmt.Errorf("%w: ticks per interval must be positive, got %d", ErrInvalidConfig, cfg.TicksPerInterval)
	}
	if cfg.MaxBlockUnits < 0 {
		return nil, fmt.Errorf("%w: max block units must not be negative, got %d", ErrInvalidConfig, cfg.MaxBlockUnits)
	}

	n := &Network{
		name:             cfg.Name,
		typ:              cfg.Type,
		ticksPerInterval: cfg.TicksPerInterval,
		globalMaxTicks:   cfg.Intervals*cfg.TicksPerInterval + 1,
		timeout:          cfg.Timeout,
		maxBlockUnits:    cfg.MaxBlockUnits,
		learningRate:     cfg.LearningRate,
		weightDecay:      cfg.WeightDecay,
		momentum:         cfg.Momentum,
		updateFunc:       cfg.UpdateFunc,
	}
	if n.timeout == 0 {
		n.timeout = DefaultTimeout
	}
	if n.maxBlockUnits == 0 {
		n.maxBlockUnits = partition.DefaultMaxBlockUnits
	}

	bias, err := n.AddGroup(context.Background(), GroupConfig{Label: BiasLabel, Units: 1, Type: Bias})
	if err != nil {
		return nil, fmt.Errorf("creating bias group: %w", err)
	}
	n.bias = bias
	return n, nil
}

// AddGroup appends a group. OUTPUT groups join the output chain, and OUTPUT
// and HIDDEN groups receive an implicit link from the bias group.
func (n *Network) AddGroup(ctx context.Context, cfg GroupConfig) (*Group, error) {
	if n.sealed {
		return nil, ErrSealed
	}

	g, err := newGroup(n, len(n.groups), cfg)
	if err != nil {
		return nil, err
	}

	if g.typ == Output {
		g.writeBlock = len(n.outputChain)
		g.isFirstOutput = len(n.outputChain) == 0
	}

	n.groups = append(n.groups, g)
	if g.typ == Output {
		n.outputChain = append(n.outputChain, g)
	}
	ctxlog.FromContext(ctx).Debug("Group added.", "group", g.label, "id", g.id, "type", g.typ.String(), "units", g.units, "total", len(n.groups))

	if g.typ == Output || g.typ == Hidden {
		if _, err := n.AddLink(ctx, n.bias, g, ""); err != nil {
			return nil, fmt.Errorf("linking bias into %q: %w", g.label, err)
		}
	}
	return g, nil
}

// AddLink declares a link from one group into another. An empty label
// defaults to "<from>-<to>". Linking the same pair twice yields two links.
func (n *Network) AddLink(ctx context.Context, from, to *Group, label string) (*Link, error) {
	if n.sealed {
		return nil, ErrSealed
	}
	if err := n.owns(from, to); err != nil {
		return nil, err
	}
	if label == "" {
		label = fmt.Sprintf("%s-%s", from.label, to.label)
	}

	l := &Link{From: from, To: to, Label: label}
	n.links = append(n.links, l)
	ctxlog.FromContext(ctx).Debug("Link added.", "from", from.label, "to", to.label, "label", label, "total", len(n.links))
	return l, nil
}

// SetWeights sets the column-major matrix from source into dest. The matrix
// must hold source.Units()*dest.Units() values; an empty slice clears it.
func (n *Network) SetWeights(dest, source *Group, values []float64) error {
	if n.sealed {
		return ErrSealed
	}
	if err := n.owns(dest, source); err != nil {
		return err
	}
	if len(values) == 0 {
		delete(dest.weights, source.id)
		return nil
	}
	if want := source.units * dest.units; len(values) != want {
		return fmt.Errorf("%w: %s -> %s needs %d values, got %d", ErrWeightShape, source.label, dest.label, want, len(values))
	}
	dest.weights[source.id] = slices.Clone(values)
	return nil
}

// SetExampleSet attaches the opaque example data.
func (n *Network) SetExampleSet(es ExampleSet) error {
	if n.sealed {
		return ErrSealed
	}
	n.exampleSet = ExampleSet{
		Header:   slices.Clone(es.Header),
		Examples: slices.Clone(es.Examples),
		Events:   slices.Clone(es.Events),
	}
	return nil
}

// Train configures the network for a training run.
func (n *Network) Train(epochs, examples uint32) error {
	if n.sealed {
		return ErrSealed
	}
	n.training = true
	n.epochs = epochs
	n.examples = examples
	return nil
}

// Test configures the network for a test-only run.
func (n *Network) Test(examples uint32) error {
	if n.sealed {
		return ErrSealed
	}
	n.training = false
	n.epochs = 0
	n.examples = examples
	return nil
}

// Seal closes the network for mutation and fixes the write-block count.
// Sealing an already sealed network is a no-op.
func (n *Network) Seal() {
	if n.sealed {
		return
	}
	n.numWriteBlocks = len(n.outputChain)
	n.sealed = true
}

// Sealed reports whether the network has been sealed.
func (n *Network) Sealed() bool { return n.sealed }

func (n *Network) owns(groups ...*Group) error {
	for _, g := range groups {
		if g == nil || g.net != n || g.id >= len(n.groups) || n.groups[g.id] != g {
			label := "<nil>"
			if g != nil {
				label = g.label
			}
			return fmt.Errorf("%w: %s", ErrForeignGroup, label)
		}
	}
	return nil
}

// Name is the network label.
func (n *Network) Name() string { return n.name }

// Type selects the on-core network dynamics.
func (n *Network) Type() NetType { return n.typ }

// TicksPerInterval is the number of ticks in each example interval.
func (n *Network) TicksPerInterval() int { return n.ticksPerInterval }

// GlobalMaxTicks is intervals times ticks per interval, plus one.
func (n *Network) GlobalMaxTicks() int { return n.globalMaxTicks }

// Timeout is passed through to the host runtime.
func (n *Network) Timeout() uint32 { return n.timeout }

// MaxBlockUnits is the largest block a weight core holds along each side.
func (n *Network) MaxBlockUnits() int { return n.maxBlockUnits }

// UpdateFunc is the weight update rule.
func (n *Network) UpdateFunc() UpdateFunc { return n.updateFunc }

// Training reports whether the network runs in train mode.
func (n *Network) Training() bool { return n.training }

// Epochs is the number of training epochs; 0 in test mode.
func (n *Network) Epochs() uint32 { return n.epochs }

// Examples is the number of examples per epoch.
func (n *Network) Examples() uint32 { return n.examples }

// ExampleSet returns the attached example set blobs.
func (n *Network) ExampleSet() ExampleSet { return n.exampleSet }

// NumWriteBlocks is the number of output groups, fixed by Seal.
func (n *Network) NumWriteBlocks() int { return n.numWriteBlocks }

// BiasGroup returns the automatically created bias group.
func (n *Network) BiasGroup() *Group { return n.bias }

// Groups returns every group in creation order.
func (n *Network) Groups() []*Group { return slices.Clone(n.groups) }

// Links returns every link in declaration order.
func (n *Network) Links() []*Link { return slices.Clone(n.links) }

// OutputChain returns the output groups in daisy-chain order.
func (n *Network) OutputChain() []*Group { return slices.Clone(n.outputChain) }

// LearningRate returns the network-level override, if set.
func (n *Network) LearningRate() (float64, bool) { return deref(n.learningRate) }

// WeightDecay returns the network-level override, if set.
func (n *Network) WeightDecay() (float64, bool) { return deref(n.weightDecay) }

// Momentum returns the network-level override, if set.
func (n *Network) Momentum() (float64, bool) { return deref(n.momentum) }

// GroupByLabel looks a group up by its label.
func (n *Network) GroupByLabel(label string) (*Group, bool) {
	for _, g := range n.groups {
		if g.label == label {
			return g, true
		}
	}
	return nil, false
}

// Partitions is the total number of blocks over all groups.
func (n *Network) Partitions() int {
	total := 0
	for _, g := range n.groups {
		total += g.partitions
	}
	return total
}

// IsLastOutput reports whether g closes the output chain.
func (n *Network) IsLastOutput(g *Group) bool {
	return len(n.outputChain) > 0 && n.outputChain[len(n.outputChain)-1] == g
}

// NextOutput returns the group after g in the output chain.
func (n *Network) NextOutput(g *Group) (*Group, bool) {
	i := slices.Index(n.outputChain, g)
	if i < 0 || i+1 >= len(n.outputChain) {
		return nil, false
	}
	return n.outputChain[i+1], true
}

// ConfigBlob packs the network configuration record:
//
//	u8 net_type | u8 training | pad(2) | u32 epochs | u32 examples |
//	u32 ticks_per_interval | u32 global_max_ticks | u32 write_blocks | u32 timeout
func (n *Network) ConfigBlob() []byte {
	return structpack.New().
		U8(uint8(n.typ)).
		Bool(n.training).
		Pad(2).
		U32(n.epochs).
		U32(n.examples).
		U32(uint32(n.ticksPerInterval)).
		U32(uint32(n.globalMaxTicks)).
		U32(uint32(n.numWriteBlocks)).
		U32(n.timeout).
		Expect(ConfigSize).
		MustFinish()
}
