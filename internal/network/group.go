// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file models a single group of units and the per-group parameters its
// input and threshold cores are configured with.
package network

import (
	"fmt"
	"slices"

	"github.com/vk/pdp2c/internal/partition"
)

// BiasLabel is the label of the group every network creates on construction.
const BiasLabel = "Bias"

// Default initial outputs.
const (
	DefaultInitOutput     = 0.5
	DefaultBiasInitOutput = 1.0 - 1.0/(1<<15)
)

// GroupConfig describes a group to add. Zero values select defaults; the
// hyper-parameter overrides and InitOutput are pointers so that an explicit
// zero can be told apart from "not set".
type GroupConfig struct {
	Label string
	Units int
	Type  GroupType

	LearningRate *float64
	WeightDecay  *float64
	Momentum     *float64

	InputProcs        []InputProc
	InIntegrDt        float64
	SoftClampStrength float64
	InitNets          float64

	OutputProcs       []OutputProc
	OutIntegrDt       float64
	WeakClampStrength float64
	InitOutput        *float64

	ErrorFunc      ErrorFunc
	Criterion      CriterionFunc
	GroupCriterion float64

	// Inputs and Targets are opaque per-group data blobs.
	Inputs  []byte
	Targets []byte
}

// Group is a layer of units. Groups are created through Network.AddGroup and
// are owned by exactly one network.
type Group struct {
	id    int
	label string
	units int
	typ   GroupType

	learningRate *float64
	weightDecay  *float64
	momentum     *float64

	inputProcs        []InputProc
	inIntegrDt        float64
	softClampStrength float64
	initNets          float64

	outputProcs       []OutputProc
	outIntegrDt       float64
	weakClampStrength float64
	initOutput        float64

	errorFunc      ErrorFunc
	criterion      CriterionFunc
	groupCriterion float64

	inputs  []byte
	targets []byte

	writeBlock    int
	isFirstOutput bool
	partitions    int

	// weights maps a source group id to a column-major matrix of
	// source.units x units values. Absent or empty means no trainable
	// connection from that source.
	weights map[int][]float64

	net *Network
}

func newGroup(n *Network, id int, cfg GroupConfig) (*Group, error) {
	if cfg.Units <= 0 {
		return nil, fmt.Errorf("%w: group %q has %d units", ErrInvalidUnits, cfg.Label, cfg.Units)
	}
	if len(cfg.InputProcs) > MaxInputProcs {
		return nil, fmt.Errorf("%w: group %q lists %d input functions, at most %d allowed", ErrTooManyProcs, cfg.Label, len(cfg.InputProcs), MaxInputProcs)
	}
	if len(cfg.OutputProcs) > MaxOutputProcs {
		return nil, fmt.Errorf("%w: group %q lists %d output functions, at most %d allowed", ErrTooManyProcs, cfg.Label, len(cfg.OutputProcs), MaxOutputProcs)
	}

	g := &Group{
		id:                id,
		label:             cfg.Label,
		units:             cfg.Units,
		typ:               cfg.Type,
		learningRate:      cfg.LearningRate,
		weightDecay:       cfg.WeightDecay,
		momentum:          cfg.Momentum,
		inputProcs:        slices.Clone(cfg.InputProcs),
		inIntegrDt:        cfg.InIntegrDt,
		softClampStrength: cfg.SoftClampStrength,
		initNets:          cfg.InitNets,
		outputProcs:       slices.Clone(cfg.OutputProcs),
		outIntegrDt:       cfg.OutIntegrDt,
		weakClampStrength: cfg.WeakClampStrength,
		errorFunc:         cfg.ErrorFunc,
		criterion:         cfg.Criterion,
		groupCriterion:    cfg.GroupCriterion,
		inputs:            slices.Clone(cfg.Inputs),
		targets:           slices.Clone(cfg.Targets),
		partitions:        partition.Count(cfg.Units, n.maxBlockUnits),
		weights:           make(map[int][]float64),
		net:               n,
	}
	if g.label == "" {
		g.label = fmt.Sprintf("group%d", id)
	}

	if len(g.outputProcs) == 0 {
		switch g.typ {
		case Bias:
			g.outputProcs = []OutputProc{OutBias}
		case Input:
			g.outputProcs = []OutputProc{OutHardClamp}
		default:
			g.outputProcs = []OutputProc{OutLogistic}
		}
	}

	switch {
	case cfg.InitOutput != nil:
		g.initOutput = *cfg.InitOutput
	case g.typ == Bias:
		g.initOutput = DefaultBiasInitOutput
	default:
		g.initOutput = DefaultInitOutput
	}
	return g, nil
}

// ID is the group's creation index.
func (g *Group) ID() int { return g.id }

// Label is the group's human-readable name.
func (g *Group) Label() string { return g.label }

// Units is the number of units in the group.
func (g *Group) Units() int { return g.units }

// Type is the group's role.
func (g *Group) Type() GroupType { return g.typ }

// Partitions is the number of blocks the group's units split into.
func (g *Group) Partitions() int { return g.partitions }

// WriteBlock is the group's index in the output chain (0 for non-output groups).
func (g *Group) WriteBlock() int { return g.writeBlock }

// IsFirstOutput reports whether the group opened the output chain.
func (g *Group) IsFirstOutput() bool { return g.isFirstOutput }

// IsOutput reports whether the group is part of the output chain.
func (g *Group) IsOutput() bool { return g.typ == Output }

// LearningRate, WeightDecay and Momentum return the group's override, if any.
func (g *Group) LearningRate() (float64, bool) { return deref(g.learningRate) }
func (g *Group) WeightDecay() (float64, bool)  { return deref(g.weightDecay) }
func (g *Group) Momentum() (float64, bool)     { return deref(g.momentum) }

func (g *Group) InputProcs() []InputProc    { return slices.Clone(g.inputProcs) }
func (g *Group) OutputProcs() []OutputProc  { return slices.Clone(g.outputProcs) }
func (g *Group) InIntegrDt() float64        { return g.inIntegrDt }
func (g *Group) SoftClampStrength() float64 { return g.softClampStrength }
func (g *Group) InitNets() float64          { return g.initNets }
func (g *Group) OutIntegrDt() float64       { return g.outIntegrDt }
func (g *Group) WeakClampStrength() float64 { return g.weakClampStrength }
func (g *Group) InitOutput() float64        { return g.initOutput }
func (g *Group) ErrorFunc() ErrorFunc       { return g.errorFunc }
func (g *Group) Criterion() CriterionFunc   { return g.criterion }
func (g *Group) GroupCriterion() float64    { return g.groupCriterion }
func (g *Group) Inputs() []byte             { return g.inputs }
func (g *Group) Targets() []byte            { return g.targets }

// InIntegrEnabled reports whether the input integrator is in the pipeline.
func (g *Group) InIntegrEnabled() bool { return slices.Contains(g.inputProcs, InIntegrator) }

// OutIntegrEnabled reports whether the output integrator is in the pipeline.
func (g *Group) OutIntegrEnabled() bool { return slices.Contains(g.outputProcs, OutIntegrator) }

// Weights returns the column-major matrix from source into g, or nil when
// no trainable weights were set.
func (g *Group) Weights(source *Group) []float64 {
	return g.weights[source.id]
}

func (g *Group) String() string {
	return fmt.Sprintf("%s(%d, %s, %d units)", g.label, g.id, g.typ, g.units)
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
