package vertex

import (
	"context"

	"github.com/vk/pdp2c/internal/fixedpoint"
	"github.com/vk/pdp2c/internal/network"
	"github.com/vk/pdp2c/internal/structpack"
	"github.com/vk/pdp2c/internal/vertexid"
)

// InputBinary is the executable loaded onto input cores.
const InputBinary = "input.aplx"

// InputConfigSize is the length of an input core's configuration record.
const InputConfigSize = 32

// Input runs a group's net pipeline between its sum and threshold cores.
type Input struct {
	base
}

var _ Vertex = (*Input)(nil)

// Layout:
//
//	u8 output_grp | u8 input_grp | u8 num_in_procs | u8 in_integr_en |
//	u32 num_units | u32 partitions | u8 procs[2] | pad(2) |
//	i32 in_integr_dt | i32 soft_clamp_strength | i32 init_nets |
//	i16 init_output | pad(2)
func newInput(ctx context.Context, net *network.Network, g *network.Group) *Input {
	in := &Input{
		base: newBase(vertexid.GroupID(vertexid.Input, g.ID()), InputBinary, net, g,
			vertexid.Forward, vertexid.Backprop),
	}
	label := in.Label()

	procs := g.InputProcs()
	p := structpack.New().
		Bool(g.IsOutput()).
		Bool(g.Type() == network.Input).
		U8(uint8(len(procs))).
		Bool(g.InIntegrEnabled()).
		U32(uint32(g.Units())).
		U32(uint32(g.Partitions()))
	for i := 0; i < network.MaxInputProcs; i++ {
		if i < len(procs) {
			p.U8(uint8(procs[i]))
		} else {
			p.U8(0)
		}
	}
	in.config = p.Pad(2).
		I32(encodeParam(ctx, fixedpoint.Fpreal, label, "in_integr_dt", g.InIntegrDt())).
		I32(encodeParam(ctx, fixedpoint.Fpreal, label, "soft_clamp_strength", g.SoftClampStrength())).
		I32(encodeParam(ctx, fixedpoint.Fpreal, label, "init_nets", g.InitNets())).
		I16(int16(encodeParam(ctx, fixedpoint.Activation, label, "init_output", g.InitOutput()))).
		Pad(2).
		Expect(InputConfigSize).
		MustFinish()
	return in
}

func (in *Input) regions() []region {
	rs := in.commonRegions()
	if inputs := in.group.Inputs(); len(inputs) > 0 {
		rs = append(rs, fixed(InputsRegion, inputs))
	}
	return append(rs, fixed(ExamplesRegion, in.net.ExampleSet().Examples))
}

// Regions lists the input core's regions. The inputs region is present only
// when the group carries input data.
func (in *Input) Regions() []RegionInfo { return regionInfos(in.regions()) }

// Footprint is the total size of the regions.
func (in *Input) Footprint() int { return footprint(in.regions()) }

// Generate emits every region.
func (in *Input) Generate(ctx context.Context, keys KeyResolver, emit ConfigEmitter) error {
	return generate(ctx, in, &in.base, in.regions(), keys, emit)
}
