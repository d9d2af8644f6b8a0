package vertex

import (
	"context"

	"github.com/vk/pdp2c/internal/fixedpoint"
	"github.com/vk/pdp2c/internal/network"
	"github.com/vk/pdp2c/internal/structpack"
	"github.com/vk/pdp2c/internal/vertexid"
)

// ThresholdBinary is the executable loaded onto threshold cores.
const ThresholdBinary = "threshold.aplx"

// ThresholdConfigSize is the length of a threshold core's configuration record.
const ThresholdConfigSize = 48

// Threshold computes a group's outputs and, for output groups, its errors
// and stop decision.
type Threshold struct {
	base
	fwdSyncExpect int
	bkpSyncExpect int
	lastOutput    bool
}

var _ Vertex = (*Threshold)(nil)

// Layout:
//
//	u8 output_grp | u8 input_grp | u8 write_out | u8 write_blk |
//	u32 num_units | u32 partitions | u32 fwd_sync_expect | u32 bkp_sync_expect |
//	u8 num_out_procs | u8 procs[5] | u8 criterion | u8 error_fn |
//	u8 is_first_out | u8 is_last_out | u8 out_integr_en | pad(1) |
//	i32 out_integr_dt | i32 weak_clamp_strength | i32 group_criterion |
//	i16 init_output | pad(2)
func newThreshold(ctx context.Context, net *network.Network, g *network.Group) *Threshold {
	kinds := []vertexid.Kind{vertexid.Forward, vertexid.Backprop}
	if g.IsOutput() {
		kinds = append(kinds, vertexid.Stop)
	}
	t := &Threshold{
		base: newBase(vertexid.GroupID(vertexid.Threshold, g.ID()), ThresholdBinary, net, g, kinds...),
		// One sync message from every weight core the group feeds.
		fwdSyncExpect: g.Partitions() * net.Partitions(),
		bkpSyncExpect: 1,
		lastOutput:    net.IsLastOutput(g),
	}
	label := t.Label()

	procs := g.OutputProcs()
	p := structpack.New().
		Bool(g.IsOutput()).
		Bool(g.Type() == network.Input).
		Bool(g.IsOutput()).
		U8(uint8(g.WriteBlock())).
		U32(uint32(g.Units())).
		U32(uint32(g.Partitions())).
		U32(uint32(t.fwdSyncExpect)).
		U32(uint32(t.bkpSyncExpect)).
		U8(uint8(len(procs)))
	for i := 0; i < network.MaxOutputProcs; i++ {
		if i < len(procs) {
			p.U8(uint8(procs[i]))
		} else {
			p.U8(0)
		}
	}
	t.config = p.
		U8(uint8(g.Criterion())).
		U8(uint8(g.ErrorFunc())).
		Bool(g.IsFirstOutput()).
		Bool(t.lastOutput).
		Bool(g.OutIntegrEnabled()).
		Pad(1).
		I32(encodeParam(ctx, fixedpoint.Fpreal, label, "out_integr_dt", g.OutIntegrDt())).
		I32(encodeParam(ctx, fixedpoint.Fpreal, label, "weak_clamp_strength", g.WeakClampStrength())).
		I32(encodeParam(ctx, fixedpoint.Fpreal, label, "group_criterion", g.GroupCriterion())).
		I16(int16(encodeParam(ctx, fixedpoint.Activation, label, "init_output", g.InitOutput()))).
		Pad(2).
		Expect(ThresholdConfigSize).
		MustFinish()
	return t
}

// IsLastOutput reports whether this threshold closes the output chain and
// therefore broadcasts the stop decision.
func (t *Threshold) IsLastOutput() bool { return t.lastOutput }

// SyncExpects returns the forward and backprop sync expect counts.
func (t *Threshold) SyncExpects() (fwd, bkp int) { return t.fwdSyncExpect, t.bkpSyncExpect }

func (t *Threshold) regions() []region {
	ex := t.net.ExampleSet()
	rs := t.commonRegions()
	if inputs := t.group.Inputs(); len(inputs) > 0 {
		rs = append(rs, fixed(InputsRegion, inputs))
	}
	if targets := t.group.Targets(); len(targets) > 0 {
		rs = append(rs, fixed(TargetsRegion, targets))
	}
	return append(rs,
		fixed(ExampleSetRegion, ex.Header),
		fixed(ExamplesRegion, ex.Examples),
		fixed(EventsRegion, ex.Events),
	)
}

// Regions lists the threshold core's regions.
func (t *Threshold) Regions() []RegionInfo { return regionInfos(t.regions()) }

// Footprint is the total size of the regions.
func (t *Threshold) Footprint() int { return footprint(t.regions()) }

// Generate emits every region.
func (t *Threshold) Generate(ctx context.Context, keys KeyResolver, emit ConfigEmitter) error {
	return generate(ctx, t, &t.base, t.regions(), keys, emit)
}
