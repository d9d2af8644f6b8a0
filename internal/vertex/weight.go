package vertex

import (
	"context"

	"github.com/vk/pdp2c/internal/ctxlog"
	"github.com/vk/pdp2c/internal/fixedpoint"
	"github.com/vk/pdp2c/internal/network"
	"github.com/vk/pdp2c/internal/partition"
	"github.com/vk/pdp2c/internal/structpack"
	"github.com/vk/pdp2c/internal/vertexid"
)

// WeightBinary is the executable loaded onto weight cores.
const WeightBinary = "weight.aplx"

// WeightConfigSize is the length of a weight core's configuration record.
const WeightConfigSize = 24

// Weight holds one block of the matrix from From into Group.
type Weight struct {
	base
	from   *network.Group
	rows   int
	cols   int
	rowBlk int
	colBlk int

	learningRate float64
	weightDecay  float64
	momentum     float64
}

var _ Vertex = (*Weight)(nil)

func newWeight(ctx context.Context, net *network.Network, g, from *network.Group, rowBlk, colBlk int) *Weight {
	w := &Weight{
		base: newBase(vertexid.WeightID(g.ID(), from.ID(), rowBlk, colBlk), WeightBinary, net, g,
			vertexid.Forward, vertexid.Backprop, vertexid.ForwardSync, vertexid.DeltaSum),
		from:   from,
		rows:   partition.BlockSize(from.Units(), net.MaxBlockUnits(), rowBlk),
		cols:   partition.BlockSize(g.Units(), net.MaxBlockUnits(), colBlk),
		rowBlk: rowBlk,
		colBlk: colBlk,
	}

	// Cores with no trainable weights must not learn.
	if len(g.Weights(from)) > 0 {
		w.learningRate = resolve(g.LearningRate, net.LearningRate, network.DefaultLearningRate)
		w.weightDecay = resolve(g.WeightDecay, net.WeightDecay, network.DefaultWeightDecay)
		w.momentum = resolve(g.Momentum, net.Momentum, network.DefaultMomentum)
	}

	w.config = structpack.New().
		U32(uint32(w.rows)).
		U32(uint32(w.cols)).
		U32(uint32(w.rowBlk)).
		U32(uint32(w.colBlk)).
		U16(encodeHyper(ctx, w.Label(), "learning_rate", w.learningRate)).
		U16(encodeHyper(ctx, w.Label(), "weight_decay", w.weightDecay)).
		U16(encodeHyper(ctx, w.Label(), "momentum", w.momentum)).
		U8(uint8(net.UpdateFunc())).
		Pad(1).
		Expect(WeightConfigSize).
		MustFinish()
	return w
}

// resolve walks the override chain: group, then network, then default.
func resolve(group, net func() (float64, bool), def float64) float64 {
	if v, ok := group(); ok {
		return v
	}
	if v, ok := net(); ok {
		return v
	}
	return def
}

// From is the source group of the matrix block.
func (w *Weight) From() *network.Group { return w.from }

// Rows and Cols are the block's shape.
func (w *Weight) Rows() int { return w.rows }
func (w *Weight) Cols() int { return w.cols }

// RowBlock and ColBlock are the block's position.
func (w *Weight) RowBlock() int { return w.rowBlk }
func (w *Weight) ColBlock() int { return w.colBlk }

// HyperParams returns the resolved learning rate, weight decay and momentum.
func (w *Weight) HyperParams() (learningRate, weightDecay, momentum float64) {
	return w.learningRate, w.weightDecay, w.momentum
}

// WeightsPayload returns the block's matrix as row-major s15.16 values.
// Values outside the representable range are saturated and logged.
func (w *Weight) WeightsPayload(ctx context.Context) ([]byte, error) {
	logger := ctxlog.FromContext(ctx)
	values := w.group.Weights(w.from)
	p := structpack.New()

	if len(values) == 0 {
		return p.Pad(w.rows * w.cols * 4).Finish()
	}

	srcUnits := w.from.Units()
	rb := w.rowBlk * w.net.MaxBlockUnits()
	cb := w.colBlk * w.net.MaxBlockUnits()
	for r := 0; r < w.rows; r++ {
		for c := 0; c < w.cols; c++ {
			v := values[(cb+c)*srcUnits+(rb+r)]
			q, saturated := fixedpoint.Weight.Encode(v)
			if saturated {
				logger.Warn("Weight out of fixed-point range, saturated.",
					"vertex", w.Label(),
					"row", rb+r,
					"col", cb+c,
					"value", v,
					"encoded", fixedpoint.Weight.Decode(q),
				)
			}
			p.I32(q)
		}
	}
	return p.Finish()
}

func (w *Weight) regions() []region {
	ex := w.net.ExampleSet()
	return append(w.commonRegions(),
		fixed(ExamplesRegion, ex.Examples),
		region{id: WeightsRegion, size: w.rows * w.cols * 4, data: w.WeightsPayload},
	)
}

// Regions lists the weight core's regions: network, core, examples,
// weights and routing.
func (w *Weight) Regions() []RegionInfo { return regionInfos(w.regions()) }

// Footprint is the total size of the regions, the block's matrix included.
func (w *Weight) Footprint() int { return footprint(w.regions()) }

// Generate emits every region, building the weights payload on the way.
func (w *Weight) Generate(ctx context.Context, keys KeyResolver, emit ConfigEmitter) error {
	return generate(ctx, w, &w.base, w.regions(), keys, emit)
}
