package hcl

import "github.com/hashicorp/hcl/v2"

// rootSchema selects the blocks that must be handled before the rest of a
// file can be decoded.
var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{{Type: "locals"}},
}

// fileRoot is decoded from what remains of a file once `locals` is removed.
type fileRoot struct {
	Networks []*networkBlock `hcl:"network,block"`
	Groups   []*groupBlock   `hcl:"group,block"`
	Links    []*linkBlock    `hcl:"link,block"`
	Weights  []*weightsBlock `hcl:"weights,block"`
}

type networkBlock struct {
	Name             string           `hcl:"name,label"`
	Type             string           `hcl:"type,optional"`
	Intervals        int              `hcl:"intervals,optional"`
	TicksPerInterval int              `hcl:"ticks_per_interval,optional"`
	Timeout          int              `hcl:"timeout,optional"`
	MaxBlockUnits    int              `hcl:"max_block_units,optional"`
	LearningRate     *float64         `hcl:"learning_rate,optional"`
	WeightDecay      *float64         `hcl:"weight_decay,optional"`
	Momentum         *float64         `hcl:"momentum,optional"`
	UpdateFunction   string           `hcl:"update_function,optional"`
	Mode             string           `hcl:"mode,optional"`
	Epochs           int              `hcl:"epochs,optional"`
	Examples         int              `hcl:"examples,optional"`
	ExampleSet       *exampleSetBlock `hcl:"example_set,block"`
}

type exampleSetBlock struct {
	Header   string `hcl:"header,optional"`
	Examples string `hcl:"examples,optional"`
	Events   string `hcl:"events,optional"`
}

type groupBlock struct {
	Name  string `hcl:"name,label"`
	Type  string `hcl:"type"`
	Units int    `hcl:"units"`

	LearningRate *float64 `hcl:"learning_rate,optional"`
	WeightDecay  *float64 `hcl:"weight_decay,optional"`
	Momentum     *float64 `hcl:"momentum,optional"`

	InputFunctions    []string `hcl:"input_funcs,optional"`
	InIntegrDt        float64  `hcl:"in_integr_dt,optional"`
	SoftClampStrength float64  `hcl:"soft_clamp_strength,optional"`
	InitNets          float64  `hcl:"init_nets,optional"`

	OutputFunctions   []string `hcl:"output_funcs,optional"`
	OutIntegrDt       float64  `hcl:"out_integr_dt,optional"`
	WeakClampStrength float64  `hcl:"weak_clamp_strength,optional"`
	InitOutput        *float64 `hcl:"init_output,optional"`

	ErrorFunction     string  `hcl:"error_function,optional"`
	CriterionFunction string  `hcl:"criterion_function,optional"`
	GroupCriterion    float64 `hcl:"group_criterion,optional"`

	InputsFile  string `hcl:"inputs_file,optional"`
	TargetsFile string `hcl:"targets_file,optional"`
}

type linkBlock struct {
	From    string         `hcl:"from,label"`
	To      string         `hcl:"to,label"`
	Label   string         `hcl:"label,optional"`
	Weights hcl.Expression `hcl:"weights,optional"`
}

type weightsBlock struct {
	From   string         `hcl:"from,label"`
	To     string         `hcl:"to,label"`
	Values hcl.Expression `hcl:"values"`
}
