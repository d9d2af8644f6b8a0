package config

// Model is the unified, format-agnostic representation of a network
// description.
type Model struct {
	Network *Network
	// Groups, Links and Weights keep declaration order across files.
	Groups  []*Group
	Links   []*Link
	Weights []*Weights
}

// Network holds the global parameters of the `network` block.
type Network struct {
	Name             string
	Type             string
	Intervals        int
	TicksPerInterval int
	Timeout          int
	MaxBlockUnits    int

	LearningRate   *float64
	WeightDecay    *float64
	Momentum       *float64
	UpdateFunction string

	// Mode is "train" or "test".
	Mode     string
	Epochs   int
	Examples int

	ExampleSet *ExampleSet
}

// ExampleSet holds resolved paths of the opaque example data files. Empty
// paths mean "no data".
type ExampleSet struct {
	Header   string
	Examples string
	Events   string
}

// Group is the format-agnostic representation of a `group` block.
type Group struct {
	Name  string
	Type  string
	Units int

	LearningRate *float64
	WeightDecay  *float64
	Momentum     *float64

	InputFunctions    []string
	InIntegrDt        float64
	SoftClampStrength float64
	InitNets          float64

	OutputFunctions   []string
	OutIntegrDt       float64
	WeakClampStrength float64
	InitOutput        *float64

	ErrorFunction     string
	CriterionFunction string
	GroupCriterion    float64

	// InputsFile and TargetsFile are resolved paths of opaque data files.
	InputsFile  string
	TargetsFile string
}

// Link is the format-agnostic representation of a `link` block. Weights, if
// set, is the column-major matrix from From into To.
type Link struct {
	From    string
	To      string
	Label   string
	Weights []float64
}

// Weights is a `weights` block: a matrix set without declaring a link.
type Weights struct {
	From   string
	To     string
	Values []float64
}
