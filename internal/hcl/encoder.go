package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/pdp2c/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Encoder writes a config.Model as a single canonical HCL document. Locals
// are not preserved: every value is written in its evaluated form, and zero
// or unset fields are omitted so that loading the output yields the same
// model.
type Encoder struct{}

// NewEncoder creates a new HCL encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

var _ config.Encoder = (*Encoder)(nil)

func (e *Encoder) Encode(m *config.Model) ([]byte, error) {
	if m == nil || m.Network == nil {
		return nil, fmt.Errorf("model has no network")
	}
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	writeNetwork(root, m.Network)
	for _, g := range m.Groups {
		root.AppendNewline()
		if err := writeGroup(root, g); err != nil {
			return nil, fmt.Errorf("group %q: %w", g.Name, err)
		}
	}
	for _, l := range m.Links {
		root.AppendNewline()
		b := root.AppendNewBlock("link", []string{l.From, l.To}).Body()
		setString(b, "label", l.Label)
		if l.Weights != nil {
			if err := setValue(b, "weights", l.Weights); err != nil {
				return nil, fmt.Errorf("link %q -> %q: %w", l.From, l.To, err)
			}
		}
	}
	for _, w := range m.Weights {
		root.AppendNewline()
		b := root.AppendNewBlock("weights", []string{w.From, w.To}).Body()
		values := w.Values
		if values == nil {
			values = []float64{}
		}
		if err := setValue(b, "values", values); err != nil {
			return nil, fmt.Errorf("weights %q -> %q: %w", w.From, w.To, err)
		}
	}
	return hclwrite.Format(f.Bytes()), nil
}

func writeNetwork(root *hclwrite.Body, n *config.Network) {
	b := root.AppendNewBlock("network", []string{n.Name}).Body()
	setString(b, "type", n.Type)
	setInt(b, "intervals", n.Intervals)
	setInt(b, "ticks_per_interval", n.TicksPerInterval)
	setInt(b, "timeout", n.Timeout)
	setInt(b, "max_block_units", n.MaxBlockUnits)
	setFloatPtr(b, "learning_rate", n.LearningRate)
	setFloatPtr(b, "weight_decay", n.WeightDecay)
	setFloatPtr(b, "momentum", n.Momentum)
	setString(b, "update_function", n.UpdateFunction)
	setString(b, "mode", n.Mode)
	setInt(b, "epochs", n.Epochs)
	setInt(b, "examples", n.Examples)

	if es := n.ExampleSet; es != nil {
		b.AppendNewline()
		eb := b.AppendNewBlock("example_set", nil).Body()
		setString(eb, "header", es.Header)
		setString(eb, "examples", es.Examples)
		setString(eb, "events", es.Events)
	}
}

func writeGroup(root *hclwrite.Body, g *config.Group) error {
	b := root.AppendNewBlock("group", []string{g.Name}).Body()
	setString(b, "type", g.Type)
	b.SetAttributeValue("units", cty.NumberIntVal(int64(g.Units)))
	setFloatPtr(b, "learning_rate", g.LearningRate)
	setFloatPtr(b, "weight_decay", g.WeightDecay)
	setFloatPtr(b, "momentum", g.Momentum)
	if len(g.InputFunctions) > 0 {
		if err := setValue(b, "input_funcs", g.InputFunctions); err != nil {
			return err
		}
	}
	setFloat(b, "in_integr_dt", g.InIntegrDt)
	setFloat(b, "soft_clamp_strength", g.SoftClampStrength)
	setFloat(b, "init_nets", g.InitNets)
	if len(g.OutputFunctions) > 0 {
		if err := setValue(b, "output_funcs", g.OutputFunctions); err != nil {
			return err
		}
	}
	setFloat(b, "out_integr_dt", g.OutIntegrDt)
	setFloat(b, "weak_clamp_strength", g.WeakClampStrength)
	setFloatPtr(b, "init_output", g.InitOutput)
	setString(b, "error_function", g.ErrorFunction)
	setString(b, "criterion_function", g.CriterionFunction)
	setFloat(b, "group_criterion", g.GroupCriterion)
	setString(b, "inputs_file", g.InputsFile)
	setString(b, "targets_file", g.TargetsFile)
	return nil
}

// setValue converts a Go slice with its implied cty type and writes it.
func setValue(b *hclwrite.Body, name string, v interface{}) error {
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", name, err)
	}
	val, err := gocty.ToCtyValue(v, ty)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", name, err)
	}
	b.SetAttributeValue(name, val)
	return nil
}

func setString(b *hclwrite.Body, name, v string) {
	if v != "" {
		b.SetAttributeValue(name, cty.StringVal(v))
	}
}

func setInt(b *hclwrite.Body, name string, v int) {
	if v != 0 {
		b.SetAttributeValue(name, cty.NumberIntVal(int64(v)))
	}
}

func setFloat(b *hclwrite.Body, name string, v float64) {
	if v != 0 {
		b.SetAttributeValue(name, cty.NumberFloatVal(v))
	}
}

func setFloatPtr(b *hclwrite.Body, name string, v *float64) {
	if v != nil {
		b.SetAttributeValue(name, cty.NumberFloatVal(*v))
	}
}
