package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/pdp2c/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// isExprDefined checks if an HCL expression was actually present in the
// source. The decoder populates omitted optional expression fields with a
// zero-width placeholder, so a nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// decodeMatrix evaluates a weight matrix expression. A flat list is taken as
// column-major already; a list of lists holds one inner list per destination
// unit and is flattened in order.
func decodeMatrix(expr hcl.Expression, evalCtx *hcl.EvalContext) ([]float64, error) {
	if err := checkFunctions(expr); err != nil {
		return nil, err
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	return flattenNumbers(val)
}

func flattenNumbers(val cty.Value) ([]float64, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("weight values must be known at load time")
	}
	ty := val.Type()
	if !ty.IsListType() && !ty.IsTupleType() {
		return nil, fmt.Errorf("expected a list of numbers, got %s", ty.FriendlyName())
	}

	var out []float64
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if et := elem.Type(); et.IsListType() || et.IsTupleType() {
			inner, err := flattenNumbers(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
			continue
		}
		f, err := toFloat(elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", len(out), err)
		}
		out = append(out, f)
	}
	return out, nil
}

func toFloat(v cty.Value) (float64, error) {
	if v.IsNull() {
		return 0, fmt.Errorf("null is not a number")
	}
	n, err := convert.Convert(v, cty.Number)
	if err != nil {
		return 0, err
	}
	var f float64
	if err := gocty.FromCtyValue(n, &f); err != nil {
		return 0, err
	}
	return f, nil
}
