package hcl

import (
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// functions are the functions available in description expressions.
func functions() map[string]function.Function {
	return map[string]function.Function{
		"abs":     stdlib.AbsoluteFunc,
		"ceil":    stdlib.CeilFunc,
		"concat":  stdlib.ConcatFunc,
		"flatten": stdlib.FlattenFunc,
		"floor":   stdlib.FloorFunc,
		"length":  stdlib.LengthFunc,
		"max":     stdlib.MaxFunc,
		"min":     stdlib.MinFunc,
		"range":   stdlib.RangeFunc,
		"reverse": stdlib.ReverseListFunc,
	}
}
