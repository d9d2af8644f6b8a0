package hcl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// localDef is a single attribute of a `locals` block.
type localDef struct {
	name string
	expr hcl.Expression
	rng  hcl.Range
}

// TraversalKey generates a stable, canonical string representation for an
// hcl.Traversal, suitable for use as a map key and in error messages.
func TraversalKey(t hcl.Traversal) string {
	// e.g., local.sizes[0]
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// splitLocals separates the `locals` blocks from the rest of a file body.
func splitLocals(body hcl.Body) ([]*localDef, hcl.Body, hcl.Diagnostics) {
	content, remain, diags := body.PartialContent(rootSchema)
	if diags.HasErrors() {
		return nil, nil, diags
	}

	var defs []*localDef
	for _, block := range content.Blocks {
		attrs, attrDiags := block.Body.JustAttributes()
		diags = append(diags, attrDiags...)
		if attrDiags.HasErrors() {
			continue
		}
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			attr := attrs[name]
			defs = append(defs, &localDef{name: name, expr: attr.Expr, rng: attr.NameRange})
		}
	}
	return defs, remain, diags
}

// evalLocals resolves every local in dependency order. Locals may reference
// each other in any order and across files; cycles and references to
// undefined locals are errors.
func evalLocals(defs []*localDef) (map[string]cty.Value, error) {
	byName := make(map[string]*localDef, len(defs))
	for _, d := range defs {
		if prev, exists := byName[d.name]; exists {
			return nil, fmt.Errorf("duplicate local %q at %s, first defined at %s", d.name, d.rng, prev.rng)
		}
		byName[d.name] = d
	}

	deps := make(map[string][]string, len(defs))
	for _, d := range defs {
		if err := checkFunctions(d.expr); err != nil {
			return nil, fmt.Errorf("local %q: %w", d.name, err)
		}
		refs, err := localRefs(d.expr)
		if err != nil {
			return nil, fmt.Errorf("local %q: %w", d.name, err)
		}
		for _, ref := range refs {
			if _, ok := byName[ref]; !ok {
				return nil, fmt.Errorf("local %q references undefined local %q", d.name, ref)
			}
		}
		deps[d.name] = refs
	}

	pending := make([]string, 0, len(defs))
	for name := range byName {
		pending = append(pending, name)
	}
	sort.Strings(pending)

	values := make(map[string]cty.Value, len(defs))
	for len(pending) > 0 {
		var next []string
		for _, name := range pending {
			if !resolved(deps[name], values) {
				next = append(next, name)
				continue
			}
			val, diags := byName[name].expr.Value(newEvalContext(values))
			if diags.HasErrors() {
				return nil, fmt.Errorf("failed to evaluate local %q: %w", name, diags)
			}
			values[name] = val
		}
		if len(next) == len(pending) {
			return nil, fmt.Errorf("dependency cycle between locals: %s", strings.Join(next, ", "))
		}
		pending = next
	}
	return values, nil
}

func resolved(names []string, values map[string]cty.Value) bool {
	for _, n := range names {
		if _, ok := values[n]; !ok {
			return false
		}
	}
	return true
}

// localRefs returns the sorted, unique local names an expression reads.
func localRefs(expr hcl.Expression) ([]string, error) {
	seen := make(map[string]struct{})
	for _, tr := range expr.Variables() {
		if tr.RootName() != "local" {
			return nil, fmt.Errorf("unsupported reference %q, only local.* is available", TraversalKey(tr))
		}
		if len(tr) < 2 {
			return nil, fmt.Errorf("reference %q must name a local", TraversalKey(tr))
		}
		attr, ok := tr[1].(hcl.TraverseAttr)
		if !ok {
			return nil, fmt.Errorf("reference %q must name a local", TraversalKey(tr))
		}
		seen[attr.Name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// checkFunctions reports every call to a function the description language
// does not provide, not only the first one evaluation would hit.
func checkFunctions(expr hcl.Expression) error {
	syntaxExpr, ok := expr.(hclsyntax.Expression)
	if !ok {
		return nil
	}
	called := make(map[string]struct{})
	walkForFunctions(syntaxExpr, called)

	known := functions()
	var unknown []string
	for name := range called {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("call to unknown function(s): %s", strings.Join(unknown, ", "))
}

// walkForFunctions recursively walks the AST, looking only for function calls.
func walkForFunctions(expr hclsyntax.Expression, functions map[string]struct{}) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		functions[e.Name] = struct{}{}
		for _, arg := range e.Args {
			walkForFunctions(arg, functions)
		}
	case *hclsyntax.BinaryOpExpr:
		walkForFunctions(e.LHS, functions)
		walkForFunctions(e.RHS, functions)
	case *hclsyntax.ConditionalExpr:
		walkForFunctions(e.Condition, functions)
		walkForFunctions(e.TrueResult, functions)
		walkForFunctions(e.FalseResult, functions)
	case *hclsyntax.UnaryOpExpr:
		walkForFunctions(e.Val, functions)
	case *hclsyntax.TemplateExpr:
		for _, part := range e.Parts {
			walkForFunctions(part, functions)
		}
	case *hclsyntax.TemplateWrapExpr:
		walkForFunctions(e.Wrapped, functions)
	case *hclsyntax.TupleConsExpr:
		for _, item := range e.Exprs {
			walkForFunctions(item, functions)
		}
	case *hclsyntax.ObjectConsExpr:
		for _, item := range e.Items {
			walkForFunctions(item.KeyExpr, functions)
			walkForFunctions(item.ValueExpr, functions)
		}
	case *hclsyntax.ForExpr:
		walkForFunctions(e.CollExpr, functions)
		walkForFunctions(e.KeyExpr, functions)
		walkForFunctions(e.ValExpr, functions)
		walkForFunctions(e.CondExpr, functions)
	case *hclsyntax.IndexExpr:
		walkForFunctions(e.Collection, functions)
		walkForFunctions(e.Key, functions)
	case *hclsyntax.SplatExpr:
		walkForFunctions(e.Source, functions)
		walkForFunctions(e.Each, functions)
	case *hclsyntax.ParenthesesExpr:
		walkForFunctions(e.Expression, functions)
	}
}

// newEvalContext exposes the resolved locals and the function table.
func newEvalContext(locals map[string]cty.Value) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"local": cty.ObjectVal(locals)},
		Functions: functions(),
	}
}
