package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/pdp2c/internal/config"
	"github.com/vk/pdp2c/internal/ctxlog"
	"github.com/vk/pdp2c/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL description loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

type parsedFile struct {
	path string
	body hcl.Body
}

// Load reads every .hcl file under paths in lexical order. All `locals` are
// evaluated first so any file may use a local declared in another; then
// every other block is decoded and appended to the model in file order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	var files []parsedFile
	var defs []*localDef
	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		fileDefs, remain, diags := splitLocals(hclFile.Body)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to read locals in %s: %w", file, diags)
		}
		defs = append(defs, fileDefs...)
		files = append(files, parsedFile{path: file, body: remain})
	}

	locals, err := evalLocals(defs)
	if err != nil {
		return nil, err
	}
	logger.Debug("Evaluated locals.", "count", len(locals))
	evalCtx := newEvalContext(locals)

	model := &config.Model{}
	for _, f := range files {
		var root fileRoot
		if diags := gohcl.DecodeBody(f.body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", f.path, diags)
		}
		dir := filepath.Dir(f.path)

		for _, nb := range root.Networks {
			if model.Network != nil {
				return nil, fmt.Errorf("duplicate network block %q in %s, network %q already declared", nb.Name, f.path, model.Network.Name)
			}
			model.Network = translateNetwork(nb, dir)
		}
		for _, gb := range root.Groups {
			model.Groups = append(model.Groups, translateGroup(gb, dir))
		}
		for _, lb := range root.Links {
			link, err := translateLink(ctx, lb, evalCtx)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", f.path, err)
			}
			model.Links = append(model.Links, link)
		}
		for _, wb := range root.Weights {
			values, err := decodeMatrix(wb.Values, evalCtx)
			if err != nil {
				return nil, fmt.Errorf("in %s: weights %q -> %q: %w", f.path, wb.From, wb.To, err)
			}
			model.Weights = append(model.Weights, &config.Weights{From: wb.From, To: wb.To, Values: values})
		}
	}

	if model.Network == nil {
		return nil, fmt.Errorf("no network block found in %v", paths)
	}

	logger.Debug("HCL loader finished.",
		"network", model.Network.Name,
		"groups", len(model.Groups),
		"links", len(model.Links),
		"weights", len(model.Weights),
	)
	return model, nil
}

// findAllHCLFiles expands directories, drops duplicates and sorts the result
// so that declaration order does not depend on the order of the arguments.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		found := []string{path}
		if info.IsDir() {
			found, err = fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, fmt.Errorf("error walking directory %s: %w", path, err)
			}
		}
		for _, f := range found {
			abs, err := filepath.Abs(f)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[abs]; dup {
				continue
			}
			seen[abs] = struct{}{}
			files = append(files, abs)
		}
	}
	sort.Strings(files)
	return files, nil
}

func translateNetwork(nb *networkBlock, dir string) *config.Network {
	n := &config.Network{
		Name:             nb.Name,
		Type:             nb.Type,
		Intervals:        nb.Intervals,
		TicksPerInterval: nb.TicksPerInterval,
		Timeout:          nb.Timeout,
		MaxBlockUnits:    nb.MaxBlockUnits,
		LearningRate:     nb.LearningRate,
		WeightDecay:      nb.WeightDecay,
		Momentum:         nb.Momentum,
		UpdateFunction:   nb.UpdateFunction,
		Mode:             nb.Mode,
		Epochs:           nb.Epochs,
		Examples:         nb.Examples,
	}
	if es := nb.ExampleSet; es != nil {
		n.ExampleSet = &config.ExampleSet{
			Header:   resolvePath(dir, es.Header),
			Examples: resolvePath(dir, es.Examples),
			Events:   resolvePath(dir, es.Events),
		}
	}
	return n
}

func translateGroup(gb *groupBlock, dir string) *config.Group {
	return &config.Group{
		Name:              gb.Name,
		Type:              gb.Type,
		Units:             gb.Units,
		LearningRate:      gb.LearningRate,
		WeightDecay:       gb.WeightDecay,
		Momentum:          gb.Momentum,
		InputFunctions:    gb.InputFunctions,
		InIntegrDt:        gb.InIntegrDt,
		SoftClampStrength: gb.SoftClampStrength,
		InitNets:          gb.InitNets,
		OutputFunctions:   gb.OutputFunctions,
		OutIntegrDt:       gb.OutIntegrDt,
		WeakClampStrength: gb.WeakClampStrength,
		InitOutput:        gb.InitOutput,
		ErrorFunction:     gb.ErrorFunction,
		CriterionFunction: gb.CriterionFunction,
		GroupCriterion:    gb.GroupCriterion,
		InputsFile:        resolvePath(dir, gb.InputsFile),
		TargetsFile:       resolvePath(dir, gb.TargetsFile),
	}
}

func translateLink(ctx context.Context, lb *linkBlock, evalCtx *hcl.EvalContext) (*config.Link, error) {
	link := &config.Link{From: lb.From, To: lb.To, Label: lb.Label}
	if !isExprDefined(ctx, lb.Weights, "weights") {
		return link, nil
	}
	values, err := decodeMatrix(lb.Weights, evalCtx)
	if err != nil {
		return nil, fmt.Errorf("link %q -> %q: weights: %w", lb.From, lb.To, err)
	}
	link.Weights = values
	return link, nil
}

// resolvePath makes a data file path relative to the directory of the
// description file that names it.
func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
