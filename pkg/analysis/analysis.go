// Package analysis orchestrates the full pipeline: scan, parse, build CFGs,
// recover IR, assemble the call graph and module graph. Files are processed
// by a bounded worker pool; the failure of one file never aborts the run.
package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cppflow/cppflow/internal/config"
	"github.com/cppflow/cppflow/internal/log"
	"github.com/cppflow/cppflow/internal/scanner"
	"github.com/cppflow/cppflow/pkg/cache"
	"github.com/cppflow/cppflow/pkg/callgraph"
	"github.com/cppflow/cppflow/pkg/cfg"
	"github.com/cppflow/cppflow/pkg/graph"
	"github.com/cppflow/cppflow/pkg/ir"
	"github.com/cppflow/cppflow/pkg/modules"
	"github.com/cppflow/cppflow/pkg/syntax"
)

// Result is the complete output of one analysis run.
type Result struct {
	Project   *ir.ProjectIR
	Modules   []*ir.ModuleIR
	Functions []*ir.FunctionIR

	CallGraph *callgraph.Builder
	ModuleSet []modules.Module

	Diagnostics []Diagnostic
	FileCount   int
	CacheHits   int
}

// Function returns the function IR with the given qualified name.
func (r *Result) Function(qualified string) (*ir.FunctionIR, bool) {
	for _, fn := range r.Functions {
		if fn.Name == qualified {
			return fn, true
		}
	}
	return nil, false
}

// Module returns the module IR with the given name.
func (r *Result) Module(name string) (*ir.ModuleIR, bool) {
	for _, m := range r.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Analyzer runs the pipeline over a project tree.
type Analyzer struct {
	cfg    *config.Config
	logger log.Logger
	cache  *cache.AnalysisCache
}

// New returns an Analyzer using the given configuration. A cache directory
// in the configuration enables the analysis cache; a cache that fails to
// open is logged and skipped.
func New(cfg *config.Config, logger log.Logger) *Analyzer {
	a := &Analyzer{cfg: cfg, logger: logger}
	if cfg.CacheDir != "" {
		c, err := cache.OpenAnalysisCache(cfg.CacheDir, cache.Options{MaxBytes: 256 << 20})
		if err != nil {
			logger.Warn("analysis cache disabled", "error", err)
		} else {
			a.cache = c
		}
	}
	return a
}

type fileResult struct {
	index    int
	file     scanner.FileInfo
	source   modules.SourceFile
	funcs    []*ir.FunctionIR
	diags    []Diagnostic
	cacheHit bool
}

// Run analyzes every supported file under root and assembles the project
// IR, call graph and module set.
func (a *Analyzer) Run(ctx context.Context, root string) (*Result, error) {
	files, err := a.scan(root)
	if err != nil {
		return nil, err
	}
	a.logger.Info("analysis started", "root", root, "files", len(files), "workers", a.cfg.Workers)

	results, err := a.processFiles(ctx, root, files)
	if err != nil {
		return nil, err
	}

	result := a.assemble(root, files, results)

	if a.cache != nil {
		if err := a.cache.Flush(); err != nil {
			a.logger.Warn("flushing analysis cache failed", "error", err)
		}
	}
	a.logger.Info("analysis finished",
		"functions", len(result.Functions),
		"modules", len(result.Modules),
		"diagnostics", len(result.Diagnostics),
		"cache_hits", result.CacheHits)
	return result, nil
}

func (a *Analyzer) scan(root string) ([]scanner.FileInfo, error) {
	opts := scanner.DefaultOptions()
	opts.Extensions = a.cfg.Extensions
	opts.DefaultExcludes = append(opts.DefaultExcludes, trimPatterns(a.cfg.ExcludePatterns)...)

	files, err := scanner.ScanWithOptions(root, opts)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return files, nil
}

// processFiles parses and transforms every file through a bounded worker
// pool. Per-file failures become diagnostics on the file's result.
func (a *Analyzer) processFiles(ctx context.Context, root string, files []scanner.FileInfo) ([]fileResult, error) {
	group, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, a.workerCount())

	results := make([]fileResult, len(files))
	var mu sync.Mutex

	for i, file := range files {
		i, file := i, file
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			res := a.processFile(ctx, file)
			res.index = i
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// processFile analyzes a single file: read, cache lookup, parse, CFG and IR
// per function. Every failure degrades to a diagnostic.
func (a *Analyzer) processFile(ctx context.Context, file scanner.FileInfo) fileResult {
	res := fileResult{file: file}

	content, err := os.ReadFile(file.FullPath)
	if err != nil {
		res.diags = append(res.diags, Diagnostic{
			Kind: DiagMalformedInput, Path: file.Path,
			Message: fmt.Sprintf("reading file: %v", err),
		})
		return res
	}
	res.source = modules.SourceFile{Path: file.Path, Content: content}

	var key string
	if a.cache != nil {
		key = cache.Key(file.Path, content)
		if funcs, ok := a.cache.GetFunctions(key); ok {
			res.funcs = funcs
			res.cacheHit = true
			return res
		}
	}

	parser := syntax.NewParser()
	rootNode, err := parser.Parse(ctx, content)
	if err != nil {
		res.diags = append(res.diags, Diagnostic{
			Kind: DiagMalformedInput, Path: file.Path,
			Message: fmt.Sprintf("parsing: %v", err),
		})
		return res
	}

	transformer := ir.NewTransformer(a.cfg.EntryPointNames)
	builder := cfg.NewBuilder()
	builder.LabelMaxLen = a.cfg.LabelMaxLen

	for _, decl := range syntax.CollectFunctions(rootNode) {
		name := callgraph.Qualify(decl.Namespace, decl.Class, decl.Info.Name)
		g := builder.Build(decl.Node, name)
		res.funcs = append(res.funcs, transformer.TransformFunction(file.Path, decl, g))
	}

	if a.cache != nil {
		if err := a.cache.PutFunctions(key, res.funcs); err != nil {
			a.logger.Debug("caching file failed", "path", file.Path, "error", err)
		}
	}
	return res
}

// assemble merges per-file results into the whole-program views.
func (a *Analyzer) assemble(root string, files []scanner.FileInfo, results []fileResult) *Result {
	result := &Result{
		CallGraph: callgraph.NewBuilder(),
		FileCount: len(files),
	}

	var sources []modules.SourceFile
	for _, res := range results {
		result.Diagnostics = append(result.Diagnostics, res.diags...)
		if res.cacheHit {
			result.CacheHits++
		}
		if res.source.Path != "" {
			sources = append(sources, res.source)
		}
		result.Functions = append(result.Functions, res.funcs...)
	}

	// register every definition before resolving any call
	for _, fn := range result.Functions {
		result.CallGraph.AddFunction(callgraph.Function{
			Name:      bareName(fn.Name),
			Namespace: fn.Namespace,
			Class:     fn.ClassName,
			Qualified: fn.Name,
			File:      fn.File,
			Line:      fn.Line,
			Signature: fn.Signature,
		})
	}
	for _, fn := range result.Functions {
		for _, call := range fn.Calls {
			result.CallGraph.AddCall(fn.Name, call.Callee, callgraph.CallKind(call.Kind))
		}
	}
	for _, edge := range result.CallGraph.Edges() {
		if edge.External {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Kind: DiagUnresolvedReference, Subject: edge.Caller,
				Message: fmt.Sprintf("call target %q not defined in project", edge.Callee),
			})
		}
	}

	result.ModuleSet = modules.NewAnalyzer().Analyze(sources)

	transformer := ir.NewTransformer(a.cfg.EntryPointNames)
	byModule := make(map[string][]*ir.FunctionIR)
	for _, fn := range result.Functions {
		name := modules.ModuleName(fn.File)
		byModule[name] = append(byModule[name], fn)
	}
	for _, mod := range result.ModuleSet {
		result.Modules = append(result.Modules, transformer.TransformModule(mod, byModule[mod.Name]))
	}
	result.Project = transformer.TransformProject(filepath.Base(root), root, result.Modules, result.Functions)

	a.checkIntegrity(result)
	return result
}

// checkIntegrity validates the derived presentation graphs and records
// findings as warnings, never failures.
func (a *Analyzer) checkIntegrity(result *Result) {
	if _, acyclic := result.CallGraph.TopologicalOrder(); !acyclic {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Kind:    DiagIntegrityWarning,
			Subject: "callgraph",
			Message: "recursive call cycle detected",
		})
	}

	for _, check := range []struct {
		name string
		g    *graph.Graph
	}{
		{"callgraph", graph.BuildCallGraph(result.Functions)},
		{"modules", graph.BuildModuleGraph(result.Modules)},
	} {
		validation := graph.Validate(check.g)
		for _, msg := range append(validation.Errors, validation.Warnings...) {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Kind: DiagIntegrityWarning, Subject: check.name, Message: msg,
			})
		}
	}
}

func (a *Analyzer) workerCount() int {
	if a.cfg.Workers > 0 {
		return a.cfg.Workers
	}
	return 1
}

// bareName strips the namespace and class qualification from a qualified
// name.
func bareName(qualified string) string {
	parts := splitQualified(qualified)
	return parts[len(parts)-1]
}

func splitQualified(qualified string) []string {
	var parts []string
	start := 0
	for i := 0; i+1 < len(qualified); i++ {
		if qualified[i] == ':' && qualified[i+1] == ':' {
			parts = append(parts, qualified[start:i])
			start = i + 2
			i++
		}
	}
	parts = append(parts, qualified[start:])
	return parts
}

// trimPatterns converts directory exclude patterns like "build/" into the
// bare names the scanner compares against.
func trimPatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = filepath.Clean(p)
		if p == "." || p == "" {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
