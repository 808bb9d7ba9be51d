// Package pipeline runs the extraction stages over a source file and folds
// the per-function results into one ordered schema.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/gobwas/glob"

	"github.com/phobologic/cmdschema/internal/command"
	"github.com/phobologic/cmdschema/internal/config"
	"github.com/phobologic/cmdschema/internal/extract"
	"github.com/phobologic/cmdschema/internal/model"
	"github.com/phobologic/cmdschema/internal/reconcile"
	"github.com/phobologic/cmdschema/internal/resolve"
	"github.com/phobologic/cmdschema/internal/segment"
	"github.com/phobologic/cmdschema/internal/signature"
)

// ErrInvalidPattern indicates a function name filter could not be compiled.
var ErrInvalidPattern = errors.New("invalid function name pattern")

// Discard reasons reported in debug logs.
const (
	reasonNoBody    = "no body"
	reasonNoCommand = "no command call"
	reasonFiltered  = "filtered"
)

// Pipeline turns Swift source text into a command schema.
type Pipeline struct {
	seg       *segment.Segmenter
	sigOpts   signature.Options
	cmdOpts   command.Options
	workers   int
	includes  []glob.Glob
	excludes  []glob.Glob
	logger    *slog.Logger
	cmdMarker string
}

// New builds a Pipeline from cfg. A nil logger discards log output.
func New(cfg config.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	includes, err := compileGlobs(cfg.Include)
	if err != nil {
		return nil, err
	}
	excludes, err := compileGlobs(cfg.Exclude)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &Pipeline{
		seg: segment.New(segment.Options{
			Keyword:       cfg.FuncKeyword,
			CommentMarker: cfg.CommentMarker,
		}),
		sigOpts: signature.Options{
			Keyword:       cfg.FuncKeyword,
			CommandMarker: cfg.CommandMarker,
			Resolve: resolve.Options{
				DistinctIntegerType: cfg.DistinctIntegerType,
				NilLiteral:          cfg.NilLiteral,
			},
		},
		cmdOpts: command.Options{
			ArgsKeyword:    cfg.ArgsKeyword,
			ArgumentMarker: cfg.ArgumentMarker,
			NilLiteral:     cfg.NilLiteral,
		},
		workers:   workers,
		includes:  includes,
		excludes:  excludes,
		logger:    logger,
		cmdMarker: cfg.CommandMarker,
	}, nil
}

// Segment exposes the segmentation stage.
func (p *Pipeline) Segment(source string) []model.FunctionBlock {
	return p.seg.Split(source)
}

// Run extracts the schema of every function in source. Blocks are analyzed
// concurrently; the result follows source order, and a repeated function
// name keeps the last definition.
func (p *Pipeline) Run(source string) *model.Schema {
	blocks := p.Segment(source)

	type result struct {
		name   string
		schema model.FunctionSchema
		ok     bool
	}

	numWorkers := p.workers
	if numWorkers > len(blocks) {
		numWorkers = len(blocks)
	}

	results := make([]result, len(blocks))
	work := make(chan int, len(blocks))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				name, fs, ok := p.Analyze(blocks[idx])
				results[idx] = result{name: name, schema: fs, ok: ok}
			}
		}()
	}

	for i := range blocks {
		work <- i
	}
	close(work)
	wg.Wait()

	schema := &model.Schema{}
	for _, r := range results {
		if r.ok {
			schema.Put(r.name, r.schema)
		}
	}
	return schema
}

// Analyze runs the per-function stages on one block. ok is false when the
// block contributes no entry.
func (p *Pipeline) Analyze(block model.FunctionBlock) (name string, fs model.FunctionSchema, ok bool) {
	sig, ok := signature.Parse(block, p.sigOpts)
	if !ok {
		p.discard(signature.FunctionName(firstLine(block), p.sigOpts.Keyword), reasonNoBody)
		return "", model.FunctionSchema{}, false
	}
	if !p.keep(sig.Name) {
		p.discard(sig.Name, reasonFiltered)
		return "", model.FunctionSchema{}, false
	}
	if !sig.Params.HasCommandMarker {
		p.discard(sig.Name, reasonNoCommand)
		return "", model.FunctionSchema{}, false
	}
	call, ok := extract.Call(sig.Body, p.cmdMarker)
	if !ok {
		p.discard(sig.Name, reasonNoCommand)
		return "", model.FunctionSchema{}, false
	}

	raw := command.Build(call, p.cmdOpts)
	return sig.Name, reconcile.Merge(sig.Params, raw), true
}

func (p *Pipeline) keep(name string) bool {
	for _, g := range p.excludes {
		if g.Match(name) {
			return false
		}
	}
	if len(p.includes) == 0 {
		return true
	}
	for _, g := range p.includes {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (p *Pipeline) discard(name, reason string) {
	p.logger.Debug("skipping function", "function", name, "reason", reason)
}

func firstLine(block model.FunctionBlock) string {
	if len(block.Lines) == 0 {
		return ""
	}
	return block.Lines[0]
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
		}
		matchers = append(matchers, g)
	}
	return matchers, nil
}
