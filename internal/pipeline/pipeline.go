// Package pipeline orchestrates the analyzer's stages — lex, parse, build
// scopes, bind scopes, infer constraints, solve — over a shared mutable
// context threaded through an ordered Processor chain.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/mamba-lang/mamba/internal/analyzer"
	"github.com/mamba-lang/mamba/internal/ast"
	"github.com/mamba-lang/mamba/internal/config"
	"github.com/mamba-lang/mamba/internal/constraint"
	"github.com/mamba-lang/mamba/internal/diagnostics"
	"github.com/mamba-lang/mamba/internal/token"
	"github.com/mamba-lang/mamba/internal/types"
)

// PipelineContext is threaded through every Processor. Each stage reads
// what earlier stages produced and adds its own results; errors accumulate
// across stages rather than aborting the run, so a single invocation can
// report, say, both a scope-binding error and a later solver error.
type PipelineContext struct {
	FilePath string
	Source   string

	RunID uuid.UUID

	MaxDisjunctionFanOut int

	Tokens      []token.Token
	AstRoot     *ast.Module
	Constraints []constraint.Constraint
	Solutions   []analyzer.Solution

	Errors []*diagnostics.DiagnosticError

	// vars is the single VarSource shared by the scope builder and the
	// constraint inferer for this run, so every minted type variable has a
	// unique id across both passes.
	vars *types.VarSource
}

// NewContext creates a PipelineContext for a single compilation run,
// tagged with a fresh correlation id (the nil id under the test harness,
// so recorded output stays stable across runs).
func NewContext(filePath, source string) *PipelineContext {
	runID := uuid.Nil
	if !config.IsTestMode {
		runID = uuid.New()
	}
	return &PipelineContext{
		FilePath:             filePath,
		Source:               source,
		RunID:                runID,
		MaxDisjunctionFanOut: 64,
	}
}

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline runs an ordered sequence of Processors over one PipelineContext.
type Pipeline struct {
	processors []Processor
}

// New builds a Pipeline from processors, run in order.
func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes every stage in order, continuing even after a stage reports
// errors, so later stages can still contribute diagnostics of their own.
func (p *Pipeline) Run(initial *PipelineContext) *PipelineContext {
	ctx := initial
	for _, proc := range p.processors {
		ctx = proc.Process(ctx)
	}
	return ctx
}

// Default builds the standard compilation pipeline: lex, parse, build
// scopes, bind scopes, infer, solve.
func Default() *Pipeline {
	return New(
		&LexerProcessor{},
		&ParserProcessor{},
		&ScopeBuilderProcessor{},
		&ScopeBinderProcessor{},
		&InferenceProcessor{},
		&SolverProcessor{},
	)
}

func withFile(err *diagnostics.DiagnosticError, file string) *diagnostics.DiagnosticError {
	if err.File == "" {
		return err.WithFile(file)
	}
	return err
}
