package pipeline

import (
	"github.com/mamba-lang/mamba/internal/analyzer"
	"github.com/mamba-lang/mamba/internal/diagnostics"
	"github.com/mamba-lang/mamba/internal/lexer"
	"github.com/mamba-lang/mamba/internal/parser"
	"github.com/mamba-lang/mamba/internal/types"
)

// LexerProcessor turns ctx.Source into a token stream. It never fails: an
// ILLEGAL token is still a token, and the parser is the one that turns a
// malformed stream into a diagnostic.
type LexerProcessor struct{}

func (*LexerProcessor) Process(ctx *PipelineContext) *PipelineContext {
	ctx.Tokens = lexer.All(ctx.Source)
	return ctx
}

// ParserProcessor builds ctx.AstRoot from ctx.Tokens, attaching the file
// path to every diagnostic it raises.
type ParserProcessor struct{}

func (*ParserProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Tokens == nil {
		return ctx
	}
	p := parser.New(ctx.Tokens)
	module, errs := p.Parse()
	ctx.AstRoot = module
	for _, err := range errs {
		ctx.Errors = append(ctx.Errors, withFile(err, ctx.FilePath))
	}
	return ctx
}

// ScopeBuilderProcessor populates every scope-owning node's InnerScope and
// installs the symbols declarations introduce.
type ScopeBuilderProcessor struct{}

func (*ScopeBuilderProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.AstRoot == nil {
		return ctx
	}
	ctx.vars = types.NewVarSource()
	builder := analyzer.NewScopeBuilder(ctx.vars)
	builder.Build(ctx.AstRoot)
	for _, err := range builder.Errors {
		ctx.Errors = append(ctx.Errors, withFile(err, ctx.FilePath))
	}
	return ctx
}

// ScopeBinderProcessor resolves every identifier use to the scope that
// declares it.
type ScopeBinderProcessor struct{}

func (*ScopeBinderProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.AstRoot == nil {
		return ctx
	}
	binder := analyzer.NewScopeBinder()
	binder.Bind(ctx.AstRoot)
	for _, err := range binder.Errors {
		ctx.Errors = append(ctx.Errors, withFile(err, ctx.FilePath))
	}
	return ctx
}

// InferenceProcessor walks the scope-bound tree and emits ctx.Constraints.
type InferenceProcessor struct{}

func (*InferenceProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.AstRoot == nil {
		return ctx
	}
	if ctx.vars == nil {
		ctx.vars = types.NewVarSource()
	}
	inferer := analyzer.NewConstraintInferer(ctx.vars)
	inferer.Infer(ctx.AstRoot)
	ctx.Constraints = inferer.Constraints
	for _, err := range inferer.Errors {
		ctx.Errors = append(ctx.Errors, withFile(err, ctx.FilePath))
	}
	return ctx
}

// SolverProcessor drains ctx.Constraints into ctx.Solutions. A solver
// failure on every branch is reported as a diagnostic, not a panic: the
// run still returns whatever earlier-stage diagnostics it collected.
type SolverProcessor struct{}

func (*SolverProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.AstRoot == nil {
		return ctx
	}
	solver := analyzer.NewSolver(ctx.MaxDisjunctionFanOut)
	solutions, errs := solver.Solve(ctx.Constraints)
	ctx.Solutions = solutions
	for _, err := range errs {
		if de, ok := err.(*diagnostics.DiagnosticError); ok {
			ctx.Errors = append(ctx.Errors, withFile(de, ctx.FilePath))
			continue
		}
		ctx.Errors = append(ctx.Errors, withFile(diagnostics.New(diagnostics.PhaseSolver, diagnostics.ErrZ002, ctx.AstRoot.Range()), ctx.FilePath))
	}
	return ctx
}
