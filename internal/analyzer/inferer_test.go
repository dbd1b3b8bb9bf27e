package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamba-lang/mamba/internal/analyzer"
	"github.com/mamba-lang/mamba/internal/ast"
	"github.com/mamba-lang/mamba/internal/constraint"
	"github.com/mamba-lang/mamba/internal/diagnostics"
	"github.com/mamba-lang/mamba/internal/lexer"
	"github.com/mamba-lang/mamba/internal/parser"
	"github.com/mamba-lang/mamba/internal/types"
)

func infer(t *testing.T, source string) (*ast.Module, *analyzer.ConstraintInferer) {
	t.Helper()
	module, errs := parser.New(lexer.All(source)).Parse()
	require.Empty(t, errs)

	vars := types.NewVarSource()
	builder := analyzer.NewScopeBuilder(vars)
	builder.Build(module)
	require.Empty(t, builder.Errors)

	binder := analyzer.NewScopeBinder()
	binder.Bind(module)

	inferer := analyzer.NewConstraintInferer(vars)
	inferer.Infer(module)
	return module, inferer
}

func kindsOf(constraints []constraint.Constraint) map[constraint.Kind]int {
	counts := map[constraint.Kind]int{}
	for _, c := range constraints {
		counts[c.Kind]++
	}
	return counts
}

func TestInferScalarLiteralTypes(t *testing.T) {
	module, _ := infer(t, `func f _ -> Int = 1`)
	fn := module.Declarations[0].(*ast.FunctionDeclaration)
	lit := fn.Body.(*ast.ScalarLiteral)
	assert.Equal(t, types.Int, lit.Type)
}

func TestInferFunctionDeclarationConstraints(t *testing.T) {
	_, inferer := infer(t, `func f _ -> Int = 1`)
	require.Empty(t, inferer.Errors)

	counts := kindsOf(inferer.Constraints)
	// symbol = function type, argref = domain, body conforms codomain.
	assert.Equal(t, 2, counts[constraint.Equals])
	assert.Equal(t, 1, counts[constraint.Conforms])
}

func TestInferCallEmitsFunctionArgumentAndResultConstraints(t *testing.T) {
	module, inferer := infer(t, `func main _ -> _ = print {item = "hi"}`)
	require.Empty(t, inferer.Errors)

	fn := module.Declarations[0].(*ast.FunctionDeclaration)
	call := fn.Body.(*ast.CallExpression)
	require.NotNil(t, call.Type)

	arg := call.Argument.(*ast.ObjectLiteral)
	objTy, ok := arg.Type.(types.ObjectType)
	require.True(t, ok)
	assert.Equal(t, types.String, objTy.Properties["item"])

	counts := kindsOf(inferer.Constraints)
	assert.GreaterOrEqual(t, counts[constraint.Conforms], 1, "the argument conforms to the callee's domain")
}

func TestInferDotEmitsConformanceNotSpecialization(t *testing.T) {
	module, inferer := infer(t, `func f {p: Object} -> Object = p.x`)
	require.Empty(t, inferer.Errors)

	fn := module.Declarations[0].(*ast.FunctionDeclaration)
	dot := fn.Body.(*ast.InfixExpression)
	require.NotNil(t, dot.Type)

	// The field access shows up as a conformance whose demanded side is the
	// object type {x: T} (T the dot node's own type), checked against p.
	var found bool
	for _, c := range inferer.Constraints {
		if c.Kind != constraint.Conforms {
			continue
		}
		if obj, ok := c.Lhs.(types.ObjectType); ok && obj.Has("x") {
			found = true
		}
	}
	assert.True(t, found, "field access emits Conforms({x: T}, p)")
}

func TestInferOverloadedIdentifierEmitsDisjunction(t *testing.T) {
	_, inferer := infer(t, `func f _ -> Int = 1 + 2`)
	require.Empty(t, inferer.Errors)

	counts := kindsOf(inferer.Constraints)
	assert.Equal(t, 1, counts[constraint.Disjunction], "builtin + has two overloads")

	for _, c := range inferer.Constraints {
		if c.Kind == constraint.Disjunction {
			assert.Len(t, c.Choices, 2)
			for _, choice := range c.Choices {
				assert.Equal(t, constraint.Specializes, choice.Kind)
			}
		}
	}
}

func TestInferSingleCandidateIdentifierSkipsDisjunction(t *testing.T) {
	_, inferer := infer(t, `func main _ -> _ = print {item = "hi"}`)
	require.Empty(t, inferer.Errors)
	counts := kindsOf(inferer.Constraints)
	assert.Zero(t, counts[constraint.Disjunction])
}

func TestInferUnboundIdentifierStillGetsAType(t *testing.T) {
	source := `func h _ -> Int = unknown`
	module, errs := parser.New(lexer.All(source)).Parse()
	require.Empty(t, errs)

	vars := types.NewVarSource()
	analyzer.NewScopeBuilder(vars).Build(module)
	binder := analyzer.NewScopeBinder()
	binder.Bind(module)
	require.NotEmpty(t, binder.Errors)

	inferer := analyzer.NewConstraintInferer(vars)
	inferer.Infer(module)

	fn := module.Declarations[0].(*ast.FunctionDeclaration)
	id := fn.Body.(*ast.Identifier)
	assert.NotNil(t, id.Type, "an unbound identifier still carries a fresh variable")
}

func TestInferTypeDeclarationStampsPlaceholders(t *testing.T) {
	_, inferer := infer(t, `type Pair[A, B] = {first: A, second: B}`)
	require.Empty(t, inferer.Errors)
	require.NotEmpty(t, inferer.Constraints)

	eq := inferer.Constraints[0]
	require.Equal(t, constraint.Equals, eq.Kind)
	body, ok := eq.Rhs.(types.ObjectType)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B"}, body.Placeholders)
	assert.Equal(t, types.TypePlaceholder{Name: "A"}, body.Properties["first"])
}

func TestInferSignatureRejectsOverloadedNameAsType(t *testing.T) {
	source := "func g _ -> Int = 1\nfunc g _ -> Float = 2.0\nfunc h {x: g} -> Int = 1"
	module, errs := parser.New(lexer.All(source)).Parse()
	require.Empty(t, errs)

	vars := types.NewVarSource()
	analyzer.NewScopeBuilder(vars).Build(module)
	analyzer.NewScopeBinder().Bind(module)

	inferer := analyzer.NewConstraintInferer(vars)
	inferer.Infer(module)

	require.NotEmpty(t, inferer.Errors)
	assert.Equal(t, diagnostics.ErrG002, inferer.Errors[0].Code)
}

func TestInferSignatureRejectsValueNameAsType(t *testing.T) {
	source := "func k {x: Int, y: x} -> Int = 1"
	module, errs := parser.New(lexer.All(source)).Parse()
	require.Empty(t, errs)

	vars := types.NewVarSource()
	analyzer.NewScopeBuilder(vars).Build(module)
	analyzer.NewScopeBinder().Bind(module)

	inferer := analyzer.NewConstraintInferer(vars)
	inferer.Infer(module)

	require.NotEmpty(t, inferer.Errors)
	assert.Equal(t, diagnostics.ErrG001, inferer.Errors[0].Code)
}

func TestInferSignatureRejectsExtraneousSpecializer(t *testing.T) {
	source := "func f {xs: List[Bogus = Int]} -> Int = 1"
	module, errs := parser.New(lexer.All(source)).Parse()
	require.Empty(t, errs)

	vars := types.NewVarSource()
	analyzer.NewScopeBuilder(vars).Build(module)
	analyzer.NewScopeBinder().Bind(module)

	inferer := analyzer.NewConstraintInferer(vars)
	inferer.Infer(module)

	require.NotEmpty(t, inferer.Errors)
	assert.Equal(t, diagnostics.ErrG003, inferer.Errors[0].Code)
}

func TestInferDuplicateObjectTypePropertyIsReported(t *testing.T) {
	source := "type T = {a: Int, a: Float}"
	module, errs := parser.New(lexer.All(source)).Parse()
	require.Empty(t, errs)

	vars := types.NewVarSource()
	analyzer.NewScopeBuilder(vars).Build(module)
	analyzer.NewScopeBinder().Bind(module)

	inferer := analyzer.NewConstraintInferer(vars)
	inferer.Infer(module)

	require.NotEmpty(t, inferer.Errors)
	assert.Equal(t, diagnostics.ErrG004, inferer.Errors[0].Code)
}

// Nodes without inference rules still get a type and their children are
// still visited, but no constraint relates the node to them.
func TestInferIfExpressionGetsFreshVariableOnly(t *testing.T) {
	module, _ := infer(t, `func f {b: Bool} -> Int = if b then 1 else 2`)
	fn := module.Declarations[0].(*ast.FunctionDeclaration)
	ifExpr := fn.Body.(*ast.IfExpression)

	require.NotNil(t, ifExpr.Type)
	_, isVar := ifExpr.Type.(types.TVar)
	assert.True(t, isVar)

	thenLit := ifExpr.Then.(*ast.ScalarLiteral)
	assert.Equal(t, types.Int, thenLit.Type, "children are still typed")
}
