package pipeline_test

import (
	"os"
	"testing"

	"github.com/kr/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamba-lang/mamba/internal/ast"
	"github.com/mamba-lang/mamba/internal/config"
	"github.com/mamba-lang/mamba/internal/diagnostics"
	"github.com/mamba-lang/mamba/internal/pipeline"
	"github.com/mamba-lang/mamba/internal/types"
)

func TestMain(m *testing.M) {
	config.IsTestMode = true
	os.Exit(m.Run())
}

func run(t *testing.T, source string) *pipeline.PipelineContext {
	t.Helper()
	ctx := pipeline.NewContext("<test>", source)
	return pipeline.Default().Run(ctx)
}

func codesOf(errs []*diagnostics.DiagnosticError) []diagnostics.ErrorCode {
	codes := make([]diagnostics.ErrorCode, len(errs))
	for i, e := range errs {
		codes[i] = e.Code
	}
	return codes
}

// identity's domain and codomain are both generic over a single
// placeholder T; the solver should find exactly one solution and never
// need to fork.
func TestIdentityFunctionYieldsOneSolution(t *testing.T) {
	result := run(t, `func identity[T] {x: T} -> {y: T} = {y = $.x}`)

	require.Empty(t, codesOf(result.Errors))
	require.Len(t, result.Solutions, 1, "unexpected solution set:\n%s", pretty.Sprint(result.Solutions))

	fn := result.AstRoot.Declarations[0].(*ast.FunctionDeclaration)
	symVar, ok := fn.Symbol.Type.(types.TVar)
	require.True(t, ok)

	fnTy, ok := result.Solutions[0].Subst[symVar.ID].(types.FunctionType)
	require.True(t, ok)
	assert.Equal(t, []string{"T"}, fnTy.Placeholders)

	domain, ok := fnTy.Domain.(types.ObjectType)
	require.True(t, ok)
	assert.Equal(t, types.TypePlaceholder{Name: "T"}, domain.Properties["x"])

	codomain, ok := fnTy.Codomain.(types.ObjectType)
	require.True(t, ok)
	assert.Equal(t, types.TypePlaceholder{Name: "T"}, codomain.Properties["y"])
}

// `+` is overloaded for Int and Float; with both operands as Int literals
// only the Int/Int overload survives, so the disjunction collapses to a
// single solution rather than forking into two.
func TestIntegerAdditionCollapsesDisjunctionToOneSolution(t *testing.T) {
	result := run(t, `func f _ -> Int = 1 + 2`)

	require.Empty(t, codesOf(result.Errors))
	require.Len(t, result.Solutions, 1)

	fn := result.AstRoot.Declarations[0].(*ast.FunctionDeclaration)
	symVar := fn.Symbol.Type.(types.TVar)
	fnTy, ok := result.Solutions[0].Subst[symVar.ID].(types.FunctionType)
	require.True(t, ok)
	assert.Equal(t, types.Nothing, fnTy.Domain)
	assert.Equal(t, types.Int, fnTy.Codomain)
}

// Mixing an Int and a Float operand leaves no surviving `+` overload: every
// branch of the disjunction fails unification, so the run reports a
// unification error instead of a solution.
func TestMixedIntFloatAdditionIsAUnificationError(t *testing.T) {
	result := run(t, `func g _ -> Float = 1 + 2.0`)

	require.NotEmpty(t, result.Errors)
	assert.Contains(t, codesOf(result.Errors), diagnostics.ErrU001)
	assert.Empty(t, result.Solutions)
}

// A generic Pair specialized with concrete A/B arguments resolves `p.second`
// to the concrete String the specialization names.
func TestDotAccessOnASpecializedPairResolves(t *testing.T) {
	result := run(t, `
type Pair[A, B] = {first: A, second: B}
func pick {p: Pair[A = Int, B = String]} -> String = p.second
`)

	require.Empty(t, codesOf(result.Errors))
	require.Len(t, result.Solutions, 1)

	// The dot constraint resolves the body (and so the return value) to the
	// String the specialization names for B.
	fn := result.AstRoot.Declarations[1].(*ast.FunctionDeclaration)
	dot := fn.Body.(*ast.InfixExpression)
	dotVar := dot.Type.(types.TVar)
	assert.Equal(t, types.String, result.Solutions[0].Subst[dotVar.ID],
		"substitution:\n%s", pretty.Sprint(result.Solutions[0].Subst))
}

// An unbound identifier is reported during scope binding, but inference
// and solving still proceed and still yield a solution for the rest of the
// declaration.
func TestUnboundNameIsReportedButInferenceContinues(t *testing.T) {
	result := run(t, `func h _ -> Int = unknown`)

	require.NotEmpty(t, result.Errors)
	assert.Contains(t, codesOf(result.Errors), diagnostics.ErrS002)
	assert.Len(t, result.Solutions, 1, "a solution still comes out for the rest of the declaration")
}

// print's declared domain is {item: Object}, and any type conforms to the
// empty Object, so passing a concrete {item: String} argument is satisfied
// by conformance rather than strict equality.
func TestPrintCallConformsToEmptyObjectDomain(t *testing.T) {
	result := run(t, `func main _ -> _ = print {item = "hi"}`)

	require.Empty(t, codesOf(result.Errors))
	assert.Len(t, result.Solutions, 1)
}

// Domain properties are in scope inside the body, tied to their annotated
// types.
func TestParametersAreVisibleInTheBody(t *testing.T) {
	result := run(t, `func add {lhs: Int, rhs: Int} -> Int = lhs + rhs`)

	require.Empty(t, codesOf(result.Errors))
	assert.Len(t, result.Solutions, 1)
}

// A duplicate declaration is reported but does not stop the sibling
// declarations from being analyzed and solved.
func TestDuplicateDeclarationDoesNotHideSiblings(t *testing.T) {
	result := run(t, "type T = Int\ntype T = Float\nfunc f _ -> Int = 1 + 2")

	require.Contains(t, codesOf(result.Errors), diagnostics.ErrS001)
	assert.Len(t, result.Solutions, 1)
}

// The bare `Box[Int]` specializer sugars to `_0` and resolves against the
// alias's single placeholder.
func TestBareSpecializerSugarOnGenericAlias(t *testing.T) {
	result := run(t, "type Box[T] = {value: T}\nfunc unbox {b: Box[Int]} -> Int = b.value")

	require.Empty(t, codesOf(result.Errors))
	require.Len(t, result.Solutions, 1)

	fn := result.AstRoot.Declarations[1].(*ast.FunctionDeclaration)
	dot := fn.Body.(*ast.InfixExpression)
	dotVar := dot.Type.(types.TVar)
	assert.Equal(t, types.Int, result.Solutions[0].Subst[dotVar.ID])
}

// A parse failure yields no tree and no solutions, only diagnostics.
func TestParseErrorShortCircuitsLaterStages(t *testing.T) {
	result := run(t, `func = nonsense`)

	require.NotEmpty(t, result.Errors)
	assert.Nil(t, result.AstRoot)
	assert.Empty(t, result.Solutions)
}
