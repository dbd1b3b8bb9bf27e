package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamba-lang/mamba/internal/analyzer"
	"github.com/mamba-lang/mamba/internal/constraint"
	"github.com/mamba-lang/mamba/internal/diagnostics"
	"github.com/mamba-lang/mamba/internal/token"
	"github.com/mamba-lang/mamba/internal/types"
)

func TestSolveEqualsBindsVariable(t *testing.T) {
	vars := types.NewVarSource()
	v := vars.Fresh()

	solver := analyzer.NewSolver(0)
	solutions, errs := solver.Solve([]constraint.Constraint{
		constraint.NewEquals(v, types.Int, token.Range{}),
	})

	require.Empty(t, errs)
	require.Len(t, solutions, 1)
	assert.Equal(t, types.Int, solutions[0].Subst[v.ID])
}

// A Conforms constraint whose expected side is still an unresolved
// variable must be deferred rather than resolved prematurely: here the
// expected side only becomes known via a Specializes constraint, which the
// solver processes after every Conforms, and the solver must still find it.
func TestConformsDefersUntilExpectedSideIsKnown(t *testing.T) {
	vars := types.NewVarSource()
	expected := vars.Fresh()
	actual := types.NewObjectType([]string{"x"}, map[string]types.Type{"x": types.Int}, nil)

	solver := analyzer.NewSolver(0)
	solutions, errs := solver.Solve([]constraint.Constraint{
		constraint.NewConforms(actual, expected, token.Range{}),
		constraint.NewSpecializes(expected, types.EmptyObject(), nil, token.Range{}),
	})

	require.Empty(t, errs)
	require.Len(t, solutions, 1)
	assert.Equal(t, types.EmptyObject(), solutions[0].Subst[expected.ID])
}

// An unconstrained actual side degrades Conforms to equality: the actual
// variable is bound to whatever the expected side resolves to.
func TestConformsWithUnboundActualDegradesToEquality(t *testing.T) {
	vars := types.NewVarSource()
	actual := vars.Fresh()

	solver := analyzer.NewSolver(0)
	solutions, errs := solver.Solve([]constraint.Constraint{
		constraint.NewConforms(actual, types.Int, token.Range{}),
	})

	require.Empty(t, errs)
	require.Len(t, solutions, 1)
	assert.Equal(t, types.Int, solutions[0].Subst[actual.ID])
}

// A demanded property missing from the other side is a conformance error,
// not silently dropped.
func TestConformsReportsMissingProperty(t *testing.T) {
	demanded := types.NewObjectType([]string{"x"}, map[string]types.Type{"x": types.Int}, nil)
	actual := types.NewObjectType([]string{"y"}, map[string]types.Type{"y": types.String}, nil)

	solver := analyzer.NewSolver(0)
	_, errs := solver.Solve([]constraint.Constraint{
		constraint.NewConforms(demanded, actual, token.Range{}),
	})

	require.Len(t, errs, 1)
}

// The empty object is the conformance top: anything conforms to it, and it
// conforms to anything with properties (it demands none of them).
func TestConformsEmptyObjectIsTop(t *testing.T) {
	obj := types.NewObjectType([]string{"x"}, map[string]types.Type{"x": types.Int}, nil)

	solver := analyzer.NewSolver(0)
	solutions, errs := solver.Solve([]constraint.Constraint{
		constraint.NewConforms(obj, types.EmptyObject(), token.Range{}),
		constraint.NewConforms(types.EmptyObject(), obj, token.Range{}),
	})

	require.Empty(t, errs)
	assert.Len(t, solutions, 1)
}

// A smaller object conforms to a larger one: the actual side may carry
// properties the demanded side never asks for. This is what makes `.` field
// access work against multi-property objects.
func TestConformsAllowsExtraPropertiesOnActualSide(t *testing.T) {
	demanded := types.NewObjectType([]string{"level"}, map[string]types.Type{"level": types.Int}, nil)
	actual := types.NewObjectType([]string{"name", "level"}, map[string]types.Type{
		"name": types.String, "level": types.Int,
	}, nil)

	solver := analyzer.NewSolver(0)
	solutions, errs := solver.Solve([]constraint.Constraint{
		constraint.NewConforms(demanded, actual, token.Range{}),
	})

	require.Empty(t, errs)
	assert.Len(t, solutions, 1)
}

// Conformance is reflexive on concrete object types.
func TestConformsIsReflexive(t *testing.T) {
	obj := types.NewObjectType([]string{"a", "b"}, map[string]types.Type{
		"a": types.Int,
		"b": types.NewObjectType([]string{"c"}, map[string]types.Type{"c": types.String}, nil),
	}, nil)

	solver := analyzer.NewSolver(0)
	solutions, errs := solver.Solve([]constraint.Constraint{
		constraint.NewConforms(obj, obj, token.Range{}),
	})

	require.Empty(t, errs)
	assert.Len(t, solutions, 1)
}

// A deferred conformance must not trip the stuck detector while other
// constraints are still making progress: the expected side here only
// resolves through a later specialization.
func TestDeferredConformsIsNotMistakenForAStuckSystem(t *testing.T) {
	vars := types.NewVarSource()
	callee := vars.Fresh()
	arg := vars.Fresh()
	ret := vars.Fresh()

	printLike := types.FunctionType{
		Domain:   types.NewObjectType([]string{"item"}, map[string]types.Type{"item": types.EmptyObject()}, nil),
		Codomain: types.Nothing,
	}
	literal := types.NewObjectType([]string{"item"}, map[string]types.Type{"item": types.String}, nil)

	solver := analyzer.NewSolver(0)
	solutions, errs := solver.Solve([]constraint.Constraint{
		constraint.NewEquals(callee, types.FunctionType{Domain: arg, Codomain: ret}, token.Range{}),
		constraint.NewConforms(literal, arg, token.Range{}),
		constraint.NewSpecializes(callee, printLike, nil, token.Range{}),
	})

	require.Empty(t, errs)
	require.Len(t, solutions, 1)
	assert.Equal(t, types.Nothing, solutions[0].Subst[ret.ID])
}

// A conformance that can never resolve (its expected side is a variable
// nothing else constrains) is reported as an unsolvable system.
func TestUnresolvableConformsReportsStuckSystem(t *testing.T) {
	vars := types.NewVarSource()
	never := vars.Fresh()
	obj := types.NewObjectType([]string{"x"}, map[string]types.Type{"x": types.Int}, nil)

	solver := analyzer.NewSolver(0)
	solutions, errs := solver.Solve([]constraint.Constraint{
		constraint.NewConforms(obj, never, token.Range{}),
	})

	assert.Empty(t, solutions)
	require.Len(t, errs, 1)
	var diag *diagnostics.DiagnosticError
	require.ErrorAs(t, errs[0], &diag)
	assert.Equal(t, diagnostics.ErrZ002, diag.Code)
}

// Explicit specialization arguments guide the substitution even while the
// pattern side is still an unbound variable, the way `Pair[A = Int]` in a
// signature resolves once the alias's subject is known.
func TestSpecializeAppliesExplicitArgsBeforePatternIsKnown(t *testing.T) {
	vars := types.NewVarSource()
	subject := vars.Fresh()
	use := vars.Fresh()

	pairBody := types.NewObjectType([]string{"first", "second"}, map[string]types.Type{
		"first":  types.TypePlaceholder{Name: "A"},
		"second": types.TypePlaceholder{Name: "B"},
	}, []string{"A", "B"})

	solver := analyzer.NewSolver(0)
	solutions, errs := solver.Solve([]constraint.Constraint{
		constraint.NewEquals(subject, pairBody, token.Range{}),
		constraint.NewSpecializes(use, subject, map[string]types.Type{
			"A": types.Int, "B": types.String,
		}, token.Range{}),
	})

	require.Empty(t, errs)
	require.Len(t, solutions, 1)
	specialized, ok := solutions[0].Subst[use.ID].(types.ObjectType)
	require.True(t, ok)
	assert.Equal(t, types.Int, specialized.Properties["first"])
	assert.Equal(t, types.String, specialized.Properties["second"])
}

// An explicit specialization argument naming no placeholder of the generic
// side is rejected.
func TestSpecializeRejectsExtraneousExplicitArgument(t *testing.T) {
	generic := types.NewObjectType([]string{"x"}, map[string]types.Type{
		"x": types.TypePlaceholder{Name: "T"},
	}, []string{"T"})
	vars := types.NewVarSource()
	use := vars.Fresh()

	solver := analyzer.NewSolver(0)
	solutions, errs := solver.Solve([]constraint.Constraint{
		constraint.NewSpecializes(use, generic, map[string]types.Type{"Bogus": types.Int}, token.Range{}),
	})

	assert.Empty(t, solutions)
	require.Len(t, errs, 1)
	var diag *diagnostics.DiagnosticError
	require.ErrorAs(t, errs[0], &diag)
	assert.Equal(t, diagnostics.ErrU007, diag.Code)
}

// Unification failure is symmetric: flipping the operands fails the same
// way instead of depending on argument order.
func TestUnifySymmetryOnFailure(t *testing.T) {
	a := types.NewObjectType([]string{"x"}, map[string]types.Type{"x": types.Int}, nil)
	b := types.NewObjectType([]string{"y"}, map[string]types.Type{"y": types.Int}, nil)

	for _, pair := range [][2]types.Type{{a, b}, {b, a}} {
		solver := analyzer.NewSolver(0)
		solutions, errs := solver.Solve([]constraint.Constraint{
			constraint.NewEquals(pair[0], pair[1], token.Range{}),
		})
		assert.Empty(t, solutions)
		require.Len(t, errs, 1)
	}
}

// The `{_0: T}` label-omission sugar unifies against the other side's sole
// property regardless of which side carries the sugar.
func TestUnifySinglePropertySugarOnEitherSide(t *testing.T) {
	vars := types.NewVarSource()
	v := vars.Fresh()

	sugar := types.NewObjectType([]string{"_0"}, map[string]types.Type{"_0": v}, nil)
	labeled := types.NewObjectType([]string{"item"}, map[string]types.Type{"item": types.Int}, nil)

	for _, pair := range [][2]types.Type{{labeled, sugar}, {sugar, labeled}} {
		solver := analyzer.NewSolver(0)
		solutions, errs := solver.Solve([]constraint.Constraint{
			constraint.NewEquals(pair[0], pair[1], token.Range{}),
		})

		require.Empty(t, errs)
		require.Len(t, solutions, 1)
		assert.Equal(t, types.Int, solutions[0].Subst[v.ID])
	}
}

// A substitution binding a variable to an object type that refers back to
// the same variable must still deep-walk to a finite solution.
func TestSolutionDeepWalkToleratesCyclicObjectTypes(t *testing.T) {
	vars := types.NewVarSource()
	v := vars.Fresh()
	self := types.NewObjectType([]string{"next"}, map[string]types.Type{"next": v}, nil)

	solver := analyzer.NewSolver(0)
	var solutions []analyzer.Solution
	var errs []error
	require.NotPanics(t, func() {
		solutions, errs = solver.Solve([]constraint.Constraint{
			constraint.NewEquals(v, self, token.Range{}),
		})
	})

	require.Empty(t, errs)
	require.Len(t, solutions, 1)
}

// A Disjunction forks into one branch per choice; only the Int choice
// agrees with the Equals that pins result to Int, so exactly one solution
// results.
func TestDisjunctionCollapsesToSurvivingChoice(t *testing.T) {
	vars := types.NewVarSource()
	result := vars.Fresh()

	intOverload := constraint.NewEquals(result, types.Int, token.Range{})
	floatOverload := constraint.NewEquals(result, types.Float, token.Range{})

	solver := analyzer.NewSolver(0)
	solutions, errs := solver.Solve([]constraint.Constraint{
		constraint.NewDisjunction([]constraint.Constraint{intOverload, floatOverload}, token.Range{}),
		constraint.NewEquals(result, types.Int, token.Range{}),
	})

	require.Empty(t, errs)
	require.Len(t, solutions, 1)
	assert.Equal(t, types.Int, solutions[0].Subst[result.ID])
}

// Unifying two different ground types is a hard failure on every branch.
func TestUnifyIncompatibleGroundTypesFails(t *testing.T) {
	solver := analyzer.NewSolver(0)
	solutions, errs := solver.Solve([]constraint.Constraint{
		constraint.NewEquals(types.Int, types.Float, token.Range{}),
	})

	assert.Empty(t, solutions)
	require.Len(t, errs, 1)
}

// Specializing a generic function type against a concrete pattern resolves
// the single placeholder occurrence and unifies cleanly.
func TestSpecializeResolvesPlaceholderAgainstConcretePattern(t *testing.T) {
	generic := types.FunctionType{
		Placeholders: []string{"T"},
		Domain:       types.TypePlaceholder{Name: "T"},
		Codomain:     types.Bool,
	}
	pattern := types.FunctionType{Domain: types.Int, Codomain: types.Bool}

	solver := analyzer.NewSolver(0)
	solutions, errs := solver.Solve([]constraint.Constraint{
		constraint.NewSpecializes(pattern, generic, nil, token.Range{}),
	})

	require.Empty(t, errs)
	assert.Len(t, solutions, 1)
}

// A placeholder used twice in the generic side must map to the same
// concrete type both times; here the pattern supplies Int for one
// occurrence and String for the other, which is rejected.
func TestSpecializeRejectsInconsistentPlaceholderMapping(t *testing.T) {
	generic := types.FunctionType{
		Placeholders: []string{"T"},
		Domain: types.NewObjectType([]string{"a", "b"}, map[string]types.Type{
			"a": types.TypePlaceholder{Name: "T"}, "b": types.TypePlaceholder{Name: "T"},
		}, nil),
		Codomain: types.Bool,
	}
	pattern := types.FunctionType{
		Domain: types.NewObjectType([]string{"a", "b"}, map[string]types.Type{
			"a": types.Int, "b": types.String,
		}, nil),
		Codomain: types.Bool,
	}

	solver := analyzer.NewSolver(0)
	solutions, errs := solver.Solve([]constraint.Constraint{
		constraint.NewSpecializes(pattern, generic, nil, token.Range{}),
	})

	assert.Empty(t, solutions)
	require.Len(t, errs, 1)
}

// A disjunction fan-out above the configured bound is rejected outright
// rather than explored.
func TestDisjunctionFanOutBoundIsEnforced(t *testing.T) {
	choices := []constraint.Constraint{
		constraint.NewEquals(types.Int, types.Int, token.Range{}),
		constraint.NewEquals(types.Float, types.Float, token.Range{}),
		constraint.NewEquals(types.String, types.String, token.Range{}),
	}

	solver := analyzer.NewSolver(2)
	solutions, errs := solver.Solve([]constraint.Constraint{
		constraint.NewDisjunction(choices, token.Range{}),
	})

	assert.Empty(t, solutions)
	require.Len(t, errs, 1)
}

func TestSolutionStringFormatsSortedBindings(t *testing.T) {
	sol := analyzer.Solution{Subst: types.Subst{2: types.Int, 1: types.Bool}}
	assert.Equal(t, "__1: Bool\n__2: Int", sol.String())
}
