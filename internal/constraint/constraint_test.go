package constraint_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mamba-lang/mamba/internal/constraint"
	"github.com/mamba-lang/mamba/internal/token"
	"github.com/mamba-lang/mamba/internal/types"
)

func TestLessOrdersByKind(t *testing.T) {
	eq := constraint.NewEquals(types.Int, types.Int, zeroRange())
	conf := constraint.NewConforms(types.Int, types.Int, zeroRange())
	spec := constraint.NewSpecializes(types.Int, types.Int, nil, zeroRange())
	disj := constraint.NewDisjunction(nil, zeroRange())

	cs := []constraint.Constraint{disj, spec, conf, eq}
	sort.SliceStable(cs, func(i, j int) bool { return constraint.Less(cs[i], cs[j]) })

	kinds := make([]constraint.Kind, len(cs))
	for i, c := range cs {
		kinds[i] = c.Kind
	}
	assert.Equal(t, []constraint.Kind{
		constraint.Equals, constraint.Conforms, constraint.Specializes, constraint.Disjunction,
	}, kinds)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "equals", constraint.Equals.String())
	assert.Equal(t, "conforms", constraint.Conforms.String())
	assert.Equal(t, "specializes", constraint.Specializes.String())
	assert.Equal(t, "disjunction", constraint.Disjunction.String())
}

func TestConstraintStringIncludesOperands(t *testing.T) {
	c := constraint.NewEquals(types.Int, types.Bool, zeroRange())
	s := c.String()
	assert.Contains(t, s, "Int")
	assert.Contains(t, s, "Bool")
}

func zeroRange() token.Range { return token.Range{} }
