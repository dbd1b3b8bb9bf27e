// Package constraint defines the constraint language the inferer emits and
// the solver consumes: equality, conformance, specialization, and
// disjunction, each carrying the source range of the node that produced it.
package constraint

import (
	"fmt"

	"github.com/mamba-lang/mamba/internal/token"
	"github.com/mamba-lang/mamba/internal/types"
)

// Kind identifies the shape of a Constraint. Declaration order matters: it
// is the solver's sort key, so cheap, variable-collapsing constraints
// (Equals) always run before the ones that read those variables, and
// Disjunction forks the search only after everything else has had a chance
// to collapse.
type Kind int

const (
	Equals Kind = iota
	Conforms
	Specializes
	Disjunction
)

func (k Kind) String() string {
	switch k {
	case Equals:
		return "equals"
	case Conforms:
		return "conforms"
	case Specializes:
		return "specializes"
	case Disjunction:
		return "disjunction"
	default:
		return "unknown"
	}
}

// Constraint is one unit of work for the solver.
type Constraint struct {
	Kind  Kind
	Range token.Range

	// Equals, Conforms: Lhs must relate to Rhs.
	Lhs types.Type
	Rhs types.Type

	// Specializes: Lhs must be a specialization of Rhs, optionally guided
	// by explicit named arguments (Args) keyed by placeholder name, or by
	// the single unnamed `_0` sugar (Args["_0"]).
	Args map[string]types.Type

	// Disjunction: exactly one of Choices must hold for the whole
	// constraint to hold. Each choice is itself a single Specializes
	// constraint naming one overload candidate (see
	// ConstraintInferer.VisitIdentifier).
	Choices []Constraint
}

// NewEquals builds an Equals constraint.
func NewEquals(lhs, rhs types.Type, rng token.Range) Constraint {
	return Constraint{Kind: Equals, Lhs: lhs, Rhs: rhs, Range: rng}
}

// NewConforms builds a Conforms constraint: lhs must conform to rhs. The
// solver checks that every property of lhs exists on rhs with a conforming
// type (rhs may carry more), and an rhs that is the empty Object accepts
// anything.
func NewConforms(lhs, rhs types.Type, rng token.Range) Constraint {
	return Constraint{Kind: Conforms, Lhs: lhs, Rhs: rhs, Range: rng}
}

// NewSpecializes builds a Specializes constraint: lhs must be a
// specialization of rhs under some assignment of rhs's placeholders,
// optionally seeded by args.
func NewSpecializes(lhs, rhs types.Type, args map[string]types.Type, rng token.Range) Constraint {
	return Constraint{Kind: Specializes, Lhs: lhs, Rhs: rhs, Args: args, Range: rng}
}

// NewDisjunction builds a Disjunction constraint over choices.
func NewDisjunction(choices []Constraint, rng token.Range) Constraint {
	return Constraint{Kind: Disjunction, Choices: choices, Range: rng}
}

func (c Constraint) String() string {
	loc := c.Range.Start.String()
	switch c.Kind {
	case Equals:
		return fmt.Sprintf("%s: %s = %s", loc, c.Lhs.String(), c.Rhs.String())
	case Conforms:
		return fmt.Sprintf("%s: %s ⊂ %s", loc, c.Lhs.String(), c.Rhs.String())
	case Specializes:
		return fmt.Sprintf("%s: %s ⊨ %s", loc, c.Lhs.String(), c.Rhs.String())
	case Disjunction:
		return fmt.Sprintf("%s: disjunction of %d choices", loc, len(c.Choices))
	default:
		return loc
	}
}

// Less orders constraints by Kind, matching the solver's processing order.
func Less(a, b Constraint) bool {
	return a.Kind < b.Kind
}
