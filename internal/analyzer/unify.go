package analyzer

import (
	"github.com/mamba-lang/mamba/internal/diagnostics"
	"github.com/mamba-lang/mamba/internal/token"
	"github.com/mamba-lang/mamba/internal/types"
)

// walk follows t's substitution chain only while it is a bound type
// variable, returning the first non-variable (or still-unbound variable)
// it finds.
func walk(t types.Type, sub types.Subst) types.Type {
	v, ok := t.(types.TVar)
	if !ok {
		return t
	}
	if replacement, ok := sub[v.ID]; ok {
		return walk(replacement, sub)
	}
	return t
}

// deepWalk rebuilds t with every nested type walked, so a caller gets back
// a type with no remaining bound variables anywhere inside it (used for the
// final solution and for error messages). Object types can be cyclic
// through variables, so a variable already being expanded on the current
// path is returned as-is rather than expanded again.
func deepWalk(t types.Type, sub types.Subst) types.Type {
	return deepWalkGuarded(t, sub, map[int]bool{})
}

func deepWalkGuarded(t types.Type, sub types.Subst, visiting map[int]bool) types.Type {
	switch ty := t.(type) {
	case types.TVar:
		if visiting[ty.ID] {
			return ty
		}
		w := walk(ty, sub)
		if _, stillVar := w.(types.TVar); stillVar {
			return w
		}
		visiting[ty.ID] = true
		out := deepWalkGuarded(w, sub, visiting)
		delete(visiting, ty.ID)
		return out
	case types.FunctionType:
		return types.FunctionType{
			Domain:       deepWalkGuarded(ty.Domain, sub, visiting),
			Codomain:     deepWalkGuarded(ty.Codomain, sub, visiting),
			Placeholders: ty.Placeholders,
		}
	case types.ObjectType:
		props := map[string]types.Type{}
		for _, name := range ty.Names {
			props[name] = deepWalkGuarded(ty.Properties[name], sub, visiting)
		}
		return types.NewObjectType(ty.Names, props, ty.Placeholders)
	case types.UnionType:
		members := make([]types.Type, len(ty.Members))
		for i, m := range ty.Members {
			members[i] = deepWalkGuarded(m, sub, visiting)
		}
		return types.UnionType{Members: members}
	default:
		return t
	}
}

// sugarProperty returns the sole property of an ObjectType that uses the
// `_0` single-property label-omission sugar, and true if it applies.
func sugarProperty(t types.ObjectType) (types.Type, bool) {
	if t.Len() == 1 {
		if v, ok := t.Properties["_0"]; ok {
			return v, true
		}
	}
	return nil, false
}

// unify finds a substitution under which ty0 and ty1 are the same type,
// extending sub in place. It is strict: object types must declare exactly
// the same property names (aside from the `_0` sugar), unlike Conforms.
func unify(ty0, ty1 types.Type, rng token.Range, sub types.Subst) error {
	a := walk(ty0, sub)
	b := walk(ty1, sub)

	if typesIdentical(a, b) {
		return nil
	}

	if av, ok := a.(types.TVar); ok {
		sub[av.ID] = b
		return nil
	}
	if bv, ok := b.(types.TVar); ok {
		sub[bv.ID] = a
		return nil
	}

	if af, ok := a.(types.FunctionType); ok {
		if bf, ok := b.(types.FunctionType); ok {
			if err := unify(af.Domain, bf.Domain, rng, sub); err != nil {
				return err
			}
			return unify(af.Codomain, bf.Codomain, rng, sub)
		}
	}

	if ao, ok := a.(types.ObjectType); ok {
		if bo, ok := b.(types.ObjectType); ok {
			// Label-omission sugar: `{_0: T}` on either side unifies T with
			// the other side's sole property.
			if av, ok := sugarProperty(ao); ok && bo.Len() == 1 {
				_, bv := bo.SoleProperty()
				return unify(av, bv, rng, sub)
			}
			if bv, ok := sugarProperty(bo); ok && ao.Len() == 1 {
				_, av := ao.SoleProperty()
				return unify(av, bv, rng, sub)
			}
			if len(ao.Names) != len(bo.Names) {
				return diagnostics.New(diagnostics.PhaseSolver, diagnostics.ErrU002, rng, deepWalk(a, sub).String(), deepWalk(b, sub).String())
			}
			for _, name := range ao.Names {
				bt, ok := bo.Properties[name]
				if !ok {
					return diagnostics.New(diagnostics.PhaseSolver, diagnostics.ErrU002, rng, deepWalk(a, sub).String(), deepWalk(b, sub).String())
				}
				if err := unify(ao.Properties[name], bt, rng, sub); err != nil {
					return err
				}
			}
			return nil
		}
	}

	return diagnostics.New(diagnostics.PhaseSolver, diagnostics.ErrU001, rng, a.String(), b.String())
}

// typesIdentical reports whether a and b are trivially the same type
// without needing unification: same variable id, same ground type, or the
// same named placeholder (two occurrences of a placeholder name denote the
// same declared slot). It is intentionally cheap: a false negative
// only costs a redundant-but-correct unification, never a wrong answer.
func typesIdentical(a, b types.Type) bool {
	switch at := a.(type) {
	case types.TVar:
		bt, ok := b.(types.TVar)
		return ok && at.ID == bt.ID
	case types.GroundType:
		bt, ok := b.(types.GroundType)
		return ok && at.Name == bt.Name
	case types.TypePlaceholder:
		bt, ok := b.(types.TypePlaceholder)
		return ok && at.Name == bt.Name
	default:
		return false
	}
}

// conforms checks the permissive width-subtyping relation: every
// property the lhs demands must exist on the rhs with a conforming type,
// while the rhs may carry additional properties the lhs never asks for —
// `{level: Int}` conforms to `{name: String, level: Int}`. The empty
// Object is the conformance top: anything conforms to it. This is
// deliberately not unify, which requires identical key sets.
func conforms(demanded, actual types.Type, rng token.Range, sub types.Subst) error {
	a := walk(demanded, sub)
	b := walk(actual, sub)

	if typesIdentical(a, b) {
		return nil
	}

	if av, ok := a.(types.TVar); ok {
		sub[av.ID] = b
		return nil
	}
	if bv, ok := b.(types.TVar); ok {
		sub[bv.ID] = a
		return nil
	}

	if bo, ok := b.(types.ObjectType); ok && bo.Len() == 0 {
		return nil
	}

	if ao, ok := a.(types.ObjectType); ok {
		if bo, ok := b.(types.ObjectType); ok {
			// Label-omission sugar: `{_0: T}` on either side conforms against
			// the other side's sole property.
			if av, ok := sugarProperty(ao); ok && bo.Len() == 1 {
				_, bv := bo.SoleProperty()
				return conforms(av, bv, rng, sub)
			}
			if bv, ok := sugarProperty(bo); ok && ao.Len() == 1 {
				_, av := ao.SoleProperty()
				return conforms(av, bv, rng, sub)
			}
			for _, name := range ao.Names {
				bt, ok := bo.Properties[name]
				if !ok {
					return diagnostics.New(diagnostics.PhaseSolver, diagnostics.ErrU004, rng, deepWalk(b, sub).String(), name)
				}
				if err := conforms(ao.Properties[name], bt, rng, sub); err != nil {
					return err
				}
			}
			return nil
		}
	}

	return unify(a, b, rng, sub)
}
