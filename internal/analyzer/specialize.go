package analyzer

import "github.com/mamba-lang/mamba/internal/types"

// SpecializationError reports that a placeholder would have to map to two
// different types within a single specialization. An explicit
// specialization argument that names no placeholder is reported by the
// callers as a diagnostic instead.
type SpecializationError struct {
	Message string
}

func (e *SpecializationError) Error() string { return e.Message }

// specialize structurally substitutes the placeholders of generic with the
// corresponding structural position of pattern, memoizing each placeholder
// encountered so repeated occurrences are required to agree. It recurses
// through FunctionType, ObjectType, and UnionType, treats either side
// being a type variable as not yet known enough to specialize (returns
// generic unchanged), and substitutes a TypePlaceholder outright.
//
// Builtin generic containers (List, Set) carry their placeholder only as a
// name tag — GroundType stores no element type — so specializing one is a
// no-op rather than a failure.
func specialize(generic, pattern types.Type, memo map[string]types.Type) (types.Type, error) {
	if memo == nil {
		memo = map[string]types.Type{}
	}

	if ph, ok := generic.(types.TypePlaceholder); ok {
		if prior, ok := memo[ph.Name]; ok && !typesEqual(prior, pattern) {
			return nil, &SpecializationError{Message: "placeholder '" + ph.Name + "' cannot specialize to two different types"}
		}
		memo[ph.Name] = pattern
		return pattern, nil
	}

	if _, ok := generic.(types.TVar); ok {
		return generic, nil
	}
	if _, ok := pattern.(types.TVar); ok {
		return generic, nil
	}

	if gf, ok := generic.(types.FunctionType); ok {
		if pf, ok := pattern.(types.FunctionType); ok {
			domain, err := specialize(gf.Domain, pf.Domain, memo)
			if err != nil {
				return nil, err
			}
			codomain, err := specialize(gf.Codomain, pf.Codomain, memo)
			if err != nil {
				return nil, err
			}
			return types.FunctionType{Domain: domain, Codomain: codomain, Placeholders: gf.Placeholders}, nil
		}
		return generic, nil
	}

	if go_, ok := generic.(types.ObjectType); ok {
		if po, ok := pattern.(types.ObjectType); ok {
			props := map[string]types.Type{}
			for _, name := range go_.Names {
				if pt, ok := po.Properties[name]; ok {
					specialized, err := specialize(go_.Properties[name], pt, memo)
					if err != nil {
						return nil, err
					}
					props[name] = specialized
				} else {
					props[name] = go_.Properties[name]
				}
			}
			return types.NewObjectType(go_.Names, props, go_.Placeholders), nil
		}
		return generic, nil
	}

	if gu, ok := generic.(types.UnionType); ok {
		if pu, ok := pattern.(types.UnionType); ok && len(pu.Members) == len(gu.Members) {
			members := make([]types.Type, len(gu.Members))
			for i, m := range gu.Members {
				specialized, err := specialize(m, pu.Members[i], memo)
				if err != nil {
					return nil, err
				}
				members[i] = specialized
			}
			return types.UnionType{Members: members}, nil
		}
		return generic, nil
	}

	return generic, nil
}

// specializeWithArgs substitutes the named placeholders of generic
// (typically a declared type's body) with args, used for explicit
// signature-position specialization like `List[Int]` or
// `Pair[A=Int, B=String]`. The `_0` sugar (a single unnamed argument) is
// resolved by the caller before args is built.
func specializeWithArgs(generic types.Type, args map[string]types.Type) (types.Type, error) {
	memo := map[string]types.Type{}
	return substitutePlaceholders(generic, args, memo)
}

func substitutePlaceholders(t types.Type, args map[string]types.Type, memo map[string]types.Type) (types.Type, error) {
	switch ty := t.(type) {
	case types.TypePlaceholder:
		if replacement, ok := args[ty.Name]; ok {
			if prior, ok := memo[ty.Name]; ok && !typesEqual(prior, replacement) {
				return nil, &SpecializationError{Message: "placeholder '" + ty.Name + "' cannot specialize to two different types"}
			}
			memo[ty.Name] = replacement
			return replacement, nil
		}
		return ty, nil

	case types.FunctionType:
		domain, err := substitutePlaceholders(ty.Domain, args, memo)
		if err != nil {
			return nil, err
		}
		codomain, err := substitutePlaceholders(ty.Codomain, args, memo)
		if err != nil {
			return nil, err
		}
		return types.FunctionType{Domain: domain, Codomain: codomain, Placeholders: remainingPlaceholders(ty.Placeholders, args)}, nil

	case types.ObjectType:
		props := map[string]types.Type{}
		for _, name := range ty.Names {
			substituted, err := substitutePlaceholders(ty.Properties[name], args, memo)
			if err != nil {
				return nil, err
			}
			props[name] = substituted
		}
		return types.NewObjectType(ty.Names, props, remainingPlaceholders(ty.Placeholders, args)), nil

	case types.UnionType:
		members := make([]types.Type, len(ty.Members))
		for i, m := range ty.Members {
			substituted, err := substitutePlaceholders(m, args, memo)
			if err != nil {
				return nil, err
			}
			members[i] = substituted
		}
		return types.UnionType{Members: members}, nil

	default:
		return t, nil
	}
}

// remainingPlaceholders filters names down to the placeholders args does
// not substitute, so an explicitly specialized type no longer advertises
// the slots that were just filled.
func remainingPlaceholders(names []string, args map[string]types.Type) []string {
	var out []string
	for _, name := range names {
		if _, ok := args[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// typesEqual is a shallow structural equality check used only to detect
// whether two occurrences of the same placeholder actually agree; it does
// not need to be a full type equivalence relation since it only ever
// compares against a memoized specialization target.
func typesEqual(a, b types.Type) bool {
	return a.String() == b.String()
}
